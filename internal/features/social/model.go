package social

import (
	"context"
	"time"

	"github.com/eduverse/tutorhub-server-go/internal/features/identity"
	"github.com/eduverse/tutorhub-server-go/internal/store"
)

// All friend-graph mutations operate on the single accounts collection inside
// one serialized update, so the pair of records always changes together and
// the relationship stays symmetric.

// SendFriendRequest records a pending request from one account to another.
// It is idempotent: an existing pending request or friendship is a no-op.
// A request toward someone who has blocked the sender is refused.
func SendFriendRequest(ctx context.Context, st *store.Store, fromID, toID string) (identity.Account, error) {
	if fromID == toID {
		return identity.Account{}, ErrSelfRequest
	}

	var sender identity.Account
	err := st.Update(ctx, store.CollectionAccounts, func(read func(dest interface{}) bool) (interface{}, error) {
		doc := identity.LoadDocument(read)

		from, ok := doc.Accounts[fromID]
		if !ok {
			return nil, identity.ErrAccountNotFound
		}
		to, ok := doc.Accounts[toID]
		if !ok {
			return nil, identity.ErrAccountNotFound
		}

		if contains(to.BlockedIDs, fromID) {
			return nil, ErrBlocked
		}

		if contains(to.PendingFriendRequesterIDs, fromID) || contains(to.FriendIDs, fromID) {
			sender = from
			return nil, nil
		}

		to.PendingFriendRequesterIDs, _ = identity.AppendUnique(to.PendingFriendRequesterIDs, fromID)
		to.UpdatedAt = time.Now()
		doc.Put(to)

		sender = from
		return doc, nil
	})
	if err != nil {
		return identity.Account{}, err
	}

	return sender.Sanitized(), nil
}

// AcceptFriendRequest turns a pending request into a friendship. Both records
// gain the other's id exactly once and every pending entry between the pair
// is cleared, in either direction.
func AcceptFriendRequest(ctx context.Context, st *store.Store, userID, requesterID string) (identity.Account, error) {
	var updated identity.Account
	err := st.Update(ctx, store.CollectionAccounts, func(read func(dest interface{}) bool) (interface{}, error) {
		doc := identity.LoadDocument(read)

		user, ok := doc.Accounts[userID]
		if !ok {
			return nil, identity.ErrAccountNotFound
		}
		requester, ok := doc.Accounts[requesterID]
		if !ok {
			return nil, identity.ErrAccountNotFound
		}

		if !contains(user.PendingFriendRequesterIDs, requesterID) {
			return nil, ErrNoPendingRequest
		}

		now := time.Now()
		user.FriendIDs, _ = identity.AppendUnique(user.FriendIDs, requesterID)
		requester.FriendIDs, _ = identity.AppendUnique(requester.FriendIDs, userID)
		user.PendingFriendRequesterIDs, _ = identity.RemoveID(user.PendingFriendRequesterIDs, requesterID)
		requester.PendingFriendRequesterIDs, _ = identity.RemoveID(requester.PendingFriendRequesterIDs, userID)
		user.UpdatedAt = now
		requester.UpdatedAt = now

		doc.Put(user)
		doc.Put(requester)
		updated = user
		return doc, nil
	})
	if err != nil {
		return identity.Account{}, err
	}

	return updated.Sanitized(), nil
}

// RejectFriendRequest drops the pending entry without creating a friendship.
func RejectFriendRequest(ctx context.Context, st *store.Store, userID, requesterID string) (identity.Account, error) {
	var updated identity.Account
	err := st.Update(ctx, store.CollectionAccounts, func(read func(dest interface{}) bool) (interface{}, error) {
		doc := identity.LoadDocument(read)

		user, ok := doc.Accounts[userID]
		if !ok {
			return nil, identity.ErrAccountNotFound
		}

		pending, removed := identity.RemoveID(user.PendingFriendRequesterIDs, requesterID)
		if !removed {
			return nil, ErrNoPendingRequest
		}

		user.PendingFriendRequesterIDs = pending
		user.UpdatedAt = time.Now()
		doc.Put(user)
		updated = user
		return doc, nil
	})
	if err != nil {
		return identity.Account{}, err
	}

	return updated.Sanitized(), nil
}

// RemoveFriend deletes the friendship from both sides.
func RemoveFriend(ctx context.Context, st *store.Store, userID, friendID string) (identity.Account, error) {
	var updated identity.Account
	err := st.Update(ctx, store.CollectionAccounts, func(read func(dest interface{}) bool) (interface{}, error) {
		doc := identity.LoadDocument(read)

		user, ok := doc.Accounts[userID]
		if !ok {
			return nil, identity.ErrAccountNotFound
		}

		changed := unfriend(doc, &user, friendID)
		if !changed {
			updated = user
			return nil, nil
		}

		user.UpdatedAt = time.Now()
		doc.Put(user)
		updated = user
		return doc, nil
	})
	if err != nil {
		return identity.Account{}, err
	}

	return updated.Sanitized(), nil
}

// BlockUser adds the target to the caller's block list and severs any
// friendship or pending requests between the pair. The block itself is
// one-directional; the target is not notified.
func BlockUser(ctx context.Context, st *store.Store, userID, targetID string) (identity.Account, error) {
	if userID == targetID {
		return identity.Account{}, ErrSelfRequest
	}

	var updated identity.Account
	err := st.Update(ctx, store.CollectionAccounts, func(read func(dest interface{}) bool) (interface{}, error) {
		doc := identity.LoadDocument(read)

		user, ok := doc.Accounts[userID]
		if !ok {
			return nil, identity.ErrAccountNotFound
		}
		if _, ok := doc.Accounts[targetID]; !ok {
			return nil, identity.ErrAccountNotFound
		}

		user.BlockedIDs, _ = identity.AppendUnique(user.BlockedIDs, targetID)
		unfriend(doc, &user, targetID)
		user.PendingFriendRequesterIDs, _ = identity.RemoveID(user.PendingFriendRequesterIDs, targetID)

		if target, ok := doc.Accounts[targetID]; ok {
			target.PendingFriendRequesterIDs, _ = identity.RemoveID(target.PendingFriendRequesterIDs, userID)
			target.UpdatedAt = time.Now()
			doc.Put(target)
		}

		user.UpdatedAt = time.Now()
		doc.Put(user)
		updated = user
		return doc, nil
	})
	if err != nil {
		return identity.Account{}, err
	}

	return updated.Sanitized(), nil
}

// UnblockUser removes the target from the caller's block list. No friendship
// is restored.
func UnblockUser(ctx context.Context, st *store.Store, userID, targetID string) (identity.Account, error) {
	var updated identity.Account
	err := st.Update(ctx, store.CollectionAccounts, func(read func(dest interface{}) bool) (interface{}, error) {
		doc := identity.LoadDocument(read)

		user, ok := doc.Accounts[userID]
		if !ok {
			return nil, identity.ErrAccountNotFound
		}

		blocked, removed := identity.RemoveID(user.BlockedIDs, targetID)
		if !removed {
			updated = user
			return nil, nil
		}

		user.BlockedIDs = blocked
		user.UpdatedAt = time.Now()
		doc.Put(user)
		updated = user
		return doc, nil
	})
	if err != nil {
		return identity.Account{}, err
	}

	return updated.Sanitized(), nil
}

// ListFriends resolves the caller's friend ids to sanitized accounts.
func ListFriends(ctx context.Context, st *store.Store, userID string) ([]identity.Account, error) {
	acct, err := identity.FindByID(ctx, st, userID)
	if err != nil {
		return nil, err
	}

	return resolve(ctx, st, acct.FriendIDs)
}

// ListPendingRequests resolves accounts that have requested friendship with
// the caller.
func ListPendingRequests(ctx context.Context, st *store.Store, userID string) ([]identity.Account, error) {
	acct, err := identity.FindByID(ctx, st, userID)
	if err != nil {
		return nil, err
	}

	return resolve(ctx, st, acct.PendingFriendRequesterIDs)
}

func resolve(ctx context.Context, st *store.Store, ids []string) ([]identity.Account, error) {
	accounts := make([]identity.Account, 0, len(ids))
	for _, id := range ids {
		acct, err := identity.FindByID(ctx, st, id)
		if err != nil {
			// dangling ids are skipped, not surfaced
			continue
		}
		accounts = append(accounts, acct.Sanitized())
	}
	return accounts, nil
}

// unfriend removes the friendship between user and otherID on both records.
func unfriend(doc *identity.Document, user *identity.Account, otherID string) bool {
	friends, removed := identity.RemoveID(user.FriendIDs, otherID)
	user.FriendIDs = friends

	if other, ok := doc.Accounts[otherID]; ok {
		otherFriends, otherRemoved := identity.RemoveID(other.FriendIDs, user.ID)
		if otherRemoved {
			other.FriendIDs = otherFriends
			other.UpdatedAt = time.Now()
			doc.Put(other)
			removed = true
		}
	}

	return removed
}

func contains(set []string, id string) bool {
	for _, existing := range set {
		if existing == id {
			return true
		}
	}
	return false
}
