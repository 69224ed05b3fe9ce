package social

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/eduverse/tutorhub-server-go/internal/features/identity"
	"github.com/eduverse/tutorhub-server-go/internal/store"
)

func newTestStore() *store.Store {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return store.New(store.NewMemoryBackend(), logger)
}

func seedAccounts(t *testing.T, st *store.Store, emails ...string) []identity.Account {
	t.Helper()

	accounts := make([]identity.Account, 0, len(emails))
	for _, email := range emails {
		acct, err := identity.CreateOrUpdateAccount(context.Background(), st, identity.Account{
			Email: email,
			Name:  email,
		})
		if err != nil {
			t.Fatalf("seed account %s: %v", email, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts
}

func reload(t *testing.T, st *store.Store, id string) identity.Account {
	t.Helper()

	acct, err := identity.FindByID(context.Background(), st, id)
	if err != nil {
		t.Fatalf("reload %s: %v", id, err)
	}
	return acct
}

func TestFriendRequestLifecycle(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	accts := seedAccounts(t, st, "a@x.com", "b@x.com")
	alice, bob := accts[0], accts[1]

	if _, err := SendFriendRequest(ctx, st, alice.ID, bob.ID); err != nil {
		t.Fatalf("send request: %v", err)
	}

	if !contains(reload(t, st, bob.ID).PendingFriendRequesterIDs, alice.ID) {
		t.Fatalf("expected pending request on receiver")
	}

	// resending is a no-op, not an error
	if _, err := SendFriendRequest(ctx, st, alice.ID, bob.ID); err != nil {
		t.Fatalf("expected idempotent resend, got %v", err)
	}
	if got := len(reload(t, st, bob.ID).PendingFriendRequesterIDs); got != 1 {
		t.Fatalf("expected single pending entry, got %d", got)
	}

	if _, err := AcceptFriendRequest(ctx, st, bob.ID, alice.ID); err != nil {
		t.Fatalf("accept request: %v", err)
	}

	aliceNow, bobNow := reload(t, st, alice.ID), reload(t, st, bob.ID)
	if !contains(aliceNow.FriendIDs, bob.ID) || !contains(bobNow.FriendIDs, alice.ID) {
		t.Fatalf("expected symmetric friendship")
	}
	if len(bobNow.PendingFriendRequesterIDs) != 0 {
		t.Fatalf("expected pending cleared after accept")
	}
}

func TestAcceptWithoutPendingFails(t *testing.T) {
	st := newTestStore()
	accts := seedAccounts(t, st, "a@x.com", "b@x.com")

	if _, err := AcceptFriendRequest(context.Background(), st, accts[1].ID, accts[0].ID); !errors.Is(err, ErrNoPendingRequest) {
		t.Fatalf("expected ErrNoPendingRequest, got %v", err)
	}
}

func TestSelfRequestRefused(t *testing.T) {
	st := newTestStore()
	accts := seedAccounts(t, st, "a@x.com")

	if _, err := SendFriendRequest(context.Background(), st, accts[0].ID, accts[0].ID); !errors.Is(err, ErrSelfRequest) {
		t.Fatalf("expected ErrSelfRequest, got %v", err)
	}
}

func TestRequestToBlockerRefused(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	accts := seedAccounts(t, st, "a@x.com", "b@x.com")
	alice, bob := accts[0], accts[1]

	if _, err := BlockUser(ctx, st, bob.ID, alice.ID); err != nil {
		t.Fatalf("block: %v", err)
	}

	if _, err := SendFriendRequest(ctx, st, alice.ID, bob.ID); !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
}

func TestBlockSeversFriendshipBothSides(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	accts := seedAccounts(t, st, "a@x.com", "b@x.com")
	alice, bob := accts[0], accts[1]

	if _, err := SendFriendRequest(ctx, st, alice.ID, bob.ID); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if _, err := AcceptFriendRequest(ctx, st, bob.ID, alice.ID); err != nil {
		t.Fatalf("accept request: %v", err)
	}

	if _, err := BlockUser(ctx, st, alice.ID, bob.ID); err != nil {
		t.Fatalf("block: %v", err)
	}

	aliceNow, bobNow := reload(t, st, alice.ID), reload(t, st, bob.ID)
	if contains(aliceNow.FriendIDs, bob.ID) || contains(bobNow.FriendIDs, alice.ID) {
		t.Fatalf("expected friendship severed on both records")
	}
	if !contains(aliceNow.BlockedIDs, bob.ID) {
		t.Fatalf("expected target on blocker's list")
	}
	if contains(bobNow.BlockedIDs, alice.ID) {
		t.Fatalf("expected block to be one-directional")
	}
}

func TestUnblockDoesNotRestoreFriendship(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	accts := seedAccounts(t, st, "a@x.com", "b@x.com")
	alice, bob := accts[0], accts[1]

	if _, err := SendFriendRequest(ctx, st, alice.ID, bob.ID); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if _, err := AcceptFriendRequest(ctx, st, bob.ID, alice.ID); err != nil {
		t.Fatalf("accept request: %v", err)
	}
	if _, err := BlockUser(ctx, st, alice.ID, bob.ID); err != nil {
		t.Fatalf("block: %v", err)
	}

	if _, err := UnblockUser(ctx, st, alice.ID, bob.ID); err != nil {
		t.Fatalf("unblock: %v", err)
	}

	aliceNow := reload(t, st, alice.ID)
	if contains(aliceNow.BlockedIDs, bob.ID) {
		t.Fatalf("expected block removed")
	}
	if contains(aliceNow.FriendIDs, bob.ID) {
		t.Fatalf("expected friendship to stay severed")
	}
}

func TestRemoveFriendIsSymmetricAndIdempotent(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	accts := seedAccounts(t, st, "a@x.com", "b@x.com")
	alice, bob := accts[0], accts[1]

	if _, err := SendFriendRequest(ctx, st, alice.ID, bob.ID); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if _, err := AcceptFriendRequest(ctx, st, bob.ID, alice.ID); err != nil {
		t.Fatalf("accept request: %v", err)
	}

	if _, err := RemoveFriend(ctx, st, alice.ID, bob.ID); err != nil {
		t.Fatalf("remove friend: %v", err)
	}

	if contains(reload(t, st, bob.ID).FriendIDs, alice.ID) {
		t.Fatalf("expected friendship removed on the other record too")
	}

	// removing an absent friendship succeeds without writing
	if _, err := RemoveFriend(ctx, st, alice.ID, bob.ID); err != nil {
		t.Fatalf("expected idempotent remove, got %v", err)
	}
}

func TestListFriendsSkipsDanglingIDs(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	accts := seedAccounts(t, st, "a@x.com", "b@x.com")
	alice, bob := accts[0], accts[1]

	if _, err := SendFriendRequest(ctx, st, alice.ID, bob.ID); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if _, err := AcceptFriendRequest(ctx, st, bob.ID, alice.ID); err != nil {
		t.Fatalf("accept request: %v", err)
	}

	// simulate a deleted account leaving a dangling friend id
	err := st.Update(ctx, store.CollectionAccounts, func(read func(dest interface{}) bool) (interface{}, error) {
		doc := identity.LoadDocument(read)
		delete(doc.Accounts, bob.ID)
		return doc, nil
	})
	if err != nil {
		t.Fatalf("delete account: %v", err)
	}

	friends, err := ListFriends(ctx, st, alice.ID)
	if err != nil {
		t.Fatalf("list friends: %v", err)
	}
	if len(friends) != 0 {
		t.Fatalf("expected dangling id skipped, got %d entries", len(friends))
	}
}
