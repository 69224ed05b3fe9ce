package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/eduverse/tutorhub-server-go/internal/store"
	"github.com/eduverse/tutorhub-server-go/pkg/pagination"
	"github.com/eduverse/tutorhub-server-go/pkg/types"
)

// Account represents a platform account. The password hash, verification code
// and device token are stripped before an account ever leaves the API.
type Account struct {
	ID                        string         `json:"id"`
	Email                     string         `json:"email"`
	Name                      string         `json:"name"`
	PasswordHash              string         `json:"passwordSecret,omitempty"`
	Role                      types.Role     `json:"role"`
	Verified                  bool           `json:"isVerified"`
	VerificationCode          string         `json:"verificationCode,omitempty"`
	DeviceToken               string         `json:"deviceToken,omitempty"`
	LastLoginAt               *time.Time     `json:"lastLoginAt,omitempty"`
	EnrolledBatchIDs          pq.StringArray `json:"enrolledBatchIds"`
	FriendIDs                 pq.StringArray `json:"friendIds"`
	PendingFriendRequesterIDs pq.StringArray `json:"pendingFriendRequesterIds"`
	BlockedIDs                pq.StringArray `json:"blockedIds"`
	CreatedAt                 time.Time      `json:"createdAt"`
	UpdatedAt                 time.Time      `json:"updatedAt"`
}

// Sanitized returns a copy safe for API responses and session snapshots.
func (a Account) Sanitized() Account {
	a.PasswordHash = ""
	a.VerificationCode = ""
	a.DeviceToken = ""
	return a
}

// CheckPassword compares a plaintext password against the stored hash.
func (a *Account) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// normalize fills nil id sets so callers never see null relationship arrays.
func (a *Account) normalize() {
	if a.EnrolledBatchIDs == nil {
		a.EnrolledBatchIDs = pq.StringArray{}
	}
	if a.FriendIDs == nil {
		a.FriendIDs = pq.StringArray{}
	}
	if a.PendingFriendRequesterIDs == nil {
		a.PendingFriendRequesterIDs = pq.StringArray{}
	}
	if a.BlockedIDs == nil {
		a.BlockedIDs = pq.StringArray{}
	}
}

// Session is a snapshot of an account plus the device token that was current
// when it was issued. It stays valid only while the account's stored token
// matches.
type Session struct {
	Account     Account   `json:"account"`
	DeviceToken string    `json:"deviceToken"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// Document is the persisted accounts collection: accounts keyed by id with a
// unique email index for constant-time email lookups.
type Document struct {
	Accounts   map[string]Account `json:"accounts"`
	EmailIndex map[string]string  `json:"emailIndex"`
}

// LoadDocument reads the accounts document through a store reader, returning
// an initialized empty document when the collection is absent.
func LoadDocument(read func(dest interface{}) bool) *Document {
	doc := &Document{}
	read(doc)
	if doc.Accounts == nil {
		doc.Accounts = make(map[string]Account)
	}
	if doc.EmailIndex == nil {
		doc.EmailIndex = make(map[string]string)
	}
	return doc
}

// ByEmail resolves an account through the email index.
func (d *Document) ByEmail(email string) (Account, bool) {
	id, ok := d.EmailIndex[NormalizeEmail(email)]
	if !ok {
		return Account{}, false
	}
	acct, ok := d.Accounts[id]
	return acct, ok
}

// Put stores an account and keeps the email index in sync.
func (d *Document) Put(acct Account) {
	d.Accounts[acct.ID] = acct
	d.EmailIndex[NormalizeEmail(acct.Email)] = acct.ID
}

// NormalizeEmail lowercases and trims an email for use as the unique key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AppendUnique adds id to the set if absent, reporting whether it was added.
func AppendUnique(set pq.StringArray, id string) (pq.StringArray, bool) {
	for _, existing := range set {
		if existing == id {
			return set, false
		}
	}
	return append(set, id), true
}

// RemoveID removes id from the set, reporting whether it was present.
func RemoveID(set pq.StringArray, id string) (pq.StringArray, bool) {
	for i, existing := range set {
		if existing == id {
			return append(set[:i:i], set[i+1:]...), true
		}
	}
	return set, false
}

// CreateOrUpdateAccount upserts an account by email. The first account ever
// stored is promoted to admin and marked verified regardless of the supplied
// fields. Missing relationship sets are normalized to empty and a missing id
// gets a generated one; caller-supplied ids are never rejected.
func CreateOrUpdateAccount(ctx context.Context, st *store.Store, acct Account) (Account, error) {
	email := NormalizeEmail(acct.Email)
	if email == "" {
		return Account{}, ErrMissingFields
	}

	var stored Account
	err := st.Update(ctx, store.CollectionAccounts, func(read func(dest interface{}) bool) (interface{}, error) {
		doc := LoadDocument(read)
		now := time.Now()

		if existing, ok := doc.ByEmail(email); ok {
			// id is immutable once assigned
			acct.ID = existing.ID
			acct.CreatedAt = existing.CreatedAt
			if acct.PasswordHash == "" {
				acct.PasswordHash = existing.PasswordHash
			}
		} else {
			if acct.ID == "" {
				acct.ID = uuid.NewString()
			}
			acct.CreatedAt = now
			if len(doc.Accounts) == 0 {
				// bootstrap rule: the very first account is the platform admin
				acct.Role = types.RoleAdmin
				acct.Verified = true
				acct.VerificationCode = ""
			}
		}

		if acct.Role == "" {
			acct.Role = types.RoleStudent
		}
		acct.Email = email
		acct.UpdatedAt = now
		acct.normalize()

		doc.Put(acct)
		stored = acct
		return doc, nil
	})
	if err != nil {
		return Account{}, err
	}

	return stored, nil
}

// FindByEmail resolves an account through the email index.
func FindByEmail(ctx context.Context, st *store.Store, email string) (Account, error) {
	var doc Document
	st.Read(ctx, store.CollectionAccounts, &doc)
	if doc.Accounts == nil {
		return Account{}, ErrAccountNotFound
	}

	id, ok := doc.EmailIndex[NormalizeEmail(email)]
	if !ok {
		return Account{}, ErrAccountNotFound
	}

	acct, ok := doc.Accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acct, nil
}

// FindByID resolves an account by its primary id.
func FindByID(ctx context.Context, st *store.Store, id string) (Account, error) {
	var doc Document
	st.Read(ctx, store.CollectionAccounts, &doc)

	acct, ok := doc.Accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return acct, nil
}

// ListAccounts returns sanitized accounts sorted by creation time descending.
func ListAccounts(ctx context.Context, st *store.Store, params pagination.Params) ([]Account, int64, error) {
	var doc Document
	st.Read(ctx, store.CollectionAccounts, &doc)

	accounts := make([]Account, 0, len(doc.Accounts))
	for _, acct := range doc.Accounts {
		accounts = append(accounts, acct.Sanitized())
	}

	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})

	total := int64(len(accounts))
	if params.Skip >= len(accounts) {
		return []Account{}, total, nil
	}

	end := params.Skip + params.Limit
	if end > len(accounts) {
		end = len(accounts)
	}

	return accounts[params.Skip:end], total, nil
}

// VerifyEmail checks the stored verification code. On an exact match the code
// is cleared and the account marked verified.
func VerifyEmail(ctx context.Context, st *store.Store, email, code string) (Account, error) {
	var verified Account
	err := st.Update(ctx, store.CollectionAccounts, func(read func(dest interface{}) bool) (interface{}, error) {
		doc := LoadDocument(read)

		acct, ok := doc.ByEmail(email)
		if !ok {
			return nil, ErrAccountNotFound
		}

		if acct.Verified {
			verified = acct
			return nil, nil
		}

		if acct.VerificationCode == "" || strings.TrimSpace(code) != acct.VerificationCode {
			return nil, ErrInvalidCode
		}

		acct.Verified = true
		acct.VerificationCode = ""
		acct.UpdatedAt = time.Now()
		doc.Put(acct)
		verified = acct
		return doc, nil
	})
	if err != nil {
		return Account{}, err
	}

	return verified, nil
}

// RegenerateVerificationCode stores a fresh code for an unverified account and
// returns it so the caller can hand it to the external mail sender.
func RegenerateVerificationCode(ctx context.Context, st *store.Store, email string) (string, error) {
	code := newVerificationCode()

	err := st.Update(ctx, store.CollectionAccounts, func(read func(dest interface{}) bool) (interface{}, error) {
		doc := LoadDocument(read)

		acct, ok := doc.ByEmail(email)
		if !ok {
			return nil, ErrAccountNotFound
		}
		if acct.Verified {
			return nil, ErrAlreadyVerified
		}

		acct.VerificationCode = code
		acct.UpdatedAt = time.Now()
		doc.Put(acct)
		return doc, nil
	})
	if err != nil {
		return "", err
	}

	return code, nil
}

// Login checks credentials. Unverified accounts fail with ErrNotVerified so
// the caller can re-trigger verification instead of completing login.
func Login(ctx context.Context, st *store.Store, email, password string) (Account, error) {
	acct, err := FindByEmail(ctx, st, email)
	if err != nil {
		return Account{}, err
	}

	if !acct.CheckPassword(password) {
		return Account{}, ErrInvalidCredentials
	}

	if !acct.Verified {
		return Account{}, ErrNotVerified
	}

	return acct, nil
}

// IssueSession stores a fresh device token on the account, revoking every
// previously issued session, and returns the new session snapshot.
func IssueSession(ctx context.Context, st *store.Store, email string) (Session, error) {
	var session Session
	err := st.Update(ctx, store.CollectionAccounts, func(read func(dest interface{}) bool) (interface{}, error) {
		doc := LoadDocument(read)

		acct, ok := doc.ByEmail(email)
		if !ok {
			return nil, ErrAccountNotFound
		}

		now := time.Now()
		acct.DeviceToken = newDeviceToken(now)
		acct.LastLoginAt = &now
		acct.UpdatedAt = now
		doc.Put(acct)

		session = Session{
			Account:     acct.Sanitized(),
			DeviceToken: acct.DeviceToken,
			IssuedAt:    now,
		}
		return doc, nil
	})
	if err != nil {
		return Session{}, err
	}

	return session, nil
}

// ValidateSession reloads the account and fails unless its current device
// token matches the one the session was issued with. Issuing a new session
// anywhere invalidates all older ones on their next check.
func ValidateSession(ctx context.Context, st *store.Store, email, deviceToken string) (Account, error) {
	acct, err := FindByEmail(ctx, st, email)
	if err != nil {
		return Account{}, ErrSessionInvalid
	}

	if deviceToken == "" || acct.DeviceToken != deviceToken {
		return Account{}, ErrSessionInvalid
	}

	return acct, nil
}

// UpdateProfile changes the account's display name and optionally its password.
func UpdateProfile(ctx context.Context, st *store.Store, email string, name *string, password *string) (Account, error) {
	var updated Account
	err := st.Update(ctx, store.CollectionAccounts, func(read func(dest interface{}) bool) (interface{}, error) {
		doc := LoadDocument(read)

		acct, ok := doc.ByEmail(email)
		if !ok {
			return nil, ErrAccountNotFound
		}

		if name != nil {
			trimmed := strings.TrimSpace(*name)
			if trimmed == "" {
				return nil, ErrMissingFields
			}
			acct.Name = trimmed
		}

		if password != nil {
			if len(*password) < 8 {
				return nil, ErrWeakPassword
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(*password), 10)
			if err != nil {
				return nil, err
			}
			acct.PasswordHash = string(hash)
		}

		acct.UpdatedAt = time.Now()
		doc.Put(acct)
		updated = acct
		return doc, nil
	})
	if err != nil {
		return Account{}, err
	}

	return updated, nil
}

// HashPassword bcrypt-hashes a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// NewVerificationCode exposes code generation for signup flows.
func NewVerificationCode() string {
	return newVerificationCode()
}

func newVerificationCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand failure is unrecoverable for codes; fall back to uuid entropy
		return uuid.NewString()[:6]
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// newDeviceToken builds an unpredictable token from time plus uuid entropy.
func newDeviceToken(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())
}
