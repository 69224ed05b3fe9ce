package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/eduverse/tutorhub-server-go/internal/store"
	"github.com/eduverse/tutorhub-server-go/pkg/pagination"
	"github.com/eduverse/tutorhub-server-go/pkg/types"
)

func newTestStore() *store.Store {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return store.New(store.NewMemoryBackend(), logger)
}

func mustCreate(t *testing.T, st *store.Store, email, code string) Account {
	t.Helper()

	hash, err := HashPassword("secret-pass-1")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	acct, err := CreateOrUpdateAccount(context.Background(), st, Account{
		Email:            email,
		Name:             "Test User",
		PasswordHash:     hash,
		VerificationCode: code,
	})
	if err != nil {
		t.Fatalf("create account %s: %v", email, err)
	}
	return acct
}

func TestFirstAccountBecomesAdmin(t *testing.T) {
	st := newTestStore()

	first := mustCreate(t, st, "founder@example.com", "111111")
	if first.Role != types.RoleAdmin {
		t.Fatalf("expected first account to be admin, got %s", first.Role)
	}
	if !first.Verified {
		t.Fatalf("expected first account to be verified")
	}
	if first.VerificationCode != "" {
		t.Fatalf("expected first account code cleared, got %q", first.VerificationCode)
	}

	second := mustCreate(t, st, "student@example.com", "222222")
	if second.Role != types.RoleStudent {
		t.Fatalf("expected later accounts to default to student, got %s", second.Role)
	}
	if second.Verified {
		t.Fatalf("expected later accounts to start unverified")
	}
}

func TestEmailIsCaseInsensitive(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	created := mustCreate(t, st, "Mixed.Case@Example.COM", "111111")

	found, err := FindByEmail(ctx, st, "mixed.case@example.com")
	if err != nil {
		t.Fatalf("lookup by lowered email failed: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("expected same account, got %s vs %s", found.ID, created.ID)
	}
}

func TestUpsertKeepsIDAndPassword(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	mustCreate(t, st, "admin@example.com", "")
	created := mustCreate(t, st, "user@example.com", "123456")

	updated, err := CreateOrUpdateAccount(ctx, st, Account{
		Email: "user@example.com",
		Name:  "Renamed",
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	if updated.ID != created.ID {
		t.Fatalf("expected id to be immutable, got %s vs %s", updated.ID, created.ID)
	}
	if updated.PasswordHash != created.PasswordHash {
		t.Fatalf("expected password hash preserved on empty input")
	}
	if updated.Name != "Renamed" {
		t.Fatalf("expected name updated, got %q", updated.Name)
	}
}

func TestVerifyEmail(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	mustCreate(t, st, "admin@example.com", "")
	mustCreate(t, st, "user@example.com", "424242")

	if _, err := VerifyEmail(ctx, st, "user@example.com", "999999"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode for wrong code, got %v", err)
	}

	acct, err := VerifyEmail(ctx, st, "user@example.com", "424242")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !acct.Verified || acct.VerificationCode != "" {
		t.Fatalf("expected verified account with cleared code")
	}

	// verifying again is a no-op success regardless of the code
	if _, err := VerifyEmail(ctx, st, "user@example.com", "anything"); err != nil {
		t.Fatalf("expected idempotent verify, got %v", err)
	}
}

func TestLoginRequiresVerification(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	mustCreate(t, st, "admin@example.com", "")
	mustCreate(t, st, "user@example.com", "424242")

	if _, err := Login(ctx, st, "user@example.com", "secret-pass-1"); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified, got %v", err)
	}

	if _, err := Login(ctx, st, "user@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := Login(ctx, st, "ghost@example.com", "whatever"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	if _, err := VerifyEmail(ctx, st, "user@example.com", "424242"); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if _, err := Login(ctx, st, "user@example.com", "secret-pass-1"); err != nil {
		t.Fatalf("expected login to succeed after verify, got %v", err)
	}
}

func TestSecondSessionInvalidatesFirst(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	mustCreate(t, st, "admin@example.com", "")

	first, err := IssueSession(ctx, st, "admin@example.com")
	if err != nil {
		t.Fatalf("issue first session: %v", err)
	}

	if _, err := ValidateSession(ctx, st, "admin@example.com", first.DeviceToken); err != nil {
		t.Fatalf("expected first session valid, got %v", err)
	}

	second, err := IssueSession(ctx, st, "admin@example.com")
	if err != nil {
		t.Fatalf("issue second session: %v", err)
	}
	if second.DeviceToken == first.DeviceToken {
		t.Fatalf("expected a fresh device token per session")
	}

	if _, err := ValidateSession(ctx, st, "admin@example.com", first.DeviceToken); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected first session revoked, got %v", err)
	}
	if _, err := ValidateSession(ctx, st, "admin@example.com", second.DeviceToken); err != nil {
		t.Fatalf("expected second session valid, got %v", err)
	}
}

func TestValidateSessionRejectsEmptyToken(t *testing.T) {
	st := newTestStore()
	mustCreate(t, st, "admin@example.com", "")

	if _, err := ValidateSession(context.Background(), st, "admin@example.com", ""); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected empty token to be invalid, got %v", err)
	}
}

func TestRegenerateCodeOnlyWhenUnverified(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	admin := mustCreate(t, st, "admin@example.com", "")
	mustCreate(t, st, "user@example.com", "424242")

	code, err := RegenerateVerificationCode(ctx, st, "user@example.com")
	if err != nil {
		t.Fatalf("regenerate failed: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	if _, err := RegenerateVerificationCode(ctx, st, admin.Email); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got %v", err)
	}
}

func TestListAccountsNewestFirst(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	mustCreate(t, st, "a@example.com", "")
	mustCreate(t, st, "b@example.com", "1")
	mustCreate(t, st, "c@example.com", "2")

	accounts, total, err := ListAccounts(ctx, st, pagination.Params{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected page of 2, got %d", len(accounts))
	}
	for _, acct := range accounts {
		if acct.PasswordHash != "" || acct.DeviceToken != "" {
			t.Fatalf("expected sanitized accounts in listing")
		}
	}
}
