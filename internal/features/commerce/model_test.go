package commerce

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/eduverse/tutorhub-server-go/internal/features/identity"
	"github.com/eduverse/tutorhub-server-go/internal/store"
	"github.com/eduverse/tutorhub-server-go/pkg/types"
)

func newTestStore() *store.Store {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return store.New(store.NewMemoryBackend(), logger)
}

func seedAccount(t *testing.T, st *store.Store, email string) identity.Account {
	t.Helper()

	acct, err := identity.CreateOrUpdateAccount(context.Background(), st, identity.Account{
		Email: email,
		Name:  email,
	})
	if err != nil {
		t.Fatalf("seed account %s: %v", email, err)
	}
	return acct
}

func TestCouponCodeIsCaseInsensitive(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	if _, err := SaveCoupon(ctx, st, Coupon{
		Code:         "special500",
		DiscountType: types.DiscountFlat,
		Value:        types.NewMoney(500),
		IsActive:     true,
	}); err != nil {
		t.Fatalf("save coupon: %v", err)
	}

	coupon, err := ValidateCoupon(ctx, st, "SPECIAL500")
	if err != nil {
		t.Fatalf("expected case-insensitive lookup, got %v", err)
	}
	if coupon.Code != "SPECIAL500" {
		t.Fatalf("expected stored code uppercased, got %q", coupon.Code)
	}

	if _, err := ValidateCoupon(ctx, st, "  special500  "); err != nil {
		t.Fatalf("expected trimmed lookup to succeed, got %v", err)
	}
}

func TestInactiveCouponFailsValidation(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	if _, err := SaveCoupon(ctx, st, Coupon{
		Code:         "EXPIRED",
		DiscountType: types.DiscountFlat,
		Value:        types.NewMoney(100),
		IsActive:     false,
	}); err != nil {
		t.Fatalf("save coupon: %v", err)
	}

	if _, err := ValidateCoupon(ctx, st, "EXPIRED"); !errors.Is(err, ErrCouponInactive) {
		t.Fatalf("expected ErrCouponInactive, got %v", err)
	}
	if _, err := ValidateCoupon(ctx, st, "MISSING"); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound, got %v", err)
	}
}

func TestSaveCouponRejectsNonPositiveValue(t *testing.T) {
	st := newTestStore()

	if _, err := SaveCoupon(context.Background(), st, Coupon{
		Code:         "FREE",
		DiscountType: types.DiscountFlat,
		Value:        types.NewMoney(0),
		IsActive:     true,
	}); !errors.Is(err, ErrInvalidDiscount) {
		t.Fatalf("expected ErrInvalidDiscount for zero value, got %v", err)
	}
}

func TestSaveCouponKeepsIDAcrossResaves(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	first, err := SaveCoupon(ctx, st, Coupon{
		Code:         "WELCOME",
		DiscountType: types.DiscountFlat,
		Value:        types.NewMoney(100),
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("save coupon: %v", err)
	}
	if first.ID == "" {
		t.Fatalf("expected an id to be assigned")
	}

	// replacing the same code keeps its identity
	second, err := SaveCoupon(ctx, st, Coupon{
		Code:         "welcome",
		DiscountType: types.DiscountFlat,
		Value:        types.NewMoney(200),
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("re-save coupon: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected id %q preserved, got %q", first.ID, second.ID)
	}

	// a caller-supplied id is stored as given
	custom, err := SaveCoupon(ctx, st, Coupon{
		ID:           "coupon-42",
		Code:         "CUSTOM",
		DiscountType: types.DiscountFlat,
		Value:        types.NewMoney(50),
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("save custom coupon: %v", err)
	}
	if custom.ID != "coupon-42" {
		t.Fatalf("expected caller-supplied id kept, got %q", custom.ID)
	}
}

func TestApplyCoupon(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	if _, err := SaveCoupon(ctx, st, Coupon{
		Code: "SPECIAL500", DiscountType: types.DiscountFlat,
		Value: types.NewMoney(500), IsActive: true,
	}); err != nil {
		t.Fatalf("save flat coupon: %v", err)
	}
	if _, err := SaveCoupon(ctx, st, Coupon{
		Code: "HALF", DiscountType: types.DiscountPercent,
		Value: types.NewMoney(50), IsActive: true,
	}); err != nil {
		t.Fatalf("save percent coupon: %v", err)
	}

	flat, _, err := ApplyCoupon(ctx, st, types.NewMoney(2000), "SPECIAL500")
	if err != nil {
		t.Fatalf("apply flat: %v", err)
	}
	if flat.Int64() != 1500 {
		t.Fatalf("expected 1500 after flat 500 off 2000, got %d", flat.Int64())
	}

	percent, _, err := ApplyCoupon(ctx, st, types.NewMoney(2000), "HALF")
	if err != nil {
		t.Fatalf("apply percent: %v", err)
	}
	if percent.Int64() != 1000 {
		t.Fatalf("expected 1000 after 50%% off 2000, got %d", percent.Int64())
	}

	// discount larger than the amount floors at zero
	floored, _, err := ApplyCoupon(ctx, st, types.NewMoney(300), "SPECIAL500")
	if err != nil {
		t.Fatalf("apply oversized flat: %v", err)
	}
	if !floored.IsZero() {
		t.Fatalf("expected floor at zero, got %s", floored.String())
	}
}

func TestEnrollmentApprovalGrantsBatchOnce(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	user := seedAccount(t, st, "student@x.com")

	req, err := CreateEnrollmentRequest(ctx, st, EnrollmentRequest{
		UserID:    user.ID,
		UserName:  user.Name,
		UserEmail: user.Email,
		BatchID:   "batch-1",
		BatchName: "Physics Batch 1",
		Amount:    types.NewMoney(1500),
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if req.Status != types.EnrollmentPending {
		t.Fatalf("expected pending status, got %s", req.Status)
	}

	stored, err := ListUserRequests(ctx, st, user.ID)
	if err != nil {
		t.Fatalf("list user requests: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored request, got %d", len(stored))
	}
	if stored[0].Amount.Int64() != 1500 {
		t.Fatalf("expected recorded amount 1500, got %d", stored[0].Amount.Int64())
	}
	if stored[0].UserName != user.Name || stored[0].UserEmail != user.Email {
		t.Fatalf("expected denormalized user details, got %q / %q", stored[0].UserName, stored[0].UserEmail)
	}
	if stored[0].BatchName != "Physics Batch 1" {
		t.Fatalf("expected batch name recorded, got %q", stored[0].BatchName)
	}

	result, err := ApproveEnrollmentRequest(ctx, st, req.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.Request.Status != types.EnrollmentApproved {
		t.Fatalf("expected approved status, got %s", result.Request.Status)
	}
	if result.UserMissing {
		t.Fatalf("did not expect missing user")
	}

	// approving again must not duplicate the batch grant
	if _, err := ApproveEnrollmentRequest(ctx, st, req.ID); err != nil {
		t.Fatalf("re-approve: %v", err)
	}

	acct, err := identity.FindByID(ctx, st, user.ID)
	if err != nil {
		t.Fatalf("reload account: %v", err)
	}
	granted := 0
	for _, id := range acct.EnrolledBatchIDs {
		if id == "batch-1" {
			granted++
		}
	}
	if granted != 1 {
		t.Fatalf("expected batch granted exactly once, got %d", granted)
	}
}

func TestApproveMissingUserPersistsWithWarning(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	seedAccount(t, st, "admin@x.com")

	req, err := CreateEnrollmentRequest(ctx, st, EnrollmentRequest{UserID: "ghost-user", BatchID: "batch-1"})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	result, err := ApproveEnrollmentRequest(ctx, st, req.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !result.UserMissing {
		t.Fatalf("expected UserMissing flag")
	}
	if result.Request.Status != types.EnrollmentApproved {
		t.Fatalf("expected approval to persist despite missing user, got %s", result.Request.Status)
	}
}

func TestRejectEnrollment(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	user := seedAccount(t, st, "student@x.com")

	req, err := CreateEnrollmentRequest(ctx, st, EnrollmentRequest{UserID: user.ID, BatchID: "batch-1"})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	rejected, err := RejectEnrollmentRequest(ctx, st, req.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != types.EnrollmentRejected {
		t.Fatalf("expected rejected status, got %s", rejected.Status)
	}

	acct, err := identity.FindByID(ctx, st, user.ID)
	if err != nil {
		t.Fatalf("reload account: %v", err)
	}
	if len(acct.EnrolledBatchIDs) != 0 {
		t.Fatalf("expected no batch granted on reject, got %v", acct.EnrolledBatchIDs)
	}

	if _, err := RejectEnrollmentRequest(ctx, st, "missing"); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}
