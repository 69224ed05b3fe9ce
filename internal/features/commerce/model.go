package commerce

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eduverse/tutorhub-server-go/internal/features/identity"
	"github.com/eduverse/tutorhub-server-go/internal/store"
	"github.com/eduverse/tutorhub-server-go/pkg/pagination"
	"github.com/eduverse/tutorhub-server-go/pkg/types"
)

// Coupon is a discount code. Codes are matched case-insensitively and stored
// uppercased; the id is opaque and survives re-saves of the same code.
type Coupon struct {
	ID           string             `json:"id"`
	Code         string             `json:"code"`
	DiscountType types.DiscountType `json:"discountType"`
	Value        types.Money        `json:"value"`
	IsActive     bool               `json:"isActive"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// EnrollmentRequest tracks one user's request to join a batch. The payment
// amount and the user/batch details are denormalized onto the record so the
// admin listing reads a single collection.
type EnrollmentRequest struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	UserName  string                 `json:"userName"`
	UserEmail string                 `json:"userEmail"`
	BatchID   string                 `json:"batchId"`
	BatchName string                 `json:"batchName"`
	Amount    types.Money            `json:"amount"`
	Status    types.EnrollmentStatus `json:"status"`
	Note      string                 `json:"note,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// ApprovalResult reports the outcome of approving a request. UserMissing is
// set when the request's account no longer exists: the approval itself still
// persists so the admin sees an honest partial success.
type ApprovalResult struct {
	Request     EnrollmentRequest `json:"request"`
	UserMissing bool              `json:"userMissing"`
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// SaveCoupon creates or replaces a coupon by code.
func SaveCoupon(ctx context.Context, st *store.Store, coupon Coupon) (Coupon, error) {
	coupon.Code = normalizeCode(coupon.Code)
	if coupon.Code == "" {
		return Coupon{}, ErrMissingFields
	}
	if coupon.DiscountType != types.DiscountFlat && coupon.DiscountType != types.DiscountPercent {
		return Coupon{}, ErrInvalidDiscount
	}
	if !coupon.Value.IsPositive() {
		return Coupon{}, ErrInvalidDiscount
	}
	if coupon.CreatedAt.IsZero() {
		coupon.CreatedAt = time.Now()
	}

	err := st.Update(ctx, store.CollectionCoupons, func(read func(dest interface{}) bool) (interface{}, error) {
		var coupons []Coupon
		read(&coupons)

		kept := make([]Coupon, 0, len(coupons)+1)
		for _, existing := range coupons {
			if existing.Code != coupon.Code {
				kept = append(kept, existing)
				continue
			}
			if coupon.ID == "" {
				coupon.ID = existing.ID
			}
		}
		if coupon.ID == "" {
			coupon.ID = uuid.NewString()
		}
		return append(kept, coupon), nil
	})
	if err != nil {
		return Coupon{}, err
	}

	return coupon, nil
}

// ListCoupons returns every coupon.
func ListCoupons(ctx context.Context, st *store.Store) ([]Coupon, error) {
	coupons := []Coupon{}
	st.Read(ctx, store.CollectionCoupons, &coupons)
	return coupons, nil
}

// DeleteCoupon removes a coupon by code.
func DeleteCoupon(ctx context.Context, st *store.Store, code string) error {
	code = normalizeCode(code)

	return st.Update(ctx, store.CollectionCoupons, func(read func(dest interface{}) bool) (interface{}, error) {
		var coupons []Coupon
		read(&coupons)

		kept := make([]Coupon, 0, len(coupons))
		found := false
		for _, coupon := range coupons {
			if coupon.Code == code {
				found = true
				continue
			}
			kept = append(kept, coupon)
		}

		if !found {
			return nil, ErrCouponNotFound
		}
		return kept, nil
	})
}

// ValidateCoupon resolves an active coupon by code, case-insensitively.
// Inactive coupons are treated the same as absent ones.
func ValidateCoupon(ctx context.Context, st *store.Store, code string) (Coupon, error) {
	code = normalizeCode(code)

	var coupons []Coupon
	st.Read(ctx, store.CollectionCoupons, &coupons)

	for _, coupon := range coupons {
		if coupon.Code == code {
			if !coupon.IsActive {
				return Coupon{}, ErrCouponInactive
			}
			return coupon, nil
		}
	}
	return Coupon{}, ErrCouponNotFound
}

// ApplyCoupon computes the price after a coupon, floored at zero.
func ApplyCoupon(ctx context.Context, st *store.Store, amount types.Money, code string) (types.Money, Coupon, error) {
	coupon, err := ValidateCoupon(ctx, st, code)
	if err != nil {
		return amount, Coupon{}, err
	}

	var discounted types.Money
	switch coupon.DiscountType {
	case types.DiscountPercent:
		discounted = amount.Sub(amount.Percent(coupon.Value))
	default:
		discounted = amount.Sub(coupon.Value)
	}

	if discounted.LessThan(types.NewMoney(0)) {
		discounted = types.NewMoney(0)
	}
	return discounted, coupon, nil
}

// CreateEnrollmentRequest files a pending request. The caller provides the
// paid amount and the denormalized user/batch details; id, status and
// timestamps are assigned here.
func CreateEnrollmentRequest(ctx context.Context, st *store.Store, req EnrollmentRequest) (EnrollmentRequest, error) {
	if req.UserID == "" || req.BatchID == "" {
		return EnrollmentRequest{}, ErrMissingFields
	}

	req.ID = uuid.NewString()
	req.Status = types.EnrollmentPending
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now

	err := st.Update(ctx, store.CollectionEnrollments, func(read func(dest interface{}) bool) (interface{}, error) {
		var requests []EnrollmentRequest
		read(&requests)
		return append(requests, req), nil
	})
	if err != nil {
		return EnrollmentRequest{}, err
	}

	return req, nil
}

// ListEnrollmentRequests returns requests newest first, paginated.
func ListEnrollmentRequests(ctx context.Context, st *store.Store, params pagination.Params) ([]EnrollmentRequest, int64, error) {
	var requests []EnrollmentRequest
	st.Read(ctx, store.CollectionEnrollments, &requests)

	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})

	total := int64(len(requests))
	if params.Skip >= len(requests) {
		return []EnrollmentRequest{}, total, nil
	}

	end := params.Skip + params.Limit
	if end > len(requests) {
		end = len(requests)
	}
	return requests[params.Skip:end], total, nil
}

// ApproveEnrollmentRequest marks a request approved and grants the batch to
// the user's enrolledBatchIds. The grant is idempotent, so re-approving a
// request never duplicates the batch. A request whose account has been
// deleted still gets its status persisted; the result flags the missing user.
func ApproveEnrollmentRequest(ctx context.Context, st *store.Store, id string) (ApprovalResult, error) {
	var approved EnrollmentRequest
	err := st.Update(ctx, store.CollectionEnrollments, func(read func(dest interface{}) bool) (interface{}, error) {
		var requests []EnrollmentRequest
		read(&requests)

		for i := range requests {
			if requests[i].ID != id {
				continue
			}
			requests[i].Status = types.EnrollmentApproved
			requests[i].UpdatedAt = time.Now()
			approved = requests[i]
			return requests, nil
		}
		return nil, ErrRequestNotFound
	})
	if err != nil {
		return ApprovalResult{}, err
	}

	result := ApprovalResult{Request: approved}

	err = st.Update(ctx, store.CollectionAccounts, func(read func(dest interface{}) bool) (interface{}, error) {
		doc := identity.LoadDocument(read)

		acct, ok := doc.Accounts[approved.UserID]
		if !ok {
			result.UserMissing = true
			return nil, nil
		}

		batches, changed := identity.AppendUnique(acct.EnrolledBatchIDs, approved.BatchID)
		if !changed {
			return nil, nil
		}

		acct.EnrolledBatchIDs = batches
		acct.UpdatedAt = time.Now()
		doc.Put(acct)
		return doc, nil
	})
	if err != nil {
		return ApprovalResult{}, err
	}

	return result, nil
}

// RejectEnrollmentRequest marks a request rejected. No batches are granted
// or revoked.
func RejectEnrollmentRequest(ctx context.Context, st *store.Store, id string) (EnrollmentRequest, error) {
	var rejected EnrollmentRequest
	err := st.Update(ctx, store.CollectionEnrollments, func(read func(dest interface{}) bool) (interface{}, error) {
		var requests []EnrollmentRequest
		read(&requests)

		for i := range requests {
			if requests[i].ID != id {
				continue
			}
			requests[i].Status = types.EnrollmentRejected
			requests[i].UpdatedAt = time.Now()
			rejected = requests[i]
			return requests, nil
		}
		return nil, ErrRequestNotFound
	})
	if err != nil {
		return EnrollmentRequest{}, err
	}

	return rejected, nil
}

// ListUserRequests returns one user's requests, newest first.
func ListUserRequests(ctx context.Context, st *store.Store, userID string) ([]EnrollmentRequest, error) {
	var requests []EnrollmentRequest
	st.Read(ctx, store.CollectionEnrollments, &requests)

	mine := make([]EnrollmentRequest, 0)
	for _, req := range requests {
		if req.UserID == userID {
			mine = append(mine, req)
		}
	}

	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].CreatedAt.After(mine[j].CreatedAt)
	})
	return mine, nil
}
