package commerce

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduverse/tutorhub-server-go/internal/features/identity"
	"github.com/eduverse/tutorhub-server-go/internal/store"
	"github.com/eduverse/tutorhub-server-go/pkg/pagination"
	"github.com/eduverse/tutorhub-server-go/pkg/response"
	"github.com/eduverse/tutorhub-server-go/pkg/types"
)

// Handler processes commerce HTTP requests.
type Handler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewHandler constructs a commerce handler instance.
func NewHandler(st *store.Store, logger *slog.Logger) *Handler {
	return &Handler{store: st, logger: logger}
}

func callerAccount(c *gin.Context) (identity.Account, bool) {
	value, exists := c.Get("account")
	if !exists {
		return identity.Account{}, false
	}

	account, ok := value.(identity.Account)
	return account, ok
}

// ValidateCoupon checks a coupon code for the checkout page.
func (h *Handler) ValidateCoupon(c *gin.Context) {
	coupon, err := ValidateCoupon(c.Request.Context(), h.store, c.Param("code"))
	if err != nil {
		switch {
		case errors.Is(err, ErrCouponNotFound):
			response.Error(c, http.StatusNotFound, err.Error(), nil)
		case errors.Is(err, ErrCouponInactive):
			response.Error(c, http.StatusConflict, err.Error(), nil)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to validate coupon", err)
		}
		return
	}

	response.Success(c, http.StatusOK, coupon, "", nil)
}

// ApplyCoupon returns the discounted price for an amount and code.
func (h *Handler) ApplyCoupon(c *gin.Context) {
	var req struct {
		Amount int64  `json:"amount" binding:"required"`
		Code   string `json:"code" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid coupon payload", err)
		return
	}

	discounted, coupon, err := ApplyCoupon(c.Request.Context(), h.store, types.NewMoney(req.Amount), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrCouponNotFound):
			response.Error(c, http.StatusNotFound, err.Error(), nil)
		case errors.Is(err, ErrCouponInactive):
			response.Error(c, http.StatusConflict, err.Error(), nil)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to apply coupon", err)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"coupon":   coupon,
		"original": types.NewMoney(req.Amount),
		"payable":  discounted,
	}, "", nil)
}

// CreateCoupon saves a coupon definition.
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req struct {
		ID           string `json:"id"`
		Code         string `json:"code" binding:"required"`
		DiscountType string `json:"discountType" binding:"required"`
		Value        int64  `json:"value" binding:"required"`
		IsActive     *bool  `json:"isActive"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid coupon payload", err)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	coupon, err := SaveCoupon(c.Request.Context(), h.store, Coupon{
		ID:           req.ID,
		Code:         req.Code,
		DiscountType: types.DiscountType(req.DiscountType),
		Value:        types.NewMoney(req.Value),
		IsActive:     active,
	})
	if err != nil {
		if errors.Is(err, ErrMissingFields) || errors.Is(err, ErrInvalidDiscount) {
			response.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to save coupon", err)
		return
	}

	response.Created(c, coupon, "")
}

// ListCoupons returns every coupon for the admin console.
func (h *Handler) ListCoupons(c *gin.Context) {
	coupons, err := ListCoupons(c.Request.Context(), h.store)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list coupons", err)
		return
	}

	response.Success(c, http.StatusOK, coupons, "", nil)
}

// DeleteCoupon removes a coupon.
func (h *Handler) DeleteCoupon(c *gin.Context) {
	if err := DeleteCoupon(c.Request.Context(), h.store, c.Param("code")); err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			response.Error(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to delete coupon", err)
		return
	}

	response.Success(c, http.StatusOK, nil, "Coupon deleted.", nil)
}

// CreateEnrollment files a pending enrollment request for the caller.
func (h *Handler) CreateEnrollment(c *gin.Context) {
	account, ok := callerAccount(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req struct {
		BatchID   string `json:"batchId" binding:"required"`
		BatchName string `json:"batchName"`
		Amount    int64  `json:"amount"`
		Note      string `json:"note"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid enrollment payload", err)
		return
	}

	request, err := CreateEnrollmentRequest(c.Request.Context(), h.store, EnrollmentRequest{
		UserID:    account.ID,
		UserName:  account.Name,
		UserEmail: account.Email,
		BatchID:   req.BatchID,
		BatchName: req.BatchName,
		Amount:    types.NewMoney(req.Amount),
		Note:      req.Note,
	})
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to create enrollment request", err)
		return
	}

	response.Created(c, request, "Enrollment request submitted.")
}

// ListEnrollments returns enrollment requests for the admin console.
func (h *Handler) ListEnrollments(c *gin.Context) {
	params := pagination.Extract(c)

	requests, total, err := ListEnrollmentRequests(c.Request.Context(), h.store, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list enrollment requests", err)
		return
	}

	response.Success(c, http.StatusOK, requests, "", pagination.MetadataFrom(total, params))
}

// MyEnrollments returns the caller's requests.
func (h *Handler) MyEnrollments(c *gin.Context) {
	account, ok := callerAccount(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	requests, err := ListUserRequests(c.Request.Context(), h.store, account.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list enrollment requests", err)
		return
	}

	response.Success(c, http.StatusOK, requests, "", nil)
}

// ApproveEnrollment approves a request and grants batch access.
func (h *Handler) ApproveEnrollment(c *gin.Context) {
	result, err := ApproveEnrollmentRequest(c.Request.Context(), h.store, c.Param("requestId"))
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			response.Error(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to approve enrollment request", err)
		return
	}

	if result.UserMissing {
		h.logger.Warn("approved enrollment for missing account",
			slog.String("requestId", result.Request.ID),
			slog.String("userId", result.Request.UserID))
		response.SuccessWithWarning(c, http.StatusOK, result, "Enrollment approved.",
			"user account no longer exists; no batch access was granted")
		return
	}

	response.Success(c, http.StatusOK, result, "Enrollment approved.", nil)
}

// RejectEnrollment rejects a request.
func (h *Handler) RejectEnrollment(c *gin.Context) {
	request, err := RejectEnrollmentRequest(c.Request.Context(), h.store, c.Param("requestId"))
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			response.Error(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to reject enrollment request", err)
		return
	}

	response.Success(c, http.StatusOK, request, "Enrollment rejected.", nil)
}
