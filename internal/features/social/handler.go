package social

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduverse/tutorhub-server-go/internal/features/identity"
	"github.com/eduverse/tutorhub-server-go/internal/store"
	"github.com/eduverse/tutorhub-server-go/pkg/response"
)

// Handler processes friend-graph HTTP requests.
type Handler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewHandler constructs a social handler instance.
func NewHandler(st *store.Store, logger *slog.Logger) *Handler {
	return &Handler{store: st, logger: logger}
}

// ListFriends returns the caller's friends.
func (h *Handler) ListFriends(c *gin.Context) {
	acct, ok := callerAccount(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	friends, err := ListFriends(c.Request.Context(), h.store, acct.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list friends", err)
		return
	}

	response.Success(c, http.StatusOK, friends, "", nil)
}

// ListRequests returns accounts with a pending request toward the caller.
func (h *Handler) ListRequests(c *gin.Context) {
	acct, ok := callerAccount(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	requests, err := ListPendingRequests(c.Request.Context(), h.store, acct.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list friend requests", err)
		return
	}

	response.Success(c, http.StatusOK, requests, "", nil)
}

// SendRequest sends a friend request to another account.
func (h *Handler) SendRequest(c *gin.Context) {
	h.mutate(c, "Friend request sent.", func(ctx *gin.Context, callerID, otherID string) (identity.Account, error) {
		return SendFriendRequest(ctx.Request.Context(), h.store, callerID, otherID)
	})
}

// Accept accepts a pending friend request.
func (h *Handler) Accept(c *gin.Context) {
	h.mutate(c, "Friend request accepted.", func(ctx *gin.Context, callerID, otherID string) (identity.Account, error) {
		return AcceptFriendRequest(ctx.Request.Context(), h.store, callerID, otherID)
	})
}

// Reject rejects a pending friend request.
func (h *Handler) Reject(c *gin.Context) {
	h.mutate(c, "Friend request rejected.", func(ctx *gin.Context, callerID, otherID string) (identity.Account, error) {
		return RejectFriendRequest(ctx.Request.Context(), h.store, callerID, otherID)
	})
}

// Remove removes an existing friend.
func (h *Handler) Remove(c *gin.Context) {
	h.mutate(c, "Friend removed.", func(ctx *gin.Context, callerID, otherID string) (identity.Account, error) {
		return RemoveFriend(ctx.Request.Context(), h.store, callerID, otherID)
	})
}

// Block blocks another account.
func (h *Handler) Block(c *gin.Context) {
	h.mutate(c, "User blocked.", func(ctx *gin.Context, callerID, otherID string) (identity.Account, error) {
		return BlockUser(ctx.Request.Context(), h.store, callerID, otherID)
	})
}

// Unblock unblocks another account.
func (h *Handler) Unblock(c *gin.Context) {
	h.mutate(c, "User unblocked.", func(ctx *gin.Context, callerID, otherID string) (identity.Account, error) {
		return UnblockUser(ctx.Request.Context(), h.store, callerID, otherID)
	})
}

// mutate runs a friend-graph operation against the :userId route param and
// responds with the caller's refreshed account snapshot so clients can update
// any cached session state.
func (h *Handler) mutate(c *gin.Context, message string, op func(*gin.Context, string, string) (identity.Account, error)) {
	acct, ok := callerAccount(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "User not authenticated", nil)
		return
	}

	otherID := c.Param("userId")
	if otherID == "" {
		response.Error(c, http.StatusBadRequest, "missing user id", nil)
		return
	}

	updated, err := op(c, acct.ID, otherID)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrAccountNotFound):
			response.Error(c, http.StatusNotFound, err.Error(), nil)
		case errors.Is(err, ErrNoPendingRequest):
			response.Error(c, http.StatusConflict, err.Error(), nil)
		case errors.Is(err, ErrBlocked):
			response.Error(c, http.StatusForbidden, err.Error(), nil)
		case errors.Is(err, ErrSelfRequest):
			response.Error(c, http.StatusBadRequest, err.Error(), nil)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "friend operation failed", err)
		}
		return
	}

	response.Success(c, http.StatusOK, updated, message, nil)
}

func callerAccount(c *gin.Context) (identity.Account, bool) {
	val, exists := c.Get("account")
	if !exists {
		return identity.Account{}, false
	}
	acct, ok := val.(identity.Account)
	return acct, ok
}
