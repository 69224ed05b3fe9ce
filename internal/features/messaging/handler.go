package messaging

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduverse/tutorhub-server-go/internal/features/identity"
	"github.com/eduverse/tutorhub-server-go/internal/store"
	"github.com/eduverse/tutorhub-server-go/pkg/response"
)

// Notifier pushes a delivered message to the receiver's realtime channel.
// A nil notifier disables push; persistence never depends on it.
type Notifier interface {
	NotifyMessage(receiverID string, msg PrivateMessage)
}

// Handler processes messaging HTTP requests.
type Handler struct {
	store    *store.Store
	logger   *slog.Logger
	notifier Notifier
}

// NewHandler constructs a messaging handler instance.
func NewHandler(st *store.Store, logger *slog.Logger, notifier Notifier) *Handler {
	return &Handler{store: st, logger: logger, notifier: notifier}
}

func callerAccount(c *gin.Context) (identity.Account, bool) {
	value, exists := c.Get("account")
	if !exists {
		return identity.Account{}, false
	}

	account, ok := value.(identity.Account)
	return account, ok
}

// Send persists a message and pushes it to the receiver if connected.
func (h *Handler) Send(c *gin.Context) {
	account, ok := callerAccount(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req struct {
		ReceiverID string `json:"receiverId" binding:"required"`
		Text       string `json:"text" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid message payload", err)
		return
	}

	msg, err := SendMessage(c.Request.Context(), h.store, account.ID, req.ReceiverID, req.Text)
	if err != nil {
		if errors.Is(err, ErrMissingFields) || errors.Is(err, ErrSelfMessage) {
			response.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to send message", err)
		return
	}

	if h.notifier != nil {
		h.notifier.NotifyMessage(msg.ReceiverID, msg)
	}

	response.Created(c, msg, "")
}

// Conversation returns the full thread with one friend, oldest first.
func (h *Handler) Conversation(c *gin.Context) {
	account, ok := callerAccount(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	messages, err := GetMessages(c.Request.Context(), h.store, account.ID, c.Param("userId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load conversation", err)
		return
	}

	response.Success(c, http.StatusOK, messages, "", nil)
}

// LastMessage returns the newest message with one friend.
func (h *Handler) LastMessage(c *gin.Context) {
	account, ok := callerAccount(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	msg, found := GetLastMessage(c.Request.Context(), h.store, account.ID, c.Param("userId"))
	if !found {
		response.Error(c, http.StatusNotFound, "no messages yet", nil)
		return
	}

	response.Success(c, http.StatusOK, msg, "", nil)
}

// MarkRead flags the thread from one friend as read.
func (h *Handler) MarkRead(c *gin.Context) {
	account, ok := callerAccount(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	if err := MarkAsRead(c.Request.Context(), h.store, account.ID, c.Param("userId")); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to mark messages read", err)
		return
	}

	response.Success(c, http.StatusOK, nil, "Messages marked as read.", nil)
}

// UnreadCounts returns per-friend unread counts for the chat list.
func (h *Handler) UnreadCounts(c *gin.Context) {
	account, ok := callerAccount(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	counts, err := CountUnread(c.Request.Context(), h.store, account.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to count unread messages", err)
		return
	}

	response.Success(c, http.StatusOK, counts, "", nil)
}
