package progress

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eduverse/tutorhub-server-go/internal/features/identity"
	"github.com/eduverse/tutorhub-server-go/internal/store"
	"github.com/eduverse/tutorhub-server-go/pkg/cache"
	"github.com/eduverse/tutorhub-server-go/pkg/response"
)

const (
	analyticsCacheKey = "tutorhub:analytics:admin"
	analyticsCacheTTL = 30 * time.Second
)

// Handler processes progress HTTP requests.
type Handler struct {
	store  *store.Store
	logger *slog.Logger
	cache  cache.Client
}

// NewHandler constructs a progress handler instance.
func NewHandler(st *store.Store, logger *slog.Logger, cacheClient cache.Client) *Handler {
	return &Handler{store: st, logger: logger, cache: cacheClient}
}

func accountFromContext(c *gin.Context) (identity.Account, bool) {
	value, exists := c.Get("account")
	if !exists {
		return identity.Account{}, false
	}

	account, ok := value.(identity.Account)
	return account, ok
}

// Save records watch progress for the calling user.
func (h *Handler) Save(c *gin.Context) {
	account, ok := accountFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req struct {
		ContentID      string `json:"contentId" binding:"required"`
		WatchedSeconds int    `json:"watchedSeconds"`
		TotalSeconds   int    `json:"totalSeconds"`
		BatchID        string `json:"batchId"`
		Subject        string `json:"subject"`
		ChapterID      string `json:"chapterId"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid progress payload", err)
		return
	}

	rec, err := SaveProgress(c.Request.Context(), h.store, ProgressRecord{
		UserID:         account.ID,
		ContentID:      req.ContentID,
		WatchedSeconds: req.WatchedSeconds,
		TotalSeconds:   req.TotalSeconds,
		BatchID:        req.BatchID,
		Subject:        req.Subject,
		ChapterID:      req.ChapterID,
	})
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			response.Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to save progress", err)
		return
	}

	response.Success(c, http.StatusOK, rec, "", nil)
}

// Get returns the caller's record for one content item.
func (h *Handler) Get(c *gin.Context) {
	account, ok := accountFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	rec, found := GetProgress(c.Request.Context(), h.store, account.ID, c.Param("contentId"))
	if !found {
		response.Error(c, http.StatusNotFound, "no progress recorded", nil)
		return
	}

	response.Success(c, http.StatusOK, rec, "", nil)
}

// BatchProgress returns the caller's completion percentage for a batch,
// optionally narrowed to one subject.
func (h *Handler) BatchProgress(c *gin.Context) {
	account, ok := accountFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	batchID := c.Param("batchId")
	subject := c.Query("subject")

	var (
		percent int
		err     error
	)
	if subject != "" {
		percent, err = GetSubjectProgress(c.Request.Context(), h.store, account.ID, batchID, subject)
	} else {
		percent, err = GetBatchProgress(c.Request.Context(), h.store, account.ID, batchID)
	}
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to compute progress", err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"batchId": batchID,
		"subject": subject,
		"percent": percent,
	}, "", nil)
}

// History returns the caller's most recently watched content.
func (h *Handler) History(c *gin.Context) {
	account, ok := accountFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, err := GetRecentHistory(c.Request.Context(), h.store, account.ID, limit)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load history", err)
		return
	}

	response.Success(c, http.StatusOK, entries, "", nil)
}

// Analytics returns platform-wide rollups for admins. Results are cached
// briefly since the computation scans every record.
func (h *Handler) Analytics(c *gin.Context) {
	var cached Analytics
	if err := cache.GetJSON(c.Request.Context(), h.cache, analyticsCacheKey, &cached); err == nil {
		response.Success(c, http.StatusOK, cached, "", nil)
		return
	}

	analytics, err := GetAdminAnalytics(c.Request.Context(), h.store)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to compute analytics", err)
		return
	}

	if err := cache.SetJSON(c.Request.Context(), h.cache, analyticsCacheKey, analytics, analyticsCacheTTL); err != nil {
		h.logger.Warn("failed to cache analytics", slog.String("error", err.Error()))
	}

	response.Success(c, http.StatusOK, analytics, "", nil)
}
