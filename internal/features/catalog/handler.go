package catalog

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduverse/tutorhub-server-go/internal/store"
	"github.com/eduverse/tutorhub-server-go/pkg/response"
)

// Handler processes catalog HTTP requests.
type Handler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewHandler constructs a catalog handler instance.
func NewHandler(st *store.Store, logger *slog.Logger) *Handler {
	return &Handler{store: st, logger: logger}
}

// ListChapters returns chapters for a (batch, subject) scope in order.
func (h *Handler) ListChapters(c *gin.Context) {
	batchID := c.Param("batchId")
	subject := c.Query("subject")
	if subject == "" {
		response.Error(c, http.StatusBadRequest, "subject query parameter is required", nil)
		return
	}

	chapters, err := GetChapters(c.Request.Context(), h.store, batchID, subject)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list chapters", err)
		return
	}

	response.Success(c, http.StatusOK, chapters, "", nil)
}

// CreateChapter saves a new chapter.
func (h *Handler) CreateChapter(c *gin.Context) {
	var req struct {
		ID          string `json:"id"`
		BatchID     string `json:"batchId" binding:"required"`
		Subject     string `json:"subject" binding:"required"`
		Title       string `json:"title" binding:"required"`
		Order       int    `json:"order"`
		Description string `json:"description"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid chapter payload", err)
		return
	}

	chapter, err := SaveChapter(c.Request.Context(), h.store, Chapter{
		ID:          req.ID,
		BatchID:     req.BatchID,
		Subject:     req.Subject,
		Title:       req.Title,
		Order:       req.Order,
		Description: req.Description,
	})
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to save chapter", err)
		return
	}

	response.Created(c, chapter, "")
}

// DeleteChapter removes a chapter and its content.
func (h *Handler) DeleteChapter(c *gin.Context) {
	if err := DeleteChapter(c.Request.Context(), h.store, c.Param("chapterId")); err != nil {
		if errors.Is(err, ErrChapterNotFound) {
			response.Error(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to delete chapter", err)
		return
	}

	response.Success(c, http.StatusOK, nil, "Chapter deleted.", nil)
}

// ListContent returns all content, most recent first.
func (h *Handler) ListContent(c *gin.Context) {
	if batchID := c.Query("batchId"); batchID != "" {
		contents, err := GetBatchContent(c.Request.Context(), h.store, batchID, c.Query("subject"))
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list content", err)
			return
		}
		response.Success(c, http.StatusOK, contents, "", nil)
		return
	}

	contents, err := GetAllContent(c.Request.Context(), h.store)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list content", err)
		return
	}

	response.Success(c, http.StatusOK, contents, "", nil)
}

// GetContent fetches a single content record.
func (h *Handler) GetContent(c *gin.Context) {
	content, err := GetContentByID(c.Request.Context(), h.store, c.Param("contentId"))
	if err != nil {
		if errors.Is(err, ErrContentNotFound) {
			response.Error(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load content", err)
		return
	}

	response.Success(c, http.StatusOK, content, "", nil)
}

// CreateContent saves a new content record.
func (h *Handler) CreateContent(c *gin.Context) {
	var req struct {
		ID          string `json:"id"`
		BatchID     string `json:"batchId" binding:"required"`
		ChapterID   string `json:"chapterId"`
		Subject     string `json:"subject" binding:"required"`
		Title       string `json:"title" binding:"required"`
		VideoURL    string `json:"videoUrl" binding:"required"`
		Thumbnail   string `json:"thumbnail"`
		Description string `json:"description"`
		Duration    int    `json:"duration"`
		Order       *int   `json:"order"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid content payload", err)
		return
	}

	content, err := SaveContent(c.Request.Context(), h.store, ClassContent{
		ID:          req.ID,
		BatchID:     req.BatchID,
		ChapterID:   req.ChapterID,
		Subject:     req.Subject,
		Title:       req.Title,
		VideoURL:    req.VideoURL,
		Thumbnail:   req.Thumbnail,
		Description: req.Description,
		Duration:    req.Duration,
		Order:       req.Order,
	})
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to save content", err)
		return
	}

	response.Created(c, content, "")
}

// DeleteContent removes a content record.
func (h *Handler) DeleteContent(c *gin.Context) {
	if err := DeleteContent(c.Request.Context(), h.store, c.Param("contentId")); err != nil {
		if errors.Is(err, ErrContentNotFound) {
			response.Error(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to delete content", err)
		return
	}

	response.Success(c, http.StatusOK, nil, "Content deleted.", nil)
}
