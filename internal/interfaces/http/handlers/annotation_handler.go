package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/turtacn/geometax/internal/domain/annotation"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/errors"
)

// AnnotationHandler serves persisted annotations.
type AnnotationHandler struct {
	repo     annotation.Repository
	searcher annotation.Searcher
	logger   logging.Logger
}

// NewAnnotationHandler creates an AnnotationHandler.  searcher may be nil
// when no search cluster is configured.
func NewAnnotationHandler(repo annotation.Repository, searcher annotation.Searcher, log logging.Logger) *AnnotationHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &AnnotationHandler{repo: repo, searcher: searcher, logger: log}
}

// List serves GET /annotations.  Filters: sample_ids (comma separated),
// factor (exact extracted factor), limit, offset.
func (h *AnnotationHandler) List(c *gin.Context) {
	limit, offset := parseLimitOffset(c)
	filter := annotation.ListFilter{
		SampleIDs: splitCSV(c.Query("sample_ids")),
		Factor:    c.Query("factor"),
		Limit:     limit,
		Offset:    offset,
	}

	items, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, items)
}

// Get serves GET /annotations/:sample.
func (h *AnnotationHandler) Get(c *gin.Context) {
	ann, err := h.repo.GetBySampleID(c.Request.Context(), c.Param("sample"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, ann)
}

// Delete serves DELETE /annotations/:sample.
func (h *AnnotationHandler) Delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("sample")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Search serves GET /search?q=...&limit=...  over the full-text index.
func (h *AnnotationHandler) Search(c *gin.Context) {
	if h.searcher == nil {
		respondError(c, errors.New(errors.ErrCodeSearchUnavailable, "search is not configured"))
		return
	}

	query := c.Query("q")
	if query == "" {
		respondError(c, errors.New(errors.ErrCodeValidation, "query parameter q is required"))
		return
	}
	limit, _ := parseLimitOffset(c)

	results, err := h.searcher.Search(c.Request.Context(), query, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, results)
}
