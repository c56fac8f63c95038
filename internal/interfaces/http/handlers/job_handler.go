package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/turtacn/geometax/internal/domain/annotation"
	"github.com/turtacn/geometax/internal/domain/sample"
	"github.com/turtacn/geometax/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/errors"
)

// Publisher enqueues a job for the worker fleet.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.JobMessage) error
}

// JobHandler accepts and reports batch extraction jobs.
type JobHandler struct {
	jobs      annotation.JobRepository
	publisher Publisher
	logger    logging.Logger
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(jobs annotation.JobRepository, publisher Publisher, log logging.Logger) *JobHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &JobHandler{jobs: jobs, publisher: publisher, logger: log}
}

// SubmitJobRequest is the POST /jobs body.  Samples maps each sample
// accession to its series accessions.
type SubmitJobRequest struct {
	Mode    annotation.Mode `json:"mode"`
	Samples sample.Mapping  `json:"samples"`
}

// Submit serves POST /jobs: persists the job row, enqueues the message, and
// answers 202 with the pending job.
func (h *JobHandler) Submit(c *gin.Context) {
	var req SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed job request"))
		return
	}
	if !req.Mode.IsValid() {
		respondError(c, errors.New(errors.ErrCodeValidation, "mode must be factor, ontology, or both"))
		return
	}
	if len(req.Samples) == 0 {
		respondError(c, errors.New(errors.ErrCodeValidation, "samples must not be empty"))
		return
	}

	ids := make([]string, 0, len(req.Samples))
	for id := range req.Samples {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	job := &annotation.Job{
		ID:          uuid.New(),
		Mode:        req.Mode,
		SampleIDs:   ids,
		Status:      annotation.JobPending,
		SubmittedAt: time.Now().UTC(),
	}

	ctx := c.Request.Context()
	if err := h.jobs.Create(ctx, job); err != nil {
		respondError(c, err)
		return
	}

	msg := kafka.JobMessage{JobID: job.ID, Mode: job.Mode, Mapping: req.Samples}
	if err := h.publisher.Publish(ctx, msg); err != nil {
		// The row exists but no worker will ever pick it up; mark it so the
		// client sees a terminal state rather than a stuck pending job.
		job.Status = annotation.JobFailed
		job.Error = errors.GetCode(err).String()
		if updateErr := h.jobs.Update(context.WithoutCancel(ctx), job); updateErr != nil {
			h.logger.Error("failed to mark unenqueued job failed",
				logging.String("job", job.ID.String()),
				logging.Err(updateErr))
		}
		respondError(c, err)
		return
	}

	h.logger.Info("job submitted",
		logging.String("job", job.ID.String()),
		logging.String("mode", string(job.Mode)),
		logging.Int("samples", len(ids)))
	respond(c, http.StatusAccepted, job)
}

// Get serves GET /jobs/:id.
func (h *JobHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeValidation, "job id must be a UUID"))
		return
	}

	job, err := h.jobs.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, job)
}

// List serves GET /jobs.
func (h *JobHandler) List(c *gin.Context) {
	limit, offset := parseLimitOffset(c)
	jobs, err := h.jobs.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, jobs)
}
