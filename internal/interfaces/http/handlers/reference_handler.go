package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	refdata "github.com/turtacn/geometax/internal/application/refdata"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
)

// ReferenceHandler exposes the reference-data snapshot lifecycle.
type ReferenceHandler struct {
	service *refdata.Service
	logger  logging.Logger
}

// NewReferenceHandler creates a ReferenceHandler.
func NewReferenceHandler(service *refdata.Service, log logging.Logger) *ReferenceHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ReferenceHandler{service: service, logger: log}
}

// ReferenceStatus summarises the live snapshot.
type ReferenceStatus struct {
	BuiltAt     time.Time `json:"built_at"`
	Genes       int       `json:"genes"`
	TFs         int       `json:"transcription_factors"`
	CRs         int       `json:"chromatin_remodelers"`
	Cellosaurus int       `json:"cellosaurus_terms"`
	EFO         int       `json:"efo_terms"`
	Uberon      int       `json:"uberon_terms"`
}

// Status serves GET /reference/status.
func (h *ReferenceHandler) Status(c *gin.Context) {
	snap, err := h.service.Provider().Current()
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, ReferenceStatus{
		BuiltAt:     snap.BuiltAt,
		Genes:       snap.References.Genes.Len(),
		TFs:         snap.References.TFs.Len(),
		CRs:         snap.References.CRs.Len(),
		Cellosaurus: snap.Indexes.Cellosaurus.Len(),
		EFO:         snap.Indexes.EFO.Len(),
		Uberon:      snap.Indexes.Uberon.Len(),
	})
}

// Rebuild serves POST /reference/rebuild: re-parses the stored corpora into a
// fresh snapshot.  With ?download=true the corpora are re-fetched from their
// upstream sources first.  The work runs in the background; 202 means
// accepted, not done.
func (h *ReferenceHandler) Rebuild(c *gin.Context) {
	download := c.Query("download") == "true"

	go func() {
		ctx := context.WithoutCancel(c.Request.Context())
		var err error
		if download {
			err = h.service.Update(ctx)
		} else {
			err = h.service.Rebuild(ctx)
		}
		if err != nil {
			h.logger.Error("reference rebuild failed",
				logging.Bool("download", download),
				logging.Err(err))
		}
	}()

	respond(c, http.StatusAccepted, gin.H{"download": download})
}
