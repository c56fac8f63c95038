package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/turtacn/geometax/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/geometax/pkg/types/common"
)

const healthCheckTimeout = 5 * time.Second

// ComponentCheck probes one dependency.
type ComponentCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	checks []ComponentCheck
	logger logging.Logger
}

// NewHealthHandler creates a HealthHandler over the given dependency probes.
func NewHealthHandler(log logging.Logger, checks ...ComponentCheck) *HealthHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &HealthHandler{checks: checks, logger: log}
}

// Liveness serves GET /healthz: the process is up.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": common.HealthUp})
}

// Readiness serves GET /readyz: every dependency answers within the probe
// timeout or the service reports itself not ready.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	overall := common.HealthUp
	components := make([]common.ComponentHealth, 0, len(h.checks))
	for _, check := range h.checks {
		start := time.Now()
		err := check.Check(ctx)
		component := common.ComponentHealth{
			Name:    check.Name,
			Status:  common.HealthUp,
			Latency: time.Since(start),
		}
		if err != nil {
			component.Status = common.HealthDown
			component.Message = err.Error()
			overall = common.HealthDown
			h.logger.Warn("dependency unhealthy",
				logging.String("component", check.Name),
				logging.Err(err))
		}
		components = append(components, component)
	}

	status := http.StatusOK
	if overall == common.HealthDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": overall, "components": components})
}
