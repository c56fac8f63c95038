// Package handlers implements the HTTP API surface.  Handlers translate
// between transport and the application services; no resolution logic lives
// here.
package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/turtacn/geometax/internal/interfaces/http/middleware"
	"github.com/turtacn/geometax/pkg/errors"
	"github.com/turtacn/geometax/pkg/types/common"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// respond writes a success envelope.
func respond(c *gin.Context, status int, data any) {
	resp := common.NewSuccessResponse(data)
	resp.RequestID = middleware.GetRequestID(c)
	c.JSON(status, resp)
}

// respondError maps an application error onto its HTTP status.  5xx causes
// are masked; the error code survives for clients to branch on.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	message := err.Error()
	if errors.IsServerError(code) {
		message = errors.DefaultMessageForCode(code)
	}

	resp := common.NewErrorResponse(string(code), message)
	resp.RequestID = middleware.GetRequestID(c)
	c.AbortWithStatusJSON(status, resp)
}

// parseLimitOffset reads limit and offset query parameters with bounds.
func parseLimitOffset(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// splitCSV splits a comma-separated query value, dropping empties.
func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
