// Package common holds the wire-level types shared by the HTTP API, the Go
// client, and the CLI: the response envelope, pagination, and health
// reporting.
package common

import (
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is a time.Time alias serialized as RFC 3339.
type Timestamp time.Time

// NewTimestamp returns the current UTC time as a Timestamp.
func NewTimestamp() Timestamp {
	return Timestamp(time.Now().UTC())
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}
	*t = Timestamp(parsed.UTC())
	return nil
}

// Pagination describes one page of a listing.
type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total,omitempty"`
}

// Validate checks the pagination bounds.
func (p Pagination) Validate() error {
	if p.Limit < 1 || p.Limit > 500 {
		return fmt.Errorf("limit must be between 1 and 500")
	}
	if p.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	return nil
}

// ErrorDetail is the structured error block of a failed API response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// APIResponse is the envelope every API endpoint answers with.
type APIResponse[T any] struct {
	Success    bool         `json:"success"`
	Data       T            `json:"data,omitempty"`
	Error      *ErrorDetail `json:"error,omitempty"`
	Pagination *Pagination  `json:"pagination,omitempty"`
	RequestID  string       `json:"request_id"`
	Timestamp  Timestamp    `json:"timestamp"`
}

// NewSuccessResponse creates a successful APIResponse.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Success:   true,
		Data:      data,
		Timestamp: NewTimestamp(),
	}
}

// NewErrorResponse creates an error APIResponse.
func NewErrorResponse(code, message string) APIResponse[any] {
	return APIResponse[any]{
		Success:   false,
		Error:     &ErrorDetail{Code: code, Message: message},
		Timestamp: NewTimestamp(),
	}
}

// NewPaginatedResponse creates a successful APIResponse with page metadata.
func NewPaginatedResponse[T any](data T, pagination Pagination) APIResponse[T] {
	return APIResponse[T]{
		Success:    true,
		Data:       data,
		Pagination: &pagination,
		Timestamp:  NewTimestamp(),
	}
}

// HealthStatus indicates the health of a component or the whole service.
type HealthStatus string

const (
	HealthUp       HealthStatus = "up"
	HealthDown     HealthStatus = "down"
	HealthDegraded HealthStatus = "degraded"
)

// ComponentHealth reports one dependency's probe result.
type ComponentHealth struct {
	Name    string        `json:"name"`
	Status  HealthStatus  `json:"status"`
	Latency time.Duration `json:"latency"`
	Message string        `json:"message,omitempty"`
}
