package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/geometax/internal/domain/annotation"
	"github.com/turtacn/geometax/internal/domain/sample"
	"github.com/turtacn/geometax/pkg/client"
	"github.com/turtacn/geometax/pkg/errors"
)

func newServer(t *testing.T, handler http.HandlerFunc) *client.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL)
	require.NoError(t, err)
	return c
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func TestNew_RejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := client.New("not a url")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = client.New("")
	assert.Error(t, err)
}

func TestGetAnnotation(t *testing.T) {
	t.Parallel()

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/annotations/GSM100", r.URL.Path)
		writeData(w, http.StatusOK, annotation.Annotation{
			SampleID: "GSM100",
			Factor:   &annotation.Factor{ExtractedFactor: "CTCF"},
		})
	})

	ann, err := c.GetAnnotation(context.Background(), "GSM100")
	require.NoError(t, err)
	assert.Equal(t, "CTCF", ann.Factor.ExtractedFactor)
}

func TestGetAnnotation_ServerError(t *testing.T) {
	t.Parallel()

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   map[string]string{"code": "ANN_001", "message": "annotation not found"},
		})
	})

	_, err := c.GetAnnotation(context.Background(), "GSM404")
	assert.True(t, errors.IsCode(err, errors.ErrCodeAnnotationNotFound))
}

func TestDeleteAnnotation_NoContent(t *testing.T) {
	t.Parallel()

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.DeleteAnnotation(context.Background(), "GSM100"))
}

func TestSubmitJob(t *testing.T) {
	t.Parallel()

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/jobs", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "both", body["mode"])

		writeData(w, http.StatusAccepted, annotation.Job{Status: annotation.JobPending})
	})

	job, err := c.SubmitJob(context.Background(), annotation.ModeBoth, sample.Mapping{"GSM1": {"GSE1"}})
	require.NoError(t, err)
	assert.Equal(t, annotation.JobPending, job.Status)
}

func TestSearch_QueryParams(t *testing.T) {
	t.Parallel()

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "CTCF", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		writeData(w, http.StatusOK, []*annotation.Annotation{{SampleID: "GSM1"}})
	})

	results, err := c.Search(context.Background(), "CTCF", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, c.Health(context.Background()))

	down := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Error(t, down.Health(context.Background()))
}

func TestReferenceStatus(t *testing.T) {
	t.Parallel()

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, map[string]any{"genes": 42000, "efo_terms": 18000})
	})

	status, err := c.ReferenceStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42000, status.Genes)
	assert.Equal(t, 18000, status.EFO)
}
