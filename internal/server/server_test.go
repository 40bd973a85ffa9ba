package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/splitkit/splitkit/internal/experiment"
	"github.com/splitkit/splitkit/internal/server"
	"github.com/splitkit/splitkit/internal/store"
)

func setupServer(t *testing.T) *server.Server {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	reg, err := experiment.NewRegistry([]experiment.Experiment{
		{
			ID:            "checkout-cta",
			Name:          "Checkout CTA copy",
			Status:        experiment.StatusRunning,
			PrimaryMetric: "clicks",
			Variants: []experiment.Variant{
				{ID: "control", Weight: 50, IsControl: true},
				{ID: "variant_a", Weight: 50},
			},
		},
		{ID: "old-exp", Status: experiment.StatusCompleted,
			Variants: []experiment.Variant{{ID: "control", Weight: 100}}},
	})
	require.NoError(t, err)

	return server.New(s, reg, 0, "test-token", "", zap.NewNop())
}

func postEvent(t *testing.T, srv *server.Server, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/events", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func validEvent() experiment.Result {
	return experiment.Result{
		ID:           "ev1",
		ExperimentID: "checkout-cta",
		VariantID:    "variant_a",
		UserID:       "u1",
		Timestamp:    1700000000000,
		Metrics:      map[string]float64{"clicks": 1},
	}
}

func TestEvents_RequiresBearerToken(t *testing.T) {
	srv := setupServer(t)

	w := postEvent(t, srv, "", validEvent())
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = postEvent(t, srv, "wrong-token", validEvent())
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEvents_IngestsAndStores(t *testing.T) {
	srv := setupServer(t)

	w := postEvent(t, srv, "test-token", validEvent())
	require.Equal(t, http.StatusNoContent, w.Code)

	events, err := srv.Store().Events(context.Background(), "checkout-cta")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "variant_a", events[0].VariantID)
}

func TestEvents_RejectsMalformedAndUnknown(t *testing.T) {
	srv := setupServer(t)

	missing := validEvent()
	missing.UserID = ""
	require.Equal(t, http.StatusBadRequest, postEvent(t, srv, "test-token", missing).Code)

	noMetrics := validEvent()
	noMetrics.Metrics = nil
	require.Equal(t, http.StatusBadRequest, postEvent(t, srv, "test-token", noMetrics).Code)

	unknown := validEvent()
	unknown.ExperimentID = "not-registered"
	require.Equal(t, http.StatusBadRequest, postEvent(t, srv, "test-token", unknown).Code)
}

func TestExperiments_ListsOnlyRunning(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/experiments", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var active []experiment.Experiment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &active))
	require.Len(t, active, 1)
	require.Equal(t, "checkout-cta", active[0].ID)
}

func TestHealth(t *testing.T) {
	srv := setupServer(t)

	require.Equal(t, http.StatusNoContent, postEvent(t, srv, "test-token", validEvent()).Code)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var health server.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)
	require.Equal(t, 1, health.EventsCount)
}
