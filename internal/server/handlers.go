package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/splitkit/splitkit/internal/experiment"
)

type HealthResponse struct {
	Status        string `json:"status"`
	EventsCount   int    `json:"events_count"`
	DBSizeBytes   int64  `json:"db_size_bytes"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	count, err := s.store.EventCount(ctx)
	if err != nil {
		s.log.Error("health check failed", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var dbSize int64
	row := s.store.DB().QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
	if err := row.Scan(&dbSize); err != nil {
		dbSize = 0
	}

	uptime := int64(time.Since(s.startTime).Seconds())

	response := HealthResponse{
		Status:        "ok",
		EventsCount:   count,
		DBSizeBytes:   dbSize,
		UptimeSeconds: uptime,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleEvents ingests one ExperimentResult per POST, exactly the JSON the
// recorder's HTTP sink emits.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	// Set CORS headers for all responses
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	// Handle preflight
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var res experiment.Result
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if res.ExperimentID == "" || res.VariantID == "" || res.UserID == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}
	if len(res.Metrics) == 0 {
		http.Error(w, "Missing metrics", http.StatusBadRequest)
		return
	}

	// Reject events for experiments this collector does not know
	if s.registry != nil && s.registry.Get(res.ExperimentID) == nil {
		http.Error(w, "Unknown experiment", http.StatusBadRequest)
		return
	}

	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.Timestamp == 0 {
		res.Timestamp = time.Now().UnixMilli()
	}

	if err := s.store.InsertEvent(r.Context(), res); err != nil {
		s.log.Error("failed to store event",
			zap.String("experiment", res.ExperimentID), zap.Error(err))
		http.Error(w, "Failed to record event", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleExperiments returns the running experiments so remote clients can
// bootstrap their local registries.
func (s *Server) handleExperiments(w http.ResponseWriter, r *http.Request) {
	// Set CORS headers
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	active := []*experiment.Experiment{}
	if s.registry != nil {
		active = append(active, s.registry.Active()...)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(active)
}
