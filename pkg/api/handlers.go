package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"dev/bravebird/ui-harness-go/pkg/config"
	"dev/bravebird/ui-harness-go/pkg/models"
	"dev/bravebird/ui-harness-go/pkg/results"
)

// Handlers contains API handlers
type Handlers struct {
	store    *results.Store
	cfg      config.Settings
	suites   []string
	upgrader websocket.Upgrader
}

// NewHandlers creates new API handlers. suites lists the registered group
// names so the dashboard can offer them without a database round trip.
func NewHandlers(store *results.Store, cfg config.Settings, suites []string) *Handlers {
	return &Handlers{
		store:  store,
		cfg:    cfg,
		suites: suites,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ==================== Suite Handlers ====================

// ListSuites lists the registered suite names
func (h *Handlers) ListSuites(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.suites)
}

// ==================== Run Handlers ====================

// ListRuns lists recent suite runs, optionally filtered by suite
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.store == nil {
		http.Error(w, "Database not available", http.StatusServiceUnavailable)
		return
	}

	suite := r.URL.Query().Get("suite")

	runs, err := h.store.ListSuiteRuns(ctx, suite, 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []models.SuiteRun{}
	}

	respondJSON(w, runs)
}

// GetRun retrieves a suite run with its step results
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	id := vars["id"]

	if h.store == nil {
		http.Error(w, "Database not available", http.StatusServiceUnavailable)
		return
	}

	run, err := h.store.GetSuiteRun(ctx, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	steps, _ := h.store.GetStepResults(ctx, id)
	run.StepResults = steps

	respondJSON(w, run)
}

// GetRunSteps retrieves a run's step results
func (h *Handlers) GetRunSteps(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	id := vars["id"]

	if h.store == nil {
		http.Error(w, "Database not available", http.StatusServiceUnavailable)
		return
	}

	steps, err := h.store.GetStepResults(ctx, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if steps == nil {
		steps = []models.StepResult{}
	}

	respondJSON(w, steps)
}

// StreamRunUpdates streams run updates via WebSocket
func (h *Handlers) StreamRunUpdates(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	runID := vars["id"]

	if h.store == nil {
		http.Error(w, "Database not available", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx := r.Context()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastStatus := models.RunStatus("")
	lastStepCount := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run, err := h.store.GetSuiteRun(ctx, runID)
			if err != nil || run == nil {
				continue
			}
			steps, _ := h.store.GetStepResults(ctx, runID)

			// Send update only when the run moved
			if run.Status != lastStatus || len(steps) != lastStepCount {
				msg := models.WSMessage{
					Type: "run_update",
					Payload: map[string]interface{}{
						"run_id":       runID,
						"status":       run.Status,
						"step_results": steps,
					},
				}
				conn.WriteJSON(msg)

				lastStatus = run.Status
				lastStepCount = len(steps)

				if run.Status.Terminal() {
					return
				}
			}
		}
	}
}

// ==================== Screenshot Handlers ====================

// ServeScreenshot serves a failure screenshot
func (h *Handlers) ServeScreenshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	filename := vars["filename"]

	// Only files from the images directory are reachable
	filePath := filepath.Join(h.cfg.ResultsDir, "images", filepath.Base(filename))

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.Error(w, "Screenshot not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, filePath)
}

// ==================== Helpers ====================

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
