package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/asegura/renomail/internal/models"
)

// CycleRunner runs one sync cycle and returns its summary.
type CycleRunner interface {
	Run(ctx context.Context) models.SyncResult
}

// SyncHandler exposes the sync cycle to operators for manual runs. The
// scheduler normally drives the cycle; this endpoint exists for triage.
type SyncHandler struct {
	runner CycleRunner
	log    *logrus.Logger
}

func NewSyncHandler(runner CycleRunner, log *logrus.Logger) *SyncHandler {
	return &SyncHandler{runner: runner, log: log}
}

// RunSync triggers one sync cycle and returns the SyncResult as JSON. The
// runner serializes overlapping invocations itself via the run lock, so a
// concurrent trigger fails fast instead of double-processing.
func (h *SyncHandler) RunSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := h.runner.Run(r.Context())

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.log.WithError(err).Error("SyncHandler: failed to encode response")
	}
}
