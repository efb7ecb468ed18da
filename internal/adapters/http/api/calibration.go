// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/postura/internal/app"
	"github.com/okian/postura/internal/domain/types"
)

// CalibrationDependencies defines the interface for calibration control.
type CalibrationDependencies interface {
	StartCalibration(ctx context.Context) (string, error)
	Calibration(ctx context.Context) types.CalibrationView
}

// CalibrationHandler handles calibration session control and status.
type CalibrationHandler struct {
	deps CalibrationDependencies
}

// NewCalibrationHandler creates a new calibration handler.
func NewCalibrationHandler(deps CalibrationDependencies) *CalibrationHandler {
	return &CalibrationHandler{deps: deps}
}

// HandleCalibration handles POST /calibration (start a session) and
// GET /calibration (report state and progress).
func (h *CalibrationHandler) HandleCalibration(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleStart(w, r)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.deps.Calibration(r.Context()))
	default:
		http.NotFound(w, r)
	}
}

func (h *CalibrationHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.deps.StartCalibration(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, types.CalibrationView{
			State:     types.CalibrationCalibrating,
			SessionID: sessionID,
		})
	case errors.Is(err, app.ErrCalibrationRunning):
		writeError(w, http.StatusConflict, "calibration_running", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
