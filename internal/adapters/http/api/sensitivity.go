// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/postura/internal/domain/posture"
)

// SensitivityDependencies defines the interface for preset control.
type SensitivityDependencies interface {
	SetSensitivity(ctx context.Context, name string) error
	Sensitivity(ctx context.Context) string
}

// SensitivityHandler handles threshold preset selection.
type SensitivityHandler struct {
	deps SensitivityDependencies
}

// NewSensitivityHandler creates a new sensitivity handler.
func NewSensitivityHandler(deps SensitivityDependencies) *SensitivityHandler {
	return &SensitivityHandler{deps: deps}
}

type sensitivityRequest struct {
	Sensitivity string `json:"sensitivity"`
}

type sensitivityResponse struct {
	Sensitivity string `json:"sensitivity"`
}

// HandleSensitivity handles PUT /sensitivity (switch preset) and
// GET /sensitivity (report the active preset).
func (h *SensitivityHandler) HandleSensitivity(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		h.handleSet(w, r)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, sensitivityResponse{Sensitivity: h.deps.Sensitivity(r.Context())})
	default:
		http.NotFound(w, r)
	}
}

func (h *SensitivityHandler) handleSet(w http.ResponseWriter, r *http.Request) {
	var req sensitivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	name := strings.ToLower(strings.TrimSpace(req.Sensitivity))
	if err := h.deps.SetSensitivity(r.Context(), name); err != nil {
		if errors.Is(err, posture.ErrUnknownSensitivity) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, sensitivityResponse{Sensitivity: name})
}
