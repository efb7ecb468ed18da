// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/postura/internal/domain/landmark"
	"github.com/okian/postura/internal/domain/model"
	"github.com/okian/postura/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Enqueue pushes a landmark frame for async processing. Returns false
	// on backpressure.
	Enqueue(ctx context.Context, f model.Frame) bool

	// Latest returns the most recent posture assessment.
	Latest(ctx context.Context) (model.Result, error)

	// Subscribe registers a live result consumer; the cancel function
	// releases it.
	Subscribe() (<-chan model.Result, func())

	// StartCalibration begins a baseline capture session.
	StartCalibration(ctx context.Context) (string, error)

	// Calibration reports baseline state and session progress.
	Calibration(ctx context.Context) types.CalibrationView

	// SetSensitivity switches the active threshold preset.
	SetSensitivity(ctx context.Context, name string) error

	// Sensitivity returns the active preset name.
	Sensitivity(ctx context.Context) string

	// PreviewWindow sizes the per-connection preview smoother.
	PreviewWindow() int
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	framesHandler      *FramesHandler
	scoreHandler       *ScoreHandler
	calibrationHandler *CalibrationHandler
	sensitivityHandler *SensitivityHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		framesHandler:      NewFramesHandler(deps),
		scoreHandler:       NewScoreHandler(deps),
		calibrationHandler: NewCalibrationHandler(deps),
		sensitivityHandler: NewSensitivityHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/frames", MetricsMiddleware(s.framesHandler.HandlePostFrame, "frames"))
	mux.HandleFunc("/ws/frames", s.framesHandler.HandleFrameStream)
	mux.HandleFunc("/score", MetricsMiddleware(s.scoreHandler.HandleGetScore, "score"))
	mux.HandleFunc("/ws/score", s.scoreHandler.HandleScoreStream)
	mux.HandleFunc("/calibration", MetricsMiddleware(s.calibrationHandler.HandleCalibration, "calibration"))
	mux.HandleFunc("/sensitivity", MetricsMiddleware(s.sensitivityHandler.HandleSensitivity, "sensitivity"))
}

// frameRequest mirrors the wire schema for POST /frames and /ws/frames.
// Pose landmarks arrive as a dense MediaPipe-indexed array; face landmarks
// as a sparse index map.
type frameRequest struct {
	FrameID string                 `json:"frame_id,omitempty"`
	Pose    []landmark.Point       `json:"pose,omitempty"`
	Face    map[int]landmark.Point `json:"face,omitempty"`
	TS      string                 `json:"ts,omitempty"`
}

func (f frameRequest) validate() error {
	if len(f.Pose) == 0 && len(f.Face) == 0 {
		return errors.New("missing pose and face landmarks")
	}
	if len(f.Pose) > 0 && len(f.Pose) < landmark.MinPoseLandmarks {
		return errors.New("pose landmark array too short")
	}
	return nil
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
