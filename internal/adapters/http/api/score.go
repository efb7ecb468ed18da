// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/okian/postura/internal/adapters/repository"
	"github.com/okian/postura/internal/app"
	"github.com/okian/postura/internal/domain/model"
	"github.com/okian/postura/internal/domain/smoothing"
	"github.com/okian/postura/internal/domain/types"
	"github.com/okian/postura/pkg/logger"
	"github.com/okian/postura/pkg/metrics"
)

// scoreWriteTimeout bounds a single websocket write to a score consumer.
const scoreWriteTimeout = 5 * time.Second

// ScoreDependencies defines the interface for score read dependencies.
type ScoreDependencies interface {
	Latest(ctx context.Context) (model.Result, error)
	Subscribe() (<-chan model.Result, func())
	PreviewWindow() int
}

// ScoreHandler handles posture score reads.
type ScoreHandler struct {
	deps ScoreDependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// HandleGetScore handles GET /score requests.
func (h *ScoreHandler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	res, err := h.deps.Latest(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toScoreView(res))
	case errors.Is(err, repository.ErrNotCalibrated):
		writeError(w, http.StatusConflict, "not_calibrated", ErrNotCalibrated)
	case errors.Is(err, app.ErrNoAssessment):
		writeError(w, http.StatusNotFound, "no_assessment", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

// HandleScoreStream handles GET /ws/score: pushes one JSON assessment per
// processed frame. Each connection owns a preview smoother so a consumer
// joining mid-session sees its own ramp-up rather than the monitor's state.
func (h *ScoreHandler) HandleScoreStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Get().Warn(r.Context(), "score stream upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	metrics.StreamClientConnected()
	defer metrics.StreamClientDisconnected()

	results, cancel := h.deps.Subscribe()
	defer cancel()

	// Drain the read side so close frames are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	preview := smoothing.New(h.deps.PreviewWindow())
	for {
		select {
		case <-done:
			return
		case res, ok := <-results:
			if !ok {
				return
			}
			view := toScoreView(res)
			view.Smoothed = preview.Push(res.Score)
			_ = conn.SetWriteDeadline(time.Now().Add(scoreWriteTimeout))
			if err := conn.WriteJSON(view); err != nil {
				return
			}
		}
	}
}

func toScoreView(res model.Result) types.ScoreView {
	issues := make([]types.IssueView, len(res.Issues))
	for i, iss := range res.Issues {
		issues[i] = types.IssueView{Label: iss.Label, Deviation: iss.Deviation}
	}
	return types.ScoreView{
		Score:    res.Score,
		Smoothed: res.Smoothed,
		Issues:   issues,
		TS:       res.TS.Format(time.RFC3339Nano),
	}
}
