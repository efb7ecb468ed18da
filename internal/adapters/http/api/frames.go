// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/postura/internal/domain/landmark"
	"github.com/okian/postura/internal/domain/model"
	"github.com/okian/postura/pkg/logger"
	"github.com/okian/postura/pkg/metrics"
)

// FrameDependencies defines the interface for frame ingest dependencies.
type FrameDependencies interface {
	Enqueue(ctx context.Context, f model.Frame) bool
}

// upgrader is shared by both websocket endpoints. Peers are local capture
// processes, so origin checks are permissive.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// FramesHandler handles landmark frame ingest.
type FramesHandler struct {
	deps FrameDependencies
}

// NewFramesHandler creates a new frames handler.
func NewFramesHandler(deps FrameDependencies) *FramesHandler {
	return &FramesHandler{deps: deps}
}

// HandlePostFrame handles POST /frames requests.
func (h *FramesHandler) HandlePostFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req frameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if ok := h.deps.Enqueue(r.Context(), req.toFrame()); !ok {
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}

// HandleFrameStream handles GET /ws/frames: a websocket carrying one JSON
// frame per message. Malformed frames are dropped without closing the
// stream; backpressure is reported back to the sender.
func (h *FramesHandler) HandleFrameStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Get().Warn(r.Context(), "frame stream upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	metrics.StreamClientConnected()
	defer metrics.StreamClientDisconnected()

	log := logger.Get().Named("frames-ws")
	for {
		var req frameRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn(r.Context(), "frame stream read failed", logger.Error(err))
			}
			return
		}
		if err := req.validate(); err != nil {
			metrics.RecordFrameSkipped()
			continue
		}
		if ok := h.deps.Enqueue(r.Context(), req.toFrame()); !ok {
			_ = conn.WriteJSON(errorResponse{Code: "backpressure", Message: ErrBackpressure.Error()})
		}
	}
}

// toFrame converts the wire shape into a domain frame. A missing or
// unparsable timestamp falls back to receive time.
func (f frameRequest) toFrame() model.Frame {
	ts, err := time.Parse(time.RFC3339Nano, f.TS)
	if err != nil {
		ts = time.Now()
	}
	return model.Frame{
		FrameID: f.FrameID,
		Landmarks: landmark.Set{
			Pose: f.Pose,
			Face: f.Face,
		},
		TS: ts,
	}
}
