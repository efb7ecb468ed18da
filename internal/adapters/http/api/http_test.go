package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/postura/internal/adapters/http/api"
	"github.com/okian/postura/internal/adapters/repository"
	"github.com/okian/postura/internal/app"
	"github.com/okian/postura/internal/domain/landmark"
	"github.com/okian/postura/internal/domain/model"
	"github.com/okian/postura/internal/domain/posture"
	"github.com/okian/postura/internal/domain/types"
	"github.com/okian/postura/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// stubDeps implements api.Dependencies with canned behavior per test.
type stubDeps struct {
	mu          sync.Mutex
	enqueueOK   bool
	enqueued    []model.Frame
	latest      model.Result
	latestErr   error
	calibView   types.CalibrationView
	calibErr    error
	sessionID   string
	sensitivity string
	results     chan model.Result
}

func newStubDeps() *stubDeps {
	return &stubDeps{
		enqueueOK:   true,
		sensitivity: posture.SensitivityMedium,
		results:     make(chan model.Result, 8),
	}
}

func (s *stubDeps) Enqueue(ctx context.Context, f model.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enqueueOK {
		s.enqueued = append(s.enqueued, f)
	}
	return s.enqueueOK
}

func (s *stubDeps) enqueuedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.enqueued)
}

func (s *stubDeps) Latest(ctx context.Context) (model.Result, error) {
	return s.latest, s.latestErr
}

func (s *stubDeps) Subscribe() (<-chan model.Result, func()) {
	return s.results, func() {}
}

func (s *stubDeps) StartCalibration(ctx context.Context) (string, error) {
	return s.sessionID, s.calibErr
}

func (s *stubDeps) Calibration(ctx context.Context) types.CalibrationView {
	return s.calibView
}

func (s *stubDeps) SetSensitivity(ctx context.Context, name string) error {
	if _, err := posture.Preset(name); err != nil {
		return err
	}
	s.sensitivity = name
	return nil
}

func (s *stubDeps) Sensitivity(ctx context.Context) string { return s.sensitivity }

func (s *stubDeps) PreviewWindow() int { return 3 }

func (s *stubDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestServer(deps *stubDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, deps).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func validFrameBody() string {
	pose := make([]landmark.Point, landmark.MinPoseLandmarks)
	for i := range pose {
		pose[i] = landmark.Point{X: 0.5, Y: 0.5, Visibility: 0.9}
	}
	body, _ := json.Marshal(map[string]any{
		"frame_id": "f-1",
		"pose":     pose,
		"ts":       time.Now().Format(time.RFC3339Nano),
	})
	return string(body)
}

func TestPostFrames(t *testing.T) {
	Convey("Given the frames endpoint", t, func() {
		deps := newStubDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When a valid frame is posted", func() {
			resp, err := http.Post(srv.URL+"/frames", "application/json", strings.NewReader(validFrameBody()))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it is accepted and enqueued", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(deps.enqueued, ShouldHaveLength, 1)
				So(deps.enqueued[0].FrameID, ShouldEqual, "f-1")
			})
		})

		Convey("When the body is not JSON", func() {
			resp, err := http.Post(srv.URL+"/frames", "application/json", strings.NewReader("{nope"))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the frame carries no landmarks", func() {
			resp, err := http.Post(srv.URL+"/frames", "application/json", strings.NewReader(`{"frame_id":"f-2"}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the pose array is too short to index", func() {
			resp, err := http.Post(srv.URL+"/frames", "application/json",
				strings.NewReader(`{"pose":[{"x":0.1,"y":0.2,"v":0.9}]}`))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the queue pushes back", func() {
			deps.enqueueOK = false
			resp, err := http.Post(srv.URL+"/frames", "application/json", strings.NewReader(validFrameBody()))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the client sees backpressure", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusTooManyRequests)
			})
		})

		Convey("When the method is wrong", func() {
			resp, err := http.Get(srv.URL + "/frames")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestGetScore(t *testing.T) {
	Convey("Given the score endpoint", t, func() {
		deps := newStubDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When an assessment exists", func() {
			deps.latest = model.Result{
				Score:    69,
				Smoothed: 74,
				Issues:   []model.Issue{{Label: "slouch", Deviation: 0.08}},
				TS:       time.Now(),
			}
			resp, err := http.Get(srv.URL + "/score")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the view mirrors the result", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var view types.ScoreView
				So(json.NewDecoder(resp.Body).Decode(&view), ShouldBeNil)
				So(view.Score, ShouldEqual, 69)
				So(view.Smoothed, ShouldEqual, 74)
				So(view.Issues, ShouldHaveLength, 1)
				So(view.Issues[0].Label, ShouldEqual, "slouch")
			})
		})

		Convey("When the service is uncalibrated", func() {
			deps.latestErr = repository.ErrNotCalibrated
			resp, err := http.Get(srv.URL + "/score")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the client is told to calibrate", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("When no frame has been scored yet", func() {
			deps.latestErr = app.ErrNoAssessment
			resp, err := http.Get(srv.URL + "/score")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestCalibrationEndpoint(t *testing.T) {
	Convey("Given the calibration endpoint", t, func() {
		deps := newStubDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When a session is started", func() {
			deps.sessionID = "sess-1"
			resp, err := http.Post(srv.URL+"/calibration", "application/json", http.NoBody)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the session id comes back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				var view types.CalibrationView
				So(json.NewDecoder(resp.Body).Decode(&view), ShouldBeNil)
				So(view.State, ShouldEqual, types.CalibrationCalibrating)
				So(view.SessionID, ShouldEqual, "sess-1")
			})
		})

		Convey("When a session is already running", func() {
			deps.calibErr = app.ErrCalibrationRunning
			resp, err := http.Post(srv.URL+"/calibration", "application/json", http.NoBody)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
		})

		Convey("When progress is queried", func() {
			deps.calibView = types.CalibrationView{
				State:     types.CalibrationCalibrating,
				SessionID: "sess-2",
				Collected: 12,
				Target:    45,
			}
			resp, err := http.Get(srv.URL + "/calibration")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the view is returned as-is", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var view types.CalibrationView
				So(json.NewDecoder(resp.Body).Decode(&view), ShouldBeNil)
				So(view.Collected, ShouldEqual, 12)
				So(view.Target, ShouldEqual, 45)
			})
		})
	})
}

func TestSensitivityEndpoint(t *testing.T) {
	Convey("Given the sensitivity endpoint", t, func() {
		deps := newStubDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		put := func(body string) *http.Response {
			req, _ := http.NewRequest(http.MethodPut, srv.URL+"/sensitivity", strings.NewReader(body))
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			return resp
		}

		Convey("When a valid preset is applied", func() {
			resp := put(`{"sensitivity":"High"}`)
			defer resp.Body.Close()

			Convey("Then it is normalized and accepted", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(deps.sensitivity, ShouldEqual, posture.SensitivityHigh)
			})
		})

		Convey("When the preset is unknown", func() {
			resp := put(`{"sensitivity":"paranoid"}`)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(deps.sensitivity, ShouldEqual, posture.SensitivityMedium)
		})

		Convey("When the active preset is queried", func() {
			resp, err := http.Get(srv.URL + "/sensitivity")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var out map[string]string
			So(json.NewDecoder(resp.Body).Decode(&out), ShouldBeNil)
			So(out["sensitivity"], ShouldEqual, posture.SensitivityMedium)
		})
	})
}

func TestFrameStream(t *testing.T) {
	Convey("Given the websocket frame ingest", t, func() {
		deps := newStubDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/frames"
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		So(err, ShouldBeNil)
		if resp != nil {
			resp.Body.Close()
		}
		defer conn.Close()

		Convey("When frames are written to the socket", func() {
			So(conn.WriteMessage(websocket.TextMessage, []byte(validFrameBody())), ShouldBeNil)
			So(conn.WriteMessage(websocket.TextMessage, []byte(validFrameBody())), ShouldBeNil)

			Convey("Then they are enqueued", func() {
				So(waitFor(func() bool { return deps.enqueuedCount() == 2 }), ShouldBeTrue)
			})
		})

		Convey("When a malformed frame is written", func() {
			So(conn.WriteMessage(websocket.TextMessage, []byte(`{"frame_id":"empty"}`)), ShouldBeNil)
			So(conn.WriteMessage(websocket.TextMessage, []byte(validFrameBody())), ShouldBeNil)

			Convey("Then the stream survives and the good frame lands", func() {
				So(waitFor(func() bool { return deps.enqueuedCount() == 1 }), ShouldBeTrue)
			})
		})
	})
}

func TestScoreStream(t *testing.T) {
	Convey("Given the websocket score feed", t, func() {
		deps := newStubDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/score"
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		So(err, ShouldBeNil)
		if resp != nil {
			resp.Body.Close()
		}
		defer conn.Close()

		Convey("When results are published", func() {
			deps.results <- model.Result{Score: 90, Smoothed: 90, TS: time.Now()}
			deps.results <- model.Result{Score: 60, Smoothed: 60, TS: time.Now()}

			Convey("Then the feed smooths with its own window", func() {
				var first, second types.ScoreView
				So(conn.ReadJSON(&first), ShouldBeNil)
				So(conn.ReadJSON(&second), ShouldBeNil)

				So(first.Score, ShouldEqual, 90)
				So(first.Smoothed, ShouldEqual, 90)
				So(second.Score, ShouldEqual, 60)
				// Preview window of 3: mean(90, 60) = 75.
				So(second.Smoothed, ShouldEqual, 75)
			})
		})
	})
}

// waitFor polls cond briefly; websocket delivery is asynchronous.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
