// Package app provides the core service that implements the dependencies
// required by the HTTP API: frame ingest, the monitor pipeline, calibration
// sessions, sensitivity selection, and result fan-out.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	framequeue "github.com/okian/postura/internal/adapters/mq/queue"
	workerpool "github.com/okian/postura/internal/adapters/mq/worker"
	"github.com/okian/postura/internal/adapters/repository"
	"github.com/okian/postura/internal/adapters/sessionlog"
	"github.com/okian/postura/internal/domain/calibration"
	"github.com/okian/postura/internal/domain/model"
	"github.com/okian/postura/internal/domain/posture"
	"github.com/okian/postura/internal/domain/smoothing"
	"github.com/okian/postura/internal/domain/types"
	"github.com/okian/postura/pkg/logger"
	"github.com/okian/postura/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultFrameQueueSize    = 256
	defaultWorkerCount       = 1
	defaultCalibrationTarget = 45
	defaultCalibrationMin    = 10
	defaultMonitorWindow     = 20
	defaultPreviewWindow     = 30
	defaultBadPostureFor     = 5 * time.Second
	defaultAlertCooldown     = 45 * time.Second

	// subscriberBuffer bounds each fan-out channel; a slow consumer drops
	// results instead of stalling the monitor loop.
	subscriberBuffer = 8
)

// Notifier delivers a sustained-bad-posture alert. Delivery mechanics
// (menu bar, TTS, OS notification) belong to external collaborators; the
// default implementation just logs.
type Notifier interface {
	Notify(ctx context.Context, res model.Result)
}

// calibSession tracks one in-flight calibration.
type calibSession struct {
	id       string
	attempts int
	samples  []posture.Metrics
}

// Service implements the API dependencies for the posture monitor.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	sessionLog *sessionlog.Logger
	frameQueue framequeue.Queue
	workerPool *workerpool.Pool
	smoother   *smoothing.Smoother
	notifier   Notifier

	// Detection state
	baseline   posture.Metrics
	thresholds posture.Thresholds
	session    *calibSession
	lastResult *model.Result

	// Alert policy state
	badSince  time.Time
	lastAlert time.Time

	// Configuration
	queueSize         int
	workerCount       int
	calibrationTarget int
	calibrationMin    int
	monitorWindow     int
	previewWindow     int
	badPostureFor     time.Duration
	alertCooldown     time.Duration

	// Result fan-out
	subMu  sync.Mutex
	subs   map[int]chan model.Result
	nextID int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:         defaultFrameQueueSize,
		workerCount:       defaultWorkerCount,
		calibrationTarget: defaultCalibrationTarget,
		calibrationMin:    defaultCalibrationMin,
		monitorWindow:     defaultMonitorWindow,
		previewWindow:     defaultPreviewWindow,
		badPostureFor:     defaultBadPostureFor,
		alertCooldown:     defaultAlertCooldown,
		thresholds:        posture.DefaultThresholds(),
		subs:              make(map[int]chan model.Result),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.notifier == nil {
		s.notifier = &logNotifier{logger: s.logger.Named("alert")}
	}
	if s.store == nil {
		s.store = repository.NewFileStore()
	}
	if s.sessionLog == nil {
		s.sessionLog = sessionlog.New()
	}
	if s.smoother == nil {
		s.smoother = smoothing.New(s.monitorWindow)
	}

	s.logger.Info(ctx, "starting posture monitor service...")

	// A missing baseline is a normal first-run state; monitoring stays
	// passive until the user calibrates.
	baseline, err := s.store.Load(ctx)
	switch {
	case err == nil:
		s.baseline = baseline
		s.logger.Info(ctx, "loaded calibration baseline", logger.Int("metrics", len(baseline)))
	case errors.Is(err, repository.ErrNotCalibrated):
		s.logger.Warn(ctx, "no calibration baseline; please calibrate")
	default:
		return fmt.Errorf("load baseline: %w", err)
	}

	s.frameQueue = framequeue.NewInMemoryQueue(
		framequeue.WithCapacity(s.queueSize),
	)
	s.workerPool = workerpool.NewPool(s.workerCount, s.frameQueue, s)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "posture monitor service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("sensitivity", s.thresholds.Sensitivity),
	)

	return nil
}

// Stop gracefully shuts down the service. The mutex is released before the
// pool drains: in-flight frames still need it inside ProcessFrame.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	pool := s.workerPool
	sessionLog := s.sessionLog
	log := s.logger
	s.mu.Unlock()

	ctx := context.Background()
	log.Info(ctx, "stopping posture monitor service...")

	if pool != nil {
		_ = pool.Shutdown(ctx)
	}
	if sessionLog != nil {
		_ = sessionLog.Close()
	}

	s.subMu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subMu.Unlock()

	log.Info(ctx, "posture monitor service stopped")
}

// Enqueue submits a landmark frame for asynchronous processing.
// Returns false on backpressure.
func (s *Service) Enqueue(ctx context.Context, f model.Frame) bool {
	s.mu.RLock()
	q := s.frameQueue
	s.mu.RUnlock()
	if q == nil {
		return false
	}
	if f.FrameID == "" {
		f.FrameID = uuid.New().String()
	}
	if f.TS.IsZero() {
		f.TS = time.Now()
	}
	return q.Enqueue(ctx, f)
}

// ProcessFrame runs one frame through the detection pipeline. Called by the
// worker pool; implements worker.Processor.
func (s *Service) ProcessFrame(ctx context.Context, f model.Frame) error {
	start := time.Now()
	m := posture.Extract(f.Landmarks)

	s.mu.Lock()

	// Every frame counts toward an active session, usable or not; the
	// minimum-sample floor catches sessions where the subject was barely
	// visible.
	if s.session != nil {
		_, err := s.collectSampleLocked(ctx, m)
		s.mu.Unlock()
		return err
	}

	if len(m) == 0 {
		s.mu.Unlock()
		metrics.RecordFrameSkipped()
		return nil
	}

	if s.baseline == nil {
		// Uncalibrated: nothing to compare against.
		s.mu.Unlock()
		metrics.RecordFrameSkipped()
		return nil
	}

	score, issues := posture.Compare(m, s.baseline, s.thresholds)
	smoothed := s.smoother.Push(score)

	res := model.Result{
		Score:    score,
		Smoothed: smoothed,
		Issues:   toModelIssues(issues),
		TS:       f.TS,
	}
	s.lastResult = &res
	s.applyAlertPolicyLocked(ctx, res)
	s.mu.Unlock()

	metrics.RecordFrameProcessed()
	metrics.UpdatePostureScore(score)
	metrics.UpdateSmoothedScore(smoothed)
	for _, iss := range issues {
		metrics.RecordIssueDetected(iss.Label)
	}
	metrics.RecordComparisonLatency(float64(time.Since(start).Milliseconds()))

	s.sessionLog.Record(ctx, res)
	s.publish(res)

	return nil
}

// collectSampleLocked advances the active calibration session by one frame.
// Frames without usable metrics still consume an attempt. Returns done=true
// when the session finished (either way). Caller holds s.mu.
func (s *Service) collectSampleLocked(ctx context.Context, m posture.Metrics) (bool, error) {
	sess := s.session
	sess.attempts++
	if len(m) > 0 {
		sess.samples = append(sess.samples, m.Clone())
	}
	metrics.UpdateCalibrationSamples(len(sess.samples))

	if sess.attempts < s.calibrationTarget {
		return false, nil
	}

	// Session complete: reduce and persist, or fail on thin data.
	s.session = nil
	metrics.UpdateCalibrationSamples(0)

	if len(sess.samples) < s.calibrationMin {
		metrics.RecordCalibrationFailed()
		s.logger.Warn(ctx, "calibration failed: too few usable samples",
			logger.Int("collected", len(sess.samples)),
			logger.Int("required", s.calibrationMin),
		)
		return true, calibration.ErrInsufficientData
	}

	baseline, err := calibration.Average(sess.samples)
	if err != nil {
		metrics.RecordCalibrationFailed()
		return true, fmt.Errorf("average calibration samples: %w", err)
	}
	if err := s.store.Save(ctx, baseline); err != nil {
		metrics.RecordCalibrationFailed()
		return true, fmt.Errorf("persist baseline: %w", err)
	}

	s.baseline = baseline
	s.smoother.Reset()
	s.badSince = time.Time{}
	metrics.RecordCalibrationComplete()
	s.logger.Info(ctx, "calibration complete",
		logger.String("sessionID", sess.id),
		logger.Int("samples", len(sess.samples)),
	)
	return true, nil
}

// applyAlertPolicyLocked fires a notification when an issue has persisted
// past the sustained-duration threshold and the cooldown has elapsed.
// Caller holds s.mu.
func (s *Service) applyAlertPolicyLocked(ctx context.Context, res model.Result) {
	now := res.TS
	if len(res.Issues) == 0 {
		s.badSince = time.Time{}
		return
	}
	if s.badSince.IsZero() {
		s.badSince = now
		return
	}
	if now.Sub(s.badSince) > s.badPostureFor && now.Sub(s.lastAlert) > s.alertCooldown {
		s.lastAlert = now
		metrics.RecordAlertSent()
		go s.notifier.Notify(ctx, res)
	}
}

// StartCalibration begins a calibration session, replacing any existing
// baseline once it completes. Returns the session id.
func (s *Service) StartCalibration(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return "", ErrNotStarted
	}
	if s.session != nil {
		return "", ErrCalibrationRunning
	}

	s.session = &calibSession{
		id:      uuid.New().String(),
		samples: make([]posture.Metrics, 0, s.calibrationTarget),
	}
	metrics.UpdateCalibrationSamples(0)
	s.logger.Info(ctx, "calibration session started",
		logger.String("sessionID", s.session.id),
		logger.Int("target", s.calibrationTarget),
	)
	return s.session.id, nil
}

// Calibration reports baseline state and active session progress.
func (s *Service) Calibration(ctx context.Context) types.CalibrationView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session != nil {
		return types.CalibrationView{
			State:     types.CalibrationCalibrating,
			SessionID: s.session.id,
			Collected: len(s.session.samples),
			Target:    s.calibrationTarget,
		}
	}
	if s.baseline == nil {
		return types.CalibrationView{State: types.CalibrationUncalibrated}
	}
	return types.CalibrationView{State: types.CalibrationCalibrated}
}

// SetSensitivity switches the monitor loop to the named preset. The change
// produces a fresh Thresholds value; in-flight comparisons keep the one
// they started with.
func (s *Service) SetSensitivity(ctx context.Context, name string) error {
	t, err := posture.Preset(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.thresholds = t
	s.mu.Unlock()

	s.logger.Info(ctx, "sensitivity changed", logger.String("preset", name))
	return nil
}

// Sensitivity returns the active preset name.
func (s *Service) Sensitivity(ctx context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds.Sensitivity
}

// Latest returns the most recent assessment. Returns
// repository.ErrNotCalibrated while uncalibrated and ErrNoAssessment before
// the first scored frame.
func (s *Service) Latest(ctx context.Context) (model.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.baseline == nil {
		return model.Result{}, repository.ErrNotCalibrated
	}
	if s.lastResult == nil {
		return model.Result{}, ErrNoAssessment
	}
	return *s.lastResult, nil
}

// Subscribe registers a consumer for live results. The returned cancel
// function must be called to release the subscription. Slow consumers miss
// results rather than blocking the pipeline.
func (s *Service) Subscribe() (<-chan model.Result, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan model.Result, subscriberBuffer)
	s.subs[id] = ch

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// publish fans a result out to all subscribers without blocking.
func (s *Service) publish(res model.Result) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- res:
		default:
		}
	}
}

// PreviewWindow returns the configured preview smoother size. Each preview
// consumer must own its own Smoother; this only exposes the sizing policy.
func (s *Service) PreviewWindow() int {
	return s.previewWindow
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"sensitivity": s.thresholds.Sensitivity,
		"calibrated":  s.baseline != nil,
	}

	if s.started {
		stats["queueLength"] = s.frameQueue.Len(context.Background())
	}
	if s.lastResult != nil {
		stats["score"] = s.lastResult.Smoothed
	}
	if s.session != nil {
		stats["calibrating"] = true
		stats["calibrationSamples"] = len(s.session.samples)
	}

	return stats
}

func toModelIssues(issues []posture.Issue) []model.Issue {
	out := make([]model.Issue, len(issues))
	for i, iss := range issues {
		out[i] = model.Issue{Label: iss.Label, Deviation: iss.Deviation}
	}
	return out
}

// logNotifier is the default alert sink: a structured warning naming the
// worst issue.
type logNotifier struct {
	logger logger.Logger
}

func (n *logNotifier) Notify(ctx context.Context, res model.Result) {
	worst := "bad posture"
	if len(res.Issues) > 0 {
		worst = res.Issues[0].Label
	}
	n.logger.Warn(ctx, "sustained bad posture",
		logger.String("issue", worst),
		logger.Int("score", res.Smoothed),
	)
}
