package app

import (
	"time"

	"github.com/okian/postura/internal/adapters/repository"
	"github.com/okian/postura/internal/adapters/sessionlog"
	"github.com/okian/postura/internal/domain/posture"
	"github.com/okian/postura/pkg/logger"
)

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithStore sets the baseline persistence backend.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithSessionLog sets the session history sink.
func WithSessionLog(sl *sessionlog.Logger) Option {
	return func(s *Service) {
		s.sessionLog = sl
	}
}

// WithNotifier sets the alert sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithFrameQueueSize sets the ingest queue capacity.
func WithFrameQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of monitor workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithSensitivity selects the initial threshold preset. Invalid names are
// rejected at config validation; here they keep the default.
func WithSensitivity(name string) Option {
	return func(s *Service) {
		if t, err := posture.Preset(name); err == nil {
			s.thresholds = t
		}
	}
}

// WithCalibrationSamples sets the session length and the minimum usable
// sample count below which the session fails.
func WithCalibrationSamples(target, min int) Option {
	return func(s *Service) {
		if target > 0 {
			s.calibrationTarget = target
		}
		if min > 0 {
			s.calibrationMin = min
		}
	}
}

// WithMonitorWindow sets the monitor smoothing window.
func WithMonitorWindow(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.monitorWindow = size
		}
	}
}

// WithPreviewWindow sets the smoothing window handed to preview consumers.
func WithPreviewWindow(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.previewWindow = size
		}
	}
}

// WithAlertPolicy sets how long bad posture must persist before an alert
// and the cooldown between alerts.
func WithAlertPolicy(badFor, cooldown time.Duration) Option {
	return func(s *Service) {
		if badFor > 0 {
			s.badPostureFor = badFor
		}
		if cooldown > 0 {
			s.alertCooldown = cooldown
		}
	}
}
