// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file/env.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// BaselinePath overrides the calibration record location.
	// Empty selects the default (~/.postura/calibration.json).
	BaselinePath string `koanf:"baseline_path"`

	// SessionLogPath enables the append-only session log when non-empty.
	SessionLogPath string `koanf:"session_log_path"`

	// SessionLogMaxSizeMB, SessionLogMaxBackups, and SessionLogMaxAgeDays
	// set the session log rotation policy.
	SessionLogMaxSizeMB  int `koanf:"session_log_max_size_mb"`
	SessionLogMaxBackups int `koanf:"session_log_max_backups"`
	SessionLogMaxAgeDays int `koanf:"session_log_max_age_days"`

	// FrameQueueSize bounds the in-memory frame queue.
	FrameQueueSize int `koanf:"frame_queue_size"`

	// WorkerCount sets the number of monitor workers.
	WorkerCount int `koanf:"worker_count"`

	// Sensitivity selects the initial threshold preset: low, medium, high.
	Sensitivity string `koanf:"sensitivity"`

	// CalibrationSamples is the number of metric samples a calibration
	// session collects; CalibrationMinSamples is the floor below which the
	// session fails instead of persisting a degenerate baseline.
	CalibrationSamples    int `koanf:"calibration_samples"`
	CalibrationMinSamples int `koanf:"calibration_min_samples"`

	// MonitorWindow and PreviewWindow size the two score smoothers.
	MonitorWindow int `koanf:"monitor_window"`
	PreviewWindow int `koanf:"preview_window"`

	// BadPostureSeconds is how long an issue must persist before an alert;
	// AlertCooldownSeconds is the minimum gap between alerts.
	BadPostureSeconds    int `koanf:"bad_posture_seconds"`
	AlertCooldownSeconds int `koanf:"alert_cooldown_seconds"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		BaselinePath:          "",
		SessionLogPath:        "",
		SessionLogMaxSizeMB:   10,
		SessionLogMaxBackups:  3,
		SessionLogMaxAgeDays:  30,
		FrameQueueSize:        256,
		WorkerCount:           1,
		Sensitivity:           "medium",
		CalibrationSamples:    45,
		CalibrationMinSamples: 10,
		MonitorWindow:         20,
		PreviewWindow:         30,
		BadPostureSeconds:     5,
		AlertCooldownSeconds:  45,
	}
}
