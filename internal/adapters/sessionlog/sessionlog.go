// Package sessionlog appends timestamped posture assessments to a rotating
// on-disk log. Writes are best-effort: a logging failure must never
// interfere with the scoring path.
package sessionlog

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/okian/postura/internal/domain/model"
	"github.com/okian/postura/pkg/logger"
)

// Default rotation policy.
const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 3
	defaultMaxAgeDays = 30
)

// entry is one JSON line in the session log.
type entry struct {
	TS     string   `json:"ts"`
	Score  int      `json:"score"`
	Issues []string `json:"issues,omitempty"`
}

// Logger appends assessment rows to a rotating file.
type Logger struct {
	mu  sync.Mutex
	w   io.WriteCloser
	log logger.Logger

	path       string
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
}

// Option applies a configuration option to the Logger.
type Option func(*Logger)

// WithPath sets the session log location.
func WithPath(path string) Option {
	return func(l *Logger) {
		if path != "" {
			l.path = path
		}
	}
}

// WithRotation sets the rotation policy: max file size in megabytes, number
// of rotated files kept, and their max age in days.
func WithRotation(maxSizeMB, maxBackups, maxAgeDays int) Option {
	return func(l *Logger) {
		if maxSizeMB > 0 {
			l.maxSizeMB = maxSizeMB
		}
		if maxBackups > 0 {
			l.maxBackups = maxBackups
		}
		if maxAgeDays > 0 {
			l.maxAgeDays = maxAgeDays
		}
	}
}

// New creates a session logger. With an empty path the logger is a no-op.
func New(opts ...Option) *Logger {
	l := &Logger{
		maxSizeMB:  defaultMaxSizeMB,
		maxBackups: defaultMaxBackups,
		maxAgeDays: defaultMaxAgeDays,
		log:        logger.Get().Named("sessionlog"),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.path != "" {
		l.w = &lumberjack.Logger{
			Filename:   l.path,
			MaxSize:    l.maxSizeMB,
			MaxBackups: l.maxBackups,
			MaxAge:     l.maxAgeDays,
		}
	}

	return l
}

// Record appends one assessment row. Errors are logged and swallowed.
func (l *Logger) Record(ctx context.Context, res model.Result) {
	if l.w == nil {
		return
	}

	labels := make([]string, len(res.Issues))
	for i, iss := range res.Issues {
		labels[i] = iss.Label
	}

	line, err := json.Marshal(entry{
		TS:     res.TS.UTC().Format(time.RFC3339),
		Score:  res.Smoothed,
		Issues: labels,
	})
	if err != nil {
		l.log.Warn(ctx, "failed to encode session log entry", logger.Error(err))
		return
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(line); err != nil {
		l.log.Warn(ctx, "failed to append session log entry", logger.Error(err))
	}
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return nil
	}
	return l.w.Close()
}
