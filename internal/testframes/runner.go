package testframes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/postura/pkg/logger"
)

const (
	healthCheckTimeout = 5 * time.Second
	scorePollEvery     = 10 // frames between score polls
)

// Run executes the complete frame test: health check, optional
// calibration, frame streaming over the websocket, and score polling.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting postura frame test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("frames", cfg.NumFrames),
		logger.Int("fps", cfg.FPS),
		logger.Any("calibrate", cfg.Calibrate),
		logger.Float64("slouch", cfg.Slouch),
	)

	client := &http.Client{Timeout: cfg.Timeout}

	if err := checkServiceHealth(ctx, client, cfg); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	conn, err := dialFrameStream(ctx, cfg)
	if err != nil {
		return fmt.Errorf("dial frame stream: %w", err)
	}
	defer conn.Close()

	gen := newGenerator(cfg)

	if cfg.Calibrate {
		if err := runCalibration(ctx, client, cfg, conn, gen, stats); err != nil {
			return fmt.Errorf("calibration failed: %w", err)
		}
	}

	if err := streamFrames(ctx, client, cfg, conn, gen, stats); err != nil {
		return fmt.Errorf("frame streaming failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	log.Info(ctx, "frame test complete",
		logger.Int("framesSent", stats.FramesSent),
		logger.Int("framesDropped", stats.FramesDropped),
		logger.Int("scoresRead", stats.ScoresRead),
		logger.String("duration", stats.Duration.String()),
	)
	return nil
}

// checkServiceHealth verifies the service answers on /healthz.
func checkServiceHealth(ctx context.Context, client *http.Client, cfg *Config) error {
	hctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(hctx, http.MethodGet, cfg.BaseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status %d", resp.StatusCode)
	}
	return nil
}

// dialFrameStream opens the websocket frame ingest endpoint.
func dialFrameStream(ctx context.Context, cfg *Config) (*websocket.Conn, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/frames"

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}
	return conn, nil
}

// runCalibration starts a session and streams upright frames until the
// service reports a baseline.
func runCalibration(ctx context.Context, client *http.Client, cfg *Config, conn *websocket.Conn, gen *generator, stats *Stats) error {
	log := logger.Get()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/calibration", http.NoBody)
	if err != nil {
		return fmt.Errorf("build calibration request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("start calibration: %w", err)
	}
	var started CalibrationResponse
	err = json.NewDecoder(resp.Body).Decode(&started)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("decode calibration response: %w", err)
	}
	log.Info(ctx, "calibration session started", logger.String("sessionID", started.SessionID))

	interval := frameInterval(cfg)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Hold the subject still while the baseline is captured.
	upright := *gen
	upright.slouch = 0

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during calibration: %w", ctx.Err())
		case <-ticker.C:
			if err := conn.WriteJSON(upright.next()); err != nil {
				return fmt.Errorf("send calibration frame: %w", err)
			}
			stats.FramesSent++

			status, err := getCalibration(ctx, client, cfg)
			if err != nil {
				return err
			}
			if status.State == "calibrated" {
				log.Info(ctx, "calibration complete")
				return nil
			}
			if cfg.Verbose {
				log.Debug(ctx, "calibrating",
					logger.Int("collected", status.Collected),
					logger.Int("target", status.Target),
				)
			}
		}
	}
}

// streamFrames sends the drifting sequence and periodically polls /score.
func streamFrames(ctx context.Context, client *http.Client, cfg *Config, conn *websocket.Conn, gen *generator, stats *Stats) error {
	log := logger.Get()

	interval := frameInterval(cfg)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; i < cfg.NumFrames; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during streaming: %w", ctx.Err())
		case <-ticker.C:
			if err := conn.WriteJSON(gen.next()); err != nil {
				return fmt.Errorf("send frame %d: %w", i, err)
			}
			stats.FramesSent++

			if (i+1)%scorePollEvery != 0 {
				continue
			}
			score, err := getScore(ctx, client, cfg)
			if err != nil {
				stats.FramesDropped++
				if cfg.Verbose {
					log.Debug(ctx, "score poll failed", logger.Error(err))
				}
				continue
			}
			stats.ScoresRead++
			issues := make([]string, 0, len(score.Issues))
			for _, iss := range score.Issues {
				issues = append(issues, iss.Label)
			}
			log.Info(ctx, "score",
				logger.Int("frame", i+1),
				logger.Int("raw", score.Score),
				logger.Int("smoothed", score.Smoothed),
				logger.String("issues", strings.Join(issues, ",")),
			)
		}
	}
	return nil
}

func getCalibration(ctx context.Context, client *http.Client, cfg *Config) (CalibrationResponse, error) {
	var out CalibrationResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+"/calibration", nil)
	if err != nil {
		return out, fmt.Errorf("build calibration status request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return out, fmt.Errorf("calibration status: %w", err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode calibration status: %w", err)
	}
	return out, nil
}

func getScore(ctx context.Context, client *http.Client, cfg *Config) (ScoreResponse, error) {
	var out ScoreResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+"/score", nil)
	if err != nil {
		return out, fmt.Errorf("build score request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return out, fmt.Errorf("score request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("unexpected score status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode score: %w", err)
	}
	return out, nil
}

func frameInterval(cfg *Config) time.Duration {
	fps := cfg.FPS
	if fps <= 0 {
		fps = 1
	}
	return time.Second / time.Duration(fps)
}
