package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/postura/internal/testframes"
	"github.com/okian/postura/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumFrames   = 600
	defaultFPS         = 15
	defaultSlouch      = 0.08
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numFrames = flag.Int("frames", defaultNumFrames, "Number of frames to stream")
		fps       = flag.Int("fps", defaultFPS, "Frames per second to stream at")
		calibrate = flag.Bool("calibrate", true, "Run a calibration session before streaming")
		slouch    = flag.Float64("slouch", defaultSlouch, "Peak slouch drift amplitude (0 disables)")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &testframes.Config{
		BaseURL:   *baseURL,
		NumFrames: *numFrames,
		FPS:       *fps,
		Calibrate: *calibrate,
		Slouch:    *slouch,
		Timeout:   *timeout,
		Verbose:   *verbose,
	}

	if err := testframes.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
