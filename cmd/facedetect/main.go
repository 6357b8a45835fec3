// Face Detection App - pick an image, a video or the webcam and watch
// faces get boxed in the local dashboard.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-facedetect/pkg/facedetect"
)

func main() {
	cfg := parseFlags()

	app, err := facedetect.New(cfg)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if err := app.Init(); err != nil {
		log.Fatalf("❌ Initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("❌ Runtime error: %v", err)
	}
}

// parseFlags parses command line flags and returns configuration.
// Environment variables provide the flag defaults.
func parseFlags() facedetect.Config {
	cfg := facedetect.DefaultConfig()
	cfg.LoadEnvConfig()

	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")
	flag.BoolVar(&cfg.DebugFrames, "debug-frames", false, "Log every processed frame")
	flag.StringVar(&cfg.Port, "port", cfg.Port, "Dashboard port (FACEDETECT_PORT)")
	flag.StringVar(&cfg.ModelsDir, "models", cfg.ModelsDir, "Directory holding "+facedetect.DefaultModelFile+" (FACEDETECT_MODELS)")
	flag.StringVar(&cfg.MediaDir, "media", cfg.MediaDir, "Directory the file picker opens in (FACEDETECT_MEDIA_DIR)")
	flag.IntVar(&cfg.CameraDevice, "camera", cfg.CameraDevice, "Webcam device index (FACEDETECT_CAMERA)")
	flag.Parse()

	return cfg
}
