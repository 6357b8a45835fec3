// Detection FPS test - run the annotation loop on a video or the webcam
// without the dashboard and report frame rate and face counts.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/teslashibe/go-facedetect/internal/config"
	"github.com/teslashibe/go-facedetect/pkg/camera"
	"github.com/teslashibe/go-facedetect/pkg/debug"
	"github.com/teslashibe/go-facedetect/pkg/detection"
	"github.com/teslashibe/go-facedetect/pkg/facedetect"
	"github.com/teslashibe/go-facedetect/pkg/pipeline"
	"github.com/teslashibe/go-facedetect/pkg/source"
)

// discard is a display surface that drops every frame.
type discard struct{}

func (discard) Render(image.Image) error { return nil }
func (discard) Clear() {}

func main() {
	video := flag.String("video", "", "Video file to process (default: webcam)")
	device := flag.Int("camera", config.CameraDevice(), "Webcam device index")
	models := flag.String("models", config.ModelsDir(), "Directory holding the YuNet model")
	flag.BoolVar(&debug.Frames, "debug-frames", false, "Log every processed frame")
	flag.Parse()

	fmt.Println("🎬 Face Detection FPS Test")
	fmt.Println("==========================")

	cfg := detection.DefaultConfig()
	cfg.ShortRange.ModelPath = config.ModelPath(*models, facedetect.DefaultModelFile)
	cfg.FullRange.ModelPath = cfg.ShortRange.ModelPath

	det, err := detection.NewYuNet(cfg)
	if err != nil {
		fmt.Printf("❌ Detector: %v\n", err)
		os.Exit(1)
	}
	defer det.Close()

	var src source.Source
	model := detection.FullRange
	if *video != "" {
		fmt.Printf("Video: %s\n\n", *video)
		src, err = source.OpenVideo(*video)
	} else {
		camCfg := camera.DefaultConfig()
		camCfg.Device = *device
		fmt.Printf("Camera: %d (%dx%d)\n\n", camCfg.Device, camCfg.Width, camCfg.Height)
		src, err = source.OpenCamera(camCfg)
		model = detection.ShortRange
	}
	if err != nil {
		fmt.Printf("❌ Open source: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var frames, faces atomic.Int64
	opts := pipeline.DefaultOptions()
	opts.Apply(
		pipeline.WithRepeat(true),
		pipeline.WithModel(model),
		pipeline.WithDisplaySize(0, 0),
		pipeline.WithFrameCallback(func(n int, dets []detection.Detection) {
			frames.Store(int64(n))
			faces.Add(int64(len(dets)))
		}),
	)

	loop := pipeline.New(src, det, discard{}, opts)
	startTime := time.Now()
	if err := loop.Start(ctx); err != nil {
		fmt.Printf("❌ Start: %v\n", err)
		os.Exit(1)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-loop.Done():
			res := loop.Result()
			elapsed := time.Since(startTime).Seconds()
			fmt.Printf("\n\n📊 Final: %d frames in %.1fs = %.2f fps, %d faces (%s)\n",
				res.Frames, elapsed, float64(res.Frames)/elapsed, faces.Load(), res.Reason)
			if res.Err != nil {
				fmt.Printf("❌ %v\n", res.Err)
				os.Exit(1)
			}
			return
		case <-ticker.C:
			elapsed := time.Since(startTime).Seconds()
			n := frames.Load()
			fmt.Printf("\r📷 Frames: %d | FPS: %.2f | Faces: %d    ", n, float64(n)/elapsed, faces.Load())
		}
	}
}
