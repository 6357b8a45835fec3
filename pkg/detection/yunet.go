package detection

import (
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/teslashibe/go-facedetect/pkg/debug"
	"gocv.io/x/gocv"
)

// yunetColumns is the row width of FaceDetectorYN output:
// 0-3 bbox (x, y, w, h in pixels), 4-13 five landmarks, 14 score.
const yunetColumns = 15

type yunetVariant struct {
	detector gocv.FaceDetectorYN
	config   ModelConfig
}

// YuNetDetector uses OpenCV's FaceDetectorYN for face detection.
// It keeps one FaceDetectorYN per model selection.
type YuNetDetector struct {
	variants map[Model]*yunetVariant
	config   Config
	mu       sync.Mutex // Protects inference
	closed   bool
}

// NewYuNet creates a YuNet face detector using GoCV's built-in FaceDetectorYN
func NewYuNet(cfg Config) (*YuNetDetector, error) {
	d := &YuNetDetector{
		variants: make(map[Model]*yunetVariant, 2),
		config:   cfg,
	}

	for _, m := range []Model{ShortRange, FullRange} {
		mc, _ := cfg.For(m)
		if _, err := os.Stat(mc.ModelPath); err != nil {
			d.Close()
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, mc.ModelPath)
		}

		// Input size is updated per frame before each Detect.
		fd := gocv.NewFaceDetectorYNWithParams(
			mc.ModelPath,
			"", // No config file needed for ONNX
			image.Pt(320, 320),
			float32(DefaultMinConfidence),
			float32(cfg.NMSThresh),
			cfg.TopK,
			int(gocv.NetBackendDefault),
			int(gocv.NetTargetCPU),
		)
		d.variants[m] = &yunetVariant{detector: fd, config: mc}
	}

	return d, nil
}

// InputFormat reports that YuNet consumes OpenCV's BGR frames directly.
func (d *YuNetDetector) InputFormat() ColorFormat {
	return FormatBGR
}

// Detect finds faces in a BGR frame
func (d *YuNetDetector) Detect(frame gocv.Mat, opts Options) ([]Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if frame.Empty() {
		return nil, ErrEmptyFrame
	}

	v, ok := d.variants[opts.Model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, opts.Model)
	}

	input := frame
	size := ScaledSize(frame.Cols(), frame.Rows(), v.config.MaxSide)
	if size.X != frame.Cols() || size.Y != frame.Rows() {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(frame, &resized, size, 0, 0, gocv.InterpolationLinear)
		input = resized
	}

	imgW := float64(input.Cols())
	imgH := float64(input.Rows())

	v.detector.SetInputSize(image.Pt(input.Cols(), input.Rows()))
	v.detector.SetScoreThreshold(float32(opts.MinConfidence))

	faces := gocv.NewMat()
	defer faces.Close()
	v.detector.Detect(input, &faces)

	if faces.Rows() > 0 && faces.Cols() < yunetColumns {
		return nil, fmt.Errorf("detection: unexpected output shape %dx%d", faces.Rows(), faces.Cols())
	}

	detections := make([]Detection, 0, faces.Rows())
	for r := 0; r < faces.Rows(); r++ {
		x := float64(faces.GetFloatAt(r, 0))
		y := float64(faces.GetFloatAt(r, 1))
		w := float64(faces.GetFloatAt(r, 2))
		h := float64(faces.GetFloatAt(r, 3))

		kps := make([]Point, 0, 5)
		for c := 4; c < 14; c += 2 {
			kps = append(kps, Point{
				X: float64(faces.GetFloatAt(r, c)) / imgW,
				Y: float64(faces.GetFloatAt(r, c+1)) / imgH,
			})
		}

		detections = append(detections, Detection{
			X:          x / imgW,
			Y:          y / imgH,
			W:          w / imgW,
			H:          h / imgH,
			Confidence: float64(faces.GetFloatAt(r, 14)),
			Keypoints:  kps,
		})
	}

	detections = Filter(detections, opts.MinConfidence)
	if len(detections) > 0 {
		debug.FrameLog("👁️  YuNet (%s) found %d face(s)\n", opts.Model, len(detections))
	}

	return detections, nil
}

// Close releases the detector resources
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	for _, v := range d.variants {
		v.detector.Close()
	}
	return nil
}

// ScaledSize returns the frame size fed to a model whose longest side is
// capped at maxSide. A maxSide of 0, or a frame already small enough, keeps
// the native size.
func ScaledSize(w, h, maxSide int) image.Point {
	longest := max(w, h)
	if maxSide <= 0 || longest <= maxSide {
		return image.Pt(w, h)
	}
	scale := float64(maxSide) / float64(longest)
	return image.Pt(max(1, int(float64(w)*scale+0.5)), max(1, int(float64(h)*scale+0.5)))
}
