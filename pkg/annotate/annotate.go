// Package annotate converts frames between the formats the detector and the
// display need, and draws detections onto frames.
package annotate

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/teslashibe/go-facedetect/pkg/detection"
	"gocv.io/x/gocv"
)

// ErrEmptyFrame is returned when converting an empty Mat.
var ErrEmptyFrame = errors.New("annotate: empty frame")

// Style controls how detections are drawn.
type Style struct {
	BoxColor       color.RGBA
	BoxThickness   int
	KeypointColor  color.RGBA
	KeypointRadius int
}

// DefaultStyle draws light grey boxes with red landmark dots.
func DefaultStyle() Style {
	return Style{
		BoxColor:       color.RGBA{R: 224, G: 224, B: 224, A: 255},
		BoxThickness:   2,
		KeypointColor:  color.RGBA{R: 255, A: 255},
		KeypointRadius: 2,
	}
}

// PrepareInput returns a copy of the BGR frame in the channel order the
// detector expects. The caller owns the returned Mat.
func PrepareInput(frame gocv.Mat, format detection.ColorFormat) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), ErrEmptyFrame
	}

	switch format {
	case detection.FormatBGR:
		return frame.Clone(), nil
	case detection.FormatRGB:
		out := gocv.NewMat()
		gocv.CvtColor(frame, &out, gocv.ColorBGRToRGB)
		return out, nil
	default:
		return gocv.NewMat(), fmt.Errorf("annotate: unsupported color format %d", format)
	}
}

// PixelRect maps a normalized detection onto a cols x rows frame,
// clipped to the frame bounds.
func PixelRect(d detection.Detection, cols, rows int) image.Rectangle {
	r := image.Rect(
		int(d.X*float64(cols)),
		int(d.Y*float64(rows)),
		int((d.X+d.W)*float64(cols)),
		int((d.Y+d.H)*float64(rows)),
	)
	return r.Intersect(image.Rect(0, 0, cols, rows))
}

// PixelPoint maps a normalized point onto a cols x rows frame.
func PixelPoint(p detection.Point, cols, rows int) image.Point {
	return image.Pt(int(p.X*float64(cols)), int(p.Y*float64(rows)))
}

// Draw renders every detection onto frame in place.
// Returns the number of boxes drawn; boxes entirely outside the frame are skipped.
func Draw(frame *gocv.Mat, dets []detection.Detection, style Style) int {
	if frame.Empty() {
		return 0
	}

	cols, rows := frame.Cols(), frame.Rows()
	bounds := image.Rect(0, 0, cols, rows)

	drawn := 0
	for _, d := range dets {
		r := PixelRect(d, cols, rows)
		if r.Empty() {
			continue
		}
		gocv.Rectangle(frame, r, style.BoxColor, style.BoxThickness)
		drawn++

		for _, kp := range d.Keypoints {
			pt := PixelPoint(kp, cols, rows)
			if !pt.In(bounds) {
				continue
			}
			gocv.Circle(frame, pt, style.KeypointRadius, style.KeypointColor, style.KeypointRadius)
		}
	}
	return drawn
}

// ToDisplay converts a BGR frame to an RGBA image, scaled down to fit within
// maxW x maxH. Non-positive limits keep the native size.
func ToDisplay(frame gocv.Mat, maxW, maxH int) (image.Image, error) {
	if frame.Empty() {
		return nil, ErrEmptyFrame
	}

	img, err := frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("annotate: convert frame: %w", err)
	}

	if maxW > 0 && maxH > 0 {
		return imaging.Fit(img, maxW, maxH, imaging.Lanczos), nil
	}
	return img, nil
}
