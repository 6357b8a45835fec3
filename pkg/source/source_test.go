package source

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/teslashibe/go-facedetect/pkg/camera"
	"gocv.io/x/gocv"
)

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{200, 120, 40, 255})
		}
	}

	path := filepath.Join(dir, "frame.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestOpenImage_SingleShot(t *testing.T) {
	path := writePNG(t, t.TempDir(), 64, 48)

	src, err := OpenImage(path)
	if err != nil {
		t.Fatalf("OpenImage failed: %v", err)
	}
	defer src.Close()

	if src.Kind() != KindImage || src.Path() != path {
		t.Errorf("Kind/Path = %v %q", src.Kind(), src.Path())
	}

	frame := gocv.NewMat()
	defer frame.Close()

	if err := src.Read(&frame); err != nil {
		t.Fatalf("first Read failed: %v", err)
	}
	if frame.Cols() != 64 || frame.Rows() != 48 || frame.Channels() != 3 {
		t.Errorf("frame = %dx%dx%d, want 64x48x3", frame.Cols(), frame.Rows(), frame.Channels())
	}

	if err := src.Read(&frame); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("second Read = %v, want ErrEndOfStream", err)
	}
}

func TestOpenImage_Errors(t *testing.T) {
	dir := t.TempDir()

	corrupt := filepath.Join(dir, "corrupt.jpg")
	if err := os.WriteFile(corrupt, []byte("not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(dir, "nope.png"), ErrOpen},
		{"directory", dir, ErrOpen},
		{"corrupt", corrupt, ErrDecode},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src, err := OpenImage(tc.path)
			if !errors.Is(err, tc.want) {
				t.Errorf("OpenImage(%s) = %v, want %v", tc.name, err, tc.want)
			}
			if src != nil {
				t.Error("source should be nil on error")
			}
		})
	}
}

func TestImage_ReadAfterClose(t *testing.T) {
	src, err := OpenImage(writePNG(t, t.TempDir(), 8, 8))
	if err != nil {
		t.Fatalf("OpenImage failed: %v", err)
	}

	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	frame := gocv.NewMat()
	defer frame.Close()
	if err := src.Read(&frame); !errors.Is(err, ErrClosed) {
		t.Errorf("Read after Close = %v, want ErrClosed", err)
	}
}

func TestOpenVideo_Errors(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(garbage, []byte("definitely not a video"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.mp4"), garbage} {
		src, err := OpenVideo(path)
		if err == nil {
			// Some backends open anything and fail on the first read.
			frame := gocv.NewMat()
			readErr := src.Read(&frame)
			frame.Close()
			src.Close()
			if !errors.Is(readErr, ErrEndOfStream) {
				t.Errorf("%s: Read = %v, want ErrEndOfStream", path, readErr)
			}
			continue
		}
		if !errors.Is(err, ErrOpen) {
			t.Errorf("%s: OpenVideo = %v, want ErrOpen", path, err)
		}
	}
}

func TestOpenCamera_InvalidConfig(t *testing.T) {
	cfg := camera.DefaultConfig()
	cfg.Device = -1

	if _, err := OpenCamera(cfg); !errors.Is(err, ErrOpen) {
		t.Errorf("OpenCamera = %v, want ErrOpen", err)
	}
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		KindImage:  "image",
		KindVideo:  "video",
		KindCamera: "camera",
		Kind(5):    "kind(5)",
	}
	for k, want := range tests {
		if k.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(k), k.String(), want)
		}
	}
}

func TestMock(t *testing.T) {
	a := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC3)
	b := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3)
	m := NewMock(KindVideo, a, b)

	frame := gocv.NewMat()
	defer frame.Close()

	if err := m.Read(&frame); err != nil || frame.Rows() != 4 {
		t.Fatalf("first Read = %v rows=%d", err, frame.Rows())
	}
	if err := m.Read(&frame); err != nil || frame.Rows() != 2 {
		t.Fatalf("second Read = %v rows=%d", err, frame.Rows())
	}
	if err := m.Read(&frame); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("third Read = %v, want ErrEndOfStream", err)
	}
	if m.Reads() != 3 {
		t.Errorf("Reads = %d, want 3", m.Reads())
	}

	m.Close()
	if !m.Closed() {
		t.Error("mock should be closed")
	}
	if err := m.Read(&frame); !errors.Is(err, ErrClosed) {
		t.Errorf("Read after Close = %v, want ErrClosed", err)
	}
}

func TestMock_LoopAndReadFunc(t *testing.T) {
	boom := errors.New("codec error")
	m := NewMock(KindCamera, gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3))
	m.Loop = true
	m.ReadFunc = func(n int) error {
		if n == 3 {
			return boom
		}
		return nil
	}
	defer m.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	for i := 0; i < 3; i++ {
		if err := m.Read(&frame); err != nil {
			t.Fatalf("Read %d = %v", i, err)
		}
	}
	if err := m.Read(&frame); !errors.Is(err, boom) {
		t.Errorf("Read 3 = %v, want injected error", err)
	}
}
