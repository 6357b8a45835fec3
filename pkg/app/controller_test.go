package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-facedetect/pkg/detection"
	"github.com/teslashibe/go-facedetect/pkg/display"
	"github.com/teslashibe/go-facedetect/pkg/pipeline"
	"github.com/teslashibe/go-facedetect/pkg/source"
	"gocv.io/x/gocv"
)

// recorder collects events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) Errors() []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Type == EventError {
			out = append(out, ev)
		}
	}
	return out
}

func testFrames(n int) []gocv.Mat {
	frames := make([]gocv.Mat, n)
	for i := range frames {
		frames[i] = gocv.NewMatWithSizeFromScalar(gocv.NewScalar(40, 80, 120, 0), 24, 32, gocv.MatTypeCV8UC3)
	}
	return frames
}

// fixture wires a controller to mocks. open decides what each Start opens.
type fixture struct {
	det      *detection.Mock
	surface  *display.Recorder
	events   *recorder
	ctrl     *Controller
	mu       sync.Mutex
	opened   []*source.Mock
	openArgs []string
}

func newFixture(t *testing.T, det *detection.Mock, open func(mode Mode, path string) (*source.Mock, error)) *fixture {
	t.Helper()
	f := &fixture{det: det, surface: display.NewRecorder(), events: &recorder{}}

	opener := OpenerFunc(func(mode Mode, path string) (source.Source, error) {
		src, err := open(mode, path)
		f.mu.Lock()
		f.openArgs = append(f.openArgs, string(mode)+":"+path)
		if src != nil {
			f.opened = append(f.opened, src)
		}
		f.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return src, nil
	})

	opts := pipeline.DefaultOptions()
	opts.Apply(pipeline.WithInterval(time.Millisecond))
	f.ctrl = NewController(det, f.surface, f.events, opener, opts)
	t.Cleanup(func() { f.ctrl.Close() })
	return f
}

func (f *fixture) Sources() []*source.Mock {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*source.Mock(nil), f.opened...)
}

func (f *fixture) Opens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.openArgs)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestController_InitialState(t *testing.T) {
	f := newFixture(t, detection.NewMock(), nil)

	st := f.ctrl.Status()
	if st.State != StateSelection || st.Mode != "" || st.Session != "" {
		t.Errorf("initial status = %+v, want selection", st)
	}
}

func TestController_ImageRendersWithoutFaces(t *testing.T) {
	f := newFixture(t, detection.NewMock(), func(Mode, string) (*source.Mock, error) {
		return source.NewMock(source.KindImage, testFrames(1)...), nil
	})

	if err := f.ctrl.Start(context.Background(), ModeImage, "/tmp/photo.png"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if f.surface.Count() != 1 || f.surface.Last() == nil {
		t.Fatalf("rendered %d frames, want 1", f.surface.Count())
	}
	st := f.ctrl.Status()
	if st.State != StateShowing || st.Mode != ModeImage || st.Frames != 1 || st.Faces != 0 {
		t.Errorf("status = %+v, want showing with 1 frame", st)
	}
	if st.Session == "" || st.Source != "/tmp/photo.png" {
		t.Errorf("status = %+v, want session and source", st)
	}
	if !f.Sources()[0].Closed() {
		t.Error("image source must be released after the single shot")
	}
	if len(f.events.Errors()) != 0 {
		t.Errorf("unexpected error events: %+v", f.events.Errors())
	}
}

func TestController_ImageCountsFaces(t *testing.T) {
	det := detection.WithDetections(
		detection.Detection{X: 0.1, Y: 0.1, W: 0.3, H: 0.3, Confidence: 0.9},
		detection.Detection{X: 0.5, Y: 0.5, W: 0.3, H: 0.3, Confidence: 0.7},
	)
	f := newFixture(t, det, func(Mode, string) (*source.Mock, error) {
		return source.NewMock(source.KindImage, testFrames(1)...), nil
	})

	if err := f.ctrl.Start(context.Background(), ModeImage, "faces.jpg"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := f.ctrl.Status().Faces; got != 2 {
		t.Errorf("Faces = %d, want 2", got)
	}
}

func TestController_PickerCancelled(t *testing.T) {
	for _, mode := range []Mode{ModeImage, ModeVideo} {
		t.Run(string(mode), func(t *testing.T) {
			det := detection.NewMock()
			f := newFixture(t, det, func(Mode, string) (*source.Mock, error) {
				t.Error("nothing must be opened when the picker is cancelled")
				return nil, errors.New("unexpected open")
			})

			if err := f.ctrl.Start(context.Background(), mode, ""); err != nil {
				t.Fatalf("Start() error = %v, want nil", err)
			}
			if det.CallCount() != 0 {
				t.Errorf("detector called %d times, want 0", det.CallCount())
			}
			if st := f.ctrl.Status(); st.State != StateSelection {
				t.Errorf("state = %s, want selection", st.State)
			}
			if len(f.events.Errors()) != 0 {
				t.Error("a cancelled picker is not an error")
			}
		})
	}
}

func TestController_InvalidPath(t *testing.T) {
	openErr := errors.New("source: open failed")
	f := newFixture(t, detection.NewMock(), func(Mode, string) (*source.Mock, error) {
		return nil, openErr
	})

	err := f.ctrl.Start(context.Background(), ModeImage, "/missing/photo.png")
	if !errors.Is(err, openErr) {
		t.Fatalf("Start() error = %v, want %v", err, openErr)
	}

	if st := f.ctrl.Status(); st.State != StateSelection {
		t.Errorf("state = %s, want selection", st.State)
	}

	errs := f.events.Errors()
	if len(errs) != 1 {
		t.Fatalf("got %d error events, want 1", len(errs))
	}
	if errs[0].Title != "Error" || !strings.HasPrefix(errs[0].Message, "Could not process image:") {
		t.Errorf("error event = %+v", errs[0])
	}

	evs := f.events.Events()
	last := evs[len(evs)-1]
	if last.Type != EventState || last.State != StateSelection {
		t.Errorf("last event = %+v, want state selection", last)
	}
	if f.surface.Count() != 0 {
		t.Error("nothing must be rendered for an invalid path")
	}
}

func TestController_WrongExtension(t *testing.T) {
	f := newFixture(t, detection.NewMock(), func(Mode, string) (*source.Mock, error) {
		t.Error("a filtered-out file must not be opened")
		return nil, errors.New("unexpected open")
	})

	if err := f.ctrl.Start(context.Background(), ModeVideo, "notes.txt"); err == nil {
		t.Fatal("Start() error = nil, want failure")
	}
	errs := f.events.Errors()
	if len(errs) != 1 || !strings.HasPrefix(errs[0].Message, "Could not process video:") {
		t.Errorf("error events = %+v", errs)
	}
	if f.Opens() != 0 {
		t.Errorf("opened %d sources, want 0", f.Opens())
	}
}

func TestController_ImageWithoutFrame(t *testing.T) {
	f := newFixture(t, detection.NewMock(), func(Mode, string) (*source.Mock, error) {
		return source.NewMock(source.KindImage), nil
	})

	err := f.ctrl.Start(context.Background(), ModeImage, "empty.png")
	if !errors.Is(err, ErrNoFrame) {
		t.Fatalf("Start() error = %v, want ErrNoFrame", err)
	}
	if len(f.events.Errors()) != 1 {
		t.Errorf("got %d error events, want 1", len(f.events.Errors()))
	}
}

func TestController_DetectFailure(t *testing.T) {
	f := newFixture(t, detection.WithError(errors.New("inference failed")), func(Mode, string) (*source.Mock, error) {
		return source.NewMock(source.KindImage, testFrames(1)...), nil
	})

	if err := f.ctrl.Start(context.Background(), ModeImage, "photo.png"); err == nil {
		t.Fatal("Start() error = nil, want failure")
	}
	if !f.Sources()[0].Closed() {
		t.Error("source must be released after a failure")
	}
	errs := f.events.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "inference failed") {
		t.Errorf("error events = %+v", errs)
	}
	if st := f.ctrl.Status(); st.State != StateSelection || st.LastError == "" {
		t.Errorf("status = %+v, want selection with last error", st)
	}
}

func TestController_VideoEndOfStream(t *testing.T) {
	f := newFixture(t, detection.NewMock(), func(Mode, string) (*source.Mock, error) {
		return source.NewMock(source.KindVideo, testFrames(3)...), nil
	})

	if err := f.ctrl.Start(context.Background(), ModeVideo, "clip.mp4"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, "return to selection", func() bool {
		return f.ctrl.Status().State == StateSelection
	})

	src := f.Sources()[0]
	if !src.Closed() {
		t.Error("video source must be released at end of stream")
	}
	if f.surface.Count() != 3 {
		t.Errorf("rendered %d frames, want 3", f.surface.Count())
	}
	if len(f.events.Errors()) != 0 {
		t.Error("end of stream is not an error")
	}
}

func TestController_VideoFailureMidStream(t *testing.T) {
	f := newFixture(t, detection.NewMock(), func(Mode, string) (*source.Mock, error) {
		src := source.NewMock(source.KindVideo, testFrames(2)...)
		src.Loop = true
		src.ReadFunc = func(n int) error {
			if n == 4 {
				return source.ErrDecode
			}
			return nil
		}
		return src, nil
	})

	if err := f.ctrl.Start(context.Background(), ModeVideo, "clip.avi"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, "error event", func() bool { return len(f.events.Errors()) == 1 })
	waitFor(t, "return to selection", func() bool {
		return f.ctrl.Status().State == StateSelection
	})

	if !strings.HasPrefix(f.events.Errors()[0].Message, "Could not process video:") {
		t.Errorf("message = %q", f.events.Errors()[0].Message)
	}
	if !f.Sources()[0].Closed() {
		t.Error("source must be released after a failure")
	}
}

func TestController_BackStopsWebcam(t *testing.T) {
	det := detection.NewMock()
	f := newFixture(t, det, func(Mode, string) (*source.Mock, error) {
		src := source.NewMock(source.KindCamera, testFrames(1)...)
		src.Loop = true
		return src, nil
	})

	if err := f.ctrl.Start(context.Background(), ModeWebcam, ""); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if st := f.ctrl.Status(); st.State != StateRunning || st.Model != "short-range" {
		t.Errorf("status = %+v, want running short-range", st)
	}

	waitFor(t, "a few ticks", func() bool { return det.CallCount() >= 3 })

	f.ctrl.Back()

	src := f.Sources()[0]
	if !src.Closed() {
		t.Fatal("Back must release the camera before returning")
	}
	if st := f.ctrl.Status(); st.State != StateSelection {
		t.Errorf("state = %s, want selection", st.State)
	}

	calls, reads := det.CallCount(), src.Reads()
	time.Sleep(20 * time.Millisecond)
	if det.CallCount() != calls || src.Reads() != reads {
		t.Errorf("ticks after release: calls %d -> %d, reads %d -> %d",
			calls, det.CallCount(), reads, src.Reads())
	}
	if f.surface.Clears() == 0 {
		t.Error("Back must clear the display")
	}
}

func TestController_StartReplacesRunningLoop(t *testing.T) {
	f := newFixture(t, detection.NewMock(), func(mode Mode, _ string) (*source.Mock, error) {
		src := source.NewMock(source.KindCamera, testFrames(1)...)
		src.Loop = true
		return src, nil
	})

	if err := f.ctrl.Start(context.Background(), ModeWebcam, ""); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	first := f.ctrl.Status().Session

	if err := f.ctrl.Start(context.Background(), ModeWebcam, ""); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	srcs := f.Sources()
	if len(srcs) != 2 {
		t.Fatalf("opened %d sources, want 2", len(srcs))
	}
	if !srcs[0].Closed() {
		t.Error("the first source must be released before the second opens")
	}
	if srcs[1].Closed() {
		t.Error("the second source must still be open")
	}

	st := f.ctrl.Status()
	if st.Session == first || st.State != StateRunning {
		t.Errorf("status = %+v, want a new running session", st)
	}

	// The stopped loop's completion must not reset the new one.
	time.Sleep(10 * time.Millisecond)
	if f.ctrl.Status().State != StateRunning {
		t.Error("stale completion reset the running session")
	}
}

func TestController_ThresholdInEveryMode(t *testing.T) {
	for _, mode := range Modes() {
		t.Run(string(mode), func(t *testing.T) {
			det := detection.NewMock()
			f := newFixture(t, det, func(Mode, string) (*source.Mock, error) {
				return source.NewMock(source.KindImage, testFrames(1)...), nil
			})

			path := ""
			if mode == ModeImage {
				path = "a.png"
			} else if mode == ModeVideo {
				path = "a.mp4"
			}
			if err := f.ctrl.Start(context.Background(), mode, path); err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			waitFor(t, "one detect call", func() bool { return det.CallCount() >= 1 })
			f.ctrl.Back()

			opts := det.Calls()[0]
			if opts.MinConfidence != 0.5 {
				t.Errorf("MinConfidence = %v, want 0.5", opts.MinConfidence)
			}
			if opts.Model != mode.Model() {
				t.Errorf("Model = %v, want %v", opts.Model, mode.Model())
			}
		})
	}
}

func TestController_UnknownMode(t *testing.T) {
	f := newFixture(t, detection.NewMock(), nil)

	if err := f.ctrl.Start(context.Background(), Mode("audio"), "x"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Start() error = %v, want ErrUnknownMode", err)
	}
}

func TestController_Close(t *testing.T) {
	det := detection.NewMock()
	f := newFixture(t, det, func(Mode, string) (*source.Mock, error) {
		src := source.NewMock(source.KindCamera, testFrames(1)...)
		src.Loop = true
		return src, nil
	})

	if err := f.ctrl.Start(context.Background(), ModeWebcam, ""); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := f.ctrl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !f.Sources()[0].Closed() {
		t.Error("Close must release the running source")
	}
	if !det.Closed() {
		t.Error("Close must close the detector")
	}
	if err := f.ctrl.Start(context.Background(), ModeWebcam, ""); !errors.Is(err, ErrClosed) {
		t.Errorf("Start() after Close error = %v, want ErrClosed", err)
	}
	if err := f.ctrl.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
