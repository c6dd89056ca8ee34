package cardistance

import (
	"context"
	"image"
	"image/color"
	"strings"
)

type drawOp struct {
	Kind      string
	Rect      image.Rectangle
	Text      string
	At        image.Point
	Color     color.RGBA
	Alpha     float64
	Thickness int
}

// fakeFrame records drawing calls. Text containing a rune outside ASCII
// fails like a Hershey backend would. Each rune measures 10x20.
type fakeFrame struct {
	size    image.Point
	ops     []drawOp
	resized image.Point
	closed  bool
}

func newFakeFrame(w, h int) *fakeFrame {
	return &fakeFrame{size: image.Pt(w, h)}
}

func (f *fakeFrame) Bounds() image.Rectangle { return image.Rectangle{Max: f.size} }

func (f *fakeFrame) DrawRectangle(r image.Rectangle, c color.RGBA, thickness int) {
	f.ops = append(f.ops, drawOp{Kind: "rect", Rect: r, Color: c, Thickness: thickness})
}

func (f *fakeFrame) BlendRectangle(r image.Rectangle, c color.RGBA, alpha float64) {
	f.ops = append(f.ops, drawOp{Kind: "blend", Rect: r, Color: c, Alpha: alpha})
}

func (f *fakeFrame) DrawText(text string, origin image.Point, style TextStyle, c color.RGBA) error {
	if !isASCII(text) {
		return ErrUnsupportedGlyph
	}
	f.ops = append(f.ops, drawOp{Kind: "text", Text: text, At: origin, Color: c})
	return nil
}

func (f *fakeFrame) MeasureText(text string, style TextStyle) (image.Point, error) {
	if !isASCII(text) {
		return image.Point{}, ErrUnsupportedGlyph
	}
	return image.Pt(10*len(text), 20), nil
}

func (f *fakeFrame) Image() (image.Image, error) {
	return image.NewRGBA(f.Bounds()), nil
}

func (f *fakeFrame) Resize(size image.Point) error {
	f.resized = size
	f.size = size
	return nil
}

func (f *fakeFrame) Close() error {
	f.closed = true
	return nil
}

func (f *fakeFrame) opsOfKind(kind string) []drawOp {
	var out []drawOp
	for _, op := range f.ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

func isASCII(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r > 0x7e }) < 0
}

// scriptedDetector returns one canned result per call, then nothing.
type scriptedDetector struct {
	frames [][]Detection
	calls  int
	err    error
}

func (d *scriptedDetector) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	if d.err != nil {
		return nil, d.err
	}
	defer func() { d.calls++ }()
	if d.calls < len(d.frames) {
		return d.frames[d.calls], nil
	}
	return nil, nil
}

type fakeSource struct {
	remaining int
	frames    []*fakeFrame
	closed    bool
	err       error
}

func (s *fakeSource) Next(ctx context.Context) (Frame, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.remaining == 0 {
		return nil, ErrSourceExhausted
	}
	s.remaining--
	f := newFakeFrame(1920, 1080)
	s.frames = append(s.frames, f)
	return f, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

// cancellingSource cancels the run while its first read is in flight and
// still delivers that frame.
type cancellingSource struct {
	cancel context.CancelFunc
	reads  int
	frame  *fakeFrame
}

func (s *cancellingSource) Next(ctx context.Context) (Frame, error) {
	s.reads++
	if s.reads > 1 {
		return nil, ErrSourceExhausted
	}
	s.cancel()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.frame = newFakeFrame(1920, 1080)
	return s.frame, nil
}

func (s *cancellingSource) Close() error { return nil }

type fakeDisplay struct {
	shown     int
	stopAfter int
	closed    bool
}

func (d *fakeDisplay) Show(f Frame) error {
	d.shown++
	return nil
}

func (d *fakeDisplay) ShouldStop() bool {
	return d.stopAfter > 0 && d.shown >= d.stopAfter
}

func (d *fakeDisplay) Close() error {
	d.closed = true
	return nil
}

type countingPacer struct {
	marks, waits int
}

func (p *countingPacer) Mark() { p.marks++ }

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	return ctx.Err()
}

func car(conf float64, x1, y1, x2, y2 int) Detection {
	return Detection{Label: "car", Confidence: conf, Box: image.Rect(x1, y1, x2, y2)}
}
