package imagecanvas

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/cardistance"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func closeTo(t *testing.T, got, want uint8) {
	t.Helper()
	diff := int(got) - int(want)
	test.That(t, diff, test.ShouldBeBetweenOrEqual, -2, 2)
}

func TestNewAnchorsAtOrigin(t *testing.T) {
	src := solid(20, 10, color.RGBA{1, 2, 3, 255}).SubImage(image.Rect(5, 5, 15, 10))
	f := New(src)
	test.That(t, f.Bounds(), test.ShouldResemble, image.Rect(0, 0, 10, 5))
	test.That(t, f.RGBA().RGBAAt(0, 0), test.ShouldResemble, color.RGBA{1, 2, 3, 255})
}

func TestBlendRectangle(t *testing.T) {
	f := New(solid(100, 100, color.RGBA{0, 0, 0, 255}))
	f.BlendRectangle(image.Rect(10, 10, 60, 60), color.RGBA{200, 100, 0, 255}, 0.5)

	px := f.RGBA().RGBAAt(30, 30)
	closeTo(t, px.R, 100)
	closeTo(t, px.G, 50)
	closeTo(t, px.B, 0)
	test.That(t, f.RGBA().RGBAAt(80, 80), test.ShouldResemble, color.RGBA{0, 0, 0, 255})

	f.BlendRectangle(image.Rect(70, 70, 90, 90), cardistance.DarkGreen, 1)
	test.That(t, f.RGBA().RGBAAt(80, 80), test.ShouldResemble, cardistance.DarkGreen)

	f.BlendRectangle(image.Rect(0, 0, 100, 100), cardistance.Red, 0)
	test.That(t, f.RGBA().RGBAAt(5, 5), test.ShouldResemble, color.RGBA{0, 0, 0, 255})
}

func TestDrawRectangleOutline(t *testing.T) {
	f := New(solid(100, 100, color.RGBA{0, 0, 0, 255}))
	f.DrawRectangle(image.Rect(20, 20, 80, 80), cardistance.Yellow, 2)
	edge := f.RGBA().RGBAAt(50, 20)
	test.That(t, int(edge.R), test.ShouldBeGreaterThan, 100)
	test.That(t, int(edge.G), test.ShouldBeGreaterThan, 100)
	test.That(t, f.RGBA().RGBAAt(50, 50), test.ShouldResemble, color.RGBA{0, 0, 0, 255})
}

func TestMeasureText(t *testing.T) {
	f := New(solid(400, 200, color.RGBA{}))
	small, err := f.MeasureText("Warning", cardistance.LabelStyle)
	test.That(t, err, test.ShouldBeNil)
	big, err := f.MeasureText("Warning", cardistance.BannerStyle)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, small.X, test.ShouldBeGreaterThan, 0)
	test.That(t, small.Y, test.ShouldBeGreaterThan, 0)
	test.That(t, big.X, test.ShouldBeGreaterThan, small.X)
	test.That(t, big.Y, test.ShouldBeGreaterThan, small.Y)
}

func TestUnsupportedGlyph(t *testing.T) {
	f := New(solid(400, 200, color.RGBA{}))
	_, err := f.MeasureText("🚗 Warning", cardistance.BannerStyle)
	test.That(t, errors.Is(err, cardistance.ErrUnsupportedGlyph), test.ShouldBeTrue)
	err = f.DrawText("🚗", image.Pt(10, 50), cardistance.LabelStyle, cardistance.Red)
	test.That(t, errors.Is(err, cardistance.ErrUnsupportedGlyph), test.ShouldBeTrue)
}

func TestDrawTextPaints(t *testing.T) {
	f := New(solid(300, 100, color.RGBA{0, 0, 0, 255}))
	test.That(t, f.DrawText("HHHH", image.Pt(10, 60), cardistance.BannerStyle, cardistance.Green), test.ShouldBeNil)
	painted := 0
	for x := 10; x < 200; x++ {
		for y := 10; y < 60; y++ {
			if f.RGBA().RGBAAt(x, y).G > 128 {
				painted++
			}
		}
	}
	test.That(t, painted, test.ShouldBeGreaterThan, 0)
}

func TestResize(t *testing.T) {
	f := New(solid(64, 48, color.RGBA{10, 20, 30, 255}))
	test.That(t, f.Resize(image.Pt(128, 72)), test.ShouldBeNil)
	test.That(t, f.Bounds(), test.ShouldResemble, image.Rect(0, 0, 128, 72))
	test.That(t, f.Resize(image.Pt(0, 10)), test.ShouldNotBeNil)
}

func TestFileSourceAndSink(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "road.png")
	test.That(t, gg.SavePNG(in, solid(32, 16, color.RGBA{0, 0, 255, 255})), test.ShouldBeNil)

	src, err := NewFileSource(in)
	test.That(t, err, test.ShouldBeNil)
	frame, err := src.Next(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame.Bounds(), test.ShouldResemble, image.Rect(0, 0, 32, 16))
	_, err = src.Next(context.Background())
	test.That(t, err, test.ShouldEqual, cardistance.ErrSourceExhausted)

	sink, err := NewPNGSink(filepath.Join(dir, "out"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sink.Show(frame), test.ShouldBeNil)
	test.That(t, sink.Written(), test.ShouldEqual, 1)
	_, err = os.Stat(filepath.Join(dir, "out", "frame_000000.png"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sink.ShouldStop(), test.ShouldBeFalse)
}

func TestFileSourceUnavailable(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.png"))
	test.That(t, errors.Is(err, cardistance.ErrSourceUnavailable), test.ShouldBeTrue)
	_, err = NewFileSource()
	test.That(t, errors.Is(err, cardistance.ErrSourceUnavailable), test.ShouldBeTrue)
}

type noPacing struct{}

func (noPacing) Mark() {}

func (noPacing) Wait(ctx context.Context) error { return ctx.Err() }

func TestPipelineOnImages(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.png", "b.png"} {
		p := filepath.Join(dir, name)
		test.That(t, gg.SavePNG(p, solid(640, 360, color.RGBA{0, 0, 0, 255})), test.ShouldBeNil)
		paths = append(paths, p)
	}
	src, err := NewFileSource(paths...)
	test.That(t, err, test.ShouldBeNil)
	sink, err := NewPNGSink(filepath.Join(dir, "out"))
	test.That(t, err, test.ShouldBeNil)

	calls := 0
	det := cardistance.DetectorFunc(func(ctx context.Context, img image.Image) ([]cardistance.Detection, error) {
		test.That(t, img.Bounds().Size(), test.ShouldResemble, image.Pt(1280, 720))
		calls++
		if calls == 1 {
			return nil, nil
		}
		return []cardistance.Detection{{Label: "car", Confidence: 0.9, Box: image.Rect(400, 400, 700, 600)}}, nil
	})

	var results []cardistance.FrameResult
	p, err := cardistance.NewProcessor(cardistance.DefaultConfig(), src, det, sink,
		cardistance.WithPacer(noPacing{}),
		cardistance.WithFrameHook(func(r cardistance.FrameResult) { results = append(results, r) }),
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Run(context.Background()), test.ShouldBeNil)

	test.That(t, sink.Written(), test.ShouldEqual, 2)
	test.That(t, results, test.ShouldHaveLength, 2)
	test.That(t, results[0].Advisory, test.ShouldEqual, cardistance.AdvisoryFreeRoad)
	test.That(t, results[0].Banner, test.ShouldNotBeNil)
	test.That(t, results[0].Banner.Text, test.ShouldEqual, "Free road")
	test.That(t, results[1].Advisory, test.ShouldEqual, cardistance.AdvisoryAlert)
	test.That(t, results[1].Banner.Text, test.ShouldEqual, "Warning")
	test.That(t, results[1].Annotations.Objects[0].Tier, test.ShouldEqual, cardistance.TierAlert)

	out, err := gg.LoadImage(filepath.Join(dir, "out", "frame_000000.png"))
	test.That(t, err, test.ShouldBeNil)
	bg := results[0].Banner.Background
	r, g, b, _ := out.At(bg.Min.X+2, bg.Min.Y+2).RGBA()
	test.That(t, r>>8, test.ShouldEqual, uint32(0))
	test.That(t, int(g>>8), test.ShouldBeBetweenOrEqual, 8, 12)
	test.That(t, b>>8, test.ShouldEqual, uint32(0))
}
