// Package imagecanvas draws pipeline overlays onto in-memory images without cgo.
package imagecanvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/cardistance"
)

var (
	regularFont *truetype.Font
	boldFont    *truetype.Font
)

func init() {
	var err error
	if regularFont, err = truetype.Parse(goregular.TTF); err != nil {
		panic(err)
	}
	if boldFont, err = truetype.Parse(gobold.TTF); err != nil {
		panic(err)
	}
}

// pointsPerScale approximates the pixel height of a Hershey font at scale 1.
const pointsPerScale = 22

// Frame is a cardistance.Frame backed by an *image.RGBA.
type Frame struct {
	img *image.RGBA
}

// New copies img into a fresh RGBA buffer anchored at the origin.
func New(img image.Image) *Frame {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return &Frame{img: rgba}
}

func (f *Frame) RGBA() *image.RGBA { return f.img }

func (f *Frame) Bounds() image.Rectangle { return f.img.Bounds() }

func (f *Frame) Image() (image.Image, error) { return f.img, nil }

func (f *Frame) Close() error { return nil }

func (f *Frame) Resize(size image.Point) error {
	if size.X <= 0 || size.Y <= 0 {
		return errors.Errorf("cannot resize to %v", size)
	}
	if f.img.Bounds().Size() == size {
		return nil
	}
	resized := resize.Resize(uint(size.X), uint(size.Y), f.img, resize.Bilinear)
	f.img = New(resized).img
	return nil
}

func (f *Frame) context() *gg.Context {
	return gg.NewContextForRGBA(f.img)
}

func (f *Frame) DrawRectangle(r image.Rectangle, c color.RGBA, thickness int) {
	dc := f.context()
	dc.SetColor(c)
	dc.SetLineWidth(float64(thickness))
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	dc.Stroke()
}

func (f *Frame) BlendRectangle(r image.Rectangle, c color.RGBA, alpha float64) {
	alpha = math.Max(0, math.Min(1, alpha))
	if alpha == 0 {
		return
	}
	dc := f.context()
	dc.SetColor(color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(alpha * 255))})
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	dc.Fill()
}

func (f *Frame) DrawText(text string, origin image.Point, style cardistance.TextStyle, c color.RGBA) error {
	ttf := fontFor(style)
	if err := checkGlyphs(ttf, text); err != nil {
		return err
	}
	dc := f.context()
	dc.SetFontFace(faceFor(ttf, style))
	dc.SetColor(c)
	dc.DrawString(text, float64(origin.X), float64(origin.Y))
	return nil
}

func (f *Frame) MeasureText(text string, style cardistance.TextStyle) (image.Point, error) {
	ttf := fontFor(style)
	if err := checkGlyphs(ttf, text); err != nil {
		return image.Point{}, err
	}
	face := faceFor(ttf, style)
	dc := f.context()
	dc.SetFontFace(face)
	w, _ := dc.MeasureString(text)
	return image.Pt(int(math.Ceil(w)), face.Metrics().Ascent.Ceil()), nil
}

func fontFor(style cardistance.TextStyle) *truetype.Font {
	if style.Face == cardistance.FontTriplex {
		return boldFont
	}
	return regularFont
}

func faceFor(ttf *truetype.Font, style cardistance.TextStyle) font.Face {
	return truetype.NewFace(ttf, &truetype.Options{Size: style.Scale * pointsPerScale})
}

func checkGlyphs(ttf *truetype.Font, text string) error {
	for _, r := range text {
		if ttf.Index(r) == 0 {
			return errors.Wrapf(cardistance.ErrUnsupportedGlyph, "%q", r)
		}
	}
	return nil
}
