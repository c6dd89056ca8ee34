// Package opencv adapts gocv capture, drawing and display to the cardistance pipeline.
package opencv

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/cardistance"
)

// Frame is a cardistance.Frame backed by a BGR gocv.Mat. It owns the Mat.
type Frame struct {
	mat gocv.Mat
}

func NewFrame(mat gocv.Mat) *Frame {
	return &Frame{mat: mat}
}

// FrameFromImage copies img into a new Mat.
func FrameFromImage(img image.Image) (*Frame, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "converting image to mat")
	}
	return &Frame{mat: mat}, nil
}

func (f *Frame) Mat() gocv.Mat { return f.mat }

func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.mat.Cols(), f.mat.Rows())
}

func (f *Frame) Image() (image.Image, error) {
	return f.mat.ToImage()
}

func (f *Frame) Resize(size image.Point) error {
	if size.X <= 0 || size.Y <= 0 {
		return errors.Errorf("cannot resize to %v", size)
	}
	if f.mat.Cols() == size.X && f.mat.Rows() == size.Y {
		return nil
	}
	gocv.Resize(f.mat, &f.mat, size, 0, 0, gocv.InterpolationLinear)
	return nil
}

func (f *Frame) Close() error {
	return f.mat.Close()
}

func (f *Frame) DrawRectangle(r image.Rectangle, c color.RGBA, thickness int) {
	gocv.Rectangle(&f.mat, r, c, thickness)
}

// BlendRectangle draws a filled rectangle on a copy of the frame and mixes
// the copy back in with weight alpha.
func (f *Frame) BlendRectangle(r image.Rectangle, c color.RGBA, alpha float64) {
	if alpha <= 0 {
		return
	}
	overlay := f.mat.Clone()
	defer overlay.Close()
	gocv.Rectangle(&overlay, r, c, -1)
	gocv.AddWeighted(overlay, alpha, f.mat, 1-alpha, 0, &f.mat)
}

func (f *Frame) DrawText(text string, origin image.Point, style cardistance.TextStyle, c color.RGBA) error {
	if err := checkHershey(text); err != nil {
		return err
	}
	gocv.PutText(&f.mat, text, origin, hersheyFont(style.Face), style.Scale, c, style.Thickness)
	return nil
}

func (f *Frame) MeasureText(text string, style cardistance.TextStyle) (image.Point, error) {
	if err := checkHershey(text); err != nil {
		return image.Point{}, err
	}
	return gocv.GetTextSize(text, hersheyFont(style.Face), style.Scale, style.Thickness), nil
}

func hersheyFont(face cardistance.FontFace) gocv.HersheyFont {
	if face == cardistance.FontTriplex {
		return gocv.FontHersheyTriplex
	}
	return gocv.FontHersheySimplex
}

// checkHershey rejects anything outside printable ASCII, which is all the
// Hershey fonts can draw.
func checkHershey(text string) error {
	for _, r := range text {
		if r < 0x20 || r > 0x7e {
			return errors.Wrapf(cardistance.ErrUnsupportedGlyph, "%q", r)
		}
	}
	return nil
}
