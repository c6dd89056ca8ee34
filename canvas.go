package cardistance

import (
	"context"
	"image"
	"image/color"
)

type FontFace int

const (
	FontSimplex FontFace = iota
	FontTriplex
)

// TextStyle mirrors the OpenCV putText parameters. Backends without Hershey
// fonts map Scale to a point size of their own.
type TextStyle struct {
	Face      FontFace
	Scale     float64
	Thickness int
}

var (
	LabelStyle  = TextStyle{Face: FontSimplex, Scale: 0.5, Thickness: 2}
	BannerStyle = TextStyle{Face: FontTriplex, Scale: 2, Thickness: 3}
)

// Canvas is a drawable frame buffer. Text origins are the bottom-left corner
// of the text baseline.
type Canvas interface {
	Bounds() image.Rectangle
	DrawRectangle(r image.Rectangle, c color.RGBA, thickness int)
	// BlendRectangle fills r with c mixed onto the existing pixels as
	// c*alpha + base*(1-alpha).
	BlendRectangle(r image.Rectangle, c color.RGBA, alpha float64)
	DrawText(text string, origin image.Point, style TextStyle, c color.RGBA) error
	// MeasureText returns the width and height of text above the baseline.
	// It fails with ErrUnsupportedGlyph when the face cannot render text.
	MeasureText(text string, style TextStyle) (image.Point, error)
}

type Frame interface {
	Canvas
	Image() (image.Image, error)
	Resize(size image.Point) error
	Close() error
}

// FrameSource yields frames in capture order until it returns ErrSourceExhausted.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Display receives each finished frame and reports whether the operator asked to stop.
type Display interface {
	Show(f Frame) error
	ShouldStop() bool
	Close() error
}
