package cardistance

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

const (
	DefaultBannerTop     = 100
	DefaultBannerPadding = 20
)

// Banner is the advisory overlay for one frame.
type Banner struct {
	Text       string
	Origin     image.Point
	Background image.Rectangle
	Opacity    float64
	TextColor  color.RGBA
	BgColor    color.RGBA
}

// Draw blends the background onto c and then writes the text at full strength.
func (b *Banner) Draw(c Canvas) error {
	c.BlendRectangle(b.Background, b.BgColor, b.Opacity)
	return c.DrawText(b.Text, b.Origin, BannerStyle, b.TextColor)
}

type AdvisoryRenderer struct {
	Top      int
	Padding  int
	Fallback string
}

func NewAdvisoryRenderer() *AdvisoryRenderer {
	return &AdvisoryRenderer{Top: DefaultBannerTop, Padding: DefaultBannerPadding, Fallback: DefaultFallbackAlert}
}

// Render lays out the banner for state on c. It returns nil when the banner
// is fully transparent. When the message cannot be measured the fallback text
// is tried once; if that fails too the banner is skipped and the error returned.
func (r *AdvisoryRenderer) Render(state AlertState, c Canvas) (*Banner, error) {
	if state.Opacity <= 0 {
		return nil, nil
	}
	text := state.Message
	size, err := c.MeasureText(text, BannerStyle)
	if errors.Is(err, ErrUnsupportedGlyph) {
		text = r.Fallback
		size, err = c.MeasureText(text, BannerStyle)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "measuring banner %q", text)
	}
	x := (c.Bounds().Dx() - size.X) / 2
	y := r.Top
	return &Banner{
		Text:       text,
		Origin:     image.Pt(x, y),
		Background: image.Rect(x-r.Padding, y-size.Y-r.Padding, x+size.X+r.Padding, y+r.Padding),
		Opacity:    state.Opacity,
		TextColor:  state.TextColor,
		BgColor:    state.Background,
	}, nil
}
