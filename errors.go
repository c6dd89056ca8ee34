package cardistance

import "github.com/pkg/errors"

var (
	// ErrSourceUnavailable is fatal: the frame source could not be opened.
	ErrSourceUnavailable = errors.New("frame source unavailable")
	// ErrSourceExhausted ends a run normally.
	ErrSourceExhausted = errors.New("frame source exhausted")
	// ErrDegenerateGeometry marks a bounding box with no usable width.
	ErrDegenerateGeometry = errors.New("degenerate bounding box")
	// ErrUnsupportedGlyph is returned by a Canvas that cannot measure or draw some rune of a string.
	ErrUnsupportedGlyph = errors.New("unsupported glyph")
)
