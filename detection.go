package cardistance

import (
	"context"
	"fmt"
	"image"
)

const (
	DefaultLabel         = "car"
	DefaultMinConfidence = 0.5
)

// Detection is one object found in a frame by a Detector.
type Detection struct {
	Label      string
	Confidence float64
	Box        image.Rectangle
}

func (d Detection) String() string {
	return fmt.Sprintf("%s %.2f %v", d.Label, d.Confidence, d.Box)
}

// Detector finds objects in a single image. It may return an empty slice.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
}

// DetectorFunc adapts a plain function to Detector.
type DetectorFunc func(ctx context.Context, img image.Image) ([]Detection, error)

func (f DetectorFunc) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	return f(ctx, img)
}

// Filter keeps or drops incoming detections. Filters never modify the detections they keep.
type Filter func([]Detection) []Detection

// NewLabelFilter keeps detections whose label is exactly label.
func NewLabelFilter(label string) Filter {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.Label == label {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewScoreFilter keeps detections with confidence of at least conf.
func NewScoreFilter(conf float64) Filter {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.Confidence >= conf {
				out = append(out, d)
			}
		}
		return out
	}
}

func ChainFilters(filters ...Filter) Filter {
	return func(in []Detection) []Detection {
		for _, f := range filters {
			in = f(in)
		}
		return in
	}
}

// NewAcceptanceFilter is the label and confidence gate applied before annotation.
func NewAcceptanceFilter(label string, minConfidence float64) Filter {
	return ChainFilters(NewLabelFilter(label), NewScoreFilter(minConfidence))
}
