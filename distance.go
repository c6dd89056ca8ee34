package cardistance

import "github.com/pkg/errors"

const (
	DefaultKnownWidth  = 2.0
	DefaultFocalLength = 1000.0
)

// Calibration holds the two constants of the pinhole approximation
// distance = KnownWidth * FocalLength / pixelWidth.
type Calibration struct {
	KnownWidth  float64 // meters
	FocalLength float64 // pixels
}

func DefaultCalibration() Calibration {
	return Calibration{KnownWidth: DefaultKnownWidth, FocalLength: DefaultFocalLength}
}

// Distance converts a bounding box width in pixels to an approximate distance in meters.
func (c Calibration) Distance(bboxWidth float64) (float64, error) {
	if bboxWidth <= 0 {
		return 0, errors.Wrapf(ErrDegenerateGeometry, "width %v", bboxWidth)
	}
	return (c.KnownWidth * c.FocalLength) / bboxWidth, nil
}

// EstimateDistance uses the default calibration.
func EstimateDistance(bboxWidth float64) (float64, error) {
	return DefaultCalibration().Distance(bboxWidth)
}
