package cardistance

import (
	"fmt"
	"image"
	"image/color"

	"go.uber.org/multierr"
)

const boxThickness = 2

// ObjectAnnotation is everything drawn for a single accepted detection.
type ObjectAnnotation struct {
	Detection Detection
	// Measured is false when the box had no usable width; Distance and Tier
	// are then meaningless and no distance line is drawn.
	Measured bool
	Distance float64
	Tier     HazardTier
	Color    color.RGBA

	Label          string
	LabelOrigin    image.Point
	DistanceText   string
	DistanceOrigin image.Point
}

func (a ObjectAnnotation) Draw(c Canvas) error {
	c.DrawRectangle(a.Detection.Box, a.Color, boxThickness)
	err := c.DrawText(a.Label, a.LabelOrigin, LabelStyle, a.Color)
	if a.Measured {
		err = multierr.Append(err, c.DrawText(a.DistanceText, a.DistanceOrigin, LabelStyle, Blue))
	}
	return err
}

// AnnotationResult carries the per-object overlays of one frame and the two
// aggregates the alert state machine consumes.
type AnnotationResult struct {
	Objects  []ObjectAnnotation
	AnyCar   bool
	AnyAlert bool
}

func (r AnnotationResult) Draw(c Canvas) error {
	var err error
	for _, o := range r.Objects {
		err = multierr.Append(err, o.Draw(c))
	}
	return err
}

// Annotator turns accepted detections into overlays.
type Annotator struct {
	Calibration Calibration
	Thresholds  Thresholds
}

func NewAnnotator(cal Calibration, th Thresholds) *Annotator {
	return &Annotator{Calibration: cal, Thresholds: th}
}

// Annotate expects detections that already passed the acceptance filter.
func (an *Annotator) Annotate(dets []Detection) AnnotationResult {
	res := AnnotationResult{Objects: make([]ObjectAnnotation, 0, len(dets))}
	for _, d := range dets {
		res.AnyCar = true
		o := an.annotate(d)
		if o.Measured && o.Tier == TierAlert {
			res.AnyAlert = true
		}
		res.Objects = append(res.Objects, o)
	}
	return res
}

func (an *Annotator) annotate(d Detection) ObjectAnnotation {
	box := d.Box
	o := ObjectAnnotation{
		Detection:   d,
		Color:       Yellow,
		Label:       fmt.Sprintf("%s %.2f", d.Label, d.Confidence),
		LabelOrigin: image.Pt(box.Min.X, box.Min.Y-10),
	}
	dist, err := an.Calibration.Distance(float64(box.Max.X - box.Min.X))
	if err != nil {
		return o
	}
	o.Measured = true
	o.Distance = dist
	o.Tier, o.Color = an.Thresholds.Classify(dist)
	o.DistanceText = fmt.Sprintf("%.2fm", dist)
	o.DistanceOrigin = image.Pt(box.Min.X, box.Max.Y+20)
	return o
}
