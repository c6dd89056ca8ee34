package cardistance

import (
	"fmt"
	"image/color"
)

type HazardTier int

const (
	TierSafe HazardTier = iota
	TierCaution
	TierAlert
)

func (t HazardTier) String() string {
	switch t {
	case TierSafe:
		return "SAFE"
	case TierCaution:
		return "CAUTION"
	case TierAlert:
		return "ALERT"
	default:
		return fmt.Sprintf("HazardTier(%d)", int(t))
	}
}

var (
	Red       = color.RGBA{255, 0, 0, 255}
	Yellow    = color.RGBA{255, 255, 0, 255}
	Green     = color.RGBA{0, 255, 0, 255}
	Blue      = color.RGBA{0, 0, 255, 255}
	DarkRed   = color.RGBA{100, 0, 0, 255}
	DarkGreen = color.RGBA{0, 100, 0, 255}
)

// Color is the overlay color used for objects in this tier.
func (t HazardTier) Color() color.RGBA {
	switch t {
	case TierAlert:
		return Red
	case TierCaution:
		return Yellow
	default:
		return Green
	}
}

const (
	DefaultAlertDistance   = 10.0
	DefaultCautionDistance = 30.0
)

// Thresholds split distances into tiers. Both bounds belong to CAUTION.
type Thresholds struct {
	Alert   float64
	Caution float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Alert: DefaultAlertDistance, Caution: DefaultCautionDistance}
}

func (th Thresholds) Classify(distance float64) (HazardTier, color.RGBA) {
	var tier HazardTier
	switch {
	case distance < th.Alert:
		tier = TierAlert
	case distance <= th.Caution:
		tier = TierCaution
	default:
		tier = TierSafe
	}
	return tier, tier.Color()
}

// Classify uses the default thresholds.
func Classify(distance float64) (HazardTier, color.RGBA) {
	return DefaultThresholds().Classify(distance)
}
