package cardistance

import (
	"image/color"
	"math"
)

const (
	DefaultFadeStep      = 0.1
	DefaultAlertMessage  = "Warning"
	DefaultFreeMessage   = "Free road"
	DefaultFallbackAlert = "Warning"
)

// Advisory is the message selected for the banner on a given frame.
type Advisory int

const (
	AdvisoryNone Advisory = iota
	AdvisoryAlert
	AdvisoryFreeRoad
)

func (a Advisory) String() string {
	switch a {
	case AdvisoryAlert:
		return "ALERT"
	case AdvisoryFreeRoad:
		return "FREE_ROAD"
	default:
		return "NONE"
	}
}

// AlertState is the banner state carried from one frame to the next.
// The zero value is the initial state: hidden, no message.
type AlertState struct {
	Opacity    float64
	Target     float64
	Message    string
	TextColor  color.RGBA
	Background color.RGBA
}

// AlertStateMachine selects the banner message from the current frame's
// aggregates and ramps opacity toward the target by at most Step per frame.
// Transitions are level triggered and re-evaluated every frame.
type AlertStateMachine struct {
	Step         float64
	AlertMessage string
	FreeMessage  string
}

func NewAlertStateMachine(step float64) *AlertStateMachine {
	return &AlertStateMachine{Step: step, AlertMessage: DefaultAlertMessage, FreeMessage: DefaultFreeMessage}
}

func (m *AlertStateMachine) Apply(s *AlertState, anyCar, anyAlert bool) Advisory {
	adv := AdvisoryNone
	switch {
	case anyAlert:
		adv = AdvisoryAlert
		s.Target = 1
		s.Message = m.AlertMessage
		s.TextColor = Red
		s.Background = DarkRed
	case !anyCar:
		adv = AdvisoryFreeRoad
		s.Target = 1
		s.Message = m.FreeMessage
		s.TextColor = Green
		s.Background = DarkGreen
	default:
		s.Target = 0
	}
	s.Opacity = m.ramp(s.Opacity, s.Target)
	return adv
}

// snapEpsilon absorbs float error accumulated over repeated steps of 0.1.
const snapEpsilon = 1e-9

func (m *AlertStateMachine) ramp(cur, target float64) float64 {
	switch {
	case cur < target:
		cur = math.Min(cur+m.Step, target)
	case cur > target:
		cur = math.Max(cur-m.Step, target)
	}
	if math.Abs(cur-target) < snapEpsilon {
		cur = target
	}
	return math.Max(0, math.Min(1, cur))
}
