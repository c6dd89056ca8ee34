package cardistance

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

const DefaultFPS = 30

// Pacer holds the loop to a target frame interval. Mark records the start of
// a frame; Wait sleeps for whatever part of the interval has not elapsed.
// With FixedInterval set it always sleeps the full interval and ignores
// how long the frame took.
type Pacer struct {
	Interval      time.Duration
	FixedInterval bool

	clock clock.Clock
	mark  time.Time
}

func NewPacer(fps float64, clk clock.Clock) *Pacer {
	if clk == nil {
		clk = clock.New()
	}
	var interval time.Duration
	if fps > 0 {
		interval = time.Duration(float64(time.Second) / fps)
	}
	return &Pacer{Interval: interval, clock: clk}
}

func (p *Pacer) Mark() {
	p.mark = p.clock.Now()
}

// Delay is how long Wait would sleep right now.
func (p *Pacer) Delay() time.Duration {
	if p.FixedInterval || p.mark.IsZero() {
		return p.Interval
	}
	if d := p.Interval - p.clock.Since(p.mark); d > 0 {
		return d
	}
	return 0
}

func (p *Pacer) Wait(ctx context.Context) error {
	d := p.Delay()
	if d <= 0 {
		return ctx.Err()
	}
	t := p.clock.Timer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
