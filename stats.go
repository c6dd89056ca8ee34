package cardistance

import (
	"time"

	"github.com/montanaflynn/stats"
)

// latencyWindow is how many recent detector latencies RunStats keeps.
const latencyWindow = 512

// RunStats counts what a Processor has seen so far.
type RunStats struct {
	Frames         int
	Accepted       int
	Unmeasured     int
	AlertFrames    int
	FreeRoadFrames int
	BannerSkipped  int

	// ring of the last latencyWindow samples, in milliseconds
	detectMillis []float64
	detectNext   int
}

func (s *RunStats) observeDetect(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	if len(s.detectMillis) < latencyWindow {
		s.detectMillis = append(s.detectMillis, ms)
		return
	}
	s.detectMillis[s.detectNext] = ms
	s.detectNext = (s.detectNext + 1) % latencyWindow
}

// DetectLatency returns the mean and 95th percentile detector latency in
// milliseconds over the most recent frames. It errors when no frame has been
// processed.
func (s RunStats) DetectLatency() (mean, p95 float64, err error) {
	if mean, err = stats.Mean(s.detectMillis); err != nil {
		return 0, 0, err
	}
	if p95, err = stats.Percentile(s.detectMillis, 95); err != nil {
		return 0, 0, err
	}
	return mean, p95, nil
}
