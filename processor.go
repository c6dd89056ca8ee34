package cardistance

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// FramePacer is the part of Pacer the processor depends on.
type FramePacer interface {
	Mark()
	Wait(ctx context.Context) error
}

// FrameResult is what ProcessFrame decided for a single frame.
type FrameResult struct {
	Annotations AnnotationResult
	Advisory    Advisory
	Banner      *Banner
}

// Processor runs the per-frame pipeline: read, resize, detect, filter,
// annotate, update the alert state, render the banner, show, pace.
// It is not safe for concurrent use; frames are handled one at a time.
type Processor struct {
	cfg      Config
	source   FrameSource
	detector Detector
	display  Display

	filter    Filter
	annotator *Annotator
	alerts    *AlertStateMachine
	renderer  *AdvisoryRenderer
	pacer     FramePacer
	onFrame   func(FrameResult)
	clock     clock.Clock
	logger    *zap.SugaredLogger

	state AlertState
	stats RunStats
}

type Option func(*Processor)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(p *Processor) { p.logger = logger }
}

// WithClock sets the clock used for pacing and latency measurement.
func WithClock(clk clock.Clock) Option {
	return func(p *Processor) { p.clock = clk }
}

func WithPacer(pacer FramePacer) Option {
	return func(p *Processor) { p.pacer = pacer }
}

// WithFrameHook registers fn to be called with every processed frame's result.
func WithFrameHook(fn func(FrameResult)) Option {
	return func(p *Processor) { p.onFrame = fn }
}

func NewProcessor(cfg Config, source FrameSource, detector Detector, display Display, opts ...Option) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	if source == nil {
		return nil, errors.New("processor must include a frame source")
	}
	if detector == nil {
		return nil, errors.New("processor must include a detector")
	}
	if display == nil {
		return nil, errors.New("processor must include a display")
	}
	p := &Processor{
		cfg:       cfg,
		source:    source,
		detector:  detector,
		display:   display,
		filter:    NewAcceptanceFilter(cfg.Label, cfg.MinConfidence),
		annotator: NewAnnotator(cfg.Calibration, cfg.Thresholds),
		alerts: &AlertStateMachine{
			Step:         cfg.FadeStep,
			AlertMessage: cfg.AlertMessage,
			FreeMessage:  cfg.FreeMessage,
		},
		renderer: &AdvisoryRenderer{
			Top:      cfg.BannerTop,
			Padding:  cfg.BannerPadding,
			Fallback: cfg.FallbackMessage,
		},
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.clock == nil {
		p.clock = clock.New()
	}
	if p.pacer == nil {
		pacer := NewPacer(cfg.FPS, p.clock)
		pacer.FixedInterval = cfg.FixedPacing
		p.pacer = pacer
	}
	return p, nil
}

func (p *Processor) State() AlertState { return p.state }

func (p *Processor) Stats() RunStats { return p.stats }

// Run processes frames until the source is exhausted, the display asks to
// stop or ctx is cancelled; all three end the run without error. The source
// and display are closed before Run returns.
//
// Cancellation is polled between frames only. A frame that has started is
// read, detected and shown with a context that ignores ctx's cancellation.
func (p *Processor) Run(ctx context.Context) (err error) {
	frameCtx := context.WithoutCancel(ctx)
	defer func() {
		err = multierr.Combine(err, p.source.Close(), p.display.Close())
		p.logSummary()
	}()

	for {
		if ctx.Err() != nil {
			p.logger.Infow("run cancelled", "frames", p.stats.Frames)
			return nil
		}
		p.pacer.Mark()

		frame, err := p.source.Next(frameCtx)
		if errors.Is(err, ErrSourceExhausted) {
			p.logger.Infow("frame source exhausted", "frames", p.stats.Frames)
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading frame")
		}

		if err := p.showFrame(frameCtx, frame); err != nil {
			return err
		}

		if p.display.ShouldStop() {
			p.logger.Infow("stop requested", "frames", p.stats.Frames)
			return nil
		}
		if err := p.pacer.Wait(ctx); err != nil {
			p.logger.Infow("run cancelled", "frames", p.stats.Frames)
			return nil
		}
	}
}

func (p *Processor) showFrame(ctx context.Context, frame Frame) (err error) {
	defer func() {
		err = multierr.Append(err, errors.Wrap(frame.Close(), "releasing frame"))
	}()
	res, err := p.ProcessFrame(ctx, frame)
	if err != nil {
		return err
	}
	if p.onFrame != nil {
		p.onFrame(res)
	}
	return errors.Wrap(p.display.Show(frame), "displaying frame")
}

// ProcessFrame runs one frame through detection, annotation, the alert state
// machine and the banner, drawing the result onto frame.
func (p *Processor) ProcessFrame(ctx context.Context, frame Frame) (FrameResult, error) {
	var res FrameResult
	if err := frame.Resize(p.cfg.Resolution); err != nil {
		return res, errors.Wrap(err, "resizing frame")
	}
	img, err := frame.Image()
	if err != nil {
		return res, errors.Wrap(err, "converting frame")
	}

	start := p.clock.Now()
	dets, err := p.detector.Detect(ctx, img)
	if err != nil {
		return res, errors.Wrap(err, "detecting objects")
	}
	p.stats.observeDetect(p.clock.Since(start))

	accepted := p.filter(dets)
	res.Annotations = p.annotator.Annotate(accepted)
	for _, o := range res.Annotations.Objects {
		if !o.Measured {
			p.stats.Unmeasured++
			p.logger.Debugw("skipping distance for degenerate box", "detection", o.Detection.String())
		}
	}
	if err := res.Annotations.Draw(frame); err != nil {
		p.logger.Debugw("annotation text not fully drawn", "error", err)
	}

	res.Advisory = p.alerts.Apply(&p.state, res.Annotations.AnyCar, res.Annotations.AnyAlert)

	res.Banner, err = p.renderer.Render(p.state, frame)
	if err != nil {
		p.stats.BannerSkipped++
		p.logger.Warnw("skipping banner", "message", p.state.Message, "error", err)
	} else if res.Banner != nil {
		if err := res.Banner.Draw(frame); err != nil {
			p.stats.BannerSkipped++
			p.logger.Warnw("banner text not drawn", "error", err)
		}
	}

	p.stats.Frames++
	p.stats.Accepted += len(accepted)
	switch res.Advisory {
	case AdvisoryAlert:
		p.stats.AlertFrames++
	case AdvisoryFreeRoad:
		p.stats.FreeRoadFrames++
	}
	p.logger.Debugw("frame processed",
		"detections", len(dets),
		"accepted", len(accepted),
		"advisory", res.Advisory.String(),
		"opacity", p.state.Opacity,
	)
	return res, nil
}

func (p *Processor) logSummary() {
	fields := []interface{}{
		"frames", p.stats.Frames,
		"accepted", p.stats.Accepted,
		"alert_frames", p.stats.AlertFrames,
		"free_road_frames", p.stats.FreeRoadFrames,
	}
	if mean, p95, err := p.stats.DetectLatency(); err == nil {
		fields = append(fields, "detect_mean_ms", mean, "detect_p95_ms", p95)
	}
	p.logger.Infow("run finished", fields...)
}
