package opencv

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/cardistance"
)

const (
	keyQuit   = 'q'
	keyEscape = 27
)

// Display shows frames in a window and optionally records them. Pressing
// q or Esc in the window asks the processor to stop.
type Display struct {
	window *gocv.Window
	sink   *VideoSink
	stop   bool
}

// NewDisplay opens a window titled title. An empty title runs headless, which
// only makes sense together with a sink.
func NewDisplay(title string, sink *VideoSink) (*Display, error) {
	if title == "" && sink == nil {
		return nil, errors.New("display needs a window title or a video sink")
	}
	d := &Display{sink: sink}
	if title != "" {
		d.window = gocv.NewWindow(title)
	}
	return d, nil
}

func (d *Display) Show(f cardistance.Frame) error {
	frame, ok := f.(*Frame)
	if !ok {
		img, err := f.Image()
		if err != nil {
			return err
		}
		if frame, err = FrameFromImage(img); err != nil {
			return err
		}
		defer frame.Close()
	}

	if d.sink != nil {
		if err := d.sink.WriteFrame(frame.Mat()); err != nil {
			return errors.Wrap(err, "recording frame")
		}
	}
	if d.window != nil {
		d.window.IMShow(frame.Mat())
		if isStopKey(d.window.WaitKey(1)) {
			d.stop = true
		}
	}
	return nil
}

// isStopKey ignores modifier bits some HighGUI backends set above the low byte.
func isStopKey(key int) bool {
	key &= 0xFF
	return key == keyQuit || key == keyEscape
}

func (d *Display) ShouldStop() bool { return d.stop }

func (d *Display) Close() error {
	var err error
	if d.sink != nil {
		err = multierr.Append(err, d.sink.Close())
	}
	if d.window != nil {
		err = multierr.Append(err, d.window.Close())
	}
	return err
}
