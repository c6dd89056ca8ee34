package imagecanvas

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"

	"github.com/cardistance"
)

// FileSource yields one frame per still image, in the order given.
type FileSource struct {
	paths []string
	next  int
}

// NewFileSource checks that every path can be opened before any frame is read.
func NewFileSource(paths ...string) (*FileSource, error) {
	if len(paths) == 0 {
		return nil, errors.Wrap(cardistance.ErrSourceUnavailable, "no images given")
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return nil, errors.Wrapf(cardistance.ErrSourceUnavailable, "%v", err)
		}
	}
	return &FileSource{paths: paths}, nil
}

func (s *FileSource) Next(ctx context.Context) (cardistance.Frame, error) {
	if s.next >= len(s.paths) {
		return nil, cardistance.ErrSourceExhausted
	}
	path := s.paths[s.next]
	s.next++
	img, err := gg.LoadImage(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return New(img), nil
}

func (s *FileSource) Close() error { return nil }

// PNGSink writes every frame it is shown to Dir as frame_000000.png, frame_000001.png, ...
type PNGSink struct {
	Dir   string
	count int
}

func NewPNGSink(dir string) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dir)
	}
	return &PNGSink{Dir: dir}, nil
}

func (s *PNGSink) Show(f cardistance.Frame) error {
	img, err := f.Image()
	if err != nil {
		return err
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("frame_%06d.png", s.count))
	if err := gg.SavePNG(path, img); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	s.count++
	return nil
}

// Written is the number of frames saved so far.
func (s *PNGSink) Written() int { return s.count }

func (s *PNGSink) ShouldStop() bool { return false }

func (s *PNGSink) Close() error { return nil }
