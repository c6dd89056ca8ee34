package opencv

import (
	"context"
	"image"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/cardistance"
)

type VideoInfo struct {
	Width      int
	Height     int
	FPS        float64
	TotalFrame int
}

func videoInfo(capture *gocv.VideoCapture) *VideoInfo {
	return &VideoInfo{
		Width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
		FPS:        capture.Get(gocv.VideoCaptureFPS),
		TotalFrame: int(capture.Get(gocv.VideoCaptureFrameCount)),
	}
}

// captureTarget turns a numeric source into a device id so "0" opens the first camera.
func captureTarget(source string) interface{} {
	if id, err := strconv.Atoi(source); err == nil {
		return id
	}
	return source
}

// VideoSource reads frames from a file, stream URL or camera index.
type VideoSource struct {
	Info    *VideoInfo
	capture *gocv.VideoCapture
	logger  *zap.SugaredLogger
}

// OpenVideoSource fails with cardistance.ErrSourceUnavailable when the
// source cannot be opened. size is a capture hint; frames are still resized
// by the processor.
func OpenVideoSource(source string, size image.Point, logger *zap.SugaredLogger) (*VideoSource, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	capture, err := gocv.OpenVideoCapture(captureTarget(source))
	if err != nil {
		return nil, errors.Wrapf(cardistance.ErrSourceUnavailable, "%s: %v", source, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Wrapf(cardistance.ErrSourceUnavailable, "%s: cannot open video capture", source)
	}
	if size.X > 0 && size.Y > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(size.X))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(size.Y))
	}
	info := videoInfo(capture)
	logger.Infow("opened video source",
		"source", source,
		"width", info.Width,
		"height", info.Height,
		"fps", info.FPS,
		"frames", info.TotalFrame,
	)
	return &VideoSource{Info: info, capture: capture, logger: logger}, nil
}

// Next skips empty reads and returns cardistance.ErrSourceExhausted once
// the capture stops producing frames.
func (v *VideoSource) Next(ctx context.Context) (cardistance.Frame, error) {
	mat := gocv.NewMat()
	for {
		if err := ctx.Err(); err != nil {
			mat.Close()
			return nil, err
		}
		if ok := v.capture.Read(&mat); !ok {
			mat.Close()
			return nil, cardistance.ErrSourceExhausted
		}
		if mat.Empty() {
			continue
		}
		return NewFrame(mat), nil
	}
}

func (v *VideoSource) Close() error {
	return v.capture.Close()
}

// VideoSink records annotated frames to a video file.
type VideoSink struct {
	VideoWriter *gocv.VideoWriter
	Codec       string
	TargetPath  string
}

func NewVideoSink(targetPath, codec string, fps float64, size image.Point) (*VideoSink, error) {
	videoWriter, err := gocv.VideoWriterFile(targetPath, codec, fps, size.X, size.Y, true)
	if err != nil {
		return nil, errors.Wrapf(err, "opening video writer %s", targetPath)
	}
	return &VideoSink{
		VideoWriter: videoWriter,
		Codec:       codec,
		TargetPath:  targetPath,
	}, nil
}

func (v *VideoSink) WriteFrame(frame gocv.Mat) error {
	return v.VideoWriter.Write(frame)
}

func (v *VideoSink) Close() error {
	return v.VideoWriter.Close()
}
