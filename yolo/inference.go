// Package yolo runs a YOLOv8 ONNX export through onnxruntime and reports
// detections in the coordinates of the image it was given.
package yolo

import (
	"context"
	"image"
	"sort"
	"sync"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/cardistance"
)

const (
	inputSize  = 640
	candidates = 8400
)

var (
	envOnce sync.Once
	envErr  error
)

func initEnvironment(libraryPath string) error {
	envOnce.Do(func() {
		ort.SetSharedLibraryPath(libraryPath)
		envErr = errors.Wrap(ort.InitializeEnvironment(), "initializing onnxruntime environment")
	})
	return envErr
}

type modelSession struct {
	Session *ort.AdvancedSession
	Input   *ort.Tensor[float32]
	Output  *ort.Tensor[float32]
}

func (m *modelSession) Destroy() error {
	return multierr.Combine(m.Session.Destroy(), m.Input.Destroy(), m.Output.Destroy())
}

// Detector is a cardistance.Detector backed by a YOLOv8 model with the
// standard 1x3x640x640 input and 1x84x8400 output.
type Detector struct {
	ModelPath           string
	LibraryPath         string
	Classes             []string
	IouThreshold        float32
	ConfidenceThreshold float32

	session *modelSession
	logger  *zap.SugaredLogger
}

type Option func(*Detector) error

func WithModelPath(path string) Option {
	return func(d *Detector) error {
		if path == "" {
			return errors.New("model path must not be empty")
		}
		d.ModelPath = path
		return nil
	}
}

// WithLibraryPath points at libonnxruntime.so.
func WithLibraryPath(path string) Option {
	return func(d *Detector) error {
		d.LibraryPath = path
		return nil
	}
}

func WithClasses(classes []string) Option {
	return func(d *Detector) error {
		if len(classes) == 0 {
			return errors.New("class list must not be empty")
		}
		d.Classes = classes
		return nil
	}
}

func WithConfidenceThreshold(conf float32) Option {
	return func(d *Detector) error {
		if conf < 0 || conf > 1 {
			return errors.Errorf("confidence threshold %v out of range", conf)
		}
		d.ConfidenceThreshold = conf
		return nil
	}
}

func WithIouThreshold(iou float32) Option {
	return func(d *Detector) error {
		if iou <= 0 || iou > 1 {
			return errors.Errorf("iou threshold %v out of range", iou)
		}
		d.IouThreshold = iou
		return nil
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(d *Detector) error {
		d.logger = logger
		return nil
	}
}

func New(opts ...Option) (*Detector, error) {
	d := &Detector{
		ModelPath:           "./yolov8n.onnx",
		LibraryPath:         "./onnxruntime-linux-x64-1.17.1/lib/libonnxruntime.so",
		Classes:             DefaultClasses,
		IouThreshold:        0.7,
		ConfidenceThreshold: 0.5,
		logger:              zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	if err := d.initSession(); err != nil {
		return nil, err
	}
	d.logger.Infow("yolo model loaded", "model", d.ModelPath, "classes", len(d.Classes))
	return d, nil
}

func (d *Detector) initSession() error {
	if err := initEnvironment(d.LibraryPath); err != nil {
		return err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, inputSize, inputSize))
	if err != nil {
		return errors.Wrap(err, "creating input tensor")
	}
	outputShape := ort.NewShape(1, int64(4+len(d.Classes)), candidates)
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return errors.Wrap(err, "creating output tensor")
	}
	options, err := ort.NewSessionOptions()
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return errors.Wrap(err, "creating session options")
	}
	defer options.Destroy()

	session, err := ort.NewAdvancedSession(d.ModelPath,
		[]string{"images"}, []string{"output0"},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return errors.Wrapf(err, "creating session for %s", d.ModelPath)
	}

	d.session = &modelSession{Session: session, Input: inputTensor, Output: outputTensor}
	return nil
}

func (d *Detector) Close() error {
	if d.session == nil {
		return nil
	}
	err := d.session.Destroy()
	d.session = nil
	return err
}

// Detect runs the model on img. Boxes are scaled back to img's size.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]cardistance.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.session == nil {
		return nil, errors.New("detector is closed")
	}
	if err := fillInput(d.session.Input.GetData(), img); err != nil {
		return nil, err
	}
	if err := d.session.Session.Run(); err != nil {
		return nil, errors.Wrap(err, "running yolo session")
	}
	b := img.Bounds()
	boxes := d.processOutput(d.session.Output.GetData(), b.Dx(), b.Dy())

	dets := make([]cardistance.Detection, 0, len(boxes))
	for _, box := range boxes {
		dets = append(dets, cardistance.Detection{
			Label:      box.Label,
			Confidence: float64(box.Confidence),
			Box:        box.Rect().Add(b.Min),
		})
	}
	return dets, nil
}

// fillInput writes img as planar RGB in [0,1] at the model input size.
func fillInput(dst []float32, img image.Image) error {
	channelSize := inputSize * inputSize
	if len(dst) < channelSize*3 {
		return errors.Errorf("destination tensor only holds %d floats, needs %d", len(dst), channelSize*3)
	}
	red := dst[0:channelSize]
	green := dst[channelSize : channelSize*2]
	blue := dst[channelSize*2 : channelSize*3]

	img = resize.Resize(inputSize, inputSize, img, resize.Lanczos3)
	origin := img.Bounds().Min
	i := 0
	for y := 0; y < inputSize; y++ {
		for x := 0; x < inputSize; x++ {
			r, g, b, _ := img.At(origin.X+x, origin.Y+y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(b>>8) / 255.0
			i++
		}
	}
	return nil
}

// processOutput decodes the transposed 84x8400 tensor and applies
// non-maximum suppression, keeping the most confident box of each overlap group.
func (d *Detector) processOutput(output []float32, originalWidth, originalHeight int) []BoundingBox {
	boxes := make([]BoundingBox, 0, 64)
	totalClasses := len(d.Classes)
	if len(output) < candidates*(4+totalClasses) {
		d.logger.Warnw("yolo output shorter than expected", "len", len(output))
		return nil
	}

	for idx := 0; idx < candidates; idx++ {
		classID := 0
		probability := float32(-1e9)
		for col := 0; col < totalClasses; col++ {
			if p := output[candidates*(col+4)+idx]; p > probability {
				probability = p
				classID = col
			}
		}
		if probability < d.ConfidenceThreshold {
			continue
		}

		xc, yc := output[idx], output[candidates+idx]
		w, h := output[2*candidates+idx], output[3*candidates+idx]
		boxes = append(boxes, BoundingBox{
			Label:      d.Classes[classID],
			ClassID:    classID,
			Confidence: probability,
			X1:         (xc - w/2) / inputSize * float32(originalWidth),
			Y1:         (yc - h/2) / inputSize * float32(originalHeight),
			X2:         (xc + w/2) / inputSize * float32(originalWidth),
			Y2:         (yc + h/2) / inputSize * float32(originalHeight),
		})
	}

	sort.SliceStable(boxes, func(i, j int) bool {
		return boxes[i].Confidence > boxes[j].Confidence
	})

	merged := make([]BoundingBox, 0, len(boxes))
	for i := range boxes {
		overlaps := false
		for j := range merged {
			if boxes[i].Iou(&merged[j]) > d.IouThreshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			merged = append(merged, boxes[i])
		}
	}
	return merged
}
