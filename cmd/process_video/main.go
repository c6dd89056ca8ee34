// Package main plays a video through the car distance pipeline and shows the
// annotated frames in a window.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/cardistance"
	"github.com/cardistance/internal/logging"
	"github.com/cardistance/opencv"
	"github.com/cardistance/yolo"
)

func run() int {
	app := &cli.App{
		Name:  "process_video",
		Usage: "annotate cars with distance and hazard level",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Value: "./media/vehicle.mp4", Usage: "video `FILE`, stream URL or camera index"},
			&cli.StringFlag{Name: "model", Value: "./yolov8n.onnx", Usage: "YOLOv8 ONNX `FILE`"},
			&cli.StringFlag{Name: "onnxruntime", Value: "./onnxruntime-linux-x64-1.17.1/lib/libonnxruntime.so", Usage: "path to the onnxruntime shared library"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "record annotated frames to `FILE`"},
			&cli.StringFlag{Name: "codec", Value: "mp4v", Usage: "fourcc used when recording"},
			&cli.BoolFlag{Name: "headless", Usage: "do not open a window (requires --output)"},
			&cli.StringSliceFlag{Name: "env-file", Usage: "dotenv `FILE` with CARDISTANCE_* overrides"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Action: processVideo,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func processVideo(c *cli.Context) (err error) {
	logger, err := logging.NewLogger("process_video", c.Bool("debug"))
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := cardistance.LoadConfig(c.StringSlice("env-file")...)
	if err != nil {
		return errors.Wrap(err, "loading config")
	}

	source, err := opencv.OpenVideoSource(c.String("source"), cfg.Resolution, logger)
	if err != nil {
		return err
	}

	detector, err := yolo.New(
		yolo.WithModelPath(c.String("model")),
		yolo.WithLibraryPath(c.String("onnxruntime")),
		yolo.WithLogger(logger),
	)
	if err != nil {
		return multierr.Combine(errors.Wrap(err, "creating yolo detector"), source.Close())
	}
	defer func() {
		err = multierr.Combine(err, detector.Close())
	}()

	var sink *opencv.VideoSink
	if out := c.String("output"); out != "" {
		if sink, err = opencv.NewVideoSink(out, c.String("codec"), cfg.FPS, cfg.Resolution); err != nil {
			return multierr.Combine(err, source.Close())
		}
	}
	title := "Car Distance"
	if c.Bool("headless") {
		title = ""
	}
	display, err := opencv.NewDisplay(title, sink)
	if err != nil {
		return multierr.Combine(err, source.Close())
	}

	processor, err := cardistance.NewProcessor(cfg, source, detector, display, cardistance.WithLogger(logger))
	if err != nil {
		return multierr.Combine(err, source.Close(), display.Close())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return processor.Run(ctx)
}

func main() {
	os.Exit(run())
}
