// Package main runs the detector over still images, prints what it found and
// writes the annotated images as PNG files.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/cardistance"
	"github.com/cardistance/imagecanvas"
	"github.com/cardistance/internal/logging"
	"github.com/cardistance/yolo"
)

type noPacing struct{}

func (noPacing) Mark() {}

func (noPacing) Wait(ctx context.Context) error { return ctx.Err() }

func main() {
	app := &cli.App{
		Name:      "inspect_frame",
		Usage:     "estimate car distances in still images",
		ArgsUsage: "IMAGE...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "model", Value: "./yolov8n.onnx", Usage: "YOLOv8 ONNX `FILE`"},
			&cli.StringFlag{Name: "onnxruntime", Value: "./onnxruntime-linux-x64-1.17.1/lib/libonnxruntime.so", Usage: "path to the onnxruntime shared library"},
			&cli.StringFlag{Name: "out-dir", Value: "./annotated", Usage: "directory for annotated PNGs"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Action: inspect,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func inspect(c *cli.Context) (err error) {
	if c.NArg() == 0 {
		return errors.New("at least one image is required")
	}
	logger, err := logging.NewLogger("inspect_frame", c.Bool("debug"))
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := cardistance.LoadConfig()
	if err != nil {
		return err
	}
	source, err := imagecanvas.NewFileSource(c.Args().Slice()...)
	if err != nil {
		return err
	}
	sink, err := imagecanvas.NewPNGSink(c.String("out-dir"))
	if err != nil {
		return err
	}
	detector, err := yolo.New(
		yolo.WithModelPath(c.String("model")),
		yolo.WithLibraryPath(c.String("onnxruntime")),
		yolo.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, detector.Close())
	}()

	frame := 0
	printResult := func(res cardistance.FrameResult) {
		fmt.Printf("%s: %d car(s), advisory %s\n", c.Args().Get(frame), len(res.Annotations.Objects), res.Advisory)
		for _, o := range res.Annotations.Objects {
			if !o.Measured {
				fmt.Printf("  %-12s %v  distance unknown\n", o.Label, o.Detection.Box)
				continue
			}
			fmt.Printf("  %-12s %v  %7s  %s\n", o.Label, o.Detection.Box, o.DistanceText, o.Tier)
		}
		frame++
	}

	processor, err := cardistance.NewProcessor(cfg, source, detector, sink,
		cardistance.WithLogger(logger),
		cardistance.WithPacer(noPacing{}),
		cardistance.WithFrameHook(printResult),
	)
	if err != nil {
		return err
	}
	if err := processor.Run(c.Context); err != nil {
		return err
	}
	fmt.Printf("wrote %d image(s) to %s\n", sink.Written(), sink.Dir)
	return nil
}
