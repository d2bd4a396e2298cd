package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/anekit/pkg/ane"
	"github.com/samcharles93/anekit/pkg/anec"
)

func runCmd() *cli.Command {
	var (
		inputs    []string
		outputDir string
		tiled     bool
	)

	return &cli.Command{
		Name:  "run",
		Usage: "Execute one job on the accelerator",
		Flags: append(append(commonModelFlags(), commonLogFlags()...),
			&cli.StringSliceFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "input tensor file, one per source channel in order",
				Destination: &inputs,
			},
			&cli.StringFlag{
				Name:        "output-dir",
				Aliases:     []string{"o"},
				Usage:       "directory for output tensor files",
				Value:       ".",
				Destination: &outputDir,
			},
			&cli.BoolFlag{
				Name:        "tiled",
				Usage:       "treat inputs/outputs as dense NCHW tensors and apply the tiling transform",
				Value:       true,
				Destination: &tiled,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyConfig(cmd, loadConfig(), nil)
			log := newLogger()

			if modelPath == "" {
				return errors.New("--model is required")
			}

			model, err := anec.Load(modelPath)
			if err != nil {
				return err
			}
			log.Info("model loaded", "path", modelPath,
				"src", model.Header.SrcCount, "dst", model.Header.DstCount)

			dev, err := ane.OpenDevice(int(deviceID))
			if err != nil {
				return err
			}
			defer func() { _ = dev.Close() }()
			log.Info("device opened", "id", deviceID, "node", dev.Node())

			nn, err := ane.Attach(model, dev, ane.WithLogger(log))
			if err != nil {
				return err
			}
			defer func() { _ = nn.Close() }()

			if len(inputs) != nn.SrcCount() {
				return fmt.Errorf("model takes %d inputs, got %d", nn.SrcCount(), len(inputs))
			}
			for j, path := range inputs {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("input %d: %w", j, err)
				}
				if tiled {
					err = nn.SendTiled(j, data)
				} else {
					err = nn.Send(j, data)
				}
				if err != nil {
					return fmt.Errorf("input %d: %w", j, err)
				}
			}

			start := time.Now()
			if err := nn.ExecContext(ctx); err != nil {
				return err
			}
			log.Info("job complete", "elapsed", time.Since(start))

			for i := 0; i < nn.DstCount(); i++ {
				out, err := readOutput(nn, i, tiled)
				if err != nil {
					return fmt.Errorf("output %d: %w", i, err)
				}
				path := filepath.Join(outputDir, fmt.Sprintf("out%d.bin", i))
				if err := os.WriteFile(path, out, 0o644); err != nil {
					return fmt.Errorf("output %d: %w", i, err)
				}
				log.Info("output written", "index", i, "path", path, "bytes", len(out))
			}
			return nil
		},
	}
}

func readOutput(nn *ane.NN, idx int, tiled bool) ([]byte, error) {
	if tiled {
		shape, err := nn.DstShape(idx)
		if err != nil {
			return nil, err
		}
		out := make([]byte, shape.DenseBytes())
		return out, nn.ReadTiled(idx, out)
	}
	size, err := nn.DstSize(idx)
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	return out, nn.Read(idx, out)
}
