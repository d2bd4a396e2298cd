package main

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/anekit/internal/api"
	"github.com/samcharles93/anekit/pkg/ane"
	"github.com/samcharles93/anekit/pkg/anec"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve a loaded model over HTTP",
		Flags: append(append(commonModelFlags(), commonLogFlags()...),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyConfig(cmd, loadConfig(), &addr)
			log := newLogger()

			if modelPath == "" {
				return errors.New("--model is required")
			}
			model, err := anec.Load(modelPath)
			if err != nil {
				return err
			}
			dev, err := ane.OpenDevice(int(deviceID))
			if err != nil {
				return err
			}
			defer func() { _ = dev.Close() }()

			nn, err := ane.Attach(model, dev, ane.WithLogger(log))
			if err != nil {
				return err
			}
			defer func() { _ = nn.Close() }()

			name := strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath))
			runner := api.NewJobRunner(name, model, nn)
			server := api.NewServer(runner, log)

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting server", "address", addr, "model", name)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
