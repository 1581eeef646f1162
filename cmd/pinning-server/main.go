package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ruteri/pinning-aggregation/cmd/flags"
	"github.com/ruteri/pinning-aggregation/httpserver"
	"github.com/urfave/cli/v2"
)

var openTimeoutFlag = &cli.DurationFlag{
	Name:  "open-timeout",
	Value: time.Minute,
	Usage: "time allowed for opening and closing all backends",
}

func main() {
	app := &cli.App{
		Name:  "pinning-server",
		Usage: "Serve a pinning aggregation over HTTP",
		Flags: append([]cli.Flag{
			flags.BackendsFlag,
			flags.IpfsApiFlag,
			openTimeoutFlag,
		}, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			connectionStrings := cCtx.StringSlice(flags.BackendsFlag.Name)
			if len(connectionStrings) == 0 {
				logger.Error("At least one --backend is required")
				return errors.New("no pinning backends configured")
			}

			aggregation, err := flags.BuildAggregation(cCtx, logger)
			if err != nil {
				logger.Error("Failed to create pinning aggregation", "err", err)
				return err
			}

			openCtx, cancel := context.WithTimeout(context.Background(), cCtx.Duration(openTimeoutFlag.Name))
			err = aggregation.Open(openCtx)
			cancel()
			if err != nil {
				logger.Error("Failed to open pinning backends", "err", err)
				return err
			}

			server, err := httpserver.New(flags.ConfigureServer(cCtx, logger), httpserver.NewHandler(aggregation, logger))
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server", "aggregation", aggregation.ID(), "backends", len(aggregation.Backends()))
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()

			closeCtx, cancel := context.WithTimeout(context.Background(), cCtx.Duration(openTimeoutFlag.Name))
			defer cancel()
			if err := aggregation.Close(closeCtx); err != nil {
				logger.Error("Failed to close pinning backends", "err", err)
			}
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
