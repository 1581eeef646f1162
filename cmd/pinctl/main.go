package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/ipfs/go-cid"
	"github.com/ruteri/pinning-aggregation/api/clients"
	"github.com/ruteri/pinning-aggregation/cmd/flags"
	"github.com/ruteri/pinning-aggregation/interfaces"
	"github.com/urfave/cli/v2"
)

var flagServerAddr = &cli.StringFlag{
	Name:    "server",
	EnvVars: []string{"PINNING_SERVER"},
	Usage:   "pinning server to send requests to; if unset the --backend list is used directly",
}

// withPinning opens the configured pinning target, runs fn and closes it again.
func withPinning(cCtx *cli.Context, fn func(ctx context.Context, p interfaces.Pinning) (any, error)) error {
	logger := flags.SetupLogger(cCtx)
	ctx := cCtx.Context

	var p interfaces.Pinning
	if addr := cCtx.String(flagServerAddr.Name); addr != "" {
		p = clients.NewPinningClient(addr)
	} else {
		if len(cCtx.StringSlice(flags.BackendsFlag.Name)) == 0 {
			return errors.New("either --server or at least one --backend is required")
		}
		aggregation, err := flags.BuildAggregation(cCtx, logger)
		if err != nil {
			return err
		}
		p = aggregation
	}

	if err := p.Open(ctx); err != nil {
		return fmt.Errorf("could not open pinning backends: %w", err)
	}
	defer func() {
		if err := p.Close(ctx); err != nil {
			logger.Warn("Failed to close pinning backends", "err", err)
		}
	}()

	result, err := fn(ctx, p)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func parseCids(cCtx *cli.Context) ([]cid.Cid, error) {
	if cCtx.NArg() == 0 {
		return nil, errors.New("at least one CID is required")
	}
	cids := make([]cid.Cid, 0, cCtx.NArg())
	for _, arg := range cCtx.Args().Slice() {
		c, err := cid.Decode(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid CID %q: %w", arg, err)
		}
		cids = append(cids, c)
	}
	return cids, nil
}

func main() {
	app := &cli.App{
		Name:  "pinctl",
		Usage: "Pin, unpin and inspect content across pinning backends",
		Flags: append([]cli.Flag{
			flags.BackendsFlag,
			flags.IpfsApiFlag,
			flagServerAddr,
		}, flags.LogFlags...),
		Commands: []*cli.Command{
			{
				Name:      "pin",
				Usage:     "pin CIDs on every backend",
				ArgsUsage: "<cid> [<cid>...]",
				Action: func(cCtx *cli.Context) error {
					cids, err := parseCids(cCtx)
					if err != nil {
						return err
					}
					return withPinning(cCtx, func(ctx context.Context, p interfaces.Pinning) (any, error) {
						pinned := []string{}
						for _, c := range cids {
							if err := p.Pin(ctx, c); err != nil {
								return nil, fmt.Errorf("could not pin %s: %w", c, err)
							}
							pinned = append(pinned, c.String())
						}
						return map[string][]string{"pinned": pinned}, nil
					})
				},
			},
			{
				Name:      "unpin",
				Usage:     "unpin CIDs from every backend, best effort",
				ArgsUsage: "<cid> [<cid>...]",
				Action: func(cCtx *cli.Context) error {
					cids, err := parseCids(cCtx)
					if err != nil {
						return err
					}
					return withPinning(cCtx, func(ctx context.Context, p interfaces.Pinning) (any, error) {
						unpinned := []string{}
						for _, c := range cids {
							if err := p.Unpin(ctx, c); err != nil {
								return nil, fmt.Errorf("could not unpin %s: %w", c, err)
							}
							unpinned = append(unpinned, c.String())
						}
						return map[string][]string{"unpinned": unpinned}, nil
					})
				},
			},
			{
				Name:  "ls",
				Usage: "list pinned CIDs with the backends holding them",
				Action: func(cCtx *cli.Context) error {
					return withPinning(cCtx, func(ctx context.Context, p interfaces.Pinning) (any, error) {
						return p.Ls(ctx)
					})
				},
			},
			{
				Name:  "info",
				Usage: "show the aggregation id and per-backend diagnostics",
				Action: func(cCtx *cli.Context) error {
					return withPinning(cCtx, func(ctx context.Context, p interfaces.Pinning) (any, error) {
						info, err := p.Info(ctx)
						if err != nil {
							return nil, err
						}
						return clients.InfoResponse{ID: p.ID(), Backends: info}, nil
					})
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
