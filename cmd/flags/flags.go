package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/pinning-aggregation/common"
	"github.com/ruteri/pinning-aggregation/httpserver"
	"github.com/ruteri/pinning-aggregation/interfaces"
	"github.com/ruteri/pinning-aggregation/pinning"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool(LogDebugFlag.Name),
		JSON:    cCtx.Bool(LogJsonFlag.Name),
		Service: cCtx.String(LogServiceFlag.Name),
		Version: common.Version,
	})

	if cCtx.Bool(LogUidFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger) *httpserver.HTTPServerConfig {
	return &httpserver.HTTPServerConfig{
		ListenAddr:               cCtx.String(ListenAddrFlag.Name),
		MetricsAddr:              cCtx.String(MetricsAddrFlag.Name),
		Log:                      logger,
		EnablePprof:              cCtx.Bool(PprofFlag.Name),
		DrainDuration:            time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

// PinningContext builds the shared context handed to every backend. The host
// IPFS node is only set when --ipfs-api is given. An unreachable node is logged, not fatal.
func PinningContext(cCtx *cli.Context, logger *slog.Logger) *interfaces.PinningContext {
	pctx := &interfaces.PinningContext{Log: logger}
	if addr := cCtx.String(IpfsApiFlag.Name); addr != "" {
		node := pinning.NewIPFSShell(addr)
		if !node.IsUp() {
			logger.Warn("Host IPFS node is not reachable", "address", addr)
		}
		pctx.IPFS = node
	}
	return pctx
}

// BuildAggregation creates an aggregation over the --backend connection strings. It is not opened.
func BuildAggregation(cCtx *cli.Context, logger *slog.Logger) (*pinning.PinningAggregation, error) {
	factory := pinning.NewPinningFactory(logger, PinningContext(cCtx, logger), pinning.DefaultVariants())
	return factory.NewAggregation(cCtx.StringSlice(BackendsFlag.Name))
}

var BackendsFlag = &cli.StringSliceFlag{
	Name:    "backend",
	EnvVars: []string{"PINNING_BACKENDS"},
	Usage:   "pinning backend connection string, e.g. ipfs://__context, ipfs+https://host:5001, s3://bucket/prefix, file:///var/pins (repeatable)",
}

var IpfsApiFlag = &cli.StringFlag{
	Name:    "ipfs-api",
	EnvVars: []string{"PINNING_IPFS_API"},
	Usage:   "IPFS HTTP API of the host node, used by ipfs://__context and as the content source for s3 and file backends",
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: "pinning-aggregation",
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var LogFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
}

var CommonFlags = append([]cli.Flag{
	ListenAddrFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}, LogFlags...)
