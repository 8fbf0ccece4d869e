// cmd/predict/main.go
package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"facility-ml/internal/common/config"
	"facility-ml/internal/common/logger"
	"facility-ml/internal/common/metrics"
	"facility-ml/internal/common/observability"
	"facility-ml/internal/dispatch"
	"facility-ml/internal/predictors"
)

// predict <endpoint> [args...]
//
// Reads one request from the arguments or stdin and prints one JSON line.
// Logs go to stderr.
func main() {
	os.Exit(run())
}

func run() int {
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.Default()
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, "stderr")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	if cfgErr != nil {
		zapLog.Warn("config load failed, using defaults", zap.Error(cfgErr))
	}

	name := ""
	var args []string
	if len(os.Args) > 1 {
		name = os.Args[1]
		args = os.Args[2:]
	}

	ctx := context.Background()
	deps := predictors.NewContext(cfg, log)
	obs, err := observability.New("facility-ml-predict", metrics.Registry, observability.WithJaeger(cfg.Metrics.JaegerEndpoint))
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
	}
	defer obs.Shutdown()

	d := dispatch.New(dispatch.DefaultRegistry(deps), cfg, log, dispatch.WithObservability(obs))
	code := d.Run(ctx, name, args, os.Stdin, os.Stdout)

	pushCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := metrics.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, map[string]string{"endpoint": name}); err != nil {
		zapLog.Warn("metrics push failed", zap.Error(err))
	}
	return code
}
