// cmd/train/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"facility-ml/internal/artifacts"
	"facility-ml/internal/common/aws"
	"facility-ml/internal/common/config"
	"facility-ml/internal/common/logger"
	"facility-ml/internal/common/metrics"
	"facility-ml/internal/common/observability"
	"facility-ml/internal/dataloader"
	"facility-ml/internal/training"
	"facility-ml/internal/training/labels"
	"facility-ml/internal/training/report"
)

// train <model|all> [model...]
//
// Fits the named models from the reservation database and writes their
// artifacts, registry entries and run reports.
func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: train <%s|all> [model...]\n", strings.Join(training.Names(), "|"))
		return 2
	}
	names := os.Args[1:]
	if len(names) == 1 && names[0] == "all" {
		names = training.Names()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, "stderr")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rules, err := labels.New(cfg.Training.Labels)
	if err != nil {
		zapLog.Error("invalid label rules", zap.Error(err))
		return 1
	}

	obs, err := observability.New("facility-ml-train", metrics.Registry, observability.WithJaeger(cfg.Metrics.JaegerEndpoint))
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
	}
	defer obs.Shutdown()

	env := &training.Env{
		Config: cfg,
		Store:  artifacts.NewStore(cfg.Models.Dir),
		Rules:  rules,
		Logger: log,
		Obs:    obs,
		Now:    time.Now,
	}

	if needsDatabase(names) {
		if err := cfg.RequirePostgres(); err != nil {
			zapLog.Error("database not configured", zap.Error(err))
			return 1
		}
		loader, err := dataloader.Open(ctx, cfg.Database.Postgres, log)
		if err != nil {
			zapLog.Error("failed to connect to database", zap.Error(err))
			return 1
		}
		defer loader.Close()
		env.Source = loader
	}

	rdb, err := report.Connect(ctx, cfg.Database.Redis)
	if err != nil {
		zapLog.Warn("redis unavailable, reports go to the registry only", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}
	var pubOpts []report.PublisherOption
	if cfg.Notify.SNSTopicARN != "" {
		notifier, err := aws.NewSNSNotifier(ctx, cfg.Notify.AWSRegion, cfg.Notify.SNSTopicARN)
		if err != nil {
			zapLog.Warn("sns notifications disabled", zap.Error(err))
		} else {
			pubOpts = append(pubOpts, report.WithNotifier(notifier))
		}
	}
	env.Publisher = report.NewPublisher(filepath.Join(cfg.Models.Dir, cfg.Models.RegistryFile), rdb, cfg.Database.Redis, log, pubOpts...)

	reports, runErr := training.RunAll(ctx, env, names)
	for _, r := range reports {
		zapLog.Info("model finished",
			zap.String("model", r.Model),
			zap.String("status", r.Status),
			zap.String("reason", r.Reason),
			zap.Float64("durationSeconds", r.Duration),
		)
	}

	pushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metrics.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, map[string]string{"command": "train"}); err != nil {
		zapLog.Warn("metrics push failed", zap.Error(err))
	}

	if runErr != nil {
		zapLog.Error("training finished with errors", zap.Error(runErr))
		return 1
	}
	return 0
}

// needsDatabase is false when only the intent model, which trains on the
// built-in corpus, is requested.
func needsDatabase(names []string) bool {
	for _, name := range names {
		if name != "intent" {
			return true
		}
	}
	return false
}
