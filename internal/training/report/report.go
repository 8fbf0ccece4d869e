// Package report publishes the outcome of training runs: the model registry
// file, Prometheus gauges, the latest report per model in Redis and an
// optional notification.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"facility-ml/internal/common/config"
	"facility-ml/internal/common/database"
	"facility-ml/internal/common/logger"
	"facility-ml/internal/common/metrics"
	"facility-ml/pkg/registry"
)

// Run outcomes.
const (
	StatusTrained = "trained"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Report is what one training run produced for one model.
type Report struct {
	Model       string             `json:"model"`
	Task        string             `json:"task"`
	RunID       string             `json:"runId"`
	Status      string             `json:"status"`
	Reason      string             `json:"reason,omitempty"`
	Artifacts   []string           `json:"artifacts,omitempty"`
	Features    []string           `json:"features,omitempty"`
	TrainRows   int                `json:"trainRows"`
	TestRows    int                `json:"testRows"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	TopFeatures []string           `json:"topFeatures,omitempty"`
	StartedAt   time.Time          `json:"startedAt"`
	Duration    float64            `json:"durationSeconds"`
}

// Entry converts a trained report into its registry entry.
func (r *Report) Entry() registry.ModelEntry {
	return registry.ModelEntry{
		ID:           r.Model,
		Task:         r.Task,
		Artifacts:    r.Artifacts,
		FeatureNames: r.Features,
		TrainRows:    r.TrainRows,
		TestRows:     r.TestRows,
		Metrics:      r.Metrics,
		TrainedAt:    r.StartedAt.UTC().Format(time.RFC3339),
		RunID:        r.RunID,
	}
}

// Notifier announces finished runs, e.g. on an SNS topic.
type Notifier interface {
	Notify(ctx context.Context, subject, message string, attrs map[string]string) error
}

// Publisher records reports. The Redis client and the notifier are optional.
type Publisher struct {
	registryPath string
	redis        *database.RedisClient
	notifier     Notifier
	keyPrefix    string
	ttl          time.Duration
	logger       logger.Logger
}

type PublisherOption func(*Publisher)

func WithNotifier(n Notifier) PublisherOption {
	return func(p *Publisher) { p.notifier = n }
}

func NewPublisher(registryPath string, rdb *database.RedisClient, cfg config.RedisConfig, log logger.Logger, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		registryPath: registryPath,
		redis:        rdb,
		keyPrefix:    cfg.KeyPrefix,
		ttl:          config.GetDuration(cfg.ReportTTL),
		logger:       log.WithFields(map[string]interface{}{"component": "report"}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect opens the Redis client named by cfg, or returns nil when no address
// is configured.
func Connect(ctx context.Context, cfg config.RedisConfig) (*database.RedisClient, error) {
	if cfg.Address == "" {
		return nil, nil
	}
	rc, err := database.NewRedis(cfg)
	if err != nil {
		return nil, err
	}
	if err := rc.Ping(ctx); err != nil {
		rc.Close()
		return nil, err
	}
	return rc, nil
}

// Key is the Redis key holding the latest report of model.
func Key(prefix, model string) string {
	return fmt.Sprintf("%s:report:%s", prefix, model)
}

// Publish updates metrics for every report, upserts trained models into the
// registry, stores the report in Redis and notifies. Redis and notifier
// failures are logged, not returned.
func (p *Publisher) Publish(ctx context.Context, r *Report) error {
	metrics.TrainingRunsTotal.WithLabelValues(r.Model, r.Status).Inc()
	metrics.TrainingDuration.WithLabelValues(r.Model).Set(r.Duration)

	if r.Status == StatusTrained {
		metrics.TrainingRows.WithLabelValues(r.Model, "train").Set(float64(r.TrainRows))
		metrics.TrainingRows.WithLabelValues(r.Model, "test").Set(float64(r.TestRows))
		for name, value := range r.Metrics {
			metrics.ModelScore.WithLabelValues(r.Model, name).Set(value)
		}
		metrics.LastTrainedTimestamp.WithLabelValues(r.Model).Set(float64(r.StartedAt.Unix()))

		if err := p.record(r); err != nil {
			return err
		}
	}

	if p.notifier != nil {
		p.notify(ctx, r)
	}
	if p.redis == nil {
		return nil
	}
	if err := p.redis.SetJSON(ctx, Key(p.keyPrefix, r.Model), r, p.ttl); err != nil {
		p.logger.Warn("failed to publish report", map[string]interface{}{
			"model": r.Model,
			"error": err.Error(),
		})
	}
	return nil
}

func (p *Publisher) notify(ctx context.Context, r *Report) {
	data, err := json.Marshal(r)
	if err == nil {
		subject := fmt.Sprintf("%s: %s model %s", p.keyPrefix, r.Model, r.Status)
		err = p.notifier.Notify(ctx, subject, string(data), map[string]string{"model": r.Model, "status": r.Status})
	}
	if err != nil {
		p.logger.Warn("failed to send run notification", map[string]interface{}{
			"model": r.Model,
			"error": err.Error(),
		})
	}
}

func (p *Publisher) record(r *Report) error {
	reg, err := registry.LoadOrNew(p.registryPath)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	reg.Upsert(r.Entry(), r.StartedAt)
	if err := reg.Save(p.registryPath); err != nil {
		return err
	}
	p.logger.Info("registry updated", map[string]interface{}{
		"model": r.Model,
		"path":  p.registryPath,
	})
	return nil
}

// Latest reads the stored reports of every model under prefix, sorted by model.
func Latest(ctx context.Context, rdb *database.RedisClient, prefix string) ([]*Report, error) {
	keys, err := rdb.Keys(ctx, Key(prefix, "*"))
	if err != nil {
		return nil, fmt.Errorf("scan reports: %w", err)
	}
	sort.Strings(keys)

	reports := make([]*Report, 0, len(keys))
	for _, key := range keys {
		var r Report
		err := rdb.GetJSON(ctx, key, &r)
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		reports = append(reports, &r)
	}
	return reports, nil
}
