// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig                  `mapstructure:"app"`
	Models     ModelsConfig               `mapstructure:"models"`
	Data       DataConfig                 `mapstructure:"data"`
	Database   DatabaseConfig             `mapstructure:"database"`
	Metrics    MetricsConfig              `mapstructure:"metrics"`
	Notify     NotifyConfig               `mapstructure:"notify"`
	Training   TrainingConfig             `mapstructure:"training"`
	Predictors map[string]PredictorConfig `mapstructure:"predictors"`
	Logging    LoggingConfig              `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ModelsConfig points at the directory holding serialized artifacts.
type ModelsConfig struct {
	Dir          string `mapstructure:"dir" validate:"required"`
	RegistryFile string `mapstructure:"registry_file" validate:"required"`
}

// DataConfig is where the extract tool writes CSV exports.
type DataConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections" validate:"gte=1"`
	MaxIdle        int    `mapstructure:"max_idle" validate:"gte=0"`
	SSLMode        string `mapstructure:"sslmode" validate:"oneof=disable require verify-ca verify-full"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig is optional; an empty address disables report publishing.
type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db" validate:"gte=0"`
	KeyPrefix string `mapstructure:"key_prefix"`
	ReportTTL int    `mapstructure:"report_ttl"` // milliseconds, 0 keeps reports forever
}

// MetricsConfig controls the Prometheus Pushgateway used by short-lived
// processes and the optional Jaeger collector receiving spans.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url" validate:"omitempty,url"`
	Job            string `mapstructure:"job"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint" validate:"omitempty,url"`
}

// NotifyConfig names the SNS topic that receives one message per training
// run. An empty topic disables notifications.
type NotifyConfig struct {
	SNSTopicARN string `mapstructure:"sns_topic_arn"`
	AWSRegion   string `mapstructure:"aws_region"`
}

// TrainingConfig mirrors the forest parameters and data guards of every trainer.
type TrainingConfig struct {
	TestSize               float64    `mapstructure:"test_size" validate:"gt=0,lt=1"`
	RandomState            int64      `mapstructure:"random_state"`
	NEstimators            int        `mapstructure:"n_estimators" validate:"gte=1"`
	MaxDepth               int        `mapstructure:"max_depth" validate:"gte=0"`
	MinSamplesLeaf         int        `mapstructure:"min_samples_leaf" validate:"gte=1"`
	LookbackDays           int        `mapstructure:"lookback_days" validate:"gte=1"`
	ConflictLookbackMonths int        `mapstructure:"conflict_lookback_months" validate:"gte=1"`
	MinReservations        int        `mapstructure:"min_reservations" validate:"gte=1"`
	MinApprovedBookings    int        `mapstructure:"min_approved_reservations" validate:"gte=1"`
	MinDemandReservations  int        `mapstructure:"min_demand_reservations" validate:"gte=1"`
	MinClearPurposes       int        `mapstructure:"min_clear_purposes" validate:"gte=1"`
	Labels                 LabelRules `mapstructure:"labels"`
}

// LabelRules are CEL expressions evaluated per reservation when deriving labels.
type LabelRules struct {
	RiskLow      string `mapstructure:"risk_low" validate:"required"`
	Conflict     string `mapstructure:"conflict" validate:"required"`
	UnclearExtra string `mapstructure:"unclear_extra" validate:"required"`
}

// PredictorConfig holds per-endpoint switches.
type PredictorConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	FallbackLabel string `mapstructure:"fallback_label"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output" validate:"oneof=stdout stderr"`
}
