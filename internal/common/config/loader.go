// internal/common/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Endpoint names with a predictors.<name> section.
var knownPredictors = []string{
	"classify-intent",
	"classify-purpose",
	"detect-unclear-purpose",
	"forecast-demand",
	"predict-conflict",
	"predict-risk",
	"recommend-facilities",
}

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml
// and applies environment overrides. A missing config file is not an error:
// every field has a default.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	if dir := os.Getenv("FACILITY_ML_CONFIG_DIR"); dir != "" {
		v.AddConfigPath(dir)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

// Default returns a fully defaulted configuration without touching disk.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up from the working directory.
// Nothing is printed: stdout belongs to the prediction response.
func loadEnvFile() string {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if val := os.Getenv("MODELS_DIR"); val != "" {
		cfg.Models.Dir = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "facility-ml"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Models.Dir == "" {
		cfg.Models.Dir = "models"
	}
	if cfg.Models.RegistryFile == "" {
		cfg.Models.RegistryFile = "registry.json"
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "data"
	}

	// Database defaults
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 5
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.KeyPrefix == "" {
		cfg.Database.Redis.KeyPrefix = "facility-ml"
	}

	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = "facility_ml"
	}

	t := &cfg.Training
	if t.TestSize == 0 {
		t.TestSize = 0.2
	}
	if t.RandomState == 0 {
		t.RandomState = 42
	}
	if t.NEstimators == 0 {
		t.NEstimators = 100
	}
	if t.MaxDepth == 0 {
		t.MaxDepth = 10
	}
	if t.MinSamplesLeaf == 0 {
		t.MinSamplesLeaf = 5
	}
	if t.LookbackDays == 0 {
		t.LookbackDays = 365
	}
	if t.ConflictLookbackMonths == 0 {
		t.ConflictLookbackMonths = 12
	}
	if t.MinReservations == 0 {
		t.MinReservations = 10
	}
	if t.MinApprovedBookings == 0 {
		t.MinApprovedBookings = 5
	}
	if t.MinDemandReservations == 0 {
		t.MinDemandReservations = 30
	}
	if t.MinClearPurposes == 0 {
		t.MinClearPurposes = 5
	}
	if t.Labels.RiskLow == "" {
		t.Labels.RiskLow = `auto_approved && status == "approved"`
	}
	if t.Labels.Conflict == "" {
		t.Labels.Conflict = "other_approved_same_day > 0"
	}
	if t.Labels.UnclearExtra == "" {
		t.Labels.UnclearExtra = "false"
	}

	if cfg.Predictors == nil {
		cfg.Predictors = make(map[string]PredictorConfig)
	}
	for _, name := range knownPredictors {
		if _, exists := cfg.Predictors[name]; !exists {
			cfg.Predictors[name] = PredictorConfig{Enabled: true}
		}
	}
	if p := cfg.Predictors["classify-intent"]; p.FallbackLabel == "" {
		p.FallbackLabel = "unknown"
		cfg.Predictors["classify-intent"] = p
	}
	if p := cfg.Predictors["classify-purpose"]; p.FallbackLabel == "" {
		p.FallbackLabel = "private"
		cfg.Predictors["classify-purpose"] = p
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
}

var validate = validator.New()

// validateConfig checks struct tags; database settings are only required by
// the commands that open a connection (see RequirePostgres).
func validateConfig(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}
	return nil
}

// RequirePostgres reports whether the database section is usable.
func (c *Config) RequirePostgres() error {
	p := c.Database.Postgres
	if p.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if p.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if p.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetPredictorConfig retrieves endpoint configuration with fallback to defaults
func GetPredictorConfig(cfg *Config, name string) PredictorConfig {
	if p, exists := cfg.Predictors[name]; exists {
		return p
	}
	return PredictorConfig{Enabled: true}
}

// IsPredictorEnabled checks if a specific endpoint is enabled
func IsPredictorEnabled(cfg *Config, name string) bool {
	if p, exists := cfg.Predictors[name]; exists {
		return p.Enabled
	}
	return true
}
