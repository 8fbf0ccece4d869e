// internal/predictors/forecasting/forecast-demand/config.go
package forecastdemand

import "facility-ml/internal/artifacts"

type Config struct {
	ModelFile    string
	Confidence   float64
	MaxRangeDays int
}

func LoadConfig() *Config {
	return &Config{
		ModelFile:    artifacts.DemandModel,
		Confidence:   0.7,
		MaxRangeDays: 366,
	}
}
