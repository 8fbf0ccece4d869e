package predictrisk

import "facility-ml/internal/artifacts"

type Config struct {
	ModelFile     string
	EncodersFile  string
	HighRiskLabel string
}

func LoadConfig() *Config {
	return &Config{
		ModelFile:     artifacts.RiskModel,
		EncodersFile:  artifacts.RiskEncoders,
		HighRiskLabel: "1",
	}
}
