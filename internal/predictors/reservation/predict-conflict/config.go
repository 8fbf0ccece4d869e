package predictconflict

import "facility-ml/internal/artifacts"

type Config struct {
	ModelFile     string
	FeaturesFile  string
	PositiveLabel string
	Threshold     float64
}

func LoadConfig() *Config {
	return &Config{
		ModelFile:     artifacts.ConflictModel,
		FeaturesFile:  artifacts.ConflictFeatures,
		PositiveLabel: "1",
		Threshold:     0.5,
	}
}
