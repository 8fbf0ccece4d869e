package recommendfacilities

import (
	"facility-ml/internal/artifacts"
	"facility-ml/internal/features"
)

type Config struct {
	ModelFile       string
	EncodersFile    string
	DefaultLimit    int
	DefaultTimeSlot string
}

func LoadConfig() *Config {
	return &Config{
		ModelFile:       artifacts.RecommendationModel,
		EncodersFile:    artifacts.RecommendationEncoders,
		DefaultLimit:    features.DefaultRecommendationLimit,
		DefaultTimeSlot: features.DefaultRecommendationTimeSlot,
	}
}
