package classifypurpose

import (
	"facility-ml/internal/artifacts"
	"facility-ml/internal/common/config"
)

type Config struct {
	ModelFile      string
	VectorizerFile string
	FallbackLabel  string
	MinTextLength  int
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		ModelFile:      artifacts.PurposeCategoryModel,
		VectorizerFile: artifacts.PurposeCategoryVectorizer,
		FallbackLabel:  config.GetPredictorConfig(cfg, TaskType).FallbackLabel,
		MinTextLength:  3,
	}
}
