// internal/predictors/chatbot/classify-intent/config.go
package classifyintent

import (
	"facility-ml/internal/artifacts"
	"facility-ml/internal/common/config"
)

type Config struct {
	ModelFile      string
	VectorizerFile string
	FallbackLabel  string
	TopK           int
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		ModelFile:      artifacts.IntentModel,
		VectorizerFile: artifacts.IntentVectorizer,
		FallbackLabel:  config.GetPredictorConfig(cfg, TaskType).FallbackLabel,
		TopK:           3,
	}
}
