package detectunclearpurpose

import "facility-ml/internal/artifacts"

type Config struct {
	ModelFile      string
	VectorizerFile string
	UnclearLabel   string
	MinTextLength  int
}

func LoadConfig() *Config {
	return &Config{
		ModelFile:      artifacts.PurposeUnclearModel,
		VectorizerFile: artifacts.PurposeUnclearVectorizer,
		UnclearLabel:   "1",
		MinTextLength:  3,
	}
}
