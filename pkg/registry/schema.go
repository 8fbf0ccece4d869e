// pkg/registry/schema.go
package registry

type ModelRegistry struct {
	Version     string       `json:"version"`
	LastUpdated string       `json:"lastUpdated"`
	Models      []ModelEntry `json:"models"`
}

// ModelEntry describes the artifacts of the last training run of one model.
type ModelEntry struct {
	ID           string             `json:"id"`
	Task         string             `json:"task"`
	Artifacts    []string           `json:"artifacts"`
	FeatureNames []string           `json:"featureNames,omitempty"`
	TrainRows    int                `json:"trainRows"`
	TestRows     int                `json:"testRows"`
	Metrics      map[string]float64 `json:"metrics"`
	TrainedAt    string             `json:"trainedAt"`
	RunID        string             `json:"runId"`
}
