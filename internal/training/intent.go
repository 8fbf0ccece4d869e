package training

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/goccy/go-json"

	"facility-ml/internal/artifacts"
	stderrors "facility-ml/internal/common/errors"
	"facility-ml/internal/features"
	"facility-ml/internal/ml"
)

//go:embed intents.json
var intentCorpus []byte

// IntentExamples are the sample questions of one chatbot intent.
type IntentExamples struct {
	Intent   string   `json:"intent"`
	Examples []string `json:"examples"`
}

var intentPrefixes = []string{"i want to", "can i", "i need to", "please"}

// Intents without prefixed variations.
var unprefixedIntents = map[string]bool{"greeting": true, "goodbye": true, "unknown": true}

// LoadIntentCorpus decodes the embedded sample questions.
func LoadIntentCorpus() ([]IntentExamples, error) {
	var corpus []IntentExamples
	if err := json.Unmarshal(intentCorpus, &corpus); err != nil {
		return nil, fmt.Errorf("decode intent corpus: %w", err)
	}
	return corpus, nil
}

// AugmentIntents returns every example plus its prefixed variations, normalized.
func AugmentIntents(corpus []IntentExamples) (docs, labels []string) {
	for _, group := range corpus {
		for _, ex := range group.Examples {
			docs = append(docs, features.Normalize(ex))
			labels = append(labels, group.Intent)
		}
	}
	for _, group := range corpus {
		if unprefixedIntents[group.Intent] {
			continue
		}
		for _, ex := range group.Examples {
			for _, prefix := range intentPrefixes {
				docs = append(docs, features.Normalize(prefix+" "+ex))
				labels = append(labels, group.Intent)
			}
		}
	}
	return docs, labels
}

// IntentTrainer fits the chatbot intent classifier on the built-in corpus.
type IntentTrainer struct{}

func (t *IntentTrainer) Name() string { return "intent" }
func (t *IntentTrainer) Task() string { return TaskClassification }

func (t *IntentTrainer) Train(ctx context.Context, env *Env) (*Result, error) {
	corpus, err := LoadIntentCorpus()
	if err != nil {
		return nil, stderrors.NewTrainingFailedError(t.Name(), err)
	}
	docs, labels := AugmentIntents(corpus)

	vec, err := ml.FitTfidf(docs, ml.TfidfParams{MaxFeatures: 1000, NgramMin: 1, NgramMax: 2, MinDF: 1, StopWords: true})
	if err != nil {
		return nil, stderrors.NewTrainingFailedError(t.Name(), err)
	}

	forest, eval, err := classify(t.Name(), env.Config.Training, vec.TransformAll(docs), labels, vec.Terms(),
		ml.CanStratify(labels), fitOptions{balanced: true})
	if err != nil {
		return nil, err
	}

	return &Result{
		Artifacts: []Artifact{
			{Name: artifacts.IntentModel, Value: forest},
			{Name: artifacts.IntentVectorizer, Value: vec},
		},
		Evaluation: eval,
		Top:        forest.TopImportances(10),
	}, nil
}
