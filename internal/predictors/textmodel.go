package predictors

import (
	"fmt"

	"facility-ml/internal/artifacts"
	"facility-ml/internal/ml"
)

// TextModel is a forest over TF-IDF rows.
type TextModel struct {
	Forest     *ml.Forest
	Vectorizer *ml.TfidfVectorizer
}

// LoadTextModel reads a forest and its vectorizer.
func LoadTextModel(store *artifacts.Store, modelFile, vectorizerFile string) (*TextModel, error) {
	var m TextModel
	if err := store.Load(modelFile, &m.Forest); err != nil {
		return nil, err
	}
	if err := store.Load(vectorizerFile, &m.Vectorizer); err != nil {
		return nil, err
	}
	if m.Forest == nil || m.Vectorizer == nil || len(m.Forest.Classes) == 0 {
		return nil, fmt.Errorf("%s or %s is empty", modelFile, vectorizerFile)
	}
	return &m, nil
}

// Proba vectorizes text and returns the class distribution.
func (m *TextModel) Proba(text string) ([]float64, error) {
	return m.Forest.PredictProba(m.Vectorizer.Transform(text))
}

// LoadForest reads a forest artifact and checks it is not empty.
func LoadForest(store *artifacts.Store, name string) (*ml.Forest, error) {
	var f *ml.Forest
	if err := store.Load(name, &f); err != nil {
		return nil, err
	}
	if f == nil || len(f.Trees) == 0 {
		return nil, fmt.Errorf("%s holds no trees", name)
	}
	return f, nil
}

// LoadEncoders reads an encoder set. A missing file yields an empty set, so
// every identifier encodes to 0.
func LoadEncoders(store *artifacts.Store, name string) (ml.EncoderSet, error) {
	var set ml.EncoderSet
	if err := store.Load(name, &set); err != nil {
		if artifacts.IsNotFound(err) {
			return ml.EncoderSet{}, nil
		}
		return nil, err
	}
	if set == nil {
		set = ml.EncoderSet{}
	}
	return set, nil
}
