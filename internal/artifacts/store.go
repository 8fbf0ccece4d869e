// Package artifacts persists and loads model artifacts as JSON files under the
// models directory.
package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"facility-ml/internal/ml"
)

// Artifact file names.
const (
	IntentModel      = "chatbot_intent_model.json"
	IntentVectorizer = "chatbot_intent_vectorizer.json"

	ConflictModel    = "conflict_detection.json"
	ConflictFeatures = "conflict_detection_features.json"

	RiskModel    = "auto_approval_risk_model.json"
	RiskEncoders = "auto_approval_risk_encoders.json"

	RecommendationModel    = "facility_recommendation_model.json"
	RecommendationEncoders = "facility_recommendation_encoders.json"

	PurposeCategoryModel      = "purpose_category_model.json"
	PurposeCategoryVectorizer = "purpose_category_vectorizer.json"
	PurposeUnclearModel       = "purpose_unclear_model.json"
	PurposeUnclearVectorizer  = "purpose_unclear_vectorizer.json"

	DemandModel = "demand_forecasting_model.json"
)

var ErrArtifactNotFound = errors.New("ARTIFACT_NOT_FOUND")

// DemandBundle is the demand model together with its column order.
type DemandBundle struct {
	Model       *ml.Forest `json:"model"`
	FeatureCols []string   `json:"feature_cols"`
}

// Store reads and writes artifacts in one directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// Path returns the full path of an artifact file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether the artifact file is present.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && !info.IsDir()
}

// Load decodes an artifact into v. A missing file wraps ErrArtifactNotFound.
func (s *Store) Load(name string, v interface{}) error {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrArtifactNotFound, s.Path(name))
		}
		return fmt.Errorf("failed to read artifact %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode artifact %s: %w", name, err)
	}
	return nil
}

// Save writes v atomically: a temp file in the same directory is renamed over
// the target.
func (s *Store) Save(name string, v interface{}) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode artifact %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move artifact %s into place: %w", name, err)
	}
	return nil
}

// IsNotFound reports whether err came from a missing artifact file.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrArtifactNotFound)
}
