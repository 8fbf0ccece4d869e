// internal/predictors/chatbot/classify-intent/handler.go
package classifyintent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"facility-ml/internal/artifacts"
	stderrors "facility-ml/internal/common/errors"
	"facility-ml/internal/common/logger"
	"facility-ml/internal/features"
	"facility-ml/internal/predictors"
)

const (
	TaskType = "classify-intent"
)

var (
	ErrClassificationFailed = errors.New("INTENT_CLASSIFICATION_FAILED")
)

type Handler struct {
	config *Config
	deps   *predictors.Context
	logger logger.Logger
	model  *artifacts.Lazy[*predictors.TextModel]
}

func NewHandler(config *Config, deps *predictors.Context, log logger.Logger) *Handler {
	h := &Handler{
		config: config,
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
	h.model = artifacts.NewLazy(h.load)
	return h
}

func (h *Handler) Name() string {
	return TaskType
}

func (h *Handler) Validate(doc map[string]interface{}) error {
	return predictors.ValidateRequest(InputSchema, doc, "Question is required")
}

// FromArgs joins every argument into the question.
func (h *Handler) FromArgs(args []string) (map[string]interface{}, bool) {
	return map[string]interface{}{"question": strings.Join(args, " ")}, true
}

func (h *Handler) Fallback(map[string]interface{}) interface{} {
	return h.fallback()
}

func (h *Handler) Handle(ctx context.Context, payload []byte) (interface{}, error) {
	var input Input
	if err := json.Unmarshal(payload, &input); err != nil {
		return nil, stderrors.NewPredictionFailedError(fmt.Errorf("parse input: %w", err))
	}
	output, err := h.Execute(ctx, &input)
	if err != nil {
		return nil, err
	}
	return output, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	m, err := h.model.Get()
	if err != nil {
		predictors.ModelUnavailable(h.logger, TaskType, h.config.ModelFile, err)
		return h.fallback(), nil
	}

	row := m.Vectorizer.Transform(features.Normalize(input.Question))
	proba, err := m.Forest.PredictProba(row)
	if err != nil {
		return nil, stderrors.NewPredictionFailedError(fmt.Errorf("%w: %v", ErrClassificationFailed, err))
	}

	ranked := make([]int, len(proba))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return proba[ranked[a]] > proba[ranked[b]]
	})

	k := h.config.TopK
	if k > len(ranked) {
		k = len(ranked)
	}
	top := make([]ScoredLabel, 0, k)
	for _, idx := range ranked[:k] {
		top = append(top, ScoredLabel{Intent: m.Forest.Classes[idx], Confidence: proba[idx]})
	}

	output := &Output{
		Intent:     m.Forest.Classes[ranked[0]],
		Confidence: proba[ranked[0]],
		TopIntents: top,
	}

	h.logger.Debug("intent classified", map[string]interface{}{
		"intent":     output.Intent,
		"confidence": output.Confidence,
	})
	return output, nil
}

func (h *Handler) load() (*predictors.TextModel, error) {
	return predictors.LoadTextModel(h.deps.Store, h.config.ModelFile, h.config.VectorizerFile)
}

func (h *Handler) fallback() *Output {
	return &Output{
		Intent:     h.config.FallbackLabel,
		Confidence: 0.0,
		TopIntents: []ScoredLabel{},
	}
}
