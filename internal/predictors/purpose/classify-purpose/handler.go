package classifypurpose

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"facility-ml/internal/artifacts"
	stderrors "facility-ml/internal/common/errors"
	"facility-ml/internal/common/logger"
	"facility-ml/internal/features"
	"facility-ml/internal/ml"
	"facility-ml/internal/predictors"
)

const (
	TaskType = "classify-purpose"
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
	return predictors.ValidateRequest(InputSchema, doc, "Missing purpose parameter")
}

func (h *Handler) FromArgs([]string) (map[string]interface{}, bool) {
	return nil, false
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

// Execute categorizes the purpose text. Text that normalizes to fewer than
// three characters is unclear with full confidence.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	m, err := h.model.Get()
	if err != nil {
		predictors.ModelUnavailable(h.logger, TaskType, h.config.ModelFile, err)
		return h.fallback(), nil
	}

	clean := features.Normalize(input.Purpose)
	if utf8.RuneCountInString(clean) < h.config.MinTextLength {
		return &Output{Category: features.CategoryUnclear, Confidence: 1.0}, nil
	}

	proba, err := m.Proba(clean)
	if err != nil {
		return nil, stderrors.NewPredictionFailedError(err)
	}
	best := ml.Argmax(proba)
	return &Output{Category: m.Forest.Classes[best], Confidence: proba[best]}, nil
}

func (h *Handler) load() (*predictors.TextModel, error) {
	return predictors.LoadTextModel(h.deps.Store, h.config.ModelFile, h.config.VectorizerFile)
}

func (h *Handler) fallback() *Output {
	return &Output{Category: h.config.FallbackLabel, Confidence: 0.0}
}
