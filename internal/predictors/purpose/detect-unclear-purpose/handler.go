package detectunclearpurpose

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
	TaskType = "detect-unclear-purpose"
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
	h.model = artifacts.NewLazy(func() (*predictors.TextModel, error) {
		return predictors.LoadTextModel(deps.Store, config.ModelFile, config.VectorizerFile)
	})
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

// Fallback is what a caller gets when detection itself blew up: unclear, but
// with no confidence.
func (h *Handler) Fallback(map[string]interface{}) interface{} {
	return &Output{IsUnclear: true, Probability: 0.5, Confidence: 0.0}
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

// Execute asks the model when it is available and the keyword rules otherwise.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	m, err := h.model.Get()
	if err != nil {
		predictors.ModelUnavailable(h.logger, TaskType, h.config.ModelFile, err)
		verdict := features.DetectUnclearByRules(input.Purpose)
		return &verdict, nil
	}

	clean := features.Normalize(input.Purpose)
	if utf8.RuneCountInString(clean) < h.config.MinTextLength {
		return &Output{IsUnclear: true, Probability: 1.0, Confidence: 1.0}, nil
	}

	proba, err := m.Proba(clean)
	if err != nil {
		h.logger.Warn("unclear model failed, using rules", map[string]interface{}{"error": err.Error()})
		verdict := features.DetectUnclearByRules(input.Purpose)
		return &verdict, nil
	}

	var p float64
	if i := m.Forest.ClassIndex(h.config.UnclearLabel); i >= 0 {
		p = proba[i]
	}
	return &Output{
		IsUnclear:   p > 0.5,
		Probability: p,
		Confidence:  proba[ml.Argmax(proba)],
	}, nil
}
