package detectunclearpurpose

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facility-ml/internal/artifacts"
	"facility-ml/internal/features"
	"facility-ml/internal/predictors/predictorstest"
)

func createTestHandler(t *testing.T, trained bool) *Handler {
	deps := predictorstest.NewContext(t)
	if trained {
		docs := []string{
			"test", "asdf qqq", "none", "demo booking", "testing testing",
			"barangay general assembly", "youth basketball league", "senior citizens zumba class",
			"wedding reception dinner", "parish feeding program",
		}
		labels := []string{"1", "1", "1", "1", "1", "0", "0", "0", "0", "0"}
		predictorstest.SaveTextModel(t, deps.Store, artifacts.PurposeUnclearModel, artifacts.PurposeUnclearVectorizer, docs, labels)
	}
	return NewHandler(LoadConfig(), deps, deps.Logger)
}

func TestHandler_Execute_RulesWhenModelMissing(t *testing.T) {
	h := createTestHandler(t, false)

	tests := []struct {
		purpose  string
		expected Output
	}{
		{"abc", features.UnclearVerdict{IsUnclear: true, Probability: 0.8, Confidence: 0.8}},
		{"asdf booking", features.UnclearVerdict{IsUnclear: true, Probability: 0.9, Confidence: 0.9}},
		{"Youth basketball league", features.UnclearVerdict{IsUnclear: false, Probability: 0.2, Confidence: 0.7}},
	}
	for _, tt := range tests {
		out, err := h.Execute(context.Background(), &Input{Purpose: tt.purpose})
		require.NoError(t, err)
		assert.Equal(t, tt.expected, *out, tt.purpose)
	}
}

func TestHandler_Execute_Trained(t *testing.T) {
	h := createTestHandler(t, true)

	out, err := h.Execute(context.Background(), &Input{Purpose: "."})
	require.NoError(t, err)
	assert.Equal(t, Output{IsUnclear: true, Probability: 1.0, Confidence: 1.0}, *out)

	out, err = h.Execute(context.Background(), &Input{Purpose: "Youth basketball league finals"})
	require.NoError(t, err)
	assert.False(t, out.IsUnclear)
	assert.Less(t, out.Probability, 0.5)
	assert.GreaterOrEqual(t, out.Confidence, 0.5)
}

func TestHandler_Fallback(t *testing.T) {
	h := createTestHandler(t, false)
	fb, ok := h.Fallback(nil).(*Output)
	require.True(t, ok)
	assert.True(t, fb.IsUnclear)
	assert.Equal(t, 0.5, fb.Probability)
	assert.Equal(t, 0.0, fb.Confidence)
}
