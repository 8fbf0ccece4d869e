package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facility-ml/internal/common/config"
	stderrors "facility-ml/internal/common/errors"
)

func createTestRules(t *testing.T) *Rules {
	rules, err := New(config.Default().Training.Labels)
	require.NoError(t, err)
	return rules
}

// ==========================
// Default Rule Tests
// ==========================

func TestRiskLabel_Default(t *testing.T) {
	rules := createTestRules(t)

	tests := []struct {
		name  string
		facts RiskFacts
		want  string
	}{
		{"auto approved and approved", RiskFacts{Status: "approved", AutoApproved: true}, "0"},
		{"manually approved", RiskFacts{Status: "approved"}, "1"},
		{"auto approved but rejected", RiskFacts{Status: "rejected", AutoApproved: true}, "1"},
		{"pending", RiskFacts{Status: "pending"}, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rules.RiskLabel(tt.facts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConflictLabel_Default(t *testing.T) {
	rules := createTestRules(t)

	got, err := rules.ConflictLabel(ConflictFacts{Status: "pending", OtherApprovedSameDay: 1})
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	got, err = rules.ConflictLabel(ConflictFacts{Status: "approved", OtherPendingSameDay: 3})
	require.NoError(t, err)
	assert.Equal(t, "0", got)
}

func TestExtraUnclear_Default(t *testing.T) {
	rules := createTestRules(t)

	unclear, err := rules.ExtraUnclear("basketball", "approved")
	require.NoError(t, err)
	assert.False(t, unclear)
}

// ==========================
// Custom Rule Tests
// ==========================

func TestNew_CustomRules(t *testing.T) {
	cfg := config.Default().Training.Labels
	cfg.RiskLow = `facility_auto_approve && user_is_verified && user_violation_count == 0`
	cfg.UnclearExtra = `size(purpose) > 0 && purpose.startsWith("xx")`
	rules, err := New(cfg)
	require.NoError(t, err)

	got, err := rules.RiskLabel(RiskFacts{FacilityAutoApprove: true, UserIsVerified: true})
	require.NoError(t, err)
	assert.Equal(t, "0", got)

	got, err = rules.RiskLabel(RiskFacts{FacilityAutoApprove: true, UserIsVerified: true, UserViolations: 2})
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	unclear, err := rules.ExtraUnclear("xxyz", "")
	require.NoError(t, err)
	assert.True(t, unclear)
}

func TestNew_InvalidRules(t *testing.T) {
	for name, mutate := range map[string]func(*config.LabelRules){
		"syntax":       func(c *config.LabelRules) { c.Conflict = "other_approved_same_day >" },
		"unknown var":  func(c *config.LabelRules) { c.RiskLow = "weather == 'rain'" },
		"non boolean":  func(c *config.LabelRules) { c.Conflict = "other_approved_same_day + 1" },
		"wrong typing": func(c *config.LabelRules) { c.UnclearExtra = "purpose > 3" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default().Training.Labels
			mutate(&cfg)
			_, err := New(cfg)
			require.Error(t, err)
			assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeLabelRuleInvalid))
		})
	}
}
