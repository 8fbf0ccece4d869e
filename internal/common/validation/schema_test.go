package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"facility_id", "date"},
	"properties": map[string]interface{}{
		"facility_id": map[string]interface{}{"type": []interface{}{"integer", "string"}},
		"date":        map[string]interface{}{"type": "string", "minLength": 1},
		"limit":       map[string]interface{}{"type": "integer", "minimum": 1},
	},
})

func TestValidate_Valid(t *testing.T) {
	result := testSchema.Validate(map[string]interface{}{"facility_id": 3, "date": "2025-03-10"})
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidate_MissingFields(t *testing.T) {
	result := testSchema.Validate(map[string]interface{}{"limit": 2})
	require.False(t, result.Valid)
	assert.Equal(t, []string{"date", "facility_id"}, result.Fields())
	for _, e := range result.Errors {
		assert.Equal(t, "REQUIRED_FIELD_MISSING", e.Code)
	}
}

func TestValidate_WrongTypes(t *testing.T) {
	result := testSchema.Validate(map[string]interface{}{"facility_id": true, "date": ""})
	require.False(t, result.Valid)
	assert.Equal(t, []string{"date", "facility_id"}, result.Fields())
	assert.Contains(t, result.String(), "facility_id:")
}

func TestMustCompile_PanicsOnBadSchema(t *testing.T) {
	assert.Panics(t, func() {
		MustCompile(map[string]interface{}{"type": 12})
	})
}
