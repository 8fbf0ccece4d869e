package detectunclearpurpose

import (
	"facility-ml/internal/common/validation"
	"facility-ml/internal/features"
)

type Input struct {
	Purpose string `json:"purpose"`
}

// Output is the verdict shared with the rule-based detector.
type Output = features.UnclearVerdict

var InputSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"purpose"},
	"properties": map[string]interface{}{
		"purpose": map[string]interface{}{"type": "string", "minLength": 1},
	},
})
