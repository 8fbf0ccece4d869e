package classifypurpose

import "facility-ml/internal/common/validation"

type Input struct {
	Purpose string `json:"purpose"`
}

type Output struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

var InputSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"purpose"},
	"properties": map[string]interface{}{
		"purpose": map[string]interface{}{"type": "string", "minLength": 1},
	},
})
