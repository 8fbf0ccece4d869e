// internal/predictors/chatbot/classify-intent/models.go
package classifyintent

import "facility-ml/internal/common/validation"

type Input struct {
	Question string `json:"question"`
}

type Output struct {
	Intent     string        `json:"intent"`
	Confidence float64       `json:"confidence"`
	TopIntents []ScoredLabel `json:"top_intents"`
}

type ScoredLabel struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

var InputSchema = validation.MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"question"},
	"properties": map[string]interface{}{
		"question": map[string]interface{}{"type": "string", "minLength": 1},
	},
})
