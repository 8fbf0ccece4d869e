package ml

import "sort"

// LabelEncoder maps categorical values to their index among the sorted
// distinct values seen during fitting.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// FitLabelEncoder learns the classes of values.
func FitLabelEncoder(values []string) *LabelEncoder {
	return &LabelEncoder{Classes: uniqueSorted(values)}
}

// Transform returns the index of value; ok is false for unseen values.
func (e *LabelEncoder) Transform(value string) (int, bool) {
	i := sort.SearchStrings(e.Classes, value)
	if i < len(e.Classes) && e.Classes[i] == value {
		return i, true
	}
	return 0, false
}

// Encode is Transform with unseen values mapped to 0.
func (e *LabelEncoder) Encode(value string) int {
	i, _ := e.Transform(value)
	return i
}

// EncoderSet keys encoders by column name.
type EncoderSet map[string]*LabelEncoder

// Encode looks value up in the named column. A missing encoder or unseen
// value encodes to 0.
func (s EncoderSet) Encode(column, value string) int {
	e, ok := s[column]
	if !ok || e == nil {
		return 0
	}
	return e.Encode(value)
}
