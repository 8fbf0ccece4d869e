package features

import (
	"strings"
	"unicode/utf8"
)

// KeywordGroup is one purpose flag and the substrings that raise it.
type KeywordGroup struct {
	Name  string
	Words []string
}

// PurposeKeywordGroups are the recommendation flags, in column order.
var PurposeKeywordGroups = []KeywordGroup{
	{"meeting", []string{"meeting", "conference", "assembly"}},
	{"celebration", []string{"celebration", "party", "fiesta", "festival"}},
	{"sports", []string{"sports", "game", "tournament", "basketball", "volleyball"}},
	{"education", []string{"education", "training", "seminar", "workshop", "class"}},
	{"religious", []string{"religious", "mass", "prayer", "worship"}},
	{"community", []string{"community", "barangay", "general assembly", "town hall"}},
	{"feeding", []string{"feeding", "food", "distribution"}},
	{"commercial", []string{"commercial", "business", "sale", "market"}},
}

// PurposeKeywordNames returns the flag names in column order.
func PurposeKeywordNames() []string {
	names := make([]string, len(PurposeKeywordGroups))
	for i, g := range PurposeKeywordGroups {
		names[i] = g.Name
	}
	return names
}

// PurposeKeywords flags each keyword group found in purpose. An empty purpose
// yields no flags, which align to zeros.
func PurposeKeywords(purpose string) Record {
	if strings.TrimSpace(purpose) == "" {
		return Record{}
	}
	lower := strings.ToLower(purpose)
	flags := make(Record, len(PurposeKeywordGroups))
	for _, g := range PurposeKeywordGroups {
		flags[g.Name] = 0
		if containsAny(lower, g.Words) {
			flags[g.Name] = 1
		}
	}
	return flags
}

// Purpose categories produced by CategorizePurpose.
const (
	CategoryCommunity   = "community"
	CategorySports      = "sports"
	CategoryEducation   = "education"
	CategoryReligious   = "religious"
	CategoryCelebration = "celebration"
	CategoryGovernment  = "government"
	CategoryPrivate     = "private"
	CategoryUnclear     = "unclear"
)

var categoryCascade = []KeywordGroup{
	{CategoryCommunity, []string{"barangay", "community", "general assembly", "town hall", "meeting", "assembly"}},
	{CategorySports, []string{"sports", "game", "tournament", "basketball", "volleyball", "football", "soccer", "badminton"}},
	{CategoryEducation, []string{"education", "training", "seminar", "workshop", "class", "zumba", "fitness", "yoga"}},
	{CategoryReligious, []string{"religious", "mass", "prayer", "worship", "church", "bible study"}},
	{CategoryCelebration, []string{"celebration", "party", "fiesta", "festival", "birthday", "anniversary", "wedding"}},
	{CategoryGovernment, []string{"government", "lgu", "municipal", "city", "official", "public service"}},
	{CategoryPrivate, []string{"private", "personal", "family", "personal use"}},
}

// CategorizePurpose is the labelling heuristic for the purpose category model.
// The first matching keyword group wins; denied reservations that match
// nothing are unclear, everything else defaults to private.
func CategorizePurpose(purpose, status string) string {
	lower := strings.ToLower(strings.TrimSpace(purpose))
	if utf8.RuneCountInString(lower) < 3 {
		return CategoryUnclear
	}
	for _, g := range categoryCascade {
		if containsAny(lower, g.Words) {
			return g.Name
		}
	}
	if strings.EqualFold(status, "denied") {
		return CategoryUnclear
	}
	return CategoryPrivate
}

var (
	vaguePatterns      = []string{"test", "testing", "asdf", "qqq", "123", "none", "n/a", "na", "nothing"}
	suspiciousPatterns = []string{"spam", "fake", "demo"}
)

// IsUnclearPurpose is the training label for the unclear-purpose model.
func IsUnclearPurpose(purpose string) bool {
	lower := strings.ToLower(strings.TrimSpace(purpose))
	if utf8.RuneCountInString(lower) < 5 {
		return true
	}
	return containsAny(lower, vaguePatterns) || containsAny(lower, suspiciousPatterns)
}

// UnclearVerdict is the result shape of unclear-purpose detection.
type UnclearVerdict struct {
	IsUnclear   bool    `json:"is_unclear"`
	Probability float64 `json:"probability"`
	Confidence  float64 `json:"confidence"`
}

// DetectUnclearByRules answers without a model.
func DetectUnclearByRules(purpose string) UnclearVerdict {
	lower := strings.ToLower(strings.TrimSpace(purpose))
	switch {
	case purpose == "":
		return UnclearVerdict{IsUnclear: true, Probability: 1.0, Confidence: 1.0}
	case utf8.RuneCountInString(lower) < 5:
		return UnclearVerdict{IsUnclear: true, Probability: 0.8, Confidence: 0.8}
	case containsAny(lower, vaguePatterns):
		return UnclearVerdict{IsUnclear: true, Probability: 0.9, Confidence: 0.9}
	default:
		return UnclearVerdict{IsUnclear: false, Probability: 0.2, Confidence: 0.7}
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
