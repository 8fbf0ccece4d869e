package ml

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

var ErrEmptyVocabulary = errors.New("EMPTY_VOCABULARY")

var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// TfidfParams configure FitTfidf. MinDF is an absolute document count;
// MaxFeatures keeps the terms with the highest corpus frequency.
type TfidfParams struct {
	MaxFeatures int
	NgramMin    int
	NgramMax    int
	MinDF       int
	StopWords   bool
}

// TfidfVectorizer turns text into L2-normalised TF-IDF rows.
type TfidfVectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
	NgramMin   int            `json:"ngram_min"`
	NgramMax   int            `json:"ngram_max"`
	StopWords  bool           `json:"stop_words"`
	Lowercase  bool           `json:"lowercase"`
}

// FitTfidf learns a vocabulary and smoothed idf weights from docs.
func FitTfidf(docs []string, p TfidfParams) (*TfidfVectorizer, error) {
	if p.NgramMin <= 0 {
		p.NgramMin = 1
	}
	if p.NgramMax < p.NgramMin {
		p.NgramMax = p.NgramMin
	}
	if p.MinDF <= 0 {
		p.MinDF = 1
	}
	v := &TfidfVectorizer{
		NgramMin:  p.NgramMin,
		NgramMax:  p.NgramMax,
		StopWords: p.StopWords,
		Lowercase: true,
	}

	df := make(map[string]int)
	tf := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range v.analyze(doc) {
			tf[term]++
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for term, n := range df {
		if n >= p.MinDF {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return nil, ErrEmptyVocabulary
	}
	if p.MaxFeatures > 0 && len(terms) > p.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if tf[terms[i]] != tf[terms[j]] {
				return tf[terms[i]] > tf[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:p.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	for i, term := range terms {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return v, nil
}

// Transform vectorizes one document. Unseen terms are ignored, so a document
// with no known term yields an all-zero row.
func (v *TfidfVectorizer) Transform(doc string) []float64 {
	row := make([]float64, len(v.IDF))
	for _, term := range v.analyze(doc) {
		if i, ok := v.Vocabulary[term]; ok {
			row[i]++
		}
	}
	var norm float64
	for i := range row {
		row[i] *= v.IDF[i]
		norm += row[i] * row[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range row {
			row[i] /= norm
		}
	}
	return row
}

// TransformAll vectorizes docs row by row.
func (v *TfidfVectorizer) TransformAll(docs []string) [][]float64 {
	out := make([][]float64, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out
}

// Terms returns the vocabulary in column order.
func (v *TfidfVectorizer) Terms() []string {
	terms := make([]string, len(v.Vocabulary))
	for term, i := range v.Vocabulary {
		if i < len(terms) {
			terms[i] = term
		}
	}
	return terms
}

func (v *TfidfVectorizer) analyze(doc string) []string {
	if v.Lowercase {
		doc = strings.ToLower(doc)
	}
	tokens := tokenPattern.FindAllString(doc, -1)
	if v.StopWords {
		kept := tokens[:0]
		for _, t := range tokens {
			if !englishStopWords[t] {
				kept = append(kept, t)
			}
		}
		tokens = kept
	}

	minN, maxN := v.NgramMin, v.NgramMax
	if minN <= 0 {
		minN = 1
	}
	if maxN < minN {
		maxN = minN
	}
	var terms []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}
