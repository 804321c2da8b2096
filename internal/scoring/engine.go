// Package scoring turns a FeatureSet into a bounded confidence score using a
// fixed additive rule table.
package scoring

import (
	"errors"

	"goflare.io/slopscan/models"
)

// DefaultThreshold separates machine-generated from human text. Scores must be
// strictly greater to classify as machine-generated.
const DefaultThreshold = 0.65

// ErrInvalidThreshold is returned for thresholds outside [0, 1].
var ErrInvalidThreshold = errors.New("threshold must be within [0, 1]")

// Rule is one weighted condition. Weights are in hundredths so that sums are
// exact and 0.65 compares equal to 0.65.
type Rule struct {
	Name   string
	Weight int
	Match  func(models.FeatureSet) bool
}

// Contribution 記錄一條命中的規則
type Contribution struct {
	Rule   string  `json:"rule"`
	Weight float64 `json:"weight"`
}

// Rules is the fixed weighting table.
var Rules = []Rule{
	{"formal_phrases", 15, func(f models.FeatureSet) bool { return f.FormalPhraseCount > 0 }},
	{"buzzword_density", 15, func(f models.FeatureSet) bool { return f.BuzzwordDensity > 0.02 }},
	{"politeness", 10, func(f models.FeatureSet) bool { return f.PolitenessScore > 0.5 }},
	{"bullet_lists", 10, func(f models.FeatureSet) bool { return f.BulletListCount > 2 }},
	{"numbered_lists", 10, func(f models.FeatureSet) bool { return f.NumberedListCount > 1 }},
	{"colon_headers", 10, func(f models.FeatureSet) bool { return f.ColonHeaderCount > 0 }},
	{"long_sentences", 10, func(f models.FeatureSet) bool { return f.AvgSentenceLength > 20 }},
	{"low_burstiness", 10, func(f models.FeatureSet) bool { return f.Burstiness < 0.3 }},
	{"no_typos", 5, func(f models.FeatureSet) bool { return f.TypoCount == 0 && f.WordCount > 20 }},
	{"perfect_punctuation", 5, func(f models.FeatureSet) bool { return f.PerfectPunctuation }},
}

const maxScore = 100

// Engine scores feature sets against Rules.
type Engine struct {
	threshold float64
}

// New creates an Engine with the given decision threshold.
func New(threshold float64) (*Engine, error) {
	if threshold < 0 || threshold > 1 {
		return nil, ErrInvalidThreshold
	}
	return &Engine{threshold: threshold}, nil
}

// Score returns the capped sum of matching rule weights, in [0, 1].
func (e *Engine) Score(f models.FeatureSet) float64 {
	return float64(hundredths(f)) / 100
}

// Classify reports whether score is above the threshold.
func (e *Engine) Classify(score float64) bool {
	return score > e.threshold
}

// Threshold 返回判定閾值
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// Explain lists every rule that matched f, in table order.
func (e *Engine) Explain(f models.FeatureSet) []Contribution {
	var out []Contribution
	for _, r := range Rules {
		if r.Match(f) {
			out = append(out, Contribution{Rule: r.Name, Weight: float64(r.Weight) / 100})
		}
	}
	return out
}

func hundredths(f models.FeatureSet) int {
	sum := 0
	for _, r := range Rules {
		if r.Match(f) {
			sum += r.Weight
		}
	}
	return min(sum, maxScore)
}
