package models

import "time"

// Method 標示結果的產生方式
type Method string

const (
	MethodLocalPatterns Method = "local_patterns"
	MethodRemote        Method = "remote_api"
	MethodInvalidInput  Method = "invalid_input"
	MethodTooShort      Method = "too_short"
	MethodError         Method = "error"
)

// FeatureSet holds the lexical, structural and statistical features of one text.
type FeatureSet struct {
	FormalPhraseCount  int     `json:"formalPhraseCount"`
	BuzzwordDensity    float64 `json:"buzzwordDensity"`
	PolitenessScore    float64 `json:"politenessScore"`
	BulletListCount    int     `json:"bulletListCount"`
	NumberedListCount  int     `json:"numberedListCount"`
	ColonHeaderCount   int     `json:"colonHeaderCount"`
	AvgSentenceLength  float64 `json:"avgSentenceLength"`
	SentenceVariance   float64 `json:"sentenceVariance"`
	Burstiness         float64 `json:"burstiness"`
	TypoCount          int     `json:"typoCount"`
	PerfectPunctuation bool    `json:"perfectPunctuation"`
	WordCount          int     `json:"wordCount"`
	SentenceCount      int     `json:"sentenceCount"`
	CharacterCount     int     `json:"characterCount"`
}

// Result is the outcome of classifying a single text.
// Confidence is always the rounded score that produced IsAI.
type Result struct {
	IsAI        bool        `json:"isAI"`
	Confidence  float64     `json:"confidence"`
	Method      Method      `json:"method"`
	Description string      `json:"description"`
	Features    *FeatureSet `json:"features,omitempty"`
	ProducedAt  time.Time   `json:"producedAt"`
}
