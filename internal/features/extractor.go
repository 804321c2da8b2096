// Package features derives lexical, structural and statistical features from
// raw text.
package features

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"goflare.io/slopscan/models"
)

const (
	// minSentenceRunes 句子修剪後至少需要的字元數
	minSentenceRunes = 6
	politenessWeight = 0.3
	perfectPunctRate = 0.8
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)

	bulletLine   = regexp.MustCompile(`(?m)^[-*•]\s+`)
	numberedLine = regexp.MustCompile(`(?m)^\d+\.\s+`)
	colonHeader  = regexp.MustCompile(`(?m)^[A-Z][^:]{2,30}:\s*[A-Z]`)

	consonantCluster = regexp.MustCompile(`(?i)\b\w*[bcdfghjklmnpqrstvwxyz]{4,}\w*\b`)

	capitalAfterStop = regexp.MustCompile(`[.!?]\s+[A-Z]`)
	spaceAfterComma  = regexp.MustCompile(`,\s+`)
	punctuation      = regexp.MustCompile(`[.!?,]`)
)

// Extractor computes a FeatureSet. The zero value is not usable, use New.
type Extractor struct {
	formal     Lexicon
	buzzwords  Lexicon
	politeness Lexicon
}

// New returns an Extractor using the built-in lexicons.
func New() *Extractor {
	return &Extractor{
		formal:     FormalPhrases,
		buzzwords:  Buzzwords,
		politeness: PolitenessMarkers,
	}
}

// Extract never fails. Empty or whitespace-only input yields the zero FeatureSet.
func (e *Extractor) Extract(text string) models.FeatureSet {
	if strings.TrimSpace(text) == "" {
		return models.FeatureSet{}
	}

	lower := strings.ToLower(text)
	words := strings.Fields(text)
	lengths := sentenceLengths(text)
	mean, variance := meanVariance(lengths)

	return models.FeatureSet{
		FormalPhraseCount: e.formal.Count(lower),
		BuzzwordDensity:   density(e.buzzwords.Count(lower), len(words)),
		PolitenessScore:   math.Min(1.0, float64(e.politeness.Count(lower))*politenessWeight),

		BulletListCount:   countMatches(bulletLine, text),
		NumberedListCount: countMatches(numberedLine, text),
		ColonHeaderCount:  countMatches(colonHeader, text),

		AvgSentenceLength:  mean,
		SentenceVariance:   variance,
		Burstiness:         burstiness(len(lengths), mean, variance),
		TypoCount:          repeatedRuns(text) + countMatches(consonantCluster, text),
		PerfectPunctuation: perfectPunctuation(text),

		WordCount:      len(words),
		SentenceCount:  len(lengths),
		CharacterCount: utf8.RuneCountInString(text),
	}
}

// sentenceLengths returns the word count of every sentence long enough to count.
func sentenceLengths(text string) []int {
	var lengths []int
	for _, s := range sentenceSplit.Split(text, -1) {
		if utf8.RuneCountInString(strings.TrimSpace(s)) < minSentenceRunes {
			continue
		}
		lengths = append(lengths, len(strings.Fields(s)))
	}
	return lengths
}

// meanVariance returns the mean and the population variance of lengths.
// Variance is zero for fewer than two samples.
func meanVariance(lengths []int) (float64, float64) {
	if len(lengths) == 0 {
		return 0, 0
	}
	total := 0
	for _, n := range lengths {
		total += n
	}
	mean := float64(total) / float64(len(lengths))
	if len(lengths) < 2 {
		return mean, 0
	}

	var sum float64
	for _, n := range lengths {
		d := float64(n) - mean
		sum += d * d
	}
	return mean, sum / float64(len(lengths))
}

// burstiness is the coefficient of variation of sentence lengths.
func burstiness(sentences int, mean, variance float64) float64 {
	if sentences < 2 {
		return 1
	}
	if mean == 0 {
		return 0
	}
	return math.Sqrt(variance) / mean
}

func density(n, words int) float64 {
	if words == 0 {
		return 0
	}
	return float64(n) / float64(words)
}

func countMatches(re *regexp.Regexp, text string) int {
	return len(re.FindAllStringIndex(text, -1))
}

// repeatedRuns counts maximal runs of three or more identical characters,
// ignoring line terminators.
func repeatedRuns(text string) int {
	var (
		count int
		prev  rune
		run   int
	)
	for _, r := range text {
		if isLineTerminator(r) {
			run = 0
			continue
		}
		if run > 0 && r == prev {
			run++
			if run == 3 {
				count++
			}
			continue
		}
		prev, run = r, 1
	}
	return count
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}

// perfectPunctuation reports whether more than 80% of punctuation marks are
// followed by proper spacing, and for sentence stops, a capital letter.
func perfectPunctuation(text string) bool {
	total := countMatches(punctuation, text)
	if total == 0 {
		return false
	}
	good := countMatches(capitalAfterStop, text) + countMatches(spaceAfterComma, text)
	return float64(good)/float64(total) > perfectPunctRate
}
