package features

import "strings"

// Lexicon is a fixed list of lower-case phrases counted by substring occurrence.
type Lexicon []string

// Count returns the total non-overlapping occurrences of every entry in lower,
// which must already be lower-cased.
func (l Lexicon) Count(lower string) int {
	n := 0
	for _, phrase := range l {
		n += strings.Count(lower, phrase)
	}
	return n
}

// FormalPhrases are transition phrases typical of generated prose.
var FormalPhrases = Lexicon{
	"delve into",
	"it is worth noting",
	"in conclusion",
	"furthermore",
	"moreover",
	"nevertheless",
	"consequently",
	"it should be noted",
	"it is important to understand",
	"in today's rapidly evolving",
	"comprehensive understanding",
	"multifaceted approach",
	"holistic perspective",
	"strategic implementation",
}

// Buzzwords 常見的生成式用詞
var Buzzwords = Lexicon{
	"leverage",
	"utilize",
	"optimize",
	"streamline",
	"facilitate",
	"comprehensive",
	"robust",
	"pivotal",
	"invaluable",
	"pertinent",
	"cutting-edge",
	"state-of-the-art",
	"paradigm",
	"synergy",
	"scalable",
	"sustainable",
	"innovative",
	"transformative",
}

// PolitenessMarkers are assistant-style courtesy phrases.
var PolitenessMarkers = Lexicon{
	"thank you for",
	"i'm sorry but",
	"i apologize",
	"certainly",
	"i'd be happy to",
	"please note",
	"i hope this helps",
	"feel free to",
	"don't hesitate to",
	"i understand your",
}
