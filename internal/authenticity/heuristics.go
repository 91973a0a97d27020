package authenticity

import (
	"regexp"
	"strings"
)

// Lexical markers that occur far more often in machine-generated prose than
// in the short, personal descriptions this archive normally receives.
var fillerPhrases = []string{
	"in conclusion",
	"in summary",
	"it is important to note",
	"it is worth noting",
	"furthermore",
	"moreover",
	"additionally",
	"in today's world",
	"delve into",
	"a testament to",
	"plays a crucial role",
	"rich tapestry",
}

var hedgingPhrases = []string{
	"arguably",
	"perhaps",
	"it could be said",
	"some might argue",
	"generally speaking",
	"in many cases",
	"tend to",
	"to some extent",
	"more often than not",
}

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+\s+|[.!?]+$`)
	wordPattern   = regexp.MustCompile(`[a-zA-Z']+`)
	passiveVoice  = regexp.MustCompile(`\b(?:is|are|was|were|been|being|be)\s+[a-z]+(?:ed|own|en)\b`)
)

// HeuristicScore rates text on a 0-100 scale; higher means the lexical
// profile looks more machine-generated. Deterministic, no I/O.
func HeuristicScore(text string) int {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return 0
	}

	words := wordPattern.FindAllString(lower, -1)
	if len(words) == 0 {
		return 0
	}

	sentences := splitSentences(lower)
	score := 0

	// Filler-phrase frequency: up to 25 points, ~8 points per occurrence
	// per 100 words.
	fillers := countOccurrences(lower, fillerPhrases)
	score += capInt(fillers*800/len(words), 25)

	// Mean sentence length: long uniform sentences read as generated.
	// Up to 15 points above 18 words per sentence.
	if len(sentences) > 0 {
		mean := len(words) / len(sentences)
		if mean > 18 {
			score += capInt((mean-18)*3, 15)
		}
	}

	// Passive-voice ratio: up to 15 points.
	if len(sentences) > 0 {
		passives := len(passiveVoice.FindAllString(lower, -1))
		score += capInt(passives*100/(len(sentences)*4), 15)
	}

	// Vocabulary diversity: a low unique-word ratio on a non-trivial text
	// is a strong generation signal. Up to 20 points below 0.45.
	if len(words) >= 40 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[w] = struct{}{}
		}
		ratio := float64(len(unique)) / float64(len(words))
		if ratio < 0.45 {
			score += capInt(int((0.45-ratio)*100), 20)
		}
	}

	// Hedging-phrase count: up to 15 points, 5 per occurrence.
	score += capInt(countOccurrences(lower, hedgingPhrases)*5, 15)

	// Repeated sentence openers: up to 10 points when over a third of
	// sentences start with the same word.
	if len(sentences) >= 3 {
		openers := make(map[string]int)
		maxRepeat := 0
		for _, s := range sentences {
			ws := wordPattern.FindAllString(s, 1)
			if len(ws) == 0 {
				continue
			}
			openers[ws[0]]++
			if openers[ws[0]] > maxRepeat {
				maxRepeat = openers[ws[0]]
			}
		}
		if maxRepeat*3 > len(sentences) {
			score += capInt((maxRepeat*3-len(sentences))*5, 10)
		}
	}

	return capInt(score, 100)
}

func splitSentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func countOccurrences(text string, phrases []string) int {
	total := 0
	for _, p := range phrases {
		total += strings.Count(text, p)
	}
	return total
}

func capInt(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
