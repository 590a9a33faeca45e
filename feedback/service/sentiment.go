package service

import (
	"math"
	"regexp"
	"strings"

	"feedback-analyzer/backend/feedback/models"
)

var wordPattern = regexp.MustCompile(`\b\w+\b`)

var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "excellent": {}, "love": {}, "amazing": {},
	"best": {}, "smooth": {}, "smoothly": {}, "perfect": {}, "fantastic": {},
	"outstanding": {}, "wonderful": {}, "brilliant": {}, "fast": {}, "quick": {},
	"easy": {}, "helpful": {}, "useful": {}, "nice": {}, "pleased": {},
	"happy": {}, "satisfied": {}, "beautiful": {}, "clean": {}, "intuitive": {},
	"reliable": {}, "effective": {}, "efficient": {}, "improved": {}, "better": {},
	"awesome": {}, "like": {}, "enjoy": {}, "enjoyed": {}, "enjoying": {},
	"superb": {}, "neat": {}, "clear": {}, "stable": {}, "works": {},
	"working": {}, "joy": {}, "delight": {}, "delightful": {}, "fluid": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "terrible": {}, "slow": {}, "worst": {}, "hate": {},
	"poor": {}, "broken": {}, "crash": {}, "crashes": {}, "crashing": {},
	"crashed": {}, "bug": {}, "bugs": {}, "error": {}, "errors": {},
	"problem": {}, "problems": {}, "fail": {}, "fails": {}, "failing": {},
	"failed": {}, "failure": {}, "useless": {}, "awful": {}, "horrible": {},
	"frustrating": {}, "frustration": {}, "annoying": {}, "difficult": {},
	"confusing": {}, "delayed": {}, "delay": {}, "not": {}, "never": {},
	"cant": {}, "cannot": {}, "doesn": {}, "missing": {}, "lost": {},
	"laggy": {}, "lag": {}, "freeze": {}, "freezing": {}, "frozen": {},
	"unusable": {}, "disappointing": {}, "disappointed": {}, "complaint": {},
	"complain": {}, "wont": {},
}

// Contrast connectors that signal the message flips polarity midway.
var mixedConnectors = map[string]struct{}{
	"but": {}, "however": {}, "although": {}, "though": {}, "yet": {},
	"while": {}, "except": {}, "unfortunately": {}, "despite": {},
}

// QuickSentiment classifies a single feedback message without calling the
// language model. Both polarities present, or a contrast connector next to
// either polarity, yields mixed. No signal at all yields neutral.
func QuickSentiment(text string) string {
	words := map[string]struct{}{}
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		words[w] = struct{}{}
	}

	pos := countIntersection(words, positiveWords)
	neg := countIntersection(words, negativeWords)
	hasConnector := countIntersection(words, mixedConnectors) > 0

	switch {
	case pos > 0 && neg > 0:
		return models.SentimentMixed
	case hasConnector && (pos > 0 || neg > 0):
		return models.SentimentMixed
	case pos > 0:
		return models.SentimentPositive
	case neg > 0:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

var probePositiveWords = []string{
	"good", "great", "excellent", "love", "amazing", "best", "perfect",
	"wonderful", "clean", "easy", "smooth", "fast", "speed", "smoothly",
}

var probeNegativeWords = []string{
	"bad", "terrible", "slow", "worst", "hate", "poor", "broken", "crash",
	"disappointed", "issue", "bug", "problem", "expensive", "battery",
}

// KeywordSentiment is the lightweight probe behind the quick-sentiment
// endpoint. Confidence grows with keyword hits and caps at 0.9; a tie is
// neutral at 0.5.
func KeywordSentiment(text string) (string, float64) {
	lower := strings.ToLower(text)
	pos := 0
	for _, w := range probePositiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	neg := 0
	for _, w := range probeNegativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}

	switch {
	case pos > neg:
		return models.SentimentPositive, math.Min(0.9, 0.5+float64(pos)*0.1)
	case neg > pos:
		return models.SentimentNegative, math.Min(0.9, 0.5+float64(neg)*0.1)
	default:
		return models.SentimentNeutral, 0.5
	}
}

func countIntersection(words, vocab map[string]struct{}) int {
	n := 0
	for w := range words {
		if _, ok := vocab[w]; ok {
			n++
		}
	}
	return n
}
