package service

import "strings"

var questionStarters = []string{
	"what", "how", "why", "when", "which", "who", "where",
	"tell me", "show me", "give me", "list", "find",
	"can you", "could you", "should i",
	"analyze reviews", "summarize data",
}

var queryKeywords = []string{
	"sentiment breakdown", "theme analysis", "feature suggestions",
	"top complaints", "overall status", "satisfaction score",
}

var commandVerbs = []string{"analyze", "summarize", "list", "show", "tell", "find"}

var contextStarters = map[string]struct{}{
	"lol": {}, "haha": {}, "ha": {}, "ok": {}, "okay": {}, "yes": {},
	"no": {}, "yep": {}, "nope": {}, "check": {}, "look": {}, "see": {},
	"above": {}, "that": {}, "this": {}, "those": {}, "from": {},
	"based": {}, "regarding": {}, "about": {}, "using": {}, "with": {},
	"according": {},
}

var referencePhrases = []string{
	"above", "previous", "last",
	"that feedback", "this feedback", "those feedback",
	"the csv", "that csv", "the data", "that data",
	"from above", "from that", "from the", "based on",
}

var opinionMarkers = map[string]struct{}{
	"good": {}, "great": {}, "excellent": {}, "best": {}, "amazing": {},
	"awesome": {}, "love": {}, "perfect": {}, "fantastic": {}, "outstanding": {},
	"wonderful": {}, "brilliant": {}, "smooth": {}, "fast": {}, "quick": {},
	"efficient": {}, "effective": {}, "reliable": {}, "easy": {}, "helpful": {},
	"useful": {}, "intuitive": {}, "clean": {}, "beautiful": {}, "simple": {},
	"nice": {}, "pleased": {}, "happy": {}, "satisfied": {},
	"bad": {}, "terrible": {}, "awful": {}, "worst": {}, "hate": {},
	"issue": {}, "broken": {}, "slow": {}, "crash": {}, "crashes": {},
	"bug": {}, "error": {}, "problem": {}, "fail": {}, "fails": {},
	"failing": {}, "poor": {}, "useless": {}, "difficult": {}, "confusing": {},
	"frustrating": {}, "annoying": {}, "disappointing": {}, "laggy": {},
	"freeze": {}, "freezing": {}, "unusable": {}, "lost": {},
	"okay": {}, "ok": {}, "decent": {}, "average": {}, "mediocre": {},
	"acceptable": {},
}

// IsQuestion reports whether a message reads as a question or data query
// rather than a statement.
func IsQuestion(message string) bool {
	msg := strings.ToLower(strings.TrimSpace(message))

	if strings.HasSuffix(msg, "?") {
		return true
	}

	for _, s := range questionStarters {
		if strings.HasPrefix(msg, s) {
			return true
		}
	}

	wordCount := len(strings.Fields(msg))

	for _, kw := range queryKeywords {
		if strings.Contains(msg, kw) && wordCount < 10 {
			return true
		}
	}

	for _, v := range commandVerbs {
		if strings.HasPrefix(msg, v) && wordCount < 8 {
			return true
		}
	}

	return false
}

// IsNewFeedback reports whether a message should be treated as new customer
// feedback to analyze. Only a confident yes returns true. Anything ambiguous
// routes to the question path, which can always recover conversationally.
func IsNewFeedback(message string) bool {
	msgLower := strings.ToLower(strings.TrimSpace(message))
	words := strings.Fields(msgLower)

	if IsQuestion(message) {
		return false
	}

	if len(words) <= 2 {
		return false
	}

	if _, ok := contextStarters[words[0]]; ok {
		return false
	}

	for _, phrase := range referencePhrases {
		if strings.Contains(msgLower, phrase) {
			return false
		}
	}

	if len(words) > 8 {
		return true
	}

	for _, w := range words {
		if _, ok := opinionMarkers[w]; ok {
			return true
		}
	}

	return false
}
