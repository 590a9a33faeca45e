package service

import (
	"fmt"
	"regexp"
	"strings"

	"feedback-analyzer/backend/feedback/models"
)

var analyzedCountPattern = regexp.MustCompile(`Analyzed \d+ feedback/s?`)

// repairAnalysis reconciles model output with the counts we actually know.
// The model frequently misreports totals, so the declared count, the
// distribution, and the narrative text are all forced back into agreement.
func repairAnalysis(result *models.AnalysisResult, expectedCount int) {
	dist := &result.SentimentDistribution
	distTotal := dist.Total()

	var currentTotal int
	switch {
	case expectedCount == 1:
		result.TotalFeedbacksAnalyzed = 1
		currentTotal = 1
	case distTotal > expectedCount:
		// The model found more entries inside the text than the caller
		// split out. The distribution is the more granular signal.
		result.TotalFeedbacksAnalyzed = distTotal
		currentTotal = distTotal
	default:
		result.TotalFeedbacksAnalyzed = expectedCount
		currentTotal = expectedCount
	}

	plural := "s"
	if currentTotal == 1 {
		plural = ""
	}
	result.ChatResponse = analyzedCountPattern.ReplaceAllString(
		result.ChatResponse,
		fmt.Sprintf("Analyzed %d feedback%s", currentTotal, plural),
	)

	if currentTotal == 1 {
		sentiment := strings.ToLower(result.OverallSentiment)
		dist.Positive = boolToCount(sentiment == models.SentimentPositive)
		dist.Negative = boolToCount(sentiment == models.SentimentNegative)
		dist.Mixed = boolToCount(sentiment == models.SentimentMixed)
		dist.Neutral = boolToCount(sentiment == models.SentimentNeutral ||
			(dist.Positive == 0 && dist.Negative == 0 && dist.Mixed == 0))
	}

	result.ChatResponse = strings.ReplaceAll(result.ChatResponse, "1 feedback/s", "1 feedback")
	result.ChatResponse = strings.ReplaceAll(result.ChatResponse, "1 feedbacks", "1 feedback")

	for i := range result.Themes {
		switch strings.ToLower(result.Themes[i].Sentiment) {
		case models.SentimentPositive:
			result.Themes[i].Satisfaction = 100
		case models.SentimentNegative:
			result.Themes[i].Satisfaction = 0
		default:
			result.Themes[i].Satisfaction = 50
		}
	}
}

func boolToCount(b bool) int {
	if b {
		return 1
	}
	return 0
}
