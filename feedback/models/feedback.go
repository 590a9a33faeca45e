package models

import (
	"time"
)

// Canonical sentiment labels. Every stored feedback carries exactly one.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentMixed    = "mixed"
)

// Suggestion priority buckets.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Feedback represents one piece of customer feedback. Immutable once
// created; owned by the conversation that produced it but queryable across
// the user's whole history.
type Feedback struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"user_id" gorm:"index"`
	ConversationID string    `json:"conversation_id,omitempty" gorm:"index"`
	Content        string    `json:"content"`
	Sentiment      string    `json:"sentiment" gorm:"index;default:neutral"`
	SentimentScore float64   `json:"sentiment_score" gorm:"default:0.5"`
	Themes         []string  `json:"themes" gorm:"serializer:json"`
	CreatedAt      time.Time `json:"created_at"`
}

// Analysis is one stored analysis run. Append-only; the most recent row per
// user (and optionally per conversation) is the "current" analysis.
type Analysis struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	UserID         uint           `json:"user_id" gorm:"index"`
	ConversationID string         `json:"conversation_id,omitempty" gorm:"index"`
	FeedbackCount  int            `json:"feedback_count"`
	Result         AnalysisResult `json:"result" gorm:"serializer:json"`
	CreatedAt      time.Time      `json:"created_at"`
}

// SentimentDistribution holds per-label counts for one analysis batch.
type SentimentDistribution struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
	Mixed    int `json:"mixed"`
}

// Total returns the sum of all four counts.
func (d SentimentDistribution) Total() int {
	return d.Positive + d.Neutral + d.Negative + d.Mixed
}

// PositivePercentage returns the positive share in [0,100].
func (d SentimentDistribution) PositivePercentage() float64 {
	if total := d.Total(); total > 0 {
		return float64(d.Positive) / float64(total) * 100
	}
	return 0
}

// NegativePercentage returns the negative share in [0,100].
func (d SentimentDistribution) NegativePercentage() float64 {
	if total := d.Total(); total > 0 {
		return float64(d.Negative) / float64(total) * 100
	}
	return 0
}

// ThemeSummary is one extracted theme with its dominant sentiment and up to
// three illustrative snippets. Satisfaction is a pure function of the
// sentiment label (positive=100, negative=0, mixed/neutral=50); it is
// always overwritten during repair, never trusted from generation output.
type ThemeSummary struct {
	Theme        string   `json:"theme"`
	Count        int      `json:"count"`
	Sentiment    string   `json:"sentiment"`
	Examples     []string `json:"examples"`
	Percentage   float64  `json:"percentage"`
	Satisfaction int      `json:"satisfaction"`
}

// FeatureSuggestion is one prioritized recommendation from an analysis.
type FeatureSuggestion struct {
	Feature       string  `json:"feature"`
	Priority      string  `json:"priority"`
	Reasoning     string  `json:"reasoning"`
	AffectedUsers int     `json:"affected_users"`
	ImpactScore   float64 `json:"impact_score"`
}

// AnalysisResult is the structured output of one analysis invocation, either
// parsed from the generation capability or produced by the deterministic
// fallback. The sentiment distribution counts must sum to
// TotalFeedbacksAnalyzed after repair.
type AnalysisResult struct {
	TotalFeedbacksAnalyzed int                   `json:"total_feedbacks_analyzed"`
	OverallSentiment       string                `json:"overall_sentiment"`
	SatisfactionIndex      float64               `json:"satisfaction_index"`
	SentimentDistribution  SentimentDistribution `json:"sentiment_distribution"`
	TotalThemesDetected    int                   `json:"total_themes_detected"`
	Themes                 []ThemeSummary        `json:"themes"`
	KeyFeaturesCount       int                   `json:"key_features_count"`
	FeatureSuggestions     []FeatureSuggestion   `json:"feature_suggestions"`
	ChatResponse           string                `json:"chat_response"`
	IsQuestionResponse     bool                  `json:"is_question_response"`
	AnalyzedAt             time.Time             `json:"analyzed_at"`
}

// TopThemes returns up to n themes, assuming Themes is already ordered by
// occurrence count.
func (r *AnalysisResult) TopThemes(n int) []ThemeSummary {
	if len(r.Themes) <= n {
		return r.Themes
	}
	return r.Themes[:n]
}
