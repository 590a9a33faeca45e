package service

import (
	"sort"
	"strings"
	"time"

	"feedback-analyzer/backend/feedback/models"
	"feedback-analyzer/backend/feedback/repository"

	"fmt"
)

// feedbackQuestionKeywords marks stored content that slipped through intake
// as a question. Long entries are kept regardless since real feedback can
// quote questions.
var feedbackQuestionKeywords = []string{
	"what", "how", "should i", "which", "could you", "tell me", "?",
}

// AnalyticsSummary is the cumulative dashboard view across all of a user's
// stored feedback.
type AnalyticsSummary struct {
	SatisfactionIndex     int                          `json:"satisfaction_index"`
	OverallSentiment      string                       `json:"overall_sentiment"`
	DetectedThemes        int                          `json:"detected_themes"`
	KeyFeaturesCount      int                          `json:"key_features_count"`
	TotalFeedbacks        int                          `json:"total_feedbacks"`
	SentimentDistribution models.SentimentDistribution `json:"sentiment_distribution"`
	Themes                []models.ThemeSummary        `json:"themes"`
	ThemeSatisfaction     []ThemeSatisfaction          `json:"theme_satisfaction"`
	FeatureSuggestions    []models.FeatureSuggestion   `json:"feature_suggestions"`
	ChatResponse          string                       `json:"chat_response"`
	LastUpdated           *time.Time                   `json:"last_updated"`
}

type ThemeSatisfaction struct {
	Theme        string `json:"theme"`
	Satisfaction int    `json:"satisfaction"`
}

type ThemeBreakdown struct {
	Themes         []models.ThemeSummary        `json:"themes"`
	SentimentStats models.SentimentDistribution `json:"sentiment_stats"`
	TotalFeedbacks int                          `json:"total_feedbacks"`
}

type HistoryPoint struct {
	Date              time.Time `json:"date"`
	SatisfactionIndex int       `json:"satisfaction_index"`
	FeedbackCount     int       `json:"feedback_count"`
	ThemesCount       int       `json:"themes_count"`
	Sentiment         string    `json:"sentiment"`
}

type HistoricalAnalytics struct {
	History             []HistoryPoint `json:"history"`
	Trend               string         `json:"trend"`
	AverageSatisfaction int            `json:"average_satisfaction"`
}

// UserStats is the raw aggregate view behind the stats endpoint, computed
// from repository aggregates rather than stored analyses.
type UserStats struct {
	SentimentDistribution map[string]int `json:"sentiment_distribution"`
	TopThemes             []ThemeCount   `json:"top_themes"`
	TotalFeedbacks        int64          `json:"total_feedbacks"`
	AverageSatisfaction   float64        `json:"average_satisfaction"`
}

type ThemeCount struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

// Recommendations groups the latest analysis's feature suggestions by
// priority bucket.
type Recommendations struct {
	Critical []models.FeatureSuggestion `json:"critical"`
	High     []models.FeatureSuggestion `json:"high"`
	Medium   []models.FeatureSuggestion `json:"medium"`
	Low      []models.FeatureSuggestion `json:"low"`
}

// AnalyticsService computes cumulative statistics over stored feedback.
// All aggregation runs in process; per-user feedback volumes are small
// enough that pushing group-bys into SQL buys nothing.
type AnalyticsService struct {
	repo repository.FeedbackRepository
}

func NewAnalyticsService(repo repository.FeedbackRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

func (s *AnalyticsService) Summary(userID uint) (*AnalyticsSummary, error) {
	feedbacks, err := s.userFeedbacks(userID)
	if err != nil {
		return nil, err
	}
	if len(feedbacks) == 0 {
		return emptySummary(), nil
	}

	total := len(feedbacks)
	dist := countSentiments(feedbacks)
	satisfaction := satisfactionIndex(dist, total)
	overall := overallSentiment(dist)

	themes, themeSatisfaction := analyzeThemes(feedbacks)
	for i := range themes {
		themes[i].Percentage = float64(int(float64(themes[i].Count) / float64(total) * 100))
	}

	var suggestions []models.FeatureSuggestion
	var chatResponse string
	latest, err := s.repo.LatestAnalysis(userID, "")
	if err != nil {
		return nil, err
	}
	if latest != nil {
		suggestions = latest.Result.FeatureSuggestions
		chatResponse = latest.Result.ChatResponse
	}
	if chatResponse == "" {
		topTheme := "None"
		if len(themes) > 0 {
			topTheme = themes[0].Theme
		}
		chatResponse = fmt.Sprintf(
			"Analyzed %d cumulative feedbacks. Overall %s sentiment (%d%% satisfaction). Top theme: %s.",
			total, overall, satisfaction, topTheme)
	}

	now := time.Now().UTC()
	return &AnalyticsSummary{
		SatisfactionIndex:     satisfaction,
		OverallSentiment:      overall,
		DetectedThemes:        len(themes),
		KeyFeaturesCount:      len(suggestions),
		TotalFeedbacks:        total,
		SentimentDistribution: dist,
		Themes:                themes,
		ThemeSatisfaction:     themeSatisfaction,
		FeatureSuggestions:    suggestions,
		ChatResponse:          chatResponse,
		LastUpdated:           &now,
	}, nil
}

func (s *AnalyticsService) ThemeBreakdown(userID uint) (*ThemeBreakdown, error) {
	feedbacks, err := s.userFeedbacks(userID)
	if err != nil {
		return nil, err
	}
	if len(feedbacks) == 0 {
		return &ThemeBreakdown{Themes: []models.ThemeSummary{}}, nil
	}

	themes, _ := analyzeThemes(feedbacks)
	total := len(feedbacks)
	for i := range themes {
		themes[i].Percentage = float64(int(float64(themes[i].Count) / float64(total) * 100))
	}

	return &ThemeBreakdown{
		Themes:         themes,
		SentimentStats: countSentiments(feedbacks),
		TotalFeedbacks: total,
	}, nil
}

func (s *AnalyticsService) Historical(userID uint, limit int) (*HistoricalAnalytics, error) {
	analyses, err := s.repo.ListAnalyses(userID, limit)
	if err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		return &HistoricalAnalytics{History: []HistoryPoint{}, Trend: "stable"}, nil
	}

	history := make([]HistoryPoint, 0, len(analyses))
	scores := make([]float64, 0, len(analyses))
	for _, a := range analyses {
		scores = append(scores, a.Result.SatisfactionIndex)
		history = append(history, HistoryPoint{
			Date:              a.CreatedAt,
			SatisfactionIndex: int(a.Result.SatisfactionIndex * 100),
			FeedbackCount:     a.FeedbackCount,
			ThemesCount:       a.Result.TotalThemesDetected,
			Sentiment:         a.Result.OverallSentiment,
		})
	}

	var sum float64
	for _, score := range scores {
		sum += score
	}
	avg := sum / float64(len(scores))

	// Scores are newest first; a swing past 0.05 between the two most
	// recent analyses flips the trend.
	trend := "stable"
	if len(scores) >= 2 {
		if scores[0] > scores[1]+0.05 {
			trend = "improving"
		} else if scores[0] < scores[1]-0.05 {
			trend = "declining"
		}
	}

	return &HistoricalAnalytics{
		History:             history,
		Trend:               trend,
		AverageSatisfaction: int(avg * 100),
	}, nil
}

const topThemeLimit = 10

// UserStats aggregates sentiment counts, theme frequency and the average
// satisfaction score across everything the user has stored.
func (s *AnalyticsService) UserStats(userID uint) (*UserStats, error) {
	counts, err := s.repo.SentimentCounts(userID)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountByUser(userID)
	if err != nil {
		return nil, err
	}
	avg, err := s.repo.AverageScore(userID)
	if err != nil {
		return nil, err
	}

	feedbacks, err := s.repo.ListByUser(userID, 0)
	if err != nil {
		return nil, err
	}
	themeCounts := make(map[string]int)
	for _, fb := range feedbacks {
		for _, theme := range fb.Themes {
			themeCounts[theme]++
		}
	}
	topThemes := make([]ThemeCount, 0, len(themeCounts))
	for theme, count := range themeCounts {
		topThemes = append(topThemes, ThemeCount{Theme: theme, Count: count})
	}
	sort.Slice(topThemes, func(i, j int) bool {
		if topThemes[i].Count != topThemes[j].Count {
			return topThemes[i].Count > topThemes[j].Count
		}
		return topThemes[i].Theme < topThemes[j].Theme
	})
	if len(topThemes) > topThemeLimit {
		topThemes = topThemes[:topThemeLimit]
	}

	return &UserStats{
		SentimentDistribution: counts,
		TopThemes:             topThemes,
		TotalFeedbacks:        total,
		AverageSatisfaction:   avg,
	}, nil
}

func (s *AnalyticsService) Recommendations(userID uint) (*Recommendations, error) {
	out := &Recommendations{
		Critical: []models.FeatureSuggestion{},
		High:     []models.FeatureSuggestion{},
		Medium:   []models.FeatureSuggestion{},
		Low:      []models.FeatureSuggestion{},
	}

	latest, err := s.repo.LatestAnalysis(userID, "")
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return out, nil
	}

	for _, fs := range latest.Result.FeatureSuggestions {
		switch strings.ToLower(fs.Priority) {
		case models.PriorityCritical:
			out.Critical = append(out.Critical, fs)
		case models.PriorityHigh:
			out.High = append(out.High, fs)
		case models.PriorityLow:
			out.Low = append(out.Low, fs)
		default:
			out.Medium = append(out.Medium, fs)
		}
	}
	return out, nil
}

// userFeedbacks loads all of a user's feedback minus short question-like
// entries.
func (s *AnalyticsService) userFeedbacks(userID uint) ([]models.Feedback, error) {
	feedbacks, err := s.repo.ListByUser(userID, 0)
	if err != nil {
		return nil, err
	}

	filtered := feedbacks[:0]
	for _, fb := range feedbacks {
		content := strings.ToLower(fb.Content)
		questionLike := false
		for _, kw := range feedbackQuestionKeywords {
			if strings.Contains(content, kw) {
				questionLike = true
				break
			}
		}
		if !questionLike || len(content) > 100 {
			filtered = append(filtered, fb)
		}
	}
	return filtered, nil
}

func countSentiments(feedbacks []models.Feedback) models.SentimentDistribution {
	var dist models.SentimentDistribution
	for _, fb := range feedbacks {
		switch fb.Sentiment {
		case models.SentimentPositive:
			dist.Positive++
		case models.SentimentNegative:
			dist.Negative++
		case models.SentimentMixed:
			dist.Mixed++
		default:
			dist.Neutral++
		}
	}
	return dist
}

// satisfactionIndex weights positive fully, mixed and neutral at half, and
// negative at zero, scaled to [0,100].
func satisfactionIndex(dist models.SentimentDistribution, total int) int {
	if total == 0 {
		return 0
	}
	score := (float64(dist.Positive)*1.0 +
		float64(dist.Mixed)*0.5 +
		float64(dist.Neutral)*0.5 +
		float64(dist.Negative)*0.0) / float64(total)
	return int(score * 100)
}

func overallSentiment(dist models.SentimentDistribution) string {
	switch {
	case dist.Positive > dist.Negative:
		return models.SentimentPositive
	case dist.Negative > dist.Positive:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// analyzeThemes aggregates per-theme sentiment counts and up to three
// example snippets, returning themes ordered by occurrence count and the
// top ten theme satisfaction scores.
func analyzeThemes(feedbacks []models.Feedback) ([]models.ThemeSummary, []ThemeSatisfaction) {
	counts := map[string]*models.SentimentDistribution{}
	examples := map[string][]string{}

	for _, fb := range feedbacks {
		for _, theme := range fb.Themes {
			dist, ok := counts[theme]
			if !ok {
				dist = &models.SentimentDistribution{}
				counts[theme] = dist
			}
			switch fb.Sentiment {
			case models.SentimentPositive:
				dist.Positive++
			case models.SentimentNegative:
				dist.Negative++
			case models.SentimentMixed:
				dist.Mixed++
			default:
				dist.Neutral++
			}
			if len(examples[theme]) < 3 {
				examples[theme] = append(examples[theme], truncateExample(fb.Content))
			}
		}
	}

	themes := make([]models.ThemeSummary, 0, len(counts))
	satisfactions := make([]ThemeSatisfaction, 0, len(counts))
	for theme, dist := range counts {
		total := dist.Total()
		satisfaction := satisfactionIndex(*dist, total)
		if total == 0 {
			satisfaction = 50
		}
		themes = append(themes, models.ThemeSummary{
			Theme:        theme,
			Count:        total,
			Sentiment:    dominantSentiment(*dist),
			Examples:     examples[theme],
			Satisfaction: satisfaction,
		})
		satisfactions = append(satisfactions, ThemeSatisfaction{
			Theme:        theme,
			Satisfaction: satisfaction,
		})
	}

	sort.Slice(themes, func(i, j int) bool {
		if themes[i].Count != themes[j].Count {
			return themes[i].Count > themes[j].Count
		}
		return themes[i].Theme < themes[j].Theme
	})
	sort.Slice(satisfactions, func(i, j int) bool {
		if satisfactions[i].Satisfaction != satisfactions[j].Satisfaction {
			return satisfactions[i].Satisfaction > satisfactions[j].Satisfaction
		}
		return satisfactions[i].Theme < satisfactions[j].Theme
	})
	if len(satisfactions) > 10 {
		satisfactions = satisfactions[:10]
	}
	return themes, satisfactions
}

// dominantSentiment labels a theme by the ratio of positive to polarized
// mentions: above 0.7 positive, below 0.3 negative, in between mixed.
func dominantSentiment(dist models.SentimentDistribution) string {
	pos, neg := dist.Positive, dist.Negative
	if pos > 0 && neg > 0 {
		ratio := float64(pos) / float64(pos+neg)
		switch {
		case ratio > 0.7:
			return models.SentimentPositive
		case ratio < 0.3:
			return models.SentimentNegative
		default:
			return models.SentimentMixed
		}
	}
	switch {
	case pos > neg:
		return models.SentimentPositive
	case neg > pos:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func truncateExample(content string) string {
	if len(content) > 100 {
		return content[:100] + "..."
	}
	return content
}

func emptySummary() *AnalyticsSummary {
	return &AnalyticsSummary{
		OverallSentiment:   models.SentimentNeutral,
		Themes:             []models.ThemeSummary{},
		ThemeSatisfaction:  []ThemeSatisfaction{},
		FeatureSuggestions: []models.FeatureSuggestion{},
		ChatResponse:       "No feedback analyzed yet. Submit customer feedback to get started.",
	}
}
