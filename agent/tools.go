package agent

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"feedback-analyzer/backend/feedback/models"
	"feedback-analyzer/backend/feedback/repository"
)

// Operation identifies one read-only data query the agent may run. The set
// is closed; anything else is rejected before touching the database.
type Operation string

const (
	OpAllFeedbacks       Operation = "get_all_feedbacks"
	OpNegativeFeedbacks  Operation = "get_negative_feedbacks"
	OpPositiveFeedbacks  Operation = "get_positive_feedbacks"
	OpMixedFeedbacks     Operation = "get_mixed_feedbacks"
	OpAnalyticsSummary   Operation = "get_analytics_summary"
	OpThemeAnalysis      Operation = "get_theme_analysis"
	OpFeatureSuggestions Operation = "get_feature_suggestions"
)

var knownOperations = map[Operation]struct{}{
	OpAllFeedbacks:       {},
	OpNegativeFeedbacks:  {},
	OpPositiveFeedbacks:  {},
	OpMixedFeedbacks:     {},
	OpAnalyticsSummary:   {},
	OpThemeAnalysis:      {},
	OpFeatureSuggestions: {},
}

// Args carries the optional parameters an operation accepts.
type Args struct {
	Limit int    `json:"limit,omitempty"`
	Theme string `json:"theme,omitempty"`
}

const (
	defaultAllLimit      = 100
	defaultFilteredLimit = 50
	themeScanLimit       = 200
	contentPreviewLen    = 300
)

// QueryRouter executes agent operations against one user's stored feedback.
// Every result is a JSON document with a "status" field so the model can
// distinguish an empty dataset from a failure.
type QueryRouter struct {
	repo   repository.FeedbackRepository
	userID uint
}

func NewQueryRouter(repo repository.FeedbackRepository, userID uint) *QueryRouter {
	return &QueryRouter{repo: repo, userID: userID}
}

// Execute runs one operation and returns its JSON result. Errors are folded
// into the result document rather than returned; the agent loop feeds them
// back to the model as observations.
func (r *QueryRouter) Execute(op Operation, args Args) string {
	switch op {
	case OpAllFeedbacks:
		return r.allFeedbacks(args.Limit)
	case OpNegativeFeedbacks:
		return r.bySentiment(models.SentimentNegative, args.Limit,
			"No purely negative feedbacks found.")
	case OpPositiveFeedbacks:
		return r.positiveFeedbacks(args.Limit)
	case OpMixedFeedbacks:
		return r.bySentiment(models.SentimentMixed, args.Limit, "")
	case OpAnalyticsSummary:
		return r.analyticsSummary()
	case OpThemeAnalysis:
		return r.themeAnalysis(args.Theme)
	case OpFeatureSuggestions:
		return r.featureSuggestions()
	default:
		return errorResult("unknown operation: " + string(op))
	}
}

// IsKnownOperation reports whether op is in the closed operation set.
func IsKnownOperation(op Operation) bool {
	_, ok := knownOperations[op]
	return ok
}

type feedbackItem struct {
	Content   string   `json:"content"`
	Sentiment string   `json:"sentiment,omitempty"`
	Themes    []string `json:"themes"`
}

func (r *QueryRouter) allFeedbacks(limit int) string {
	if limit <= 0 {
		limit = defaultAllLimit
	}
	feedbacks, err := r.repo.ListByUser(r.userID, limit)
	if err != nil {
		return errorResult(err.Error())
	}
	if len(feedbacks) == 0 {
		return marshalResult(map[string]any{
			"status":  "no_data",
			"message": "No feedbacks found. Ask the user to submit some customer feedback first.",
			"total":   0,
		})
	}

	items := make([]feedbackItem, 0, len(feedbacks))
	for _, fb := range feedbacks {
		items = append(items, feedbackItem{
			Content:   truncate(fb.Content, contentPreviewLen),
			Sentiment: fb.Sentiment,
			Themes:    emptyIfNil(fb.Themes),
		})
	}
	result := map[string]any{
		"status":    "success",
		"total":     len(items),
		"feedbacks": items,
	}
	// Sentiment counts cover the whole dataset, not just the returned page.
	if counts, err := r.repo.SentimentCounts(r.userID); err == nil {
		result["sentiment_counts"] = counts
	}
	return marshalResult(result)
}

func (r *QueryRouter) bySentiment(sentiment string, limit int, emptyMessage string) string {
	if limit <= 0 {
		limit = defaultFilteredLimit
	}
	feedbacks, err := r.repo.ListByUserAndSentiment(r.userID, sentiment, limit)
	if err != nil {
		return errorResult(err.Error())
	}
	if len(feedbacks) == 0 && emptyMessage != "" {
		return marshalResult(map[string]any{
			"status":    "success",
			"total":     0,
			"message":   emptyMessage,
			"feedbacks": []feedbackItem{},
		})
	}

	items := make([]feedbackItem, 0, len(feedbacks))
	for _, fb := range feedbacks {
		items = append(items, feedbackItem{
			Content: fb.Content,
			Themes:  emptyIfNil(fb.Themes),
		})
	}
	return marshalResult(map[string]any{
		"status":    "success",
		"total":     len(items),
		"feedbacks": items,
	})
}

// positiveFeedbacks falls back to the latest analysis when no individual
// rows are tagged positive. Bulk uploads classified conservatively can leave
// the per-row sentiment neutral even though the analysis found positives.
func (r *QueryRouter) positiveFeedbacks(limit int) string {
	if limit <= 0 {
		limit = defaultFilteredLimit
	}
	feedbacks, err := r.repo.ListByUserAndSentiment(r.userID, models.SentimentPositive, limit)
	if err != nil {
		return errorResult(err.Error())
	}

	if len(feedbacks) == 0 {
		latest, err := r.repo.LatestAnalysis(r.userID, "")
		if err != nil {
			return errorResult(err.Error())
		}
		if latest != nil {
			posCount := latest.Result.SentimentDistribution.Positive
			total := latest.Result.TotalFeedbacksAnalyzed
			if posCount > 0 {
				percentage := 0
				if total > 0 {
					percentage = int(math.Round(float64(posCount) / float64(total) * 100))
				}
				return marshalResult(map[string]any{
					"status":              "success",
					"note":                "Count from analysis. Individual feedback texts not separately stored as positive.",
					"total_positive":      posCount,
					"total_analyzed":      total,
					"positive_percentage": percentage,
					"feedbacks":           []feedbackItem{},
				})
			}
		}
		return marshalResult(map[string]any{
			"status":    "success",
			"total":     0,
			"message":   "No purely positive feedbacks found in the current dataset.",
			"feedbacks": []feedbackItem{},
		})
	}

	items := make([]feedbackItem, 0, len(feedbacks))
	for _, fb := range feedbacks {
		items = append(items, feedbackItem{
			Content: fb.Content,
			Themes:  emptyIfNil(fb.Themes),
		})
	}
	return marshalResult(map[string]any{
		"status":    "success",
		"total":     len(items),
		"feedbacks": items,
	})
}

func (r *QueryRouter) analyticsSummary() string {
	latest, err := r.repo.LatestAnalysis(r.userID, "")
	if err != nil {
		return errorResult(err.Error())
	}
	if latest == nil {
		return marshalResult(map[string]any{
			"status":  "no_data",
			"message": "No analysis found. No feedback has been analyzed yet.",
		})
	}

	result := latest.Result
	type themeEntry struct {
		Theme     string `json:"theme"`
		Count     int    `json:"count"`
		Sentiment string `json:"sentiment"`
	}
	topThemes := make([]themeEntry, 0, 10)
	for _, theme := range result.TopThemes(10) {
		topThemes = append(topThemes, themeEntry{
			Theme:     theme.Theme,
			Count:     theme.Count,
			Sentiment: theme.Sentiment,
		})
	}

	return marshalResult(map[string]any{
		"status":                 "success",
		"satisfaction_index":     int(result.SatisfactionIndex * 100),
		"overall_sentiment":      result.OverallSentiment,
		"total_feedbacks":        result.TotalFeedbacksAnalyzed,
		"sentiment_distribution": result.SentimentDistribution,
		"top_themes":             topThemes,
		"chat_response":          result.ChatResponse,
	})
}

func (r *QueryRouter) themeAnalysis(themeName string) string {
	feedbacks, err := r.repo.ListByUser(r.userID, themeScanLimit)
	if err != nil {
		return errorResult(err.Error())
	}

	themeName = strings.ToLower(strings.TrimSpace(themeName))
	counts := map[string]int{}
	matched := 0
	for _, fb := range feedbacks {
		if themeName != "" && !containsTheme(fb.Themes, themeName) {
			continue
		}
		matched++
		for _, theme := range fb.Themes {
			counts[theme]++
		}
	}

	type themeCount struct {
		Theme string `json:"theme"`
		Count int    `json:"count"`
	}
	sorted := make([]themeCount, 0, len(counts))
	for theme, count := range counts {
		sorted = append(sorted, themeCount{Theme: theme, Count: count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Theme < sorted[j].Theme
	})
	if len(sorted) > 20 {
		sorted = sorted[:20]
	}

	return marshalResult(map[string]any{
		"status":          "success",
		"total_feedbacks": matched,
		"themes":          sorted,
	})
}

func (r *QueryRouter) featureSuggestions() string {
	latest, err := r.repo.LatestAnalysis(r.userID, "")
	if err != nil {
		return errorResult(err.Error())
	}
	if latest == nil {
		return marshalResult(map[string]any{
			"status":  "no_data",
			"message": "No suggestions available yet.",
		})
	}

	type suggestion struct {
		Feature       string `json:"feature"`
		Reasoning     string `json:"reasoning"`
		AffectedUsers int    `json:"affected_users"`
	}
	grouped := map[string][]suggestion{
		models.PriorityCritical: {},
		models.PriorityHigh:     {},
		models.PriorityMedium:   {},
		models.PriorityLow:      {},
	}
	for _, fs := range latest.Result.FeatureSuggestions {
		priority := strings.ToLower(fs.Priority)
		if _, ok := grouped[priority]; !ok {
			continue
		}
		grouped[priority] = append(grouped[priority], suggestion{
			Feature:       fs.Feature,
			Reasoning:     fs.Reasoning,
			AffectedUsers: fs.AffectedUsers,
		})
	}

	return marshalResult(map[string]any{
		"status":               "success",
		"prioritized_features": grouped,
	})
}

func containsTheme(themes []string, name string) bool {
	for _, t := range themes {
		if strings.ToLower(t) == name {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func emptyIfNil(themes []string) []string {
	if themes == nil {
		return []string{}
	}
	return themes
}

func marshalResult(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err.Error())
	}
	return string(data)
}

func errorResult(message string) string {
	data, _ := json.Marshal(map[string]string{
		"status":  "error",
		"message": message,
	})
	return string(data)
}
