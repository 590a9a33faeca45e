package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"feedback-analyzer/backend/ai"
	"feedback-analyzer/backend/feedback/models"
	"feedback-analyzer/backend/pkg/config"
	"feedback-analyzer/backend/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// TextGenerator produces chat completions. Satisfied by ai.Client.
type TextGenerator interface {
	Complete(ctx context.Context, messages []ai.ChatMessage, opts ai.CompletionOptions) (string, error)
}

// AnalyzerService turns raw feedback text into a structured analysis. Model
// failures never surface to callers: a degraded keyword-based analysis is
// returned instead.
type AnalyzerService struct {
	generator TextGenerator
	sampler   *Sampler
	log       *logger.Logger

	analysisRuns metric.Int64Counter
	fallbackRuns metric.Int64Counter
}

func NewAnalyzerService(generator TextGenerator, log *logger.Logger) *AnalyzerService {
	cfg := config.Get().Analysis
	meter := otel.Meter("feedback-analyzer/analysis")
	runs, _ := meter.Int64Counter("analysis_runs_total",
		metric.WithDescription("Number of feedback analysis invocations"))
	fallbacks, _ := meter.Int64Counter("analysis_fallbacks_total",
		metric.WithDescription("Number of analyses served by the degraded fallback"))

	return &AnalyzerService{
		generator:    generator,
		sampler:      NewSampler(cfg.MaxSamples, cfg.StratumCap, cfg.SampleSeed),
		log:          log,
		analysisRuns: runs,
		fallbackRuns: fallbacks,
	}
}

// AnalyzeFeedback analyzes a batch of feedback entries and returns a
// complete, repaired result. The declared count always reflects the full
// input even when only a sampled subset was shown to the model.
func (s *AnalyzerService) AnalyzeFeedback(ctx context.Context, reviews []string) *models.AnalysisResult {
	s.analysisRuns.Add(ctx, 1)

	feedbackCount := len(reviews)
	sampled, note := s.sampler.Sample(reviews)

	prompt := buildAnalysisPrompt(feedbackCount, formatFeedbacks(sampled, note))
	raw, err := s.generator.Complete(ctx, []ai.ChatMessage{
		{Role: ai.RoleUser, Content: prompt},
	}, ai.CompletionOptions{JSONMode: true})
	if err != nil {
		s.log.LogError(err, "analysis generation failed, using fallback", "feedback_count", feedbackCount)
		s.fallbackRuns.Add(ctx, 1)
		return s.fallbackAnalysis(reviews)
	}

	result, err := parseAnalysis(raw)
	if err != nil {
		s.log.LogError(err, "analysis output unparseable, using fallback", "feedback_count", feedbackCount)
		s.fallbackRuns.Add(ctx, 1)
		return s.fallbackAnalysis(reviews)
	}

	result.IsQuestionResponse = false
	result.AnalyzedAt = time.Now().UTC()
	repairAnalysis(result, feedbackCount)
	return result
}

func formatFeedbacks(sampled []string, note string) string {
	if len(sampled) == 1 {
		return fmt.Sprintf("Single feedback:\n%q", sampled[0])
	}
	var b strings.Builder
	if note != "" {
		fmt.Fprintf(&b, "Customer feedbacks %s:\n", note)
	} else {
		b.WriteString("Customer feedbacks:\n")
	}
	i := 0
	for _, review := range sampled {
		clean := strings.Trim(strings.TrimSpace(review), `"'`)
		if clean == "" {
			continue
		}
		i++
		fmt.Fprintf(&b, "%d. %q\n", i, clean)
	}
	return b.String()
}

func buildAnalysisPrompt(feedbackCount int, feedbacks string) string {
	return fmt.Sprintf(`You are a product feedback analyst. Analyze the following customer feedback and return a complete JSON response.

FEEDBACKS TO ANALYZE (%d total):
%s

YOUR MISSION:
Extract sentiment, identify themes, and provide actionable recommendations.
Write a COMPLETE, DETAILED analytical report in 'chat_response'. Do NOT cut it short.

RESPONSE FORMAT RULES for 'chat_response':
1. Use markdown headers (###, **) and bullet points.
2. Use emojis for visual clarity.
3. MENTION SPECIFIC QUOTES from actual feedback. Include at least 3-5 real examples.
4. NO preamble. Start directly with the analysis summary line:
   "Analyzed %d feedback/s. [Sentiment] sentiment ([X]%% satisfaction)."
5. WRITE OUT ALL SECTIONS FULLY: Key Insights, Detailed Analysis, Priority Actions, Expected Impact.

RULES:
- If the feedback mentions "clean", "easy", "smooth", "fast", or "helpful", the sentiment MUST be "positive".
- Ensure 'sentiment_distribution' counts sum to exactly %d.
- Return ONLY valid JSON matching the schema below.
- The 'chat_response' field MUST be complete and never end mid-sentence.

JSON SCHEMA (return exactly these fields):
{
  "total_feedbacks_analyzed": <int>,
  "overall_sentiment": "positive" | "negative" | "neutral" | "mixed",
  "satisfaction_index": <float 0.0-1.0>,
  "sentiment_distribution": {"positive": <int>, "neutral": <int>, "negative": <int>, "mixed": <int>},
  "total_themes_detected": <int>,
  "themes": [{"theme": <string>, "count": <int>, "sentiment": <string>, "examples": [<string>], "percentage": <float>, "satisfaction": <int>}],
  "key_features_count": <int>,
  "feature_suggestions": [{"feature": <string>, "priority": "critical" | "high" | "medium" | "low", "reasoning": <string>, "affected_users": <int>, "impact_score": <float>}],
  "chat_response": <string>
}`, feedbackCount, feedbacks, feedbackCount, feedbackCount)
}

// parseAnalysis decodes the model's JSON output, tolerating markdown fences
// and surrounding prose.
func parseAnalysis(raw string) (*models.AnalysisResult, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in generation output")
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &result, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var fallbackPositiveWords = []string{"good", "great", "excellent", "love", "amazing", "best", "perfect"}

var fallbackNegativeWords = []string{"bad", "terrible", "slow", "worst", "hate", "poor", "broken", "crash"}

// fallbackAnalysis builds a minimal keyword-based result when generation is
// unavailable. The whole batch is assigned to a single sentiment slot.
func (s *AnalyzerService) fallbackAnalysis(reviews []string) *models.AnalysisResult {
	feedbackCount := len(reviews)
	combined := strings.ToLower(strings.Join(reviews, " "))

	posCount := 0
	for _, w := range fallbackPositiveWords {
		if strings.Contains(combined, w) {
			posCount++
		}
	}
	negCount := 0
	for _, w := range fallbackNegativeWords {
		if strings.Contains(combined, w) {
			negCount++
		}
	}

	var sentiment string
	var score float64
	var dist models.SentimentDistribution
	switch {
	case posCount > negCount:
		sentiment = models.SentimentPositive
		score = 0.75
		dist.Positive = feedbackCount
	case negCount > posCount:
		sentiment = models.SentimentNegative
		score = 0.25
		dist.Negative = feedbackCount
	default:
		sentiment = models.SentimentNeutral
		score = 0.5
		dist.Neutral = feedbackCount
	}

	plural := "/s"
	response := fmt.Sprintf(`Analyzed %d feedback%s. %s sentiment (%d%% satisfaction).

**Key Insights:**
- ⚠️ **Strengths/Weaknesses:** Analysis interrupted or low data quality.

**Detailed Analysis:**
⚡ System performing fallback classification.
🔴 Unable to extract detailed themes at this time.

**Priority Actions:**
1. 🔴 **CRITICAL:** Provide more detailed feedback
   - Issue: Low data density
   - Impact: Prevents deep analysis
   - Action: Submit multiple specific feedbacks

**Expected Impact:**
Improving feedback detail will enable full keyword extraction and theme analysis.`,
		feedbackCount, plural, capitalize(sentiment), int(score*100))

	return &models.AnalysisResult{
		TotalFeedbacksAnalyzed: feedbackCount,
		OverallSentiment:       sentiment,
		SatisfactionIndex:      score,
		SentimentDistribution:  dist,
		ChatResponse:           response,
		IsQuestionResponse:     false,
		AnalyzedAt:             time.Now().UTC(),
	}
}
