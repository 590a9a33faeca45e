package repository

import (
	"errors"

	"feedback-analyzer/backend/feedback/models"

	"gorm.io/gorm"
)

// FeedbackRepository is the persistence contract for feedback records and
// stored analyses. Writes are visible to subsequent reads within the same
// process.
type FeedbackRepository interface {
	Create(feedback *models.Feedback) error
	BulkCreate(feedbacks []models.Feedback) error
	ListByUser(userID uint, limit int) ([]models.Feedback, error)
	ListByUserAndSentiment(userID uint, sentiment string, limit int) ([]models.Feedback, error)
	ListByConversation(conversationID string) ([]models.Feedback, error)
	CountByUser(userID uint) (int64, error)
	SentimentCounts(userID uint) (map[string]int, error)
	AverageScore(userID uint) (float64, error)
	SaveAnalysis(analysis *models.Analysis) error
	LatestAnalysis(userID uint, conversationID string) (*models.Analysis, error)
	ListAnalyses(userID uint, limit int) ([]models.Analysis, error)
}

type GormFeedbackRepository struct {
	db *gorm.DB
}

func NewGormFeedbackRepository(db *gorm.DB) *GormFeedbackRepository {
	return &GormFeedbackRepository{db: db}
}

func (r *GormFeedbackRepository) Create(feedback *models.Feedback) error {
	return r.db.Create(feedback).Error
}

func (r *GormFeedbackRepository) BulkCreate(feedbacks []models.Feedback) error {
	if len(feedbacks) == 0 {
		return nil
	}
	return r.db.Create(&feedbacks).Error
}

func (r *GormFeedbackRepository) ListByUser(userID uint, limit int) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	query := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&feedbacks).Error
	return feedbacks, err
}

func (r *GormFeedbackRepository) ListByUserAndSentiment(userID uint, sentiment string, limit int) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	query := r.db.Where("user_id = ? AND sentiment = ?", userID, sentiment).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&feedbacks).Error
	return feedbacks, err
}

func (r *GormFeedbackRepository) ListByConversation(conversationID string) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Find(&feedbacks).Error
	return feedbacks, err
}

func (r *GormFeedbackRepository) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Feedback{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *GormFeedbackRepository) SentimentCounts(userID uint) (map[string]int, error) {
	type row struct {
		Sentiment string
		Count     int
	}
	var rows []row
	err := r.db.Model(&models.Feedback{}).
		Select("sentiment, count(*) as count").
		Where("user_id = ?", userID).
		Group("sentiment").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int{
		models.SentimentPositive: 0,
		models.SentimentNeutral:  0,
		models.SentimentNegative: 0,
		models.SentimentMixed:    0,
	}
	for _, r := range rows {
		if _, ok := counts[r.Sentiment]; ok {
			counts[r.Sentiment] = r.Count
		}
	}
	return counts, nil
}

func (r *GormFeedbackRepository) AverageScore(userID uint) (float64, error) {
	var avg *float64
	err := r.db.Model(&models.Feedback{}).
		Select("avg(sentiment_score)").
		Where("user_id = ?", userID).
		Scan(&avg).Error
	if err != nil {
		return 0.5, err
	}
	if avg == nil {
		return 0.5, nil
	}
	return *avg, nil
}

func (r *GormFeedbackRepository) SaveAnalysis(analysis *models.Analysis) error {
	return r.db.Create(analysis).Error
}

func (r *GormFeedbackRepository) LatestAnalysis(userID uint, conversationID string) (*models.Analysis, error) {
	var analysis models.Analysis
	query := r.db.Where("user_id = ?", userID)
	if conversationID != "" {
		query = query.Where("conversation_id = ?", conversationID)
	}
	err := query.Order("created_at DESC").First(&analysis).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &analysis, nil
}

func (r *GormFeedbackRepository) ListAnalyses(userID uint, limit int) ([]models.Analysis, error) {
	var analyses []models.Analysis
	query := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&analyses).Error
	return analyses, err
}
