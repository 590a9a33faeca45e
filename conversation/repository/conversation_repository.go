package repository

import (
	"errors"
	"time"

	"feedback-analyzer/backend/conversation/models"

	"gorm.io/gorm"
)

// ConversationRepository persists conversations and their messages.
type ConversationRepository interface {
	CreateConversation(conversation *models.Conversation) error
	GetConversation(id string) (*models.Conversation, error)
	ListByUser(userID uint, limit int) ([]models.Conversation, error)
	AppendMessage(message *models.Message) error
	ListMessages(conversationID string, limit int) ([]models.Message, error)
}

type GormConversationRepository struct {
	db *gorm.DB
}

func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

func (r *GormConversationRepository) CreateConversation(conversation *models.Conversation) error {
	return r.db.Create(conversation).Error
}

func (r *GormConversationRepository) GetConversation(id string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.First(&conversation, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conversation, nil
}

// ListByUser returns conversations most recently active first.
func (r *GormConversationRepository) ListByUser(userID uint, limit int) ([]models.Conversation, error) {
	var conversations []models.Conversation
	query := r.db.Where("user_id = ?", userID).Order("updated_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&conversations).Error
	return conversations, err
}

// AppendMessage stores the message and bumps the parent conversation's
// UpdatedAt so recency ordering stays correct.
func (r *GormConversationRepository) AppendMessage(message *models.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", message.ConversationID).
			Update("updated_at", time.Now().UTC()).Error
	})
}

// ListMessages returns the most recent messages in chronological order.
func (r *GormConversationRepository) ListMessages(conversationID string, limit int) ([]models.Message, error) {
	var messages []models.Message
	query := r.db.Where("conversation_id = ?", conversationID).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
