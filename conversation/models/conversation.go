package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is one chat thread between a user and the analyst. UpdatedAt
// moves forward on every appended message, which drives recency ordering in
// listings.
type Conversation struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Message is one turn in a conversation. Metadata carries turn-type details
// such as which tools the agent used or how many feedbacks an upload held.
type Message struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	ConversationID string         `json:"conversation_id" gorm:"index"`
	Role           string         `json:"role"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata,omitempty" gorm:"serializer:json"`
	CreatedAt      time.Time      `json:"created_at"`
}
