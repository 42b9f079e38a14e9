package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/conversation"
)

// ConversationStateModel is the persistence model for per-customer dialog
// state. The unique index on customer_id is what guarantees one
// authoritative row per customer under concurrent webhooks.
type ConversationStateModel struct {
	CustomerID uuid.UUID `gorm:"type:uuid;primary_key"`
	Step       string    `gorm:"type:varchar(40);not null"`
	Data       string    `gorm:"type:jsonb;not null;default:'{}'"`
	ExpiresAt  time.Time `gorm:"not null;index"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ConversationStateModel) TableName() string {
	return "conversation_states"
}

// ToDomain converts the persistence model to a domain State. Unreadable
// accumulated data degrades to an empty map rather than failing the turn.
func (m *ConversationStateModel) ToDomain() *conversation.State {
	data := conversation.Data{}
	if m.Data != "" {
		_ = json.Unmarshal([]byte(m.Data), &data)
	}
	return &conversation.State{
		CustomerID: m.CustomerID,
		Step:       conversation.Step(m.Step),
		Data:       data,
		ExpiresAt:  m.ExpiresAt,
	}
}

// FromDomain populates the persistence model from a domain State.
func (m *ConversationStateModel) FromDomain(s *conversation.State) error {
	raw, err := json.Marshal(s.Data)
	if err != nil {
		return err
	}
	m.CustomerID = s.CustomerID
	m.Step = string(s.Step)
	m.Data = string(raw)
	m.ExpiresAt = s.ExpiresAt
	return nil
}
