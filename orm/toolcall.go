package orm

import (
	"context"
	"fmt"
	"time"

	"github.com/va6996/aifns/agents"
	"gorm.io/gorm"
)

// ToolCall is one audited capability invocation
type ToolCall struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID string    `gorm:"index;size:64" json:"conversation_id"`
	Turn           int       `json:"turn"`
	Capability     string    `gorm:"size:64" json:"capability"`
	Arguments      string    `json:"arguments"`
	Result         string    `json:"result"`
	DurationMS     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store records tool calls. It satisfies agents.Recorder.
type Store struct {
	db *gorm.DB
}

var _ agents.Recorder = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// RecordToolCall inserts one row per invocation
func (s *Store) RecordToolCall(ctx context.Context, call agents.ToolCall) error {
	row := ToolCall{
		ConversationID: call.ConversationID,
		Turn:           call.Turn,
		Capability:     call.Capability,
		Arguments:      call.Arguments,
		Result:         call.Result,
		DurationMS:     call.Duration.Milliseconds(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record tool call: %w", err)
	}
	return nil
}

// ListToolCalls returns a conversation's invocations in the order they ran
func (s *Store) ListToolCalls(ctx context.Context, conversationID string) ([]ToolCall, error) {
	var calls []ToolCall
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("turn ASC, id ASC").
		Find(&calls).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tool calls: %w", err)
	}
	return calls, nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
