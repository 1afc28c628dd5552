package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pulse-chat/internal/domain/chat"
	pulse_errors "pulse-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

// Create inserts the message and bumps the parent conversation's
// updated_at to the message timestamp in the same transaction, so the
// most-recently-active ordering never drifts from message history.
// The bump only moves forward: a backfilled message with an older
// timestamp must not rewind the conversation's position.
func (r *PostgresMessageRepository) Create(ctx context.Context, m *chat.Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = m.CreatedAt

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&chat.Conversation{}).
			Where("id = ? AND updated_at < ?", m.ConversationID, m.CreatedAt).
			Update("updated_at", m.CreatedAt).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pulse_errors.ErrAlreadyExists
		}
		return fmt.Errorf("create message %s: %w", m.ID, err)
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (chat.Message, error) {
	var m chat.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.Message{}, pulse_errors.ErrNotFound
		}
		return chat.Message{}, fmt.Errorf("get message %s: %w", id, err)
	}
	return m, nil
}

// Update persists an edit. Only content and type are mutable; sender
// and conversation are fixed at creation.
func (r *PostgresMessageRepository) Update(ctx context.Context, m chat.Message) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"content":    m.Content,
			"type":       m.Type,
			"edited_at":  now,
			"updated_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("update message %s: %w", m.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return pulse_errors.ErrNotFound
	}
	return nil
}

// Delete hard-deletes the message and its read marks.
func (r *PostgresMessageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).
			Delete(&chat.MessageRead{}).Error; err != nil {
			return fmt.Errorf("delete message %s read marks: %w", id, err)
		}
		res := tx.Delete(&chat.Message{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("delete message %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return pulse_errors.ErrNotFound
		}
		return nil
	})
}

// GetConversationMessages lists a page of the conversation's messages,
// newest first. The viewer must be a member; the check runs before any
// message row is read so non-members never see content.
func (r *PostgresMessageRepository) GetConversationMessages(ctx context.Context, conversationID, viewerID uuid.UUID, page, limit int) ([]chat.Message, int64, error) {
	var memberCount int64
	err := r.db.WithContext(ctx).
		Model(&chat.Participant{}).
		Where("conversation_id = ? AND participant_id = ?", conversationID, viewerID).
		Count(&memberCount).Error
	if err != nil {
		return nil, 0, fmt.Errorf("check membership: %w", err)
	}
	if memberCount == 0 {
		return nil, 0, pulse_errors.ErrNotMember
	}

	q := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("conversation_id = ?", conversationID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	offset := (page - 1) * limit
	var messages []chat.Message
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&messages).Error; err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	return messages, total, nil
}

// MarkMessagesAsRead upserts one read mark per message id for the
// reader inside a single transaction. Re-marking updates read_at, so
// the call is idempotent; an empty id list is a no-op. Duplicate ids
// are collapsed first: postgres rejects an ON CONFLICT upsert that
// touches the same conflict key twice in one statement.
func (r *PostgresMessageRepository) MarkMessagesAsRead(ctx context.Context, readerID uuid.UUID, messageIDs []uuid.UUID) error {
	if len(messageIDs) == 0 {
		return nil
	}

	now := time.Now()
	seen := make(map[uuid.UUID]struct{}, len(messageIDs))
	marks := make([]chat.MessageRead, 0, len(messageIDs))
	for _, msgID := range messageIDs {
		if _, ok := seen[msgID]; ok {
			continue
		}
		seen[msgID] = struct{}{}
		marks = append(marks, chat.MessageRead{
			ID:            uuid.New(),
			MessageID:     msgID,
			ParticipantID: readerID,
			ReadAt:        now,
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "participant_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"read_at": now}),
		}).Create(&marks).Error
	})
	if err != nil {
		return fmt.Errorf("mark messages as read: %w", err)
	}
	return nil
}

// GetUnreadCount counts messages in the conversation sent by someone
// other than the reader with no read mark by the reader (anti-join via
// NOT IN).
func (r *PostgresMessageRepository) GetUnreadCount(ctx context.Context, readerID, conversationID uuid.UUID) (int64, error) {
	subQuery := r.db.Model(&chat.MessageRead{}).
		Select("message_id").
		Where("participant_id = ?", readerID)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND id NOT IN (?)",
			conversationID, readerID, subQuery).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}
