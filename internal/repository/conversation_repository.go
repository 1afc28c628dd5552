package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pulse-chat/internal/domain/chat"
	pulse_errors "pulse-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &PostgresConversationRepository{db: db}
}

func (r *PostgresConversationRepository) Create(ctx context.Context, c *chat.Conversation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	res := r.db.WithContext(ctx).Create(c)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return pulse_errors.ErrAlreadyExists
		}
		return fmt.Errorf("create conversation %s: %w", c.ID, res.Error)
	}
	return nil
}

// CreateWithParticipants inserts the conversation and its initial
// membership rows in one transaction, so a failed member insert never
// leaves an ownerless conversation behind.
func (r *PostgresConversationRepository) CreateWithParticipants(ctx context.Context, c *chat.Conversation, participants []chat.Participant) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	for i := range participants {
		if participants[i].ID == uuid.Nil {
			participants[i].ID = uuid.New()
		}
		participants[i].ConversationID = c.ID
		if participants[i].JoinedAt.IsZero() {
			participants[i].JoinedAt = now
		}
		if participants[i].Role == "" {
			participants[i].Role = chat.RoleMember
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		if len(participants) == 0 {
			return nil
		}
		if err := tx.Create(&participants).Error; err != nil {
			return err
		}
		c.Participants = participants
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pulse_errors.ErrAlreadyExists
		}
		return fmt.Errorf("create conversation %s: %w", c.ID, err)
	}
	return nil
}

func (r *PostgresConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (chat.Conversation, error) {
	var c chat.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.Conversation{}, pulse_errors.ErrNotFound
		}
		return chat.Conversation{}, fmt.Errorf("get conversation %s: %w", id, err)
	}
	return c, nil
}

func (r *PostgresConversationRepository) Update(ctx context.Context, c chat.Conversation) error {
	res := r.db.WithContext(ctx).
		Model(&chat.Conversation{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"name":        c.Name,
			"description": c.Description,
			"is_private":  c.IsPrivate,
			"max_members": c.MaxMembers,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("update conversation %s: %w", c.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return pulse_errors.ErrNotFound
	}
	return nil
}

// Delete removes the conversation and cascades to its messages, read
// marks and memberships in one transaction.
func (r *PostgresConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		msgIDs := tx.Model(&chat.Message{}).
			Select("id").
			Where("conversation_id = ?", id)

		if err := tx.Where("message_id IN (?)", msgIDs).
			Delete(&chat.MessageRead{}).Error; err != nil {
			return fmt.Errorf("delete conversation %s read marks: %w", id, err)
		}
		if err := tx.Where("conversation_id = ?", id).
			Delete(&chat.Message{}).Error; err != nil {
			return fmt.Errorf("delete conversation %s messages: %w", id, err)
		}
		if err := tx.Where("conversation_id = ?", id).
			Delete(&chat.Participant{}).Error; err != nil {
			return fmt.Errorf("delete conversation %s participants: %w", id, err)
		}

		res := tx.Delete(&chat.Conversation{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("delete conversation %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return pulse_errors.ErrNotFound
		}
		return nil
	})
}

func (r *PostgresConversationRepository) GetUserConversations(ctx context.Context, userID uuid.UUID, page, limit int) ([]chat.Conversation, int64, error) {
	var conversations []chat.Conversation
	var total int64

	subQuery := r.db.Model(&chat.Participant{}).
		Select("conversation_id").
		Where("participant_id = ?", userID)

	q := r.db.WithContext(ctx).
		Model(&chat.Conversation{}).
		Where("id IN (?)", subQuery)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count user conversations: %w", err)
	}

	offset := (page - 1) * limit
	if err := q.
		Preload("Participants").
		Order("updated_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&conversations).Error; err != nil {
		return nil, 0, fmt.Errorf("list user conversations: %w", err)
	}

	return conversations, total, nil
}

func (r *PostgresConversationRepository) GetConversationsByUserID(ctx context.Context, userID uuid.UUID) ([]chat.Conversation, error) {
	var conversations []chat.Conversation

	subQuery := r.db.Model(&chat.Participant{}).
		Select("conversation_id").
		Where("participant_id = ?", userID)

	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("id IN (?)", subQuery).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("list user conversations: %w", err)
	}
	return conversations, nil
}

// CreateDirect creates a direct conversation between ownerID and
// memberID with both participant rows in one transaction. The unique
// direct_key index rejects a second conversation for the same pair;
// that surfaces as ErrAlreadyExists.
func (r *PostgresConversationRepository) CreateDirect(ctx context.Context, ownerID, memberID uuid.UUID) (chat.Conversation, error) {
	now := time.Now()
	conv := chat.Conversation{
		ID:        uuid.New(),
		Kind:      chat.KindDirect,
		DirectKey: sql.NullString{String: chat.DirectKey(ownerID, memberID), Valid: true},
		CreatorID: ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return err
		}
		participants := []chat.Participant{
			{ID: uuid.New(), ConversationID: conv.ID, ParticipantID: ownerID, Role: chat.RoleOwner, JoinedAt: now},
			{ID: uuid.New(), ConversationID: conv.ID, ParticipantID: memberID, Role: chat.RoleMember, JoinedAt: now},
		}
		if err := tx.Create(&participants).Error; err != nil {
			return err
		}
		conv.Participants = participants
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return chat.Conversation{}, pulse_errors.ErrAlreadyExists
		}
		return chat.Conversation{}, fmt.Errorf("create direct conversation: %w", err)
	}
	return conv, nil
}

func (r *PostgresConversationRepository) GetDirect(ctx context.Context, userID1, userID2 uuid.UUID) (chat.Conversation, error) {
	var c chat.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("kind = ? AND direct_key = ?", chat.KindDirect, chat.DirectKey(userID1, userID2)).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.Conversation{}, pulse_errors.ErrNotFound
		}
		return chat.Conversation{}, fmt.Errorf("get direct conversation: %w", err)
	}
	return c, nil
}

// conversationUnreadRow is the flat scan target for the joined
// listing query below.
type conversationUnreadRow struct {
	ID            uuid.UUID
	Kind          string
	Name          sql.NullString
	Description   sql.NullString
	IsPrivate     bool
	MaxMembers    sql.NullInt32
	DirectKey     sql.NullString
	CreatorID     uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
	UnreadCount   int64
	LastMessageID uuid.NullUUID
	LastSenderID  uuid.NullUUID
	LastContent   sql.NullString
	LastType      sql.NullString
	LastParentID  uuid.NullUUID
	LastEditedAt  sql.NullTime
	LastCreatedAt sql.NullTime
	LastUpdatedAt sql.NullTime
}

const listWithUnreadSQL = `
SELECT c.id, c.kind, c.name, c.description, c.is_private, c.max_members,
       c.direct_key, c.creator_id, c.created_at, c.updated_at,
       COALESCE(u.unread_count, 0) AS unread_count,
       lm.id AS last_message_id, lm.sender_id AS last_sender_id,
       lm.content AS last_content, lm.type AS last_type,
       lm.parent_id AS last_parent_id, lm.edited_at AS last_edited_at,
       lm.created_at AS last_created_at, lm.updated_at AS last_updated_at
FROM conversations c
JOIN participants p
  ON p.conversation_id = c.id AND p.participant_id = ?
LEFT JOIN (
    SELECT m.conversation_id, COUNT(*) AS unread_count
    FROM messages m
    LEFT JOIN message_reads r
      ON r.message_id = m.id AND r.participant_id = ?
    WHERE m.sender_id <> ? AND r.id IS NULL
    GROUP BY m.conversation_id
) u ON u.conversation_id = c.id
LEFT JOIN messages lm ON lm.id = (
    SELECT id FROM messages
    WHERE conversation_id = c.id
    ORDER BY created_at DESC
    LIMIT 1
)
ORDER BY c.updated_at DESC
LIMIT ? OFFSET ?`

// ListWithUnread returns the viewer's conversation page with the
// unread count (anti-join against message_reads) and the latest
// message attached, all from a single joined query.
func (r *PostgresConversationRepository) ListWithUnread(ctx context.Context, viewerID uuid.UUID, page, limit int) ([]chat.ConversationWithUnread, int64, error) {
	var total int64

	subQuery := r.db.Model(&chat.Participant{}).
		Select("conversation_id").
		Where("participant_id = ?", viewerID)

	if err := r.db.WithContext(ctx).
		Model(&chat.Conversation{}).
		Where("id IN (?)", subQuery).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count user conversations: %w", err)
	}

	offset := (page - 1) * limit
	var rows []conversationUnreadRow
	if err := r.db.WithContext(ctx).
		Raw(listWithUnreadSQL, viewerID, viewerID, viewerID, limit, offset).
		Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list conversations with unread: %w", err)
	}

	result := make([]chat.ConversationWithUnread, 0, len(rows))
	for _, row := range rows {
		item := chat.ConversationWithUnread{
			Conversation: chat.Conversation{
				ID:          row.ID,
				Kind:        row.Kind,
				Name:        row.Name,
				Description: row.Description,
				IsPrivate:   row.IsPrivate,
				MaxMembers:  row.MaxMembers,
				DirectKey:   row.DirectKey,
				CreatorID:   row.CreatorID,
				CreatedAt:   row.CreatedAt,
				UpdatedAt:   row.UpdatedAt,
			},
			UnreadCount: row.UnreadCount,
		}
		if row.LastMessageID.Valid {
			item.LastMessage = &chat.Message{
				ID:             row.LastMessageID.UUID,
				ConversationID: row.ID,
				SenderID:       row.LastSenderID.UUID,
				Content:        row.LastContent.String,
				Type:           row.LastType.String,
				ParentID:       row.LastParentID,
				EditedAt:       row.LastEditedAt,
				CreatedAt:      row.LastCreatedAt.Time,
				UpdatedAt:      row.LastUpdatedAt.Time,
			}
		}
		result = append(result, item)
	}
	return result, total, nil
}
