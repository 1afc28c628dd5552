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
)

type PostgresMembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &PostgresMembershipRepository{db: db}
}

func (r *PostgresMembershipRepository) AddMember(ctx context.Context, p *chat.Participant) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now()
	}
	if p.Role == "" {
		p.Role = chat.RoleMember
	}

	res := r.db.WithContext(ctx).Create(p)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return pulse_errors.ErrAlreadyExists
		}
		return fmt.Errorf("add member: %w", res.Error)
	}
	return nil
}

func (r *PostgresMembershipRepository) RemoveMember(ctx context.Context, conversationID, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Delete(&chat.Participant{}, "conversation_id = ? AND participant_id = ?", conversationID, userID)
	if res.Error != nil {
		return fmt.Errorf("remove member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return pulse_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresMembershipRepository) GetRoomMembers(ctx context.Context, conversationID uuid.UUID) ([]chat.Participant, error) {
	var participants []chat.Participant
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("joined_at ASC").
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return participants, nil
}

// IsUserMember reports membership as a boolean; a missing row is false,
// not an error. Callers gate on the boolean here, unlike the
// NotFound-raising single-entity lookups.
func (r *PostgresMembershipRepository) IsUserMember(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&chat.Participant{}).
		Where("conversation_id = ? AND participant_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return count > 0, nil
}

func (r *PostgresMembershipRepository) UpdateMemberRole(ctx context.Context, conversationID, userID uuid.UUID, role string) error {
	switch role {
	case chat.RoleOwner, chat.RoleAdmin, chat.RoleModerator, chat.RoleMember:
	default:
		return pulse_errors.ErrInvalidInput
	}

	res := r.db.WithContext(ctx).
		Model(&chat.Participant{}).
		Where("conversation_id = ? AND participant_id = ?", conversationID, userID).
		Update("role", role)
	if res.Error != nil {
		return fmt.Errorf("update member role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return pulse_errors.ErrNotFound
	}
	return nil
}
