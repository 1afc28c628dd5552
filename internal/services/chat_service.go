package services

import (
	"context"
	"database/sql"
	"errors"

	"pulse-chat/internal/domain/chat"
	"pulse-chat/internal/repository"
	pulse_errors "pulse-chat/pkg/errors"
	"pulse-chat/pkg/logger"

	"github.com/google/uuid"
)

// ChatService orchestrates the conversation, message and membership
// stores behind the validation the HTTP layer relies on.
type ChatService struct {
	repo *repository.Repository
	log  *logger.Logger
}

func NewChatService(repo *repository.Repository, log *logger.Logger) *ChatService {
	return &ChatService{repo: repo, log: log}
}

type CreateConversationInput struct {
	Kind           string
	Name           string
	Description    string
	IsPrivate      bool
	MaxMembers     int
	CreatorID      uuid.UUID
	ParticipantIDs []uuid.UUID
}

func validatePaging(page, size int) error {
	if page < 1 || size < 1 {
		return pulse_errors.ErrInvalidInput
	}
	return nil
}

func (s *ChatService) ListConversations(ctx context.Context, viewerID uuid.UUID, page, size int) ([]chat.Conversation, int64, error) {
	if err := validatePaging(page, size); err != nil {
		return nil, 0, err
	}
	return s.repo.Conversations.GetUserConversations(ctx, viewerID, page, size)
}

func (s *ChatService) ListConversationsWithUnread(ctx context.Context, viewerID uuid.UUID, page, size int) ([]chat.ConversationWithUnread, int64, error) {
	if err := validatePaging(page, size); err != nil {
		return nil, 0, err
	}
	return s.repo.Conversations.ListWithUnread(ctx, viewerID, page, size)
}

func (s *ChatService) GetConversationsByUserID(ctx context.Context, viewerID uuid.UUID) ([]chat.Conversation, error) {
	return s.repo.Conversations.GetConversationsByUserID(ctx, viewerID)
}

func (s *ChatService) CreateConversation(ctx context.Context, input CreateConversationInput) (chat.Conversation, error) {
	if input.Kind != chat.KindDirect && input.Kind != chat.KindGroup {
		return chat.Conversation{}, pulse_errors.ErrInvalidInput
	}

	conv := chat.Conversation{
		ID:        uuid.New(),
		Kind:      input.Kind,
		CreatorID: input.CreatorID,
		IsPrivate: input.IsPrivate,
	}
	if input.Name != "" {
		conv.Name = sql.NullString{String: input.Name, Valid: true}
	}
	if input.Description != "" {
		conv.Description = sql.NullString{String: input.Description, Valid: true}
	}
	if input.MaxMembers > 0 {
		conv.MaxMembers = sql.NullInt32{Int32: int32(input.MaxMembers), Valid: true}
	}

	participants := []chat.Participant{{
		ParticipantID: input.CreatorID,
		Role:          chat.RoleOwner,
	}}
	seen := map[uuid.UUID]struct{}{input.CreatorID: {}}
	for _, pid := range input.ParticipantIDs {
		if _, ok := seen[pid]; ok {
			continue
		}
		seen[pid] = struct{}{}
		participants = append(participants, chat.Participant{
			ParticipantID: pid,
			Role:          chat.RoleMember,
		})
	}

	if err := s.repo.Conversations.CreateWithParticipants(ctx, &conv, participants); err != nil {
		return chat.Conversation{}, err
	}
	return conv, nil
}

func (s *ChatService) GetConversation(ctx context.Context, id uuid.UUID) (chat.Conversation, error) {
	return s.repo.Conversations.GetByID(ctx, id)
}

func (s *ChatService) UpdateConversation(ctx context.Context, c chat.Conversation) error {
	return s.repo.Conversations.Update(ctx, c)
}

func (s *ChatService) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	return s.repo.Conversations.Delete(ctx, id)
}

// GetOrCreateDirectConversation is the dedup path for direct
// conversations: lookup, create on NotFound, and re-lookup when a
// concurrent creator won the unique-key race.
func (s *ChatService) GetOrCreateDirectConversation(ctx context.Context, userID, otherID uuid.UUID) (chat.Conversation, error) {
	if userID == otherID {
		return chat.Conversation{}, pulse_errors.ErrInvalidInput
	}

	conv, err := s.repo.Conversations.GetDirect(ctx, userID, otherID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, pulse_errors.ErrNotFound) {
		return chat.Conversation{}, err
	}

	conv, err = s.repo.Conversations.CreateDirect(ctx, userID, otherID)
	if errors.Is(err, pulse_errors.ErrAlreadyExists) {
		return s.repo.Conversations.GetDirect(ctx, userID, otherID)
	}
	return conv, err
}

func (s *ChatService) GetDirectConversation(ctx context.Context, userID, otherID uuid.UUID) (chat.Conversation, error) {
	return s.repo.Conversations.GetDirect(ctx, userID, otherID)
}

type SendMessageInput struct {
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
	Type           string
	ParentID       uuid.NullUUID
}

func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (chat.Message, error) {
	if input.Content == "" {
		return chat.Message{}, pulse_errors.ErrInvalidInput
	}
	switch input.Type {
	case "":
		input.Type = chat.TypeText
	case chat.TypeText, chat.TypeImage, chat.TypeFile, chat.TypeVideo, chat.TypeAudio, chat.TypeSystem:
	default:
		return chat.Message{}, pulse_errors.ErrInvalidInput
	}

	member, err := s.repo.Memberships.IsUserMember(ctx, input.ConversationID, input.SenderID)
	if err != nil {
		return chat.Message{}, err
	}
	if !member {
		return chat.Message{}, pulse_errors.ErrNotMember
	}

	msg := chat.Message{
		ID:             uuid.New(),
		ConversationID: input.ConversationID,
		SenderID:       input.SenderID,
		Content:        input.Content,
		Type:           input.Type,
		ParentID:       input.ParentID,
	}
	if err := s.repo.Messages.Create(ctx, &msg); err != nil {
		return chat.Message{}, err
	}
	return msg, nil
}

func (s *ChatService) ListMessages(ctx context.Context, conversationID, viewerID uuid.UUID, page, size int) ([]chat.Message, int64, error) {
	if err := validatePaging(page, size); err != nil {
		return nil, 0, err
	}
	return s.repo.Messages.GetConversationMessages(ctx, conversationID, viewerID, page, size)
}

func (s *ChatService) GetMessage(ctx context.Context, id uuid.UUID) (chat.Message, error) {
	return s.repo.Messages.GetByID(ctx, id)
}

// EditMessage lets the original sender change content/type. Sender and
// conversation are immutable after creation.
func (s *ChatService) EditMessage(ctx context.Context, messageID, editorID uuid.UUID, content, msgType string) (chat.Message, error) {
	msg, err := s.repo.Messages.GetByID(ctx, messageID)
	if err != nil {
		return chat.Message{}, err
	}
	if msg.SenderID != editorID {
		return chat.Message{}, pulse_errors.ErrForbidden
	}
	if content != "" {
		msg.Content = content
	}
	if msgType != "" {
		msg.Type = msgType
	}
	if err := s.repo.Messages.Update(ctx, msg); err != nil {
		return chat.Message{}, err
	}
	return s.repo.Messages.GetByID(ctx, messageID)
}

func (s *ChatService) DeleteMessage(ctx context.Context, messageID, callerID uuid.UUID) error {
	msg, err := s.repo.Messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != callerID {
		return pulse_errors.ErrForbidden
	}
	return s.repo.Messages.Delete(ctx, messageID)
}

func (s *ChatService) MarkMessagesAsRead(ctx context.Context, readerID uuid.UUID, messageIDs []uuid.UUID) error {
	return s.repo.Messages.MarkMessagesAsRead(ctx, readerID, messageIDs)
}

func (s *ChatService) GetUnreadCount(ctx context.Context, readerID, conversationID uuid.UUID) (int64, error) {
	return s.repo.Messages.GetUnreadCount(ctx, readerID, conversationID)
}

func (s *ChatService) AddMember(ctx context.Context, conversationID, userID uuid.UUID, role string) error {
	if role == "" {
		role = chat.RoleMember
	}
	return s.repo.Memberships.AddMember(ctx, &chat.Participant{
		ConversationID: conversationID,
		ParticipantID:  userID,
		Role:           role,
	})
}

func (s *ChatService) RemoveMember(ctx context.Context, conversationID, userID uuid.UUID) error {
	return s.repo.Memberships.RemoveMember(ctx, conversationID, userID)
}

func (s *ChatService) GetRoomMembers(ctx context.Context, conversationID uuid.UUID) ([]chat.Participant, error) {
	return s.repo.Memberships.GetRoomMembers(ctx, conversationID)
}

func (s *ChatService) IsUserMember(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	return s.repo.Memberships.IsUserMember(ctx, conversationID, userID)
}

func (s *ChatService) UpdateMemberRole(ctx context.Context, conversationID, userID uuid.UUID, role string) error {
	return s.repo.Memberships.UpdateMemberRole(ctx, conversationID, userID, role)
}
