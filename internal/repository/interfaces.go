package repository

import (
	"context"

	"github.com/google/uuid"

	"pulse-chat/internal/domain/chat"
	"pulse-chat/internal/domain/user"
)

type ConversationRepository interface {
	Create(ctx context.Context, c *chat.Conversation) error
	CreateWithParticipants(ctx context.Context, c *chat.Conversation, participants []chat.Participant) error
	GetByID(ctx context.Context, id uuid.UUID) (chat.Conversation, error)
	Update(ctx context.Context, c chat.Conversation) error
	Delete(ctx context.Context, id uuid.UUID) error

	GetUserConversations(ctx context.Context, userID uuid.UUID, page, limit int) ([]chat.Conversation, int64, error)
	GetConversationsByUserID(ctx context.Context, userID uuid.UUID) ([]chat.Conversation, error)
	CreateDirect(ctx context.Context, ownerID, memberID uuid.UUID) (chat.Conversation, error)
	GetDirect(ctx context.Context, userID1, userID2 uuid.UUID) (chat.Conversation, error)
	ListWithUnread(ctx context.Context, viewerID uuid.UUID, page, limit int) ([]chat.ConversationWithUnread, int64, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *chat.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (chat.Message, error)
	Update(ctx context.Context, m chat.Message) error
	Delete(ctx context.Context, id uuid.UUID) error

	GetConversationMessages(ctx context.Context, conversationID, viewerID uuid.UUID, page, limit int) ([]chat.Message, int64, error)
	MarkMessagesAsRead(ctx context.Context, readerID uuid.UUID, messageIDs []uuid.UUID) error
	GetUnreadCount(ctx context.Context, readerID, conversationID uuid.UUID) (int64, error)
}

type MembershipRepository interface {
	AddMember(ctx context.Context, p *chat.Participant) error
	RemoveMember(ctx context.Context, conversationID, userID uuid.UUID) error
	GetRoomMembers(ctx context.Context, conversationID uuid.UUID) ([]chat.Participant, error)
	IsUserMember(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	UpdateMemberRole(ctx context.Context, conversationID, userID uuid.UUID, role string) error
}

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
}
