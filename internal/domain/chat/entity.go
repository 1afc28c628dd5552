package chat

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Conversation kinds
const (
	KindDirect = "direct"
	KindGroup  = "group"
)

// Participant roles
const (
	RoleOwner     = "owner"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleMember    = "member"
)

// Message types
const (
	TypeText   = "text"
	TypeImage  = "image"
	TypeFile   = "file"
	TypeVideo  = "video"
	TypeAudio  = "audio"
	TypeSystem = "system"
)

// Conversation represents the conversations table
type Conversation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind        string    `gorm:"not null"`
	Name        sql.NullString
	Description sql.NullString
	IsPrivate   bool
	MaxMembers  sql.NullInt32
	// DirectKey is the canonicalized participant-pair key for direct
	// conversations; its unique index is what enforces the one
	// direct conversation per pair invariant.
	DirectKey sql.NullString `gorm:"uniqueIndex"`
	CreatorID uuid.UUID      `gorm:"type:uuid;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Participants []Participant `gorm:"foreignKey:ConversationID"`
}

// Participant represents the participants table
type Participant struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_participant"`
	ParticipantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_participant"`
	Role           string    `gorm:"not null"`
	JoinedAt       time.Time
}

// Message represents the messages table
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null"`
	Content        string
	Type           string `gorm:"not null"`
	ParentID       uuid.NullUUID
	EditedAt       sql.NullTime
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MessageRead represents the message_reads table
type MessageRead struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	MessageID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_message_reader"`
	ParticipantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_message_reader"`
	ReadAt        time.Time
}

// ConversationWithUnread is the per-viewer listing row: a conversation
// plus its unread count and most recent message. Computed per request,
// never persisted.
type ConversationWithUnread struct {
	Conversation
	UnreadCount int64
	LastMessage *Message
}

// DirectKey canonicalizes an unordered participant pair so that
// (a, b) and (b, a) map to the same key.
func DirectKey(a, b uuid.UUID) string {
	first, second := a.String(), b.String()
	if strings.Compare(first, second) > 0 {
		first, second = second, first
	}
	return first + ":" + second
}

func (Conversation) TableName() string {
	return "conversations"
}

func (Participant) TableName() string {
	return "participants"
}

func (Message) TableName() string {
	return "messages"
}

func (MessageRead) TableName() string {
	return "message_reads"
}
