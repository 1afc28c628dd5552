package httpdto

import (
	"time"

	"pulse-chat/internal/domain/chat"
)

type CreateConversationRequest struct {
	Kind         string   `json:"kind"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	IsPrivate    bool     `json:"is_private"`
	MaxMembers   int      `json:"max_members"`
	Participants []string `json:"participants"`
}

type UpdateConversationRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPrivate   *bool  `json:"is_private"`
	MaxMembers  int    `json:"max_members"`
}

type ConversationResponse struct {
	ID           string               `json:"id"`
	Kind         string               `json:"kind"`
	Name         string               `json:"name,omitempty"`
	Description  string               `json:"description,omitempty"`
	IsPrivate    bool                 `json:"is_private"`
	MaxMembers   int                  `json:"max_members,omitempty"`
	CreatorID    string               `json:"creator_id"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	Participants []MemberResponse     `json:"participants,omitempty"`
	UnreadCount  *int64               `json:"unread_count,omitempty"`
	LastMessage  *MessageResponse     `json:"last_message,omitempty"`
}

type MemberResponse struct {
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type ListConversationsResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
	PageInfo      PageInfo               `json:"page_info"`
}

func FromConversation(c chat.Conversation) ConversationResponse {
	resp := ConversationResponse{
		ID:        c.ID.String(),
		Kind:      c.Kind,
		IsPrivate: c.IsPrivate,
		CreatorID: c.CreatorID.String(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Name.Valid {
		resp.Name = c.Name.String
	}
	if c.Description.Valid {
		resp.Description = c.Description.String
	}
	if c.MaxMembers.Valid {
		resp.MaxMembers = int(c.MaxMembers.Int32)
	}
	for _, p := range c.Participants {
		resp.Participants = append(resp.Participants, FromParticipant(p))
	}
	return resp
}

func FromParticipant(p chat.Participant) MemberResponse {
	return MemberResponse{
		UserID:   p.ParticipantID.String(),
		Role:     p.Role,
		JoinedAt: p.JoinedAt,
	}
}

func FromConversationSlice(items []chat.Conversation) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(items))
	for _, c := range items {
		out = append(out, FromConversation(c))
	}
	return out
}

func FromConversationWithUnread(c chat.ConversationWithUnread) ConversationResponse {
	resp := FromConversation(c.Conversation)
	count := c.UnreadCount
	resp.UnreadCount = &count
	if c.LastMessage != nil {
		msg := FromMessage(*c.LastMessage)
		resp.LastMessage = &msg
	}
	return resp
}

func FromConversationWithUnreadSlice(items []chat.ConversationWithUnread) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(items))
	for _, c := range items {
		out = append(out, FromConversationWithUnread(c))
	}
	return out
}
