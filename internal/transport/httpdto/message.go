package httpdto

import (
	"time"

	"pulse-chat/internal/domain/chat"
)

type SendMessageRequest struct {
	Content  string `json:"content"`
	Type     string `json:"type"`
	ParentID string `json:"parent_id"`
}

type EditMessageRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

type MarkReadRequest struct {
	MessageIDs []string `json:"message_ids"`
}

type MessageResponse struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Content        string     `json:"content"`
	Type           string     `json:"type"`
	ParentID       string     `json:"parent_id,omitempty"`
	EditedAt       *time.Time `json:"edited_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type ListMessagesResponse struct {
	Messages []MessageResponse `json:"messages"`
	PageInfo PageInfo          `json:"page_info"`
}

type UnreadCountResponse struct {
	ConversationID string `json:"conversation_id"`
	UnreadCount    int64  `json:"unread_count"`
}

func FromMessage(m chat.Message) MessageResponse {
	resp := MessageResponse{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Content:        m.Content,
		Type:           m.Type,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.ParentID.Valid {
		resp.ParentID = m.ParentID.UUID.String()
	}
	if m.EditedAt.Valid {
		edited := m.EditedAt.Time
		resp.EditedAt = &edited
	}
	return resp
}

func FromMessageSlice(items []chat.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(items))
	for _, m := range items {
		out = append(out, FromMessage(m))
	}
	return out
}
