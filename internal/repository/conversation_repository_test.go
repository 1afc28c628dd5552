package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"pulse-chat/internal/domain/chat"
	"pulse-chat/internal/repository"
	pulse_errors "pulse-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestCreateAndGetConversation(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	conv := chat.Conversation{
		Kind:      chat.KindGroup,
		Name:      sql.NullString{String: "general", Valid: true},
		CreatorID: uuid.New(),
	}
	if err := repo.Conversations.Create(ctx, &conv); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if conv.ID == uuid.Nil {
		t.Fatal("expected an id to be assigned")
	}
	if conv.CreatedAt.IsZero() || conv.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be stamped")
	}

	got, err := repo.Conversations.GetByID(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name.String != "general" || got.Kind != chat.KindGroup {
		t.Fatalf("unexpected conversation: %+v", got)
	}
}

func TestGetConversationNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Conversations.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, pulse_errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateConversation(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	conv := chat.Conversation{Kind: chat.KindGroup, CreatorID: uuid.New()}
	if err := repo.Conversations.Create(ctx, &conv); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	conv.Name = sql.NullString{String: "renamed", Valid: true}
	conv.IsPrivate = true
	if err := repo.Conversations.Update(ctx, conv); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.Conversations.GetByID(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name.String != "renamed" || !got.IsPrivate {
		t.Fatalf("update not persisted: %+v", got)
	}

	missing := chat.Conversation{ID: uuid.New()}
	if err := repo.Conversations.Update(ctx, missing); !errors.Is(err, pulse_errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing row, got %v", err)
	}
}

func TestCreateWithParticipants(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	owner, member := uuid.New(), uuid.New()

	conv := chat.Conversation{Kind: chat.KindGroup, CreatorID: owner}
	participants := []chat.Participant{
		{ParticipantID: owner, Role: chat.RoleOwner},
		{ParticipantID: member},
	}
	if err := repo.Conversations.CreateWithParticipants(ctx, &conv, participants); err != nil {
		t.Fatalf("CreateWithParticipants failed: %v", err)
	}
	if len(conv.Participants) != 2 {
		t.Fatalf("expected 2 participants on returned conversation, got %d", len(conv.Participants))
	}

	got, err := repo.Conversations.GetByID(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Participants) != 2 {
		t.Fatalf("expected 2 persisted participants, got %d", len(got.Participants))
	}
	roles := make(map[uuid.UUID]string, len(got.Participants))
	for _, p := range got.Participants {
		roles[p.ParticipantID] = p.Role
	}
	if roles[owner] != chat.RoleOwner || roles[member] != chat.RoleMember {
		t.Fatalf("unexpected roles: %v", roles)
	}
}

func TestCreateWithParticipantsRollsBack(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	owner, member := uuid.New(), uuid.New()

	conv := chat.Conversation{Kind: chat.KindGroup, CreatorID: owner}
	// the duplicated member row violates the membership unique index,
	// which must take the conversation insert down with it
	participants := []chat.Participant{
		{ParticipantID: owner, Role: chat.RoleOwner},
		{ParticipantID: member},
		{ParticipantID: member},
	}
	err := repo.Conversations.CreateWithParticipants(ctx, &conv, participants)
	if !errors.Is(err, pulse_errors.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	if _, err := repo.Conversations.GetByID(ctx, conv.ID); !errors.Is(err, pulse_errors.ErrNotFound) {
		t.Fatalf("expected conversation insert to roll back, got %v", err)
	}
}

func TestDeleteConversationCascades(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()

	u1, u2 := uuid.New(), uuid.New()
	conv, err := repo.Conversations.CreateDirect(ctx, u1, u2)
	if err != nil {
		t.Fatalf("CreateDirect failed: %v", err)
	}

	msg := chat.Message{ConversationID: conv.ID, SenderID: u1, Content: "hello", Type: chat.TypeText}
	if err := repo.Messages.Create(ctx, &msg); err != nil {
		t.Fatalf("Create message failed: %v", err)
	}
	if err := repo.Messages.MarkMessagesAsRead(ctx, u2, []uuid.UUID{msg.ID}); err != nil {
		t.Fatalf("MarkMessagesAsRead failed: %v", err)
	}

	if err := repo.Conversations.Delete(ctx, conv.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var msgCount, partCount, readCount int64
	db.Model(&chat.Message{}).Where("conversation_id = ?", conv.ID).Count(&msgCount)
	db.Model(&chat.Participant{}).Where("conversation_id = ?", conv.ID).Count(&partCount)
	db.Model(&chat.MessageRead{}).Where("message_id = ?", msg.ID).Count(&readCount)
	if msgCount != 0 || partCount != 0 || readCount != 0 {
		t.Fatalf("expected cascade delete, got messages=%d participants=%d reads=%d",
			msgCount, partCount, readCount)
	}

	if err := repo.Conversations.Delete(ctx, conv.ID); !errors.Is(err, pulse_errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func seedConversations(t *testing.T, repo *repository.Repository, db *gorm.DB, userID uuid.UUID, n int) []uuid.UUID {
	t.Helper()
	ctx := context.Background()
	base := time.Now().Add(-time.Duration(n) * time.Minute)

	ids := make([]uuid.UUID, 0, n)
	for i := 0; i < n; i++ {
		conv := chat.Conversation{Kind: chat.KindGroup, CreatorID: userID}
		if err := repo.Conversations.Create(ctx, &conv); err != nil {
			t.Fatalf("Create conversation %d failed: %v", i, err)
		}
		if err := repo.Memberships.AddMember(ctx, &chat.Participant{
			ConversationID: conv.ID,
			ParticipantID:  userID,
			Role:           chat.RoleOwner,
		}); err != nil {
			t.Fatalf("AddMember %d failed: %v", i, err)
		}
		// distinct activity times so the listing order is stable
		stamp := base.Add(time.Duration(i) * time.Minute)
		if err := db.Model(&chat.Conversation{}).
			Where("id = ?", conv.ID).
			Update("updated_at", stamp).Error; err != nil {
			t.Fatalf("stamp conversation %d failed: %v", i, err)
		}
		ids = append(ids, conv.ID)
	}
	return ids
}

func TestListConversationsPagination(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	seedConversations(t, repo, db, userID, 25)

	page1, total, err := repo.Conversations.GetUserConversations(ctx, userID, 1, 10)
	if err != nil {
		t.Fatalf("GetUserConversations page 1 failed: %v", err)
	}
	if len(page1) != 10 || total != 25 {
		t.Fatalf("page 1: expected 10 items total 25, got %d items total %d", len(page1), total)
	}

	page3, total, err := repo.Conversations.GetUserConversations(ctx, userID, 3, 10)
	if err != nil {
		t.Fatalf("GetUserConversations page 3 failed: %v", err)
	}
	if len(page3) != 5 || total != 25 {
		t.Fatalf("page 3: expected 5 items total 25, got %d items total %d", len(page3), total)
	}

	// concatenating all pages reproduces the full listing with no gaps
	// or overlaps
	seen := make(map[uuid.UUID]bool)
	var lastActivity time.Time
	first := true
	for page := 1; page <= 3; page++ {
		items, _, err := repo.Conversations.GetUserConversations(ctx, userID, page, 10)
		if err != nil {
			t.Fatalf("page %d failed: %v", page, err)
		}
		for _, c := range items {
			if seen[c.ID] {
				t.Fatalf("conversation %s returned twice", c.ID)
			}
			seen[c.ID] = true
			if !first && c.UpdatedAt.After(lastActivity) {
				t.Fatalf("ordering violated: %v after %v", c.UpdatedAt, lastActivity)
			}
			lastActivity = c.UpdatedAt
			first = false
		}
	}
	if len(seen) != 25 {
		t.Fatalf("expected 25 distinct conversations across pages, got %d", len(seen))
	}
}

func TestGetConversationsByUserID(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	seedConversations(t, repo, db, userID, 3)

	items, err := repo.Conversations.GetConversationsByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("GetConversationsByUserID failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 conversations, got %d", len(items))
	}

	other, err := repo.Conversations.GetConversationsByUserID(ctx, uuid.New())
	if err != nil {
		t.Fatalf("GetConversationsByUserID for stranger failed: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no conversations for stranger, got %d", len(other))
	}
}

func TestDirectConversationSymmetry(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()

	created, err := repo.Conversations.CreateDirect(ctx, u1, u2)
	if err != nil {
		t.Fatalf("CreateDirect failed: %v", err)
	}
	if created.Kind != chat.KindDirect {
		t.Fatalf("expected direct kind, got %q", created.Kind)
	}
	if len(created.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(created.Participants))
	}

	forward, err := repo.Conversations.GetDirect(ctx, u1, u2)
	if err != nil {
		t.Fatalf("GetDirect(u1, u2) failed: %v", err)
	}
	reverse, err := repo.Conversations.GetDirect(ctx, u2, u1)
	if err != nil {
		t.Fatalf("GetDirect(u2, u1) failed: %v", err)
	}
	if forward.ID != created.ID || reverse.ID != created.ID {
		t.Fatalf("expected same conversation both ways: %s / %s / %s",
			created.ID, forward.ID, reverse.ID)
	}
}

func TestDirectConversationDedup(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()

	if _, err := repo.Conversations.CreateDirect(ctx, u1, u2); err != nil {
		t.Fatalf("first CreateDirect failed: %v", err)
	}
	// same pair in either order hits the unique direct key
	if _, err := repo.Conversations.CreateDirect(ctx, u2, u1); !errors.Is(err, pulse_errors.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetDirectConversationNotFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Conversations.GetDirect(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, pulse_errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListWithUnread(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()

	conv, err := repo.Conversations.CreateDirect(ctx, u1, u2)
	if err != nil {
		t.Fatalf("CreateDirect failed: %v", err)
	}

	base := time.Now().Add(-time.Hour)
	var msgIDs []uuid.UUID
	for i, content := range []string{"first", "second", "third"} {
		msg := chat.Message{
			ConversationID: conv.ID,
			SenderID:       u1,
			Content:        content,
			Type:           chat.TypeText,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Messages.Create(ctx, &msg); err != nil {
			t.Fatalf("Create message %d failed: %v", i, err)
		}
		msgIDs = append(msgIDs, msg.ID)
	}

	items, total, err := repo.Conversations.ListWithUnread(ctx, u2, 1, 10)
	if err != nil {
		t.Fatalf("ListWithUnread failed: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected one conversation, got %d (total %d)", len(items), total)
	}
	if items[0].UnreadCount != 3 {
		t.Fatalf("expected 3 unread, got %d", items[0].UnreadCount)
	}
	if items[0].LastMessage == nil || items[0].LastMessage.Content != "third" {
		t.Fatalf("expected last message %q, got %+v", "third", items[0].LastMessage)
	}

	if err := repo.Messages.MarkMessagesAsRead(ctx, u2, msgIDs[:1]); err != nil {
		t.Fatalf("MarkMessagesAsRead failed: %v", err)
	}
	items, _, err = repo.Conversations.ListWithUnread(ctx, u2, 1, 10)
	if err != nil {
		t.Fatalf("ListWithUnread after mark failed: %v", err)
	}
	if items[0].UnreadCount != 2 {
		t.Fatalf("expected 2 unread after marking one, got %d", items[0].UnreadCount)
	}

	// the sender's own messages never count as unread for the sender
	items, _, err = repo.Conversations.ListWithUnread(ctx, u1, 1, 10)
	if err != nil {
		t.Fatalf("ListWithUnread for sender failed: %v", err)
	}
	if items[0].UnreadCount != 0 {
		t.Fatalf("expected 0 unread for sender, got %d", items[0].UnreadCount)
	}
}

func TestListWithUnreadEmptyConversation(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()

	if _, err := repo.Conversations.CreateDirect(ctx, u1, u2); err != nil {
		t.Fatalf("CreateDirect failed: %v", err)
	}

	items, total, err := repo.Conversations.ListWithUnread(ctx, u1, 1, 10)
	if err != nil {
		t.Fatalf("ListWithUnread failed: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected one conversation, got %d (total %d)", len(items), total)
	}
	if items[0].UnreadCount != 0 || items[0].LastMessage != nil {
		t.Fatalf("expected empty conversation row, got unread=%d last=%+v",
			items[0].UnreadCount, items[0].LastMessage)
	}
}
