package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pulse-chat/internal/domain/chat"
	"pulse-chat/internal/repository"
	pulse_errors "pulse-chat/pkg/errors"

	"github.com/google/uuid"
)

func newGroupConversation(t *testing.T, repo *repository.Repository) chat.Conversation {
	t.Helper()
	conv := chat.Conversation{Kind: chat.KindGroup, CreatorID: uuid.New()}
	if err := repo.Conversations.Create(context.Background(), &conv); err != nil {
		t.Fatalf("Create conversation failed: %v", err)
	}
	return conv
}

func TestAddAndListMembers(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	conv := newGroupConversation(t, repo)

	base := time.Now().Add(-time.Hour)
	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for i, userID := range users {
		p := chat.Participant{
			ConversationID: conv.ID,
			ParticipantID:  userID,
			Role:           chat.RoleMember,
			JoinedAt:       base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Memberships.AddMember(ctx, &p); err != nil {
			t.Fatalf("AddMember %d failed: %v", i, err)
		}
		if p.ID == uuid.Nil {
			t.Fatal("expected participant id to be assigned")
		}
	}

	members, err := repo.Memberships.GetRoomMembers(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetRoomMembers failed: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
	// join order is preserved
	for i, m := range members {
		if m.ParticipantID != users[i] {
			t.Fatalf("member %d out of order: got %s want %s", i, m.ParticipantID, users[i])
		}
	}
}

func TestAddMemberDuplicate(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	conv := newGroupConversation(t, repo)
	userID := uuid.New()

	first := chat.Participant{ConversationID: conv.ID, ParticipantID: userID}
	if err := repo.Memberships.AddMember(ctx, &first); err != nil {
		t.Fatalf("first AddMember failed: %v", err)
	}
	if first.Role != chat.RoleMember {
		t.Fatalf("expected default role %q, got %q", chat.RoleMember, first.Role)
	}

	again := chat.Participant{ConversationID: conv.ID, ParticipantID: userID}
	if err := repo.Memberships.AddMember(ctx, &again); !errors.Is(err, pulse_errors.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestIsUserMember(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	conv := newGroupConversation(t, repo)
	userID := uuid.New()

	ok, err := repo.Memberships.IsUserMember(ctx, conv.ID, userID)
	if err != nil {
		t.Fatalf("IsUserMember failed: %v", err)
	}
	if ok {
		t.Fatal("expected non-member to report false")
	}

	p := chat.Participant{ConversationID: conv.ID, ParticipantID: userID}
	if err := repo.Memberships.AddMember(ctx, &p); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	ok, err = repo.Memberships.IsUserMember(ctx, conv.ID, userID)
	if err != nil {
		t.Fatalf("IsUserMember after add failed: %v", err)
	}
	if !ok {
		t.Fatal("expected member to report true")
	}
}

func TestRemoveMember(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	conv := newGroupConversation(t, repo)
	userID := uuid.New()

	p := chat.Participant{ConversationID: conv.ID, ParticipantID: userID}
	if err := repo.Memberships.AddMember(ctx, &p); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	if err := repo.Memberships.RemoveMember(ctx, conv.ID, userID); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}

	ok, err := repo.Memberships.IsUserMember(ctx, conv.ID, userID)
	if err != nil {
		t.Fatalf("IsUserMember failed: %v", err)
	}
	if ok {
		t.Fatal("expected removed user to no longer be a member")
	}

	if err := repo.Memberships.RemoveMember(ctx, conv.ID, userID); !errors.Is(err, pulse_errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}
}

func TestUpdateMemberRole(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	conv := newGroupConversation(t, repo)
	userID := uuid.New()

	p := chat.Participant{ConversationID: conv.ID, ParticipantID: userID, Role: chat.RoleMember}
	if err := repo.Memberships.AddMember(ctx, &p); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	if err := repo.Memberships.UpdateMemberRole(ctx, conv.ID, userID, chat.RoleAdmin); err != nil {
		t.Fatalf("UpdateMemberRole failed: %v", err)
	}

	members, err := repo.Memberships.GetRoomMembers(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetRoomMembers failed: %v", err)
	}
	if len(members) != 1 || members[0].Role != chat.RoleAdmin {
		t.Fatalf("role not updated: %+v", members)
	}

	if err := repo.Memberships.UpdateMemberRole(ctx, conv.ID, uuid.New(), chat.RoleAdmin); !errors.Is(err, pulse_errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing membership, got %v", err)
	}

	if err := repo.Memberships.UpdateMemberRole(ctx, conv.ID, userID, "superuser"); !errors.Is(err, pulse_errors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown role, got %v", err)
	}
}
