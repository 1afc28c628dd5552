package repository

import "gorm.io/gorm"

// Repository is the composition root for the chat stores: one handle
// consumers wire through instead of three.
type Repository struct {
	Conversations ConversationRepository
	Messages      MessageRepository
	Memberships   MembershipRepository
	Users         UserRepository
}

func New(db *gorm.DB) *Repository {
	return &Repository{
		Conversations: NewConversationRepository(db),
		Messages:      NewMessageRepository(db),
		Memberships:   NewMembershipRepository(db),
		Users:         NewUserRepository(db),
	}
}
