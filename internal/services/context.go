package services

import (
	"context"

	"pulse-chat/pkg/logger"

	"github.com/google/uuid"
)

type userIDKey struct{}

func WithUserContext(ctx context.Context, userID uuid.UUID) context.Context {
	ctx = context.WithValue(ctx, userIDKey{}, userID)
	// mirrored as a string for log enrichment
	return context.WithValue(ctx, logger.UserIdKey, userID.String())
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey{}).(uuid.UUID)
	return id, ok
}
