package core

import (
	"context"

	"github.com/dkeye/Chat/internal/domain"
)

//go:generate mockgen -destination=../mocks/mock_core.go -package=mocks github.com/dkeye/Chat/internal/core Authenticator,ChannelNotifier

// Authenticator resolves a bearer token into a known user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// ChannelNotifier is told about channels removed outside a client request.
type ChannelNotifier interface {
	ChannelDeleted(ctx context.Context, id domain.ChannelID)
}
