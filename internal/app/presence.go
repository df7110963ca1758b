package app

import (
	"context"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

type PresenceService struct {
	Users core.UserStore
}

func NewPresenceService(store core.UserStore) *PresenceService {
	return &PresenceService{Users: store}
}

func (s *PresenceService) SetStatus(ctx context.Context, user domain.UserID, status domain.Status) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}
	if err := s.Users.SetStatus(ctx, user, status); err != nil {
		if isNotFound(err) {
			return domain.ErrUserNotFound
		}
		return storeErr(err, "app.Presence.SetStatus")
	}
	return nil
}

func (s *PresenceService) Get(ctx context.Context, user domain.UserID) (domain.User, error) {
	u, err := s.Users.GetUser(ctx, user)
	if isNotFound(err) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, storeErr(err, "app.Presence.Get")
	}
	return u, nil
}
