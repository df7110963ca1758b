package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

type ChannelService struct {
	Channels core.ChannelStore
	Members  *MembershipService
	Now      func() time.Time
}

func NewChannelService(store core.ChannelStore, members *MembershipService) *ChannelService {
	return &ChannelService{Channels: store, Members: members, Now: utcNow}
}

// Create stores the channel and enrolls admin as its first member.
func (s *ChannelService) Create(ctx context.Context, name string, vis domain.Visibility, admin domain.UserID) (domain.Channel, error) {
	name, err := domain.NormalizeChannelName(name)
	if err != nil {
		return domain.Channel{}, err
	}
	now := s.Now()
	ch := domain.Channel{
		ID:           domain.ChannelID(uuid.NewString()),
		Name:         name,
		Visibility:   vis,
		AdminID:      admin,
		LastActivity: &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Channels.CreateChannel(ctx, ch); err != nil {
		if isDuplicate(err) {
			return domain.Channel{}, domain.ErrChannelNameTaken
		}
		return domain.Channel{}, storeErr(err, "app.Channel.Create")
	}
	if _, err := s.Members.EnrollAdmin(ctx, ch); err != nil {
		return domain.Channel{}, err
	}
	log.Info().Str("module", "app.channel").Str("channel", string(ch.ID)).Str("name", ch.Name).Msg("created")
	return ch, nil
}

func (s *ChannelService) Update(ctx context.Context, id domain.ChannelID, actor domain.UserID, name string, vis domain.Visibility) (domain.Channel, error) {
	ch, err := loadChannel(ctx, s.Channels, id, "app.Channel.Update.load")
	if err != nil {
		return domain.Channel{}, err
	}
	if !ch.IsAdmin(actor) {
		return domain.Channel{}, domain.ErrNotAdmin
	}
	name, err = domain.NormalizeChannelName(name)
	if err != nil {
		return domain.Channel{}, err
	}
	ch.Name = name
	ch.Visibility = vis
	ch.UpdatedAt = s.Now()
	if err := s.Channels.UpdateChannel(ctx, ch); err != nil {
		if isDuplicate(err) {
			return domain.Channel{}, domain.ErrChannelNameTaken
		}
		if isNotFound(err) {
			return domain.Channel{}, domain.ErrChannelNotFound
		}
		return domain.Channel{}, storeErr(err, "app.Channel.Update")
	}
	return ch, nil
}

// Delete removes the channel and cascades its memberships, bans, invites and ballots.
func (s *ChannelService) Delete(ctx context.Context, id domain.ChannelID, actor domain.UserID) error {
	ch, err := loadChannel(ctx, s.Channels, id, "app.Channel.Delete.load")
	if err != nil {
		return err
	}
	if !ch.IsAdmin(actor) {
		return domain.ErrNotAdmin
	}
	if err := s.Members.PurgeChannel(ctx, id); err != nil {
		return err
	}
	if err := s.Channels.DeleteChannel(ctx, id); err != nil && !isNotFound(err) {
		return storeErr(err, "app.Channel.Delete")
	}
	log.Info().Str("module", "app.channel").Str("channel", string(id)).Msg("deleted")
	return nil
}

func (s *ChannelService) Get(ctx context.Context, id domain.ChannelID) (domain.Channel, error) {
	return loadChannel(ctx, s.Channels, id, "app.Channel.Get")
}

// Visible lists public channels plus every channel user belongs to.
func (s *ChannelService) Visible(ctx context.Context, user domain.UserID) ([]domain.Channel, error) {
	all, err := s.Channels.ListChannels(ctx)
	if err != nil {
		return nil, storeErr(err, "app.Channel.Visible.list")
	}
	mine, err := s.Members.UserChannels(ctx, user)
	if err != nil {
		return nil, err
	}
	joined := make(map[domain.ChannelID]struct{}, len(mine))
	for _, id := range mine {
		joined[id] = struct{}{}
	}
	out := make([]domain.Channel, 0, len(all))
	for _, ch := range all {
		if _, ok := joined[ch.ID]; ok || ch.IsPublic() {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (s *ChannelService) TouchActivity(ctx context.Context, id domain.ChannelID) error {
	if err := s.Channels.TouchChannel(ctx, id, s.Now()); err != nil && !isNotFound(err) {
		return storeErr(err, "app.Channel.TouchActivity")
	}
	return nil
}

// Inactive returns the channels idle for longer than idle.
// Store errors are returned unwrapped so the sweeper can spot ErrNotProvisioned.
func (s *ChannelService) Inactive(ctx context.Context, idle time.Duration) ([]domain.Channel, error) {
	return s.Channels.InactiveChannels(ctx, s.Now().Add(-idle))
}
