package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

const (
	DefaultFetchLimit = 50
	MaxFetchLimit     = 100
)

type MessageService struct {
	Messages core.MessageStore
	Members  *MembershipService
	Channels *ChannelService
	Now      func() time.Time
}

func NewMessageService(store core.MessageStore, members *MembershipService, channels *ChannelService) *MessageService {
	return &MessageService{Messages: store, Members: members, Channels: channels, Now: utcNow}
}

// canPost requires a live membership and no ban.
func (s *MessageService) canPost(ctx context.Context, user domain.UserID, channel domain.ChannelID) error {
	banned, err := s.Members.IsBanned(ctx, user, channel)
	if err != nil {
		return err
	}
	if banned {
		return domain.ErrBanned
	}
	member, err := s.Members.IsMember(ctx, user, channel)
	if err != nil {
		return err
	}
	if !member {
		return domain.ErrNotMember
	}
	return nil
}

func (s *MessageService) Send(ctx context.Context, author *domain.User, channel domain.ChannelID, content string) (domain.Message, error) {
	content, err := domain.NormalizeContent(content)
	if err != nil {
		return domain.Message{}, err
	}
	if err := s.canPost(ctx, author.ID, channel); err != nil {
		return domain.Message{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Message{}, domain.Internal(err)
	}
	now := s.Now()
	msg := domain.Message{
		ID:             domain.MessageID(id.String()),
		ChannelID:      channel,
		AuthorID:       author.ID,
		AuthorNickname: author.Nickname,
		Content:        content,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Messages.CreateMessage(ctx, msg); err != nil {
		return domain.Message{}, storeErr(err, "app.Message.Send")
	}
	if err := s.Channels.TouchActivity(ctx, channel); err != nil {
		log.Warn().Err(err).Str("module", "app.message").Str("channel", string(channel)).Msg("touch activity failed")
	}
	return msg, nil
}

// Fetch returns up to limit messages older than before, oldest first.
// An unknown before id is ignored.
func (s *MessageService) Fetch(ctx context.Context, user domain.UserID, channel domain.ChannelID, before domain.MessageID, limit int) ([]domain.Message, error) {
	if err := s.canPost(ctx, user, channel); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultFetchLimit
	case limit > MaxFetchLimit:
		limit = MaxFetchLimit
	}
	if before != "" {
		if _, err := s.Messages.GetMessage(ctx, before); err != nil {
			if !isNotFound(err) {
				return nil, storeErr(err, "app.Message.Fetch.cursor")
			}
			before = ""
		}
	}
	page, err := s.Messages.ListMessages(ctx, channel, before, limit)
	if err != nil {
		return nil, storeErr(err, "app.Message.Fetch")
	}
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page, nil
}

func (s *MessageService) authored(ctx context.Context, user domain.UserID, id domain.MessageID) (domain.Message, error) {
	msg, err := s.Messages.GetMessage(ctx, id)
	if isNotFound(err) {
		return domain.Message{}, domain.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, storeErr(err, "app.Message.load")
	}
	if msg.AuthorID != user {
		return domain.Message{}, domain.ErrNotAuthor
	}
	return msg, nil
}

func (s *MessageService) Delete(ctx context.Context, user domain.UserID, id domain.MessageID) (domain.Message, error) {
	msg, err := s.authored(ctx, user, id)
	if err != nil {
		return domain.Message{}, err
	}
	if err := s.Messages.DeleteMessage(ctx, id); err != nil && !isNotFound(err) {
		return domain.Message{}, storeErr(err, "app.Message.Delete")
	}
	return msg, nil
}

func (s *MessageService) Update(ctx context.Context, user domain.UserID, id domain.MessageID, content string) (domain.Message, error) {
	content, err := domain.NormalizeContent(content)
	if err != nil {
		return domain.Message{}, err
	}
	msg, err := s.authored(ctx, user, id)
	if err != nil {
		return domain.Message{}, err
	}
	msg.Content = content
	msg.UpdatedAt = s.Now()
	if err := s.Messages.UpdateMessage(ctx, id, content, msg.UpdatedAt); err != nil {
		if isNotFound(err) {
			return domain.Message{}, domain.ErrMessageNotFound
		}
		return domain.Message{}, storeErr(err, "app.Message.Update")
	}
	return msg, nil
}
