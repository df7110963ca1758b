package core

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Chat/internal/domain"
)

// Adapter-level sentinels. Store implementations wrap them; services
// test with errors.Is and translate into domain errors.
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate record")
	ErrNotProvisioned = errors.New("relation not provisioned")
)

type ChannelStore interface {
	CreateChannel(ctx context.Context, ch domain.Channel) error
	GetChannel(ctx context.Context, id domain.ChannelID) (domain.Channel, error)
	UpdateChannel(ctx context.Context, ch domain.Channel) error
	DeleteChannel(ctx context.Context, id domain.ChannelID) error
	ListChannels(ctx context.Context) ([]domain.Channel, error)
	TouchChannel(ctx context.Context, id domain.ChannelID, at time.Time) error
	// InactiveChannels returns channels whose last activity is null or older than cutoff.
	InactiveChannels(ctx context.Context, cutoff time.Time) ([]domain.Channel, error)
}

type MembershipStore interface {
	AddMembership(ctx context.Context, m domain.Membership) error
	GetMembership(ctx context.Context, user domain.UserID, channel domain.ChannelID) (domain.Membership, error)
	// DeleteMembership reports whether a row was removed.
	DeleteMembership(ctx context.Context, user domain.UserID, channel domain.ChannelID) (bool, error)
	CountMembers(ctx context.Context, channel domain.ChannelID) (int, error)
	ChannelsOfUser(ctx context.Context, user domain.UserID) ([]domain.ChannelID, error)
	DeleteChannelMemberships(ctx context.Context, channel domain.ChannelID) error
}

type BanStore interface {
	UpsertBan(ctx context.Context, b domain.Ban) error
	GetBan(ctx context.Context, user domain.UserID, channel domain.ChannelID) (domain.Ban, error)
	DeleteBan(ctx context.Context, user domain.UserID, channel domain.ChannelID) error
	ListBans(ctx context.Context) ([]domain.Ban, error)
	DeleteChannelBans(ctx context.Context, channel domain.ChannelID) error
}

type MessageStore interface {
	CreateMessage(ctx context.Context, m domain.Message) error
	GetMessage(ctx context.Context, id domain.MessageID) (domain.Message, error)
	UpdateMessage(ctx context.Context, id domain.MessageID, content string, at time.Time) error
	DeleteMessage(ctx context.Context, id domain.MessageID) error
	// ListMessages returns up to limit messages of channel, newest first.
	// A non-empty before restricts the page to messages strictly older than it.
	ListMessages(ctx context.Context, channel domain.ChannelID, before domain.MessageID, limit int) ([]domain.Message, error)
}

type UserStore interface {
	// UpsertUser inserts the user or refreshes the nickname; status is left untouched on update.
	UpsertUser(ctx context.Context, u domain.User) error
	GetUser(ctx context.Context, id domain.UserID) (domain.User, error)
	SetStatus(ctx context.Context, id domain.UserID, status domain.Status) error
}

// Store is the full durable surface the services are wired against.
type Store interface {
	ChannelStore
	MembershipStore
	BanStore
	MessageStore
	UserStore
	Close() error
}
