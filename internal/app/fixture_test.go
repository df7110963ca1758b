package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/Chat/internal/adapters/memstore"
	"github.com/dkeye/Chat/internal/domain"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	ctx      context.Context
	store    *memstore.Store
	clock    *clock
	members  *MembershipService
	channels *ChannelService
	messages *MessageService
	presence *PresenceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	clk := &clock{now: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
	members := NewMembershipService(store, NewInviteTracker(), NewVoteTracker())
	members.Now = clk.Now
	channels := NewChannelService(store, members)
	channels.Now = clk.Now
	messages := NewMessageService(store, members, channels)
	messages.Now = clk.Now
	return &fixture{
		ctx:      context.Background(),
		store:    store,
		clock:    clk,
		members:  members,
		channels: channels,
		messages: messages,
		presence: NewPresenceService(store),
	}
}

func (f *fixture) user(t *testing.T, id domain.UserID, nick string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(id, nick)
	require.NoError(t, err)
	require.NoError(t, f.store.UpsertUser(f.ctx, *u))
	return u
}

func (f *fixture) channel(t *testing.T, name string, vis domain.Visibility, admin domain.UserID) domain.Channel {
	t.Helper()
	ch, err := f.channels.Create(f.ctx, name, vis, admin)
	require.NoError(t, err)
	return ch
}

func (f *fixture) join(t *testing.T, user domain.UserID, ch domain.ChannelID) {
	t.Helper()
	_, _, err := f.members.Join(f.ctx, user, ch)
	require.NoError(t, err)
}
