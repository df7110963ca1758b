// Package memstore keeps the whole durable model in process memory.
// It backs the "memory" database driver and the service tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

type pairKey struct {
	user    domain.UserID
	channel domain.ChannelID
}

type Store struct {
	mu          sync.RWMutex
	users       map[domain.UserID]domain.User
	channels    map[domain.ChannelID]domain.Channel
	memberships map[pairKey]domain.Membership
	bans        map[pairKey]domain.Ban
	messages    map[domain.MessageID]domain.Message
}

var _ core.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:       make(map[domain.UserID]domain.User),
		channels:    make(map[domain.ChannelID]domain.Channel),
		memberships: make(map[pairKey]domain.Membership),
		bans:        make(map[pairKey]domain.Ban),
		messages:    make(map[domain.MessageID]domain.Message),
	}
}

func (s *Store) Close() error { return nil }

// channels

func (s *Store) nameTaken(name string, except domain.ChannelID) bool {
	for id, ch := range s.channels {
		if id != except && ch.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) CreateChannel(_ context.Context, ch domain.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.channels[ch.ID]; ok || s.nameTaken(ch.Name, "") {
		return errors.Wrapf(core.ErrDuplicate, "memstore.CreateChannel %q", ch.Name)
	}
	s.channels[ch.ID] = ch
	return nil
}

func (s *Store) GetChannel(_ context.Context, id domain.ChannelID) (domain.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.channels[id]
	if !ok {
		return domain.Channel{}, errors.Wrapf(core.ErrNotFound, "memstore.GetChannel %s", id)
	}
	return ch, nil
}

func (s *Store) UpdateChannel(_ context.Context, ch domain.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.channels[ch.ID]
	if !ok {
		return errors.Wrapf(core.ErrNotFound, "memstore.UpdateChannel %s", ch.ID)
	}
	if s.nameTaken(ch.Name, ch.ID) {
		return errors.Wrapf(core.ErrDuplicate, "memstore.UpdateChannel %q", ch.Name)
	}
	cur.Name = ch.Name
	cur.Visibility = ch.Visibility
	cur.UpdatedAt = ch.UpdatedAt
	s.channels[ch.ID] = cur
	return nil
}

// DeleteChannel also drops the channel's messages, like the sql schema's cascade.
func (s *Store) DeleteChannel(_ context.Context, id domain.ChannelID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.channels, id)
	for mid, m := range s.messages {
		if m.ChannelID == id {
			delete(s.messages, mid)
		}
	}
	return nil
}

func (s *Store) ListChannels(_ context.Context) ([]domain.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) TouchChannel(_ context.Context, id domain.ChannelID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[id]
	if !ok {
		return errors.Wrapf(core.ErrNotFound, "memstore.TouchChannel %s", id)
	}
	ch.LastActivity = &at
	s.channels[id] = ch
	return nil
}

func (s *Store) InactiveChannels(_ context.Context, cutoff time.Time) ([]domain.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Channel
	for _, ch := range s.channels {
		if ch.Inactive(cutoff) {
			out = append(out, ch)
		}
	}
	return out, nil
}

// memberships

func (s *Store) AddMembership(_ context.Context, m domain.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey{m.UserID, m.ChannelID}
	if _, ok := s.memberships[k]; ok {
		return errors.Wrapf(core.ErrDuplicate, "memstore.AddMembership %s/%s", m.UserID, m.ChannelID)
	}
	s.memberships[k] = m
	return nil
}

func (s *Store) GetMembership(_ context.Context, user domain.UserID, channel domain.ChannelID) (domain.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[pairKey{user, channel}]
	if !ok {
		return domain.Membership{}, errors.Wrapf(core.ErrNotFound, "memstore.GetMembership %s/%s", user, channel)
	}
	return m, nil
}

func (s *Store) DeleteMembership(_ context.Context, user domain.UserID, channel domain.ChannelID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey{user, channel}
	_, ok := s.memberships[k]
	delete(s.memberships, k)
	return ok, nil
}

func (s *Store) CountMembers(_ context.Context, channel domain.ChannelID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k := range s.memberships {
		if k.channel == channel {
			n++
		}
	}
	return n, nil
}

func (s *Store) ChannelsOfUser(_ context.Context, user domain.UserID) ([]domain.ChannelID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ChannelID
	for k := range s.memberships {
		if k.user == user {
			out = append(out, k.channel)
		}
	}
	return out, nil
}

func (s *Store) DeleteChannelMemberships(_ context.Context, channel domain.ChannelID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.memberships {
		if k.channel == channel {
			delete(s.memberships, k)
		}
	}
	return nil
}

// bans

func (s *Store) UpsertBan(_ context.Context, b domain.Ban) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey{b.UserID, b.ChannelID}
	if cur, ok := s.bans[k]; ok {
		b.CreatedAt = cur.CreatedAt
	}
	s.bans[k] = b
	return nil
}

func (s *Store) GetBan(_ context.Context, user domain.UserID, channel domain.ChannelID) (domain.Ban, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bans[pairKey{user, channel}]
	if !ok {
		return domain.Ban{}, errors.Wrapf(core.ErrNotFound, "memstore.GetBan %s/%s", user, channel)
	}
	return b, nil
}

func (s *Store) DeleteBan(_ context.Context, user domain.UserID, channel domain.ChannelID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bans, pairKey{user, channel})
	return nil
}

func (s *Store) ListBans(_ context.Context) ([]domain.Ban, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Ban, 0, len(s.bans))
	for _, b := range s.bans {
		out = append(out, b)
	}
	return out, nil
}

func (s *Store) DeleteChannelBans(_ context.Context, channel domain.ChannelID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.bans {
		if k.channel == channel {
			delete(s.bans, k)
		}
	}
	return nil
}

// messages

func (s *Store) CreateMessage(_ context.Context, m domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[m.ID]; ok {
		return errors.Wrapf(core.ErrDuplicate, "memstore.CreateMessage %s", m.ID)
	}
	s.messages[m.ID] = m
	return nil
}

func (s *Store) GetMessage(_ context.Context, id domain.MessageID) (domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	if !ok {
		return domain.Message{}, errors.Wrapf(core.ErrNotFound, "memstore.GetMessage %s", id)
	}
	return m, nil
}

func (s *Store) UpdateMessage(_ context.Context, id domain.MessageID, content string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return errors.Wrapf(core.ErrNotFound, "memstore.UpdateMessage %s", id)
	}
	m.Content = content
	m.UpdatedAt = at
	s.messages[id] = m
	return nil
}

func (s *Store) DeleteMessage(_ context.Context, id domain.MessageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, id)
	return nil
}

// ListMessages relies on message ids being time-ordered (UUIDv7).
func (s *Store) ListMessages(_ context.Context, channel domain.ChannelID, before domain.MessageID, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Message
	for _, m := range s.messages {
		if m.ChannelID != channel {
			continue
		}
		if before != "" && m.ID >= before {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		if u, ok := s.users[out[i].AuthorID]; ok {
			out[i].AuthorNickname = u.Nickname
		}
	}
	return out, nil
}

// users

func (s *Store) UpsertUser(_ context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.users[u.ID]; ok {
		cur.Nickname = u.Nickname
		s.users[u.ID] = cur
		return nil
	}
	if u.Status == "" {
		u.Status = domain.StatusOffline
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, id domain.UserID) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, errors.Wrapf(core.ErrNotFound, "memstore.GetUser %s", id)
	}
	return u, nil
}

func (s *Store) SetStatus(_ context.Context, id domain.UserID, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return errors.Wrapf(core.ErrNotFound, "memstore.SetStatus %s", id)
	}
	u.Status = status
	s.users[id] = u
	return nil
}
