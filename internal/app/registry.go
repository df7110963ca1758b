package app

import (
	"context"
	"sync"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	UserID  domain.UserID
	Session core.MemberSession
	Cancel  context.CancelFunc
	State   core.SessionState
	Rooms   map[domain.ChannelID]struct{}
}

// Registry tracks every live connection and the rooms it is subscribed to.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
	byUser   map[domain.UserID]map[core.SessionID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
		byUser:   make(map[domain.UserID]map[core.SessionID]struct{}),
	}
}

// Bind registers an authenticated session.
func (r *Registry) Bind(sess core.MemberSession, cancel context.CancelFunc) {
	sid := sess.ID()
	uid := sess.Meta().User.ID
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		UserID:  uid,
		Session: sess,
		Cancel:  cancel,
		State:   core.StateAuthenticated,
		Rooms:   make(map[domain.ChannelID]struct{}),
	}
	sids, ok := r.byUser[uid]
	if !ok {
		sids = make(map[core.SessionID]struct{})
		r.byUser[uid] = sids
	}
	sids[sid] = struct{}{}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", uid.String()).Msg("bound session")
}

func (r *Registry) GetSession(sid core.SessionID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

func (r *Registry) SetState(sid core.SessionID, state core.SessionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.State = state
	}
}

func (r *Registry) State(sid core.SessionID) core.SessionState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.State
	}
	return core.StateClosed
}

// Unbind forgets the session and reports the rooms it was in and whether
// it was the user's last live connection.
func (r *Registry) Unbind(sid core.SessionID) (rooms []domain.ChannelID, last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	delete(r.sessions, sid)
	for ch := range e.Rooms {
		rooms = append(rooms, ch)
	}
	sids := r.byUser[e.UserID]
	delete(sids, sid)
	if len(sids) == 0 {
		delete(r.byUser, e.UserID)
		last = true
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Bool("last", last).Msg("unbind session")
	return rooms, last
}

func (r *Registry) AddRoom(sid core.SessionID, ch domain.ChannelID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	e.Rooms[ch] = struct{}{}
	return true
}

func (r *Registry) RemoveRoom(sid core.SessionID, ch domain.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		delete(e.Rooms, ch)
	}
}

// DropRoom removes ch from every session's subscription set.
func (r *Registry) DropRoom(ch domain.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.sessions {
		delete(e.Rooms, ch)
	}
}

func (r *Registry) RoomsOf(sid core.SessionID) []domain.ChannelID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	out := make([]domain.ChannelID, 0, len(e.Rooms))
	for ch := range e.Rooms {
		out = append(out, ch)
	}
	return out
}

// SessionSnapshot is a point-in-time view of one registered session.
type SessionSnapshot struct {
	SID     core.SessionID
	Session core.MemberSession
}

func (r *Registry) SessionsOfUser(uid domain.UserID) []SessionSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sids := r.byUser[uid]
	out := make([]SessionSnapshot, 0, len(sids))
	for sid := range sids {
		if e, ok := r.sessions[sid]; ok {
			out = append(out, SessionSnapshot{SID: sid, Session: e.Session})
		}
	}
	return out
}

func (r *Registry) All() []SessionSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SessionSnapshot, 0, len(r.sessions))
	for sid, e := range r.sessions {
		out = append(out, SessionSnapshot{SID: sid, Session: e.Session})
	}
	return out
}

func (r *Registry) Online(uid domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[uid]) > 0
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}
