package core

import (
	"sync"

	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	channel domain.ChannelID
	mu      sync.Mutex
	bySID   map[SessionID]MemberSession
	byUser  map[domain.UserID]map[SessionID]struct{}
}

func NewRoomService(channel domain.ChannelID) RoomService {
	return &roomImpl{
		channel: channel,
		bySID:   make(map[SessionID]MemberSession),
		byUser:  make(map[domain.UserID]map[SessionID]struct{}),
	}
}

func (r *roomImpl) ChannelID() domain.ChannelID { return r.channel }

func (r *roomImpl) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bySID)
}

func (r *roomImpl) HasUser(id domain.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser[id]) > 0
}

func (r *roomImpl) AddMember(ms MemberSession) {
	sid := ms.ID()
	u := ms.Meta().User.ID
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySID[sid] = ms
	sids, ok := r.byUser[u]
	if !ok {
		sids = make(map[SessionID]struct{})
		r.byUser[u] = sids
	}
	sids[sid] = struct{}{}
	log.Debug().Str("module", "core.room").Str("channel", string(r.channel)).Str("sid", string(sid)).Str("user", u.String()).Msg("member added")
}

func (r *roomImpl) RemoveMember(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms, ok := r.bySID[sid]
	if !ok {
		return
	}
	u := ms.Meta().User.ID
	if sids := r.byUser[u]; sids != nil {
		delete(sids, sid)
		if len(sids) == 0 {
			delete(r.byUser, u)
		}
	}
	delete(r.bySID, sid)
	log.Debug().Str("module", "core.room").Str("channel", string(r.channel)).Str("sid", string(sid)).Msg("member removed")
}

// Broadcast holds the room lock for the whole fan-out, so every member
// observes the room's events in one order.
func (r *roomImpl) Broadcast(except SessionID, data Frame) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := PublishResult{}
	for sid, m := range r.bySID {
		if sid == except {
			continue
		}
		if err := m.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("channel", string(r.channel)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]MemberDTO, 0, len(r.byUser))
	seen := make(map[domain.UserID]struct{}, len(r.byUser))
	for _, ms := range r.bySID {
		u := ms.Meta().User
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, MemberDTO{ID: u.ID, Nickname: u.Nickname})
	}
	return out
}
