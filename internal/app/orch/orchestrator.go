package orch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

// Orchestrator owns the live side of the system: which connection is
// subscribed to which room, and how events reach them.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
}

func New(reg *app.Registry, rooms core.RoomManager, policy app.Policy) *Orchestrator {
	return &Orchestrator{Registry: reg, Rooms: rooms, Policy: policy}
}

func encode(event string, data any) (core.Frame, bool) {
	f, err := core.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", event).Msg("encode event")
		return nil, false
	}
	return f, true
}

// BroadcastRoom delivers to every connection subscribed to channel except the session except.
func (o *Orchestrator) BroadcastRoom(channel domain.ChannelID, except core.SessionID, event string, data any) {
	room, ok := o.Rooms.Get(channel)
	if !ok {
		return
	}
	f, ok := encode(event, data)
	if !ok {
		return
	}
	o.applyPolicy(room, room.Broadcast(except, f))
}

// BroadcastAll delivers to every live connection.
func (o *Orchestrator) BroadcastAll(event string, data any) {
	f, ok := encode(event, data)
	if !ok {
		return
	}
	for _, snap := range o.Registry.All() {
		o.deliver(snap.Session, f)
	}
}

// SendToUser delivers to every connection of user.
func (o *Orchestrator) SendToUser(user domain.UserID, event string, data any) {
	f, ok := encode(event, data)
	if !ok {
		return
	}
	for _, snap := range o.Registry.SessionsOfUser(user) {
		o.deliver(snap.Session, f)
	}
}

func (o *Orchestrator) SendToSession(sid core.SessionID, event string, data any) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return
	}
	f, ok := encode(event, data)
	if !ok {
		return
	}
	o.deliver(sess, f)
}

func (o *Orchestrator) deliver(sess core.MemberSession, f core.Frame) {
	if err := sess.Signal().TrySend(f); err != nil {
		o.applyPolicy(nil, core.PublishResult{Dropped: []core.MemberSession{sess}})
	}
}

func (o *Orchestrator) applyPolicy(room core.RoomService, res core.PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.DropConnection:
			log.Warn().Str("module", "orch").Str("sid", string(slow.ID())).Msg("send queue full, dropping connection")
			o.Registry.Cancel(slow.ID())
		case app.DropFrame, app.NoAction:
		}
	}
}

// ChannelDeleted tells everyone the channel is gone and tears its room down.
func (o *Orchestrator) ChannelDeleted(ctx context.Context, channel domain.ChannelID) {
	o.BroadcastAll(core.EvChannelDeleted, channel)
	o.EvictRoom(channel)
}
