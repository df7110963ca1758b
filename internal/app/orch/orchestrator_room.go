package orch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

// Register makes an authenticated session reachable.
func (o *Orchestrator) Register(sess core.MemberSession, cancel context.CancelFunc) {
	o.Registry.Bind(sess, cancel)
}

// Subscribe adds one session to the room of channel.
func (o *Orchestrator) Subscribe(sid core.SessionID, channel domain.ChannelID) bool {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return false
	}
	o.Rooms.GetOrCreate(channel).AddMember(sess)
	o.Registry.AddRoom(sid, channel)
	return true
}

// Unsubscribe removes one session from the room of channel.
func (o *Orchestrator) Unsubscribe(sid core.SessionID, channel domain.ChannelID) {
	if room, ok := o.Rooms.Get(channel); ok {
		room.RemoveMember(sid)
	}
	o.Registry.RemoveRoom(sid, channel)
}

// SubscribeUser adds every live connection of user to the room of channel.
func (o *Orchestrator) SubscribeUser(user domain.UserID, channel domain.ChannelID) {
	for _, snap := range o.Registry.SessionsOfUser(user) {
		o.Subscribe(snap.SID, channel)
	}
	log.Debug().Str("module", "orch").Str("user", user.String()).Str("channel", string(channel)).Msg("user subscribed")
}

// UnsubscribeUser removes every live connection of user from the room of channel.
func (o *Orchestrator) UnsubscribeUser(user domain.UserID, channel domain.ChannelID) {
	room, ok := o.Rooms.Get(channel)
	for _, snap := range o.Registry.SessionsOfUser(user) {
		if ok {
			room.RemoveMember(snap.SID)
		}
		o.Registry.RemoveRoom(snap.SID, channel)
	}
	log.Debug().Str("module", "orch").Str("user", user.String()).Str("channel", string(channel)).Msg("user unsubscribed")
}

// Disconnect unbinds sid from every room and reports whether it was the
// user's last live connection. Durable state is left untouched.
func (o *Orchestrator) Disconnect(sid core.SessionID) bool {
	rooms, last := o.Registry.Unbind(sid)
	for _, ch := range rooms {
		if room, ok := o.Rooms.Get(ch); ok {
			room.RemoveMember(sid)
		}
	}
	return last
}

// EvictRoom drops every subscriber of channel and forgets the room.
func (o *Orchestrator) EvictRoom(channel domain.ChannelID) {
	if room, ok := o.Rooms.Get(channel); ok {
		for _, snap := range o.Registry.All() {
			room.RemoveMember(snap.SID)
		}
	}
	o.Registry.DropRoom(channel)
	o.Rooms.StopRoom(channel)
	log.Info().Str("module", "orch").Str("channel", string(channel)).Msg("room evicted")
}
