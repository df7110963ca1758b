package core

import (
	"encoding/json"

	"github.com/dkeye/Chat/internal/domain"
)

// Server event names.
const (
	EvMemberJoined            = "member:joined"
	EvMemberLeft              = "member:left"
	EvMemberInvited           = "member:invited"
	EvMemberInvitationCleared = "member:invitationCleared"
	EvMemberKicked            = "member:kicked"
	EvMemberBanned            = "member:banned"
	EvMemberBannedInit        = "member:banned:init"
	EvMemberUnbanned          = "member:unbanned"
	EvMemberBanVote           = "member:banVote"

	EvChannelCreated  = "channel:created"
	EvChannelUpdated  = "channel:updated"
	EvChannelDeleted  = "channel:deleted"
	EvChannelsReplied = "response:channels"

	EvMessageNew     = "message:new"
	EvMessageUpdated = "message:updated"
	EvMessageDeleted = "message:deleted"
	EvMessageList    = "message:list"

	EvTypingStart = "typing:start"
	EvTypingDraft = "typing:draft"
	EvTypingStop  = "typing:stop"

	EvUserStatus = "user:status"
	EvPong       = "pong"
)

// Error scopes; the event name is "error:" + scope.
const (
	ScopeMember  = "member"
	ScopeChannel = "channel"
	ScopeMessage = "message"
	ScopeTyping  = "typing"
	ScopeUser    = "user"
	ScopeRequest = "request"
)

type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Encode wraps data in the {"type","data"} envelope.
func Encode(eventType string, data any) (Frame, error) {
	return json.Marshal(Envelope{Type: eventType, Data: data})
}

type MemberJoined struct {
	ID        domain.MembershipID `json:"id"`
	UserID    domain.UserID       `json:"userId"`
	ChannelID domain.ChannelID    `json:"channelId"`
}

type MemberRef struct {
	UserID    domain.UserID    `json:"userId"`
	ChannelID domain.ChannelID `json:"channelId"`
}

type MemberInvited struct {
	UserID    domain.UserID    `json:"userId"`
	ChannelID domain.ChannelID `json:"channelId"`
	InvitedBy domain.UserID    `json:"invitedBy,omitempty"`
}

type MemberBanned struct {
	UserID      domain.UserID    `json:"userId"`
	ChannelID   domain.ChannelID `json:"channelId"`
	IsPermanent bool             `json:"isPermanent"`
	Reason      domain.BanReason `json:"reason,omitempty"`
}

type BanVote struct {
	UserID    domain.UserID    `json:"userId"`
	ChannelID domain.ChannelID `json:"channelId"`
	Votes     int              `json:"votes"`
	Threshold int              `json:"threshold"`
}

type ChannelCleared struct {
	ChannelID domain.ChannelID `json:"channelId"`
}

type MessageRef struct {
	ID        domain.MessageID `json:"id"`
	ChannelID domain.ChannelID `json:"channelId"`
}

type Typing struct {
	UserID    domain.UserID    `json:"userId"`
	Nickname  string           `json:"nickname"`
	ChannelID domain.ChannelID `json:"channelId"`
	Draft     string           `json:"draft,omitempty"`
}

type UserStatus struct {
	UserID domain.UserID `json:"userId"`
	Status domain.Status `json:"status"`
}

type ErrorPayload struct {
	Message string      `json:"message"`
	Code    domain.Code `json:"code"`
}
