package core

import (
	"github.com/dkeye/Chat/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID       domain.UserID `json:"id"`
	Nickname string        `json:"nickname"`
}

// RoomService is the live fan-out set of one channel.
// It is a projection of durable membership and never touches transport resources.
type RoomService interface {
	ChannelID() domain.ChannelID
	MemberCount() int
	MembersSnapshot() []MemberDTO
	HasUser(id domain.UserID) bool

	AddMember(ms MemberSession)
	RemoveMember(sid SessionID)
	// Broadcast enqueues data for every member except the session except.
	// Pass an empty SessionID to reach everyone.
	Broadcast(except SessionID, data Frame) PublishResult
}

type RoomInfo struct {
	ChannelID   domain.ChannelID `json:"channelId"`
	MemberCount int              `json:"memberCount"`
}

type RoomManager interface {
	GetOrCreate(id domain.ChannelID) RoomService
	Get(id domain.ChannelID) (RoomService, bool)
	List() []RoomInfo
	StopRoom(id domain.ChannelID)
}
