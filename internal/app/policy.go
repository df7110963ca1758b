package app

import "github.com/dkeye/Chat/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	DropConnection
)

// Policy decides what happens to a member whose send queue is full.
type Policy interface {
	OnBackPressure(room core.RoomService, member core.MemberSession) BackpressureAction
}

// SimplePolicy disconnects slow consumers; a client that reconnects
// rebuilds its state from the durable store.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room core.RoomService, member core.MemberSession) BackpressureAction {
	return DropConnection
}
