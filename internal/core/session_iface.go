package core

import "github.com/dkeye/Chat/internal/domain"

type SessionID string

// SessionState tracks a connection from upgrade to close.
type SessionState int

const (
	StateConnecting SessionState = iota
	StateAuthenticated
	StateSubscribed
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateSubscribed:
		return "subscribed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// MemberSession binds domain.Member and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	ID() SessionID
	Meta() *domain.Member
	Signal() SignalConnection
}
