package signal

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

// ClientEvent is the closed set of events a client may send.
// Payloads are validated by DecodeClientEvent before any handler sees them.
type ClientEvent interface {
	Scope() string
}

type (
	JoinChannel   struct{ ChannelID domain.ChannelID }
	LeaveChannel  struct{ ChannelID domain.ChannelID }
	DeclineInvite struct{ ChannelID domain.ChannelID }
	InviteMember  struct {
		UserID    domain.UserID
		ChannelID domain.ChannelID
	}
	// Moderate covers kick, ban, unban and voteBan, which share a payload.
	Moderate struct {
		Action    string
		TargetID  domain.UserID
		ChannelID domain.ChannelID
	}
	CreateChannel struct {
		Name       string
		Visibility domain.Visibility
	}
	UpdateChannel struct {
		ID         domain.ChannelID
		Name       string
		Visibility domain.Visibility
	}
	DeleteChannel   struct{ ChannelID domain.ChannelID }
	RequestChannels struct{}
	SendMessage     struct {
		ChannelID domain.ChannelID
		Content   string
	}
	FetchMessages struct {
		ChannelID domain.ChannelID
		BeforeID  domain.MessageID
		Limit     int
	}
	DeleteMessage struct{ ID domain.MessageID }
	UpdateMessage struct {
		ID      domain.MessageID
		Content string
	}
	TypingEvent struct {
		Kind      string
		ChannelID domain.ChannelID
		Draft     string
	}
	SetStatus struct{ Status domain.Status }
	Ping      struct{}
)

const (
	actionKick    = "kick"
	actionBan     = "ban"
	actionUnban   = "unban"
	actionVoteBan = "voteBan"
)

func (JoinChannel) Scope() string     { return core.ScopeMember }
func (LeaveChannel) Scope() string    { return core.ScopeMember }
func (DeclineInvite) Scope() string   { return core.ScopeMember }
func (InviteMember) Scope() string    { return core.ScopeMember }
func (Moderate) Scope() string        { return core.ScopeMember }
func (CreateChannel) Scope() string   { return core.ScopeChannel }
func (UpdateChannel) Scope() string   { return core.ScopeChannel }
func (DeleteChannel) Scope() string   { return core.ScopeChannel }
func (RequestChannels) Scope() string { return core.ScopeChannel }
func (SendMessage) Scope() string     { return core.ScopeMessage }
func (FetchMessages) Scope() string   { return core.ScopeMessage }
func (DeleteMessage) Scope() string   { return core.ScopeMessage }
func (UpdateMessage) Scope() string   { return core.ScopeMessage }
func (TypingEvent) Scope() string     { return core.ScopeTyping }
func (SetStatus) Scope() string       { return core.ScopeUser }
func (Ping) Scope() string            { return core.ScopeRequest }

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// idRef accepts either a bare JSON string or an object carrying the id.
type idRef string

func (r *idRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = idRef(s)
		return nil
	}
	var obj struct {
		ChannelID string `json:"channelId"`
		ID        string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj.ChannelID != "" {
		*r = idRef(obj.ChannelID)
	} else {
		*r = idRef(obj.ID)
	}
	return nil
}

func invalid(msg string) error {
	return domain.Wrap(domain.CodeValidation, msg, domain.ErrInvalidPayload)
}

func decodeRef(data json.RawMessage, what string) (string, error) {
	var ref idRef
	if len(data) == 0 || json.Unmarshal(data, &ref) != nil {
		return "", invalid(what + " is required")
	}
	id := strings.TrimSpace(string(ref))
	if id == "" {
		return "", invalid(what + " is required")
	}
	return id, nil
}

func decodeInto(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return invalid("missing payload")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return invalid("malformed payload")
	}
	return nil
}

type targetPayload struct {
	TargetID  domain.UserID    `json:"targetId"`
	UserID    domain.UserID    `json:"userId"`
	ChannelID domain.ChannelID `json:"channelId"`
}

func (p targetPayload) target() domain.UserID {
	if p.TargetID != 0 {
		return p.TargetID
	}
	return p.UserID
}

// frameScope names the error scope of a frame from its envelope type,
// so a rejected member:kick is reported on error:member.
func frameScope(frame []byte) string {
	var env struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(frame, &env) != nil {
		return core.ScopeRequest
	}
	prefix, _, ok := strings.Cut(env.Type, ":")
	if !ok {
		return core.ScopeRequest
	}
	switch prefix {
	case core.ScopeMember, core.ScopeChannel, core.ScopeMessage, core.ScopeTyping, core.ScopeUser:
		return prefix
	case "request":
		return core.ScopeChannel
	}
	return core.ScopeRequest
}

// DecodeClientEvent parses one frame into a validated ClientEvent.
// The returned error is always a validation AppError.
func DecodeClientEvent(frame []byte) (ClientEvent, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, invalid("malformed frame")
	}
	switch env.Type {
	case "member:join", "member:leave", "member:declineInvite":
		id, err := decodeRef(env.Data, "channelId")
		if err != nil {
			return nil, err
		}
		ch := domain.ChannelID(id)
		switch env.Type {
		case "member:join":
			return JoinChannel{ChannelID: ch}, nil
		case "member:leave":
			return LeaveChannel{ChannelID: ch}, nil
		}
		return DeclineInvite{ChannelID: ch}, nil

	case "member:invite":
		var p targetPayload
		if err := decodeInto(env.Data, &p); err != nil {
			return nil, err
		}
		if p.target() <= 0 || p.ChannelID == "" {
			return nil, invalid("userId and channelId are required")
		}
		return InviteMember{UserID: p.target(), ChannelID: p.ChannelID}, nil

	case "member:kick", "member:ban", "member:unban", "member:voteBan":
		var p targetPayload
		if err := decodeInto(env.Data, &p); err != nil {
			return nil, err
		}
		if p.target() <= 0 || p.ChannelID == "" {
			return nil, invalid("targetId and channelId are required")
		}
		return Moderate{Action: strings.TrimPrefix(env.Type, "member:"), TargetID: p.target(), ChannelID: p.ChannelID}, nil

	case "channel:create":
		var p struct {
			Name     string `json:"name"`
			IsPublic *bool  `json:"isPublic"`
		}
		if err := decodeInto(env.Data, &p); err != nil {
			return nil, err
		}
		return CreateChannel{Name: p.Name, Visibility: domain.VisibilityOf(p.IsPublic == nil || *p.IsPublic)}, nil

	case "channel:update":
		var p struct {
			ID        domain.ChannelID `json:"id"`
			ChannelID domain.ChannelID `json:"channelId"`
			Name      string           `json:"name"`
			IsPublic  bool             `json:"isPublic"`
		}
		if err := decodeInto(env.Data, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			p.ID = p.ChannelID
		}
		if p.ID == "" {
			return nil, invalid("id is required")
		}
		return UpdateChannel{ID: p.ID, Name: p.Name, Visibility: domain.VisibilityOf(p.IsPublic)}, nil

	case "channel:delete":
		id, err := decodeRef(env.Data, "channelId")
		if err != nil {
			return nil, err
		}
		return DeleteChannel{ChannelID: domain.ChannelID(id)}, nil

	case "request:channels":
		return RequestChannels{}, nil

	case "message:send":
		var p struct {
			ChannelID domain.ChannelID `json:"channelId"`
			Content   string           `json:"content"`
		}
		if err := decodeInto(env.Data, &p); err != nil {
			return nil, err
		}
		if p.ChannelID == "" {
			return nil, invalid("channelId is required")
		}
		return SendMessage{ChannelID: p.ChannelID, Content: p.Content}, nil

	case "message:fetch":
		var p struct {
			ChannelID domain.ChannelID `json:"channelId"`
			BeforeID  domain.MessageID `json:"beforeId"`
			Limit     int              `json:"limit"`
		}
		if err := decodeInto(env.Data, &p); err != nil {
			return nil, err
		}
		if p.ChannelID == "" {
			return nil, invalid("channelId is required")
		}
		return FetchMessages{ChannelID: p.ChannelID, BeforeID: p.BeforeID, Limit: p.Limit}, nil

	case "message:delete":
		id, err := decodeRef(env.Data, "id")
		if err != nil {
			return nil, err
		}
		return DeleteMessage{ID: domain.MessageID(id)}, nil

	case "message:update":
		var p struct {
			ID      domain.MessageID `json:"id"`
			Content string           `json:"content"`
		}
		if err := decodeInto(env.Data, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, invalid("id is required")
		}
		return UpdateMessage{ID: p.ID, Content: p.Content}, nil

	case core.EvTypingStart, core.EvTypingDraft, core.EvTypingStop:
		var p struct {
			ChannelID domain.ChannelID `json:"channelId"`
			Draft     string           `json:"draft"`
		}
		if err := decodeInto(env.Data, &p); err != nil {
			return nil, err
		}
		if p.ChannelID == "" {
			return nil, invalid("channelId is required")
		}
		return TypingEvent{Kind: env.Type, ChannelID: p.ChannelID, Draft: p.Draft}, nil

	case "user:setStatus":
		var p struct {
			Status domain.Status `json:"status"`
		}
		if err := decodeInto(env.Data, &p); err != nil {
			return nil, err
		}
		if !p.Status.Valid() {
			return nil, domain.ErrInvalidStatus
		}
		return SetStatus{Status: p.Status}, nil

	case "ping":
		return Ping{}, nil
	}
	return nil, invalid("unknown event type")
}
