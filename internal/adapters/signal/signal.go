package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/app/orch"
	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	SendQueue  int
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	Auth     core.Authenticator
	Members  *app.MembershipService
	Channels *app.ChannelService
	Messages *app.MessageService
	Presence *app.PresenceService
	Limiter  *RateLimiter
	Opts     Options

	upgrader websocket.Upgrader
}

func NewSignalWSController(
	o *orch.Orchestrator,
	auth core.Authenticator,
	members *app.MembershipService,
	channels *app.ChannelService,
	messages *app.MessageService,
	presence *app.PresenceService,
	limiter *RateLimiter,
	opts Options,
) *SignalWSController {
	if opts.SendQueue <= 0 {
		opts.SendQueue = 64
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	return &SignalWSController{
		Orch:     o,
		Auth:     auth,
		Members:  members,
		Channels: channels,
		Messages: messages,
		Presence: presence,
		Limiter:  limiter,
		Opts:     opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// client is the per-connection state handlers work with.
type client struct {
	sid  core.SessionID
	user *domain.User
	conn *WsSignalConn
}

// HandleSignal upgrades the request, authenticates token and, on success,
// bootstraps the session and starts its pumps.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context, token string) {
	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	user, err := ctl.Auth.Authenticate(c.Request.Context(), token)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("remote", c.ClientIP()).Msg("ws authentication failed")
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication failed")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = ws.Close()
		return
	}
	if ctl.Opts.ReadLimit > 0 {
		ws.SetReadLimit(ctl.Opts.ReadLimit)
	}

	cl := &client{
		sid:  core.SessionID(uuid.NewString()),
		user: user,
		conn: &WsSignalConn{conn: ws, send: make(chan core.Frame, ctl.Opts.SendQueue)},
	}
	log.Info().Str("module", "signal").Str("sid", string(cl.sid)).Str("user", user.ID.String()).Msg("new WS connection")

	sessCtx, cancel := context.WithCancel(ctx)
	sess := core.NewMemberSession(cl.sid, domain.NewMember(user), cl.conn)
	ctl.Orch.Register(sess, cancel)

	go ctl.writePump(sessCtx, cl.conn)
	if err := ctl.bootstrap(sessCtx, cl); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(cl.sid)).Msg("session bootstrap failed")
		ctl.sendError(cl, core.ScopeRequest, err)
		ctl.teardown(cl, cancel)
		return
	}
	go ctl.readPump(sessCtx, cl, cancel)
}

// bootstrap rebuilds the connection's room subscriptions from durable
// membership, then pushes the ban snapshot, pending invites and presence.
func (ctl *SignalWSController) bootstrap(ctx context.Context, cl *client) error {
	uid := cl.user.ID
	channels, err := ctl.Members.UserChannels(ctx, uid)
	if err != nil {
		return err
	}
	rooms := 0
	for _, ch := range channels {
		ctl.Orch.Subscribe(cl.sid, ch)
		// a kick racing the listing could not detach this session yet
		member, err := ctl.Members.IsMember(ctx, uid, ch)
		if err != nil {
			return err
		}
		if !member {
			ctl.Orch.Unsubscribe(cl.sid, ch)
			continue
		}
		rooms++
	}
	ctl.Orch.Registry.SetState(cl.sid, core.StateSubscribed)

	bans, err := ctl.Members.AllBans(ctx)
	if err != nil {
		return err
	}
	snapshot := make([]core.MemberBanned, 0, len(bans))
	for _, b := range bans {
		snapshot = append(snapshot, core.MemberBanned{UserID: b.UserID, ChannelID: b.ChannelID, IsPermanent: b.IsPermanent})
	}
	ctl.Orch.SendToSession(cl.sid, core.EvMemberBannedInit, snapshot)

	for _, inv := range ctl.Members.PendingInvites(uid) {
		ctl.Orch.SendToSession(cl.sid, core.EvMemberInvited, core.MemberInvited{UserID: uid, ChannelID: inv.ChannelID, InvitedBy: inv.InvitedBy})
	}

	if err := ctl.Presence.SetStatus(ctx, uid, domain.StatusOnline); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("user", uid.String()).Msg("set online status")
	} else {
		cl.user.Status = domain.StatusOnline
		ctl.Orch.BroadcastAll(core.EvUserStatus, core.UserStatus{UserID: uid, Status: domain.StatusOnline})
	}
	log.Info().Str("module", "signal").Str("sid", string(cl.sid)).Int("rooms", rooms).Int("bans", len(bans)).Msg("session bootstrapped")
	return nil
}

// teardown releases a connection. Durable mutations already made stay in place.
func (ctl *SignalWSController) teardown(cl *client, cancel context.CancelFunc) {
	ctl.Orch.Registry.SetState(cl.sid, core.StateClosed)
	last := ctl.Orch.Disconnect(cl.sid)
	cancel()
	cl.conn.Close()
	if !last {
		return
	}
	if ctl.Limiter != nil {
		ctl.Limiter.Forget(cl.user.ID)
	}
	// The request context is gone by now; status updates use a fresh one.
	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := ctl.Presence.SetStatus(ctx, cl.user.ID, domain.StatusOffline); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("user", cl.user.ID.String()).Msg("set offline status")
		return
	}
	ctl.Orch.BroadcastAll(core.EvUserStatus, core.UserStatus{UserID: cl.user.ID, Status: domain.StatusOffline})
}
