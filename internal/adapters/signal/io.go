package signal

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping failed")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cl *client, cancel context.CancelFunc) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(cl.sid)).Msg("readPump closing")
		ctl.teardown(cl, cancel)
	}()

	pongWait := ctl.Opts.PingPeriod * 10 / 9
	_ = cl.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.conn.SetPongHandler(func(string) error {
		return cl.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(cl.sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := cl.conn.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("sid", string(cl.sid)).Msg("readPump read error")
				}
				return
			}
			_ = cl.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
			ctl.handleSignal(ctx, cl, data)
		}
	}
}

// handleSignal validates one frame and routes it to its handler.
// Events of one connection are handled sequentially on the read goroutine.
func (ctl *SignalWSController) handleSignal(ctx context.Context, cl *client, data []byte) {
	if ctl.Limiter != nil && !ctl.Limiter.Allow(cl.user.ID) {
		ctl.sendError(cl, core.ScopeRequest, domain.Forbidden("rate limit exceeded, slow down"))
		return
	}
	ev, err := DecodeClientEvent(data)
	if err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(cl.sid)).Msg("rejected frame")
		ctl.sendError(cl, frameScope(data), err)
		return
	}

	switch e := ev.(type) {
	case JoinChannel:
		ctl.handleJoin(ctx, cl, e)
	case LeaveChannel:
		ctl.handleLeave(ctx, cl, e)
	case DeclineInvite:
		ctl.handleDeclineInvite(cl, e)
	case InviteMember:
		ctl.handleInvite(ctx, cl, e)
	case Moderate:
		ctl.handleModerate(ctx, cl, e)
	case CreateChannel:
		ctl.handleCreateChannel(ctx, cl, e)
	case UpdateChannel:
		ctl.handleUpdateChannel(ctx, cl, e)
	case DeleteChannel:
		ctl.handleDeleteChannel(ctx, cl, e)
	case RequestChannels:
		ctl.handleRequestChannels(ctx, cl)
	case SendMessage:
		ctl.handleSendMessage(ctx, cl, e)
	case FetchMessages:
		ctl.handleFetchMessages(ctx, cl, e)
	case DeleteMessage:
		ctl.handleDeleteMessage(ctx, cl, e)
	case UpdateMessage:
		ctl.handleUpdateMessage(ctx, cl, e)
	case TypingEvent:
		ctl.handleTyping(ctx, cl, e)
	case SetStatus:
		ctl.handleSetStatus(ctx, cl, e)
	case Ping:
		ctl.handlePing(cl)
	default:
		log.Warn().Str("module", "signal").Msg("unhandled client event")
	}
}

func (ctl *SignalWSController) reply(cl *client, event string, data any) {
	f, err := core.Encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("reply marshal")
		return
	}
	if err := cl.conn.TrySend(f); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(cl.sid)).Msg("reply dropped")
	}
}

// sendError reports err to the caller only as error:<scope>.
// Anything that is not an AppError is logged and masked.
func (ctl *SignalWSController) sendError(cl *client, scope string, err error) {
	var ae *domain.AppError
	payload := core.ErrorPayload{Message: "internal error", Code: domain.CodeInternal}
	if errors.As(err, &ae) {
		payload.Code = ae.Code
		if ae.Code != domain.CodeInternal {
			payload.Message = ae.Message
		}
	}
	if payload.Code == domain.CodeInternal {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(cl.sid)).Str("scope", scope).Msg("request failed")
	}
	ctl.reply(cl, "error:"+scope, payload)
}
