package signal

import (
	"context"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

// handleTyping relays typing indicators to the rest of the room.
// Drafts from non-members are dropped without a reply.
func (ctl *SignalWSController) handleTyping(ctx context.Context, cl *client, e TypingEvent) {
	member, err := ctl.Members.IsMember(ctx, cl.user.ID, e.ChannelID)
	if err != nil {
		ctl.sendError(cl, core.ScopeTyping, err)
		return
	}
	if !member {
		if e.Kind != core.EvTypingDraft {
			ctl.sendError(cl, core.ScopeTyping, domain.ErrNotMember)
		}
		return
	}
	ev := core.Typing{UserID: cl.user.ID, Nickname: cl.user.Nickname, ChannelID: e.ChannelID}
	if e.Kind == core.EvTypingDraft {
		ev.Draft = e.Draft
	}
	ctl.Orch.BroadcastRoom(e.ChannelID, cl.sid, e.Kind, ev)
}
