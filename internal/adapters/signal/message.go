package signal

import (
	"context"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

type messagePage struct {
	ChannelID domain.ChannelID `json:"channelId"`
	Messages  []domain.Message `json:"messages"`
}

func (ctl *SignalWSController) handleSendMessage(ctx context.Context, cl *client, e SendMessage) {
	msg, err := ctl.Messages.Send(ctx, cl.user, e.ChannelID, e.Content)
	if err != nil {
		ctl.sendError(cl, core.ScopeMessage, err)
		return
	}
	ctl.Orch.BroadcastRoom(msg.ChannelID, "", core.EvMessageNew, msg)
}

func (ctl *SignalWSController) handleFetchMessages(ctx context.Context, cl *client, e FetchMessages) {
	page, err := ctl.Messages.Fetch(ctx, cl.user.ID, e.ChannelID, e.BeforeID, e.Limit)
	if err != nil {
		ctl.sendError(cl, core.ScopeMessage, err)
		return
	}
	ctl.reply(cl, core.EvMessageList, messagePage{ChannelID: e.ChannelID, Messages: page})
}

func (ctl *SignalWSController) handleDeleteMessage(ctx context.Context, cl *client, e DeleteMessage) {
	msg, err := ctl.Messages.Delete(ctx, cl.user.ID, e.ID)
	if err != nil {
		ctl.sendError(cl, core.ScopeMessage, err)
		return
	}
	ctl.Orch.BroadcastRoom(msg.ChannelID, "", core.EvMessageDeleted, core.MessageRef{ID: msg.ID, ChannelID: msg.ChannelID})
}

func (ctl *SignalWSController) handleUpdateMessage(ctx context.Context, cl *client, e UpdateMessage) {
	msg, err := ctl.Messages.Update(ctx, cl.user.ID, e.ID, e.Content)
	if err != nil {
		ctl.sendError(cl, core.ScopeMessage, err)
		return
	}
	ctl.Orch.BroadcastRoom(msg.ChannelID, "", core.EvMessageUpdated, msg)
}
