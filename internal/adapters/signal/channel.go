package signal

import (
	"context"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

// announceChannel sends public channels to everyone and private ones to their room only.
func (ctl *SignalWSController) announceChannel(event string, ch domain.Channel) {
	if ch.IsPublic() {
		ctl.Orch.BroadcastAll(event, ch)
		return
	}
	ctl.Orch.BroadcastRoom(ch.ID, "", event, ch)
}

func (ctl *SignalWSController) handleCreateChannel(ctx context.Context, cl *client, e CreateChannel) {
	ch, err := ctl.Channels.Create(ctx, e.Name, e.Visibility, cl.user.ID)
	if err != nil {
		ctl.sendError(cl, core.ScopeChannel, err)
		return
	}
	ctl.Orch.SubscribeUser(cl.user.ID, ch.ID)
	ctl.announceChannel(core.EvChannelCreated, ch)
}

func (ctl *SignalWSController) handleUpdateChannel(ctx context.Context, cl *client, e UpdateChannel) {
	ch, err := ctl.Channels.Update(ctx, e.ID, cl.user.ID, e.Name, e.Visibility)
	if err != nil {
		ctl.sendError(cl, core.ScopeChannel, err)
		return
	}
	ctl.announceChannel(core.EvChannelUpdated, ch)
}

func (ctl *SignalWSController) handleDeleteChannel(ctx context.Context, cl *client, e DeleteChannel) {
	if err := ctl.Channels.Delete(ctx, e.ChannelID, cl.user.ID); err != nil {
		ctl.sendError(cl, core.ScopeChannel, err)
		return
	}
	ctl.Orch.ChannelDeleted(ctx, e.ChannelID)
}

func (ctl *SignalWSController) handleRequestChannels(ctx context.Context, cl *client) {
	list, err := ctl.Channels.Visible(ctx, cl.user.ID)
	if err != nil {
		ctl.sendError(cl, core.ScopeChannel, err)
		return
	}
	ctl.reply(cl, core.EvChannelsReplied, list)
}
