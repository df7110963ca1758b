package signal

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

func (ctl *SignalWSController) handleJoin(ctx context.Context, cl *client, e JoinChannel) {
	m, created, err := ctl.Members.Join(ctx, cl.user.ID, e.ChannelID)
	if err != nil {
		ctl.sendError(cl, core.ScopeMember, err)
		return
	}
	ctl.Orch.SubscribeUser(cl.user.ID, e.ChannelID)
	ev := core.MemberJoined{ID: m.ID, UserID: m.UserID, ChannelID: m.ChannelID}
	if !created {
		ctl.reply(cl, core.EvMemberJoined, ev)
		return
	}
	ctl.Orch.BroadcastRoom(e.ChannelID, "", core.EvMemberJoined, ev)
}

func (ctl *SignalWSController) handleLeave(ctx context.Context, cl *client, e LeaveChannel) {
	removed, err := ctl.Members.Leave(ctx, cl.user.ID, e.ChannelID)
	if err != nil {
		ctl.sendError(cl, core.ScopeMember, err)
		return
	}
	ev := core.MemberRef{UserID: cl.user.ID, ChannelID: e.ChannelID}
	if removed {
		ctl.Orch.BroadcastRoom(e.ChannelID, "", core.EvMemberLeft, ev)
	} else {
		ctl.reply(cl, core.EvMemberLeft, ev)
	}
	ctl.Orch.UnsubscribeUser(cl.user.ID, e.ChannelID)
}

func (ctl *SignalWSController) handleDeclineInvite(cl *client, e DeclineInvite) {
	ctl.Members.DeclineInvite(cl.user.ID, e.ChannelID)
	ctl.reply(cl, core.EvMemberInvitationCleared, core.ChannelCleared{ChannelID: e.ChannelID})
}

func (ctl *SignalWSController) handleInvite(ctx context.Context, cl *client, e InviteMember) {
	if err := ctl.Members.Invite(ctx, cl.user.ID, e.UserID, e.ChannelID); err != nil {
		ctl.sendError(cl, core.ScopeMember, err)
		return
	}
	ev := core.MemberInvited{UserID: e.UserID, ChannelID: e.ChannelID, InvitedBy: cl.user.ID}
	ctl.Orch.SendToUser(e.UserID, core.EvMemberInvited, ev)
	ctl.Orch.BroadcastRoom(e.ChannelID, "", core.EvMemberInvited, ev)
}

func (ctl *SignalWSController) handleModerate(ctx context.Context, cl *client, e Moderate) {
	switch e.Action {
	case actionKick:
		if err := ctl.Members.Kick(ctx, cl.user.ID, e.TargetID, e.ChannelID); err != nil {
			ctl.sendError(cl, core.ScopeMember, err)
			return
		}
		// Broadcast before unsubscribing so the target sees it too.
		ctl.Orch.BroadcastRoom(e.ChannelID, "", core.EvMemberKicked, core.MemberRef{UserID: e.TargetID, ChannelID: e.ChannelID})
		ctl.Orch.UnsubscribeUser(e.TargetID, e.ChannelID)

	case actionBan:
		if err := ctl.Members.Ban(ctx, cl.user.ID, e.TargetID, e.ChannelID); err != nil {
			ctl.sendError(cl, core.ScopeMember, err)
			return
		}
		ctl.announceBan(e.TargetID, e.ChannelID, domain.BanByAdmin)

	case actionUnban:
		if err := ctl.Members.Unban(ctx, cl.user.ID, e.TargetID, e.ChannelID); err != nil {
			ctl.sendError(cl, core.ScopeMember, err)
			return
		}
		ctl.Orch.BroadcastAll(core.EvMemberUnbanned, core.MemberRef{UserID: e.TargetID, ChannelID: e.ChannelID})

	case actionVoteBan:
		res, err := ctl.Members.VoteBan(ctx, cl.user.ID, e.TargetID, e.ChannelID)
		if err != nil {
			ctl.sendError(cl, core.ScopeMember, err)
			return
		}
		ctl.Orch.BroadcastRoom(e.ChannelID, "", core.EvMemberBanVote, core.BanVote{
			UserID:    e.TargetID,
			ChannelID: e.ChannelID,
			Votes:     res.Votes,
			Threshold: res.Threshold,
		})
		if res.ShouldBan {
			ctl.announceBan(e.TargetID, e.ChannelID, domain.BanByVote)
		}

	default:
		log.Warn().Str("module", "signal").Str("action", e.Action).Msg("unknown moderation action")
	}
}

// announceBan tells everyone, since every client keeps the global ban list,
// then detaches the target's connections from the room.
func (ctl *SignalWSController) announceBan(target domain.UserID, channel domain.ChannelID, reason domain.BanReason) {
	ctl.Orch.BroadcastAll(core.EvMemberBanned, core.MemberBanned{
		UserID:      target,
		ChannelID:   channel,
		IsPermanent: true,
		Reason:      reason,
	})
	ctl.Orch.UnsubscribeUser(target, channel)
}
