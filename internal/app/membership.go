package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
)

// MembershipService is the only writer of memberships, bans, invites and ballots.
// Every operation re-reads durable state before deciding.
type MembershipService struct {
	Channels core.ChannelStore
	Members  core.MembershipStore
	Bans     core.BanStore
	Invites  *InviteTracker
	Votes    *VoteTracker
	Now      func() time.Time
}

func NewMembershipService(store core.Store, invites *InviteTracker, votes *VoteTracker) *MembershipService {
	return &MembershipService{
		Channels: store,
		Members:  store,
		Bans:     store,
		Invites:  invites,
		Votes:    votes,
		Now:      utcNow,
	}
}

func utcNow() time.Time { return time.Now().UTC() }

// Join adds user to channel. created is false when the user already belonged to it.
func (s *MembershipService) Join(ctx context.Context, user domain.UserID, channel domain.ChannelID) (m domain.Membership, created bool, err error) {
	ch, err := loadChannel(ctx, s.Channels, channel, "app.Membership.Join.channel")
	if err != nil {
		return domain.Membership{}, false, err
	}
	banned, err := s.IsBanned(ctx, user, channel)
	if err != nil {
		return domain.Membership{}, false, err
	}
	if banned {
		return domain.Membership{}, false, domain.ErrBanned
	}
	existing, err := s.Members.GetMembership(ctx, user, channel)
	if err == nil {
		return existing, false, nil
	}
	if !isNotFound(err) {
		return domain.Membership{}, false, storeErr(err, "app.Membership.Join.lookup")
	}
	if !ch.IsPublic() && !ch.IsAdmin(user) && !s.Invites.Has(user, channel) {
		return domain.Membership{}, false, domain.ErrNotInvited
	}

	now := s.Now()
	m = domain.Membership{
		ID:        domain.MembershipID(uuid.NewString()),
		UserID:    user,
		ChannelID: channel,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Members.AddMembership(ctx, m); err != nil {
		if !isDuplicate(err) {
			return domain.Membership{}, false, storeErr(err, "app.Membership.Join.insert")
		}
		// A concurrent join won the insert; report the row it wrote.
		existing, err := s.Members.GetMembership(ctx, user, channel)
		if err != nil {
			return domain.Membership{}, false, storeErr(err, "app.Membership.Join.reread")
		}
		s.Invites.Remove(user, channel)
		return existing, false, nil
	}
	s.Invites.Remove(user, channel)
	log.Info().Str("module", "app.membership").Str("user", user.String()).Str("channel", string(channel)).Msg("joined")
	return m, true, nil
}

// Leave removes the membership. Leaving a channel one is not in is a no-op.
func (s *MembershipService) Leave(ctx context.Context, user domain.UserID, channel domain.ChannelID) (bool, error) {
	removed, err := s.Members.DeleteMembership(ctx, user, channel)
	if err != nil {
		return false, storeErr(err, "app.Membership.Leave")
	}
	if removed {
		log.Info().Str("module", "app.membership").Str("user", user.String()).Str("channel", string(channel)).Msg("left")
	}
	return removed, nil
}

func (s *MembershipService) Invite(ctx context.Context, inviter, invited domain.UserID, channel domain.ChannelID) error {
	ch, err := loadChannel(ctx, s.Channels, channel, "app.Membership.Invite.channel")
	if err != nil {
		return err
	}
	if !ch.IsPublic() && !ch.IsAdmin(inviter) {
		return domain.ErrNotAdmin
	}
	banned, err := s.IsBanned(ctx, invited, channel)
	if err != nil {
		return err
	}
	if banned {
		return domain.ErrTargetBanned
	}
	member, err := s.IsMember(ctx, invited, channel)
	if err != nil {
		return err
	}
	if member {
		return domain.ErrAlreadyMember
	}
	s.Invites.Add(invited, channel, inviter)
	log.Info().Str("module", "app.membership").Str("inviter", inviter.String()).Str("invited", invited.String()).Str("channel", string(channel)).Msg("invited")
	return nil
}

func (s *MembershipService) DeclineInvite(user domain.UserID, channel domain.ChannelID) bool {
	return s.Invites.Remove(user, channel)
}

// Kick removes target without banning; target may rejoin public channels.
func (s *MembershipService) Kick(ctx context.Context, admin, target domain.UserID, channel domain.ChannelID) error {
	ch, err := loadChannel(ctx, s.Channels, channel, "app.Membership.Kick.channel")
	if err != nil {
		return err
	}
	if !ch.IsAdmin(admin) {
		return domain.ErrNotAdmin
	}
	if _, err := s.Members.DeleteMembership(ctx, target, channel); err != nil {
		return storeErr(err, "app.Membership.Kick")
	}
	s.Invites.Remove(target, channel)
	log.Info().Str("module", "app.membership").Str("target", target.String()).Str("channel", string(channel)).Msg("kicked")
	return nil
}

func (s *MembershipService) Ban(ctx context.Context, admin, target domain.UserID, channel domain.ChannelID) error {
	ch, err := loadChannel(ctx, s.Channels, channel, "app.Membership.Ban.channel")
	if err != nil {
		return err
	}
	if !ch.IsAdmin(admin) {
		return domain.ErrNotAdmin
	}
	if ch.IsAdmin(target) {
		return domain.ErrTargetIsAdmin
	}
	return s.FinalizeBan(ctx, target, channel)
}

// Unban lifts the ban. The former membership is not restored.
func (s *MembershipService) Unban(ctx context.Context, admin, target domain.UserID, channel domain.ChannelID) error {
	ch, err := loadChannel(ctx, s.Channels, channel, "app.Membership.Unban.channel")
	if err != nil {
		return err
	}
	if !ch.IsAdmin(admin) {
		return domain.ErrNotAdmin
	}
	if err := s.Bans.DeleteBan(ctx, target, channel); err != nil {
		return storeErr(err, "app.Membership.Unban")
	}
	s.Votes.Clear(channel, target)
	log.Info().Str("module", "app.membership").Str("target", target.String()).Str("channel", string(channel)).Msg("unbanned")
	return nil
}

// VoteBan records voter's ballot against target and bans once the
// threshold, computed from the live member count, is reached.
func (s *MembershipService) VoteBan(ctx context.Context, voter, target domain.UserID, channel domain.ChannelID) (domain.VoteResult, error) {
	if voter == target {
		return domain.VoteResult{}, domain.ErrSelfVote
	}
	ch, err := loadChannel(ctx, s.Channels, channel, "app.Membership.VoteBan.channel")
	if err != nil {
		return domain.VoteResult{}, err
	}
	if ch.IsAdmin(target) {
		return domain.VoteResult{}, domain.ErrTargetIsAdmin
	}
	targetMember, err := s.IsMember(ctx, target, channel)
	if err != nil {
		return domain.VoteResult{}, err
	}
	if !targetMember {
		return domain.VoteResult{}, domain.ErrTargetNotMember
	}

	count, err := s.Members.CountMembers(ctx, channel)
	if err != nil {
		return domain.VoteResult{}, storeErr(err, "app.Membership.VoteBan.count")
	}
	votes := s.Votes.Vote(channel, target, voter)
	res := domain.VoteResult{Votes: votes, Threshold: domain.VoteThreshold(count)}
	res.ShouldBan = res.Votes >= res.Threshold
	log.Info().Str("module", "app.membership").Str("target", target.String()).Str("channel", string(channel)).
		Int("votes", res.Votes).Int("threshold", res.Threshold).Msg("ban vote")
	if res.ShouldBan {
		if err := s.FinalizeBan(ctx, target, channel); err != nil {
			return res, err
		}
	}
	return res, nil
}

// FinalizeBan is idempotent: it upserts the ban and clears membership, ballot and invite.
func (s *MembershipService) FinalizeBan(ctx context.Context, target domain.UserID, channel domain.ChannelID) error {
	now := s.Now()
	ban := domain.Ban{UserID: target, ChannelID: channel, IsPermanent: true, CreatedAt: now, UpdatedAt: now}
	if err := s.Bans.UpsertBan(ctx, ban); err != nil {
		return storeErr(err, "app.Membership.FinalizeBan.upsert")
	}
	if _, err := s.Members.DeleteMembership(ctx, target, channel); err != nil {
		return storeErr(err, "app.Membership.FinalizeBan.membership")
	}
	s.Votes.Clear(channel, target)
	s.Invites.Remove(target, channel)
	log.Info().Str("module", "app.membership").Str("target", target.String()).Str("channel", string(channel)).Msg("banned")
	return nil
}

// EnrollAdmin makes the creator of a channel its first member.
func (s *MembershipService) EnrollAdmin(ctx context.Context, ch domain.Channel) (domain.Membership, error) {
	m := domain.Membership{
		ID:        domain.MembershipID(uuid.NewString()),
		UserID:    ch.AdminID,
		ChannelID: ch.ID,
		CreatedAt: ch.CreatedAt,
		UpdatedAt: ch.CreatedAt,
	}
	if err := s.Members.AddMembership(ctx, m); err != nil && !isDuplicate(err) {
		return domain.Membership{}, storeErr(err, "app.Membership.EnrollAdmin")
	}
	return m, nil
}

// PurgeChannel drops every membership, ban, invite and ballot of a deleted channel.
func (s *MembershipService) PurgeChannel(ctx context.Context, channel domain.ChannelID) error {
	if err := s.Members.DeleteChannelMemberships(ctx, channel); err != nil {
		return storeErr(err, "app.Membership.PurgeChannel.memberships")
	}
	if err := s.Bans.DeleteChannelBans(ctx, channel); err != nil {
		return storeErr(err, "app.Membership.PurgeChannel.bans")
	}
	s.Invites.RemoveChannel(channel)
	s.Votes.ClearChannel(channel)
	return nil
}

func (s *MembershipService) IsMember(ctx context.Context, user domain.UserID, channel domain.ChannelID) (bool, error) {
	_, err := s.Members.GetMembership(ctx, user, channel)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, storeErr(err, "app.Membership.IsMember")
	}
	return true, nil
}

func (s *MembershipService) IsBanned(ctx context.Context, user domain.UserID, channel domain.ChannelID) (bool, error) {
	ban, err := s.Bans.GetBan(ctx, user, channel)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, storeErr(err, "app.Membership.IsBanned")
	}
	return ban.IsPermanent, nil
}

func (s *MembershipService) AllBans(ctx context.Context) ([]domain.Ban, error) {
	bans, err := s.Bans.ListBans(ctx)
	if err != nil {
		return nil, storeErr(err, "app.Membership.AllBans")
	}
	out := bans[:0]
	for _, b := range bans {
		if b.IsPermanent {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MembershipService) UserChannels(ctx context.Context, user domain.UserID) ([]domain.ChannelID, error) {
	ids, err := s.Members.ChannelsOfUser(ctx, user)
	if err != nil {
		return nil, storeErr(err, "app.Membership.UserChannels")
	}
	return ids, nil
}

func (s *MembershipService) PendingInvites(user domain.UserID) []PendingInvite {
	return s.Invites.Of(user)
}
