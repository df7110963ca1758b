package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Chat/internal/domain"
)

func TestChannelService_Create(t *testing.T) {
	f := newFixture(t)

	ch, err := f.channels.Create(f.ctx, " general ", domain.Public, 1)
	require.NoError(t, err)
	assert.Equal(t, "general", ch.Name)
	require.NotNil(t, ch.LastActivity)
	assert.Equal(t, f.clock.Now(), *ch.LastActivity)

	member, err := f.members.IsMember(f.ctx, 1, ch.ID)
	require.NoError(t, err)
	assert.True(t, member, "creator is enrolled as the first member")

	_, err = f.channels.Create(f.ctx, "general", domain.Private, 2)
	require.ErrorIs(t, err, domain.ErrChannelNameTaken)

	_, err = f.channels.Create(f.ctx, "  ", domain.Public, 2)
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
}

func TestChannelService_Update(t *testing.T) {
	f := newFixture(t)
	a := f.channel(t, "alpha", domain.Public, 1)
	f.channel(t, "beta", domain.Public, 1)

	_, err := f.channels.Update(f.ctx, a.ID, 2, "gamma", domain.Public)
	require.ErrorIs(t, err, domain.ErrNotAdmin)

	_, err = f.channels.Update(f.ctx, a.ID, 1, "beta", domain.Public)
	require.ErrorIs(t, err, domain.ErrChannelNameTaken)

	_, err = f.channels.Update(f.ctx, "missing", 1, "x", domain.Public)
	require.ErrorIs(t, err, domain.ErrChannelNotFound)

	updated, err := f.channels.Update(f.ctx, a.ID, 1, "alpha", domain.Private)
	require.NoError(t, err, "keeping the current name is not a conflict")
	assert.Equal(t, domain.Private, updated.Visibility)

	got, err := f.channels.Get(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Private, got.Visibility)
}

func TestChannelService_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	ch := f.channel(t, "general", domain.Public, 1)
	f.join(t, 2, ch.ID)
	f.join(t, 3, ch.ID)
	require.NoError(t, f.members.Ban(f.ctx, 1, 3, ch.ID))
	require.NoError(t, f.members.Invite(f.ctx, 1, 4, ch.ID))
	_, err := f.members.VoteBan(f.ctx, 1, 2, ch.ID)
	require.NoError(t, err)

	require.ErrorIs(t, f.channels.Delete(f.ctx, ch.ID, 2), domain.ErrNotAdmin)
	require.NoError(t, f.channels.Delete(f.ctx, ch.ID, 1))

	_, err = f.channels.Get(f.ctx, ch.ID)
	require.ErrorIs(t, err, domain.ErrChannelNotFound)

	n, err := f.store.CountMembers(f.ctx, ch.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	bans, err := f.members.AllBans(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, bans)
	assert.Empty(t, f.members.PendingInvites(4))
	assert.Zero(t, f.members.Votes.Count(ch.ID, 2))

	require.ErrorIs(t, f.channels.Delete(f.ctx, ch.ID, 1), domain.ErrChannelNotFound)
}

func TestChannelService_Visible(t *testing.T) {
	f := newFixture(t)
	pub := f.channel(t, "public", domain.Public, 1)
	priv := f.channel(t, "private", domain.Private, 1)
	other := f.channel(t, "other-private", domain.Private, 3)

	list, err := f.channels.Visible(f.ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.ChannelID{pub.ID, priv.ID}, ids(list))

	list, err = f.channels.Visible(f.ctx, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.ChannelID{pub.ID}, ids(list))

	list, err = f.channels.Visible(f.ctx, 3)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.ChannelID{pub.ID, other.ID}, ids(list))
}

func ids(list []domain.Channel) []domain.ChannelID {
	out := make([]domain.ChannelID, 0, len(list))
	for _, ch := range list {
		out = append(out, ch.ID)
	}
	return out
}
