package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Chat/internal/domain"
)

func TestMessageService_Send(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, 1, "alice")
	bob := f.user(t, 2, "bob")
	ch := f.channel(t, "general", domain.Public, alice.ID)

	_, err := f.messages.Send(f.ctx, alice, ch.ID, "   ")
	require.ErrorIs(t, err, domain.ErrEmptyMessage)

	_, err = f.messages.Send(f.ctx, bob, ch.ID, "hi")
	require.ErrorIs(t, err, domain.ErrNotMember)

	f.clock.Advance(time.Hour)
	msg, err := f.messages.Send(f.ctx, alice, ch.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "alice", msg.AuthorNickname)
	assert.Equal(t, ch.ID, msg.ChannelID)

	got, err := f.channels.Get(f.ctx, ch.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastActivity)
	assert.Equal(t, f.clock.Now(), *got.LastActivity, "sending touches channel activity")

	f.join(t, bob.ID, ch.ID)
	require.NoError(t, f.members.Ban(f.ctx, alice.ID, bob.ID, ch.ID))
	_, err = f.messages.Send(f.ctx, bob, ch.ID, "still here?")
	require.ErrorIs(t, err, domain.ErrBanned)
}

func TestMessageService_Fetch(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, 1, "alice")
	ch := f.channel(t, "general", domain.Public, alice.ID)

	var sent []domain.Message
	for i := 0; i < 7; i++ {
		msg, err := f.messages.Send(f.ctx, alice, ch.ID, fmt.Sprintf("m%d", i))
		require.NoError(t, err)
		sent = append(sent, msg)
	}

	page, err := f.messages.Fetch(f.ctx, alice.ID, ch.ID, "", 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, []string{"m4", "m5", "m6"}, contents(page), "latest page, oldest first")

	page, err = f.messages.Fetch(f.ctx, alice.ID, ch.ID, page[0].ID, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "m3"}, contents(page))

	page, err = f.messages.Fetch(f.ctx, alice.ID, ch.ID, sent[0].ID, 3)
	require.NoError(t, err)
	assert.Empty(t, page)

	page, err = f.messages.Fetch(f.ctx, alice.ID, ch.ID, "does-not-exist", 0)
	require.NoError(t, err)
	assert.Len(t, page, 7, "unknown cursor is ignored and the default limit applies")

	_, err = f.messages.Fetch(f.ctx, 99, ch.ID, "", 10)
	require.ErrorIs(t, err, domain.ErrNotMember)
}

func TestMessageService_FetchClampsLimit(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, 1, "alice")
	ch := f.channel(t, "general", domain.Public, alice.ID)
	for i := 0; i < MaxFetchLimit+5; i++ {
		_, err := f.messages.Send(f.ctx, alice, ch.ID, "x")
		require.NoError(t, err)
	}
	page, err := f.messages.Fetch(f.ctx, alice.ID, ch.ID, "", 1000)
	require.NoError(t, err)
	assert.Len(t, page, MaxFetchLimit)
}

func TestMessageService_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, 1, "alice")
	bob := f.user(t, 2, "bob")
	ch := f.channel(t, "general", domain.Public, alice.ID)
	f.join(t, bob.ID, ch.ID)

	msg, err := f.messages.Send(f.ctx, alice, ch.ID, "first")
	require.NoError(t, err)

	_, err = f.messages.Update(f.ctx, bob.ID, msg.ID, "hijack")
	require.ErrorIs(t, err, domain.ErrNotAuthor)
	_, err = f.messages.Delete(f.ctx, bob.ID, msg.ID)
	require.ErrorIs(t, err, domain.ErrNotAuthor)

	f.clock.Advance(time.Minute)
	updated, err := f.messages.Update(f.ctx, alice.ID, msg.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = f.messages.Update(f.ctx, alice.ID, msg.ID, " ")
	require.ErrorIs(t, err, domain.ErrEmptyMessage)

	deleted, err := f.messages.Delete(f.ctx, alice.ID, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, ch.ID, deleted.ChannelID)

	_, err = f.messages.Delete(f.ctx, alice.ID, msg.ID)
	require.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func contents(page []domain.Message) []string {
	out := make([]string, 0, len(page))
	for _, m := range page {
		out = append(out, m.Content)
	}
	return out
}
