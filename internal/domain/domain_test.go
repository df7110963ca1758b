package domain

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteThreshold(t *testing.T) {
	cases := []struct {
		members int
		want    int
	}{
		{0, 3}, {1, 3}, {3, 3}, {5, 3}, {6, 3}, {7, 4}, {10, 5}, {11, 6}, {100, 50},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.members), func(t *testing.T) {
			assert.Equal(t, tc.want, VoteThreshold(tc.members))
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeForbidden, CodeOf(ErrBanned))
	assert.Equal(t, CodeNotFound, CodeOf(fmt.Errorf("wrapped: %w", ErrChannelNotFound)))
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("boom")))
	assert.Equal(t, CodeInternal, CodeOf(Internal(fmt.Errorf("db down"))))
}

func TestNormalizeContent(t *testing.T) {
	_, err := NormalizeContent("   \n\t")
	require.ErrorIs(t, err, ErrEmptyMessage)

	_, err = NormalizeContent(strings.Repeat("x", MaxMessageLen+1))
	require.ErrorIs(t, err, ErrMessageTooLong)

	got, err := NormalizeContent("  hi  ")
	require.NoError(t, err)
	assert.Equal(t, "  hi  ", got)
}

func TestNormalizeChannelName(t *testing.T) {
	_, err := NormalizeChannelName(" ")
	require.ErrorIs(t, err, ErrChannelNameEmpty)

	name, err := NormalizeChannelName("  general ")
	require.NoError(t, err)
	assert.Equal(t, "general", name)
}

func TestChannelInactive(t *testing.T) {
	now := time.Now()
	cutoff := now.Add(-time.Hour)
	ch := Channel{}
	assert.True(t, ch.Inactive(cutoff))

	old := now.Add(-2 * time.Hour)
	ch.LastActivity = &old
	assert.True(t, ch.Inactive(cutoff))

	ch.LastActivity = &now
	assert.False(t, ch.Inactive(cutoff))
}

func TestNewUser(t *testing.T) {
	u, err := NewUser(7, " alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Nickname)
	assert.Equal(t, StatusOffline, u.Status)

	_, err = NewUser(7, "")
	require.ErrorIs(t, err, ErrNicknameEmpty)
}
