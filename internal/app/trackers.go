package app

import (
	"sync"

	"github.com/dkeye/Chat/internal/domain"
)

// InviteTracker holds pending invitations in memory. They do not survive a restart.
type InviteTracker struct {
	mu      sync.Mutex
	pending map[domain.UserID]map[domain.ChannelID]domain.UserID
}

func NewInviteTracker() *InviteTracker {
	return &InviteTracker{pending: make(map[domain.UserID]map[domain.ChannelID]domain.UserID)}
}

func (t *InviteTracker) Add(user domain.UserID, channel domain.ChannelID, by domain.UserID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	chans, ok := t.pending[user]
	if !ok {
		chans = make(map[domain.ChannelID]domain.UserID)
		t.pending[user] = chans
	}
	chans[channel] = by
}

func (t *InviteTracker) Has(user domain.UserID, channel domain.ChannelID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[user][channel]
	return ok
}

// Remove reports whether an invite was pending.
func (t *InviteTracker) Remove(user domain.UserID, channel domain.ChannelID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	chans, ok := t.pending[user]
	if !ok {
		return false
	}
	if _, ok = chans[channel]; !ok {
		return false
	}
	delete(chans, channel)
	if len(chans) == 0 {
		delete(t.pending, user)
	}
	return true
}

// RemoveChannel drops every pending invite to channel.
func (t *InviteTracker) RemoveChannel(channel domain.ChannelID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for user, chans := range t.pending {
		delete(chans, channel)
		if len(chans) == 0 {
			delete(t.pending, user)
		}
	}
}

type PendingInvite struct {
	ChannelID domain.ChannelID
	InvitedBy domain.UserID
}

func (t *InviteTracker) Of(user domain.UserID) []PendingInvite {
	t.mu.Lock()
	defer t.mu.Unlock()
	chans := t.pending[user]
	out := make([]PendingInvite, 0, len(chans))
	for ch, by := range chans {
		out = append(out, PendingInvite{ChannelID: ch, InvitedBy: by})
	}
	return out
}

type ballotKey struct {
	channel domain.ChannelID
	target  domain.UserID
}

// VoteTracker holds open ban ballots in memory. They do not survive a restart.
type VoteTracker struct {
	mu      sync.Mutex
	ballots map[ballotKey]map[domain.UserID]struct{}
}

func NewVoteTracker() *VoteTracker {
	return &VoteTracker{ballots: make(map[ballotKey]map[domain.UserID]struct{})}
}

// Vote records voter's ballot and returns the number of distinct voters.
func (t *VoteTracker) Vote(channel domain.ChannelID, target, voter domain.UserID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	k := ballotKey{channel: channel, target: target}
	voters, ok := t.ballots[k]
	if !ok {
		voters = make(map[domain.UserID]struct{})
		t.ballots[k] = voters
	}
	voters[voter] = struct{}{}
	return len(voters)
}

func (t *VoteTracker) Count(channel domain.ChannelID, target domain.UserID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ballots[ballotKey{channel: channel, target: target}])
}

func (t *VoteTracker) Clear(channel domain.ChannelID, target domain.UserID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ballots, ballotKey{channel: channel, target: target})
}

func (t *VoteTracker) ClearChannel(channel domain.ChannelID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.ballots {
		if k.channel == channel {
			delete(t.ballots, k)
		}
	}
}
