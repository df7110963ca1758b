package domain

import "time"

type MembershipID string

// Membership is the durable fact that a user belongs to a channel.
type Membership struct {
	ID        MembershipID `json:"id"`
	UserID    UserID       `json:"userId"`
	ChannelID ChannelID    `json:"channelId"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Ban is independent of membership: a user may be banned from a channel they never joined.
type Ban struct {
	UserID      UserID    `json:"userId"`
	ChannelID   ChannelID `json:"channelId"`
	IsPermanent bool      `json:"isPermanent"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type BanReason string

const (
	BanByAdmin BanReason = "admin"
	BanByVote  BanReason = "vote"
)

// VoteResult is the tally returned to the voter after every ballot.
type VoteResult struct {
	Votes     int  `json:"votes"`
	Threshold int  `json:"threshold"`
	ShouldBan bool `json:"shouldBan"`
}

// VoteThreshold is max(3, ceil(members/2)).
func VoteThreshold(members int) int {
	half := (members + 1) / 2
	if half < 3 {
		return 3
	}
	return half
}
