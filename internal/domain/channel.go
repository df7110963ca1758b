package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const MaxChannelNameLen = 64

type ChannelID string

type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

func VisibilityOf(isPublic bool) Visibility {
	if isPublic {
		return Public
	}
	return Private
}

type Channel struct {
	ID           ChannelID  `json:"id"`
	Name         string     `json:"name"`
	Visibility   Visibility `json:"visibility"`
	AdminID      UserID     `json:"adminId"`
	LastActivity *time.Time `json:"lastActivity,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (c *Channel) IsPublic() bool { return c.Visibility == Public }

func (c *Channel) IsAdmin(id UserID) bool { return c.AdminID == id }

// NormalizeChannelName trims the name and enforces the length bounds.
func NormalizeChannelName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrChannelNameEmpty
	}
	if utf8.RuneCountInString(name) > MaxChannelNameLen {
		return "", ErrChannelNameTooLong
	}
	return name, nil
}

// Inactive reports whether the channel saw no activity since cutoff.
// A channel that never had any activity counts as inactive.
func (c *Channel) Inactive(cutoff time.Time) bool {
	return c.LastActivity == nil || c.LastActivity.Before(cutoff)
}
