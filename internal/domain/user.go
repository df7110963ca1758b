// Package domain contains the chat entities and the error taxonomy shared by every layer.
package domain

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const MaxNicknameLen = 36

type UserID int64

func (id UserID) String() string { return strconv.FormatInt(int64(id), 10) }

type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy, StatusOffline:
		return true
	}
	return false
}

type User struct {
	ID       UserID `json:"id"`
	Nickname string `json:"nickname"`
	Status   Status `json:"status"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(id UserID, nickname string) (*User, error) {
	u := &User{ID: id, Status: StatusOffline}
	if err := u.SetNickname(nickname); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) SetNickname(nickname string) error {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return ErrNicknameEmpty
	}
	if utf8.RuneCountInString(nickname) > MaxNicknameLen {
		return ErrNicknameTooLong
	}
	u.Nickname = nickname
	return nil
}
