package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const MaxMessageLen = 4000

type MessageID string

type Message struct {
	ID             MessageID `json:"id"`
	ChannelID      ChannelID `json:"channelId"`
	AuthorID       UserID    `json:"authorId"`
	AuthorNickname string    `json:"authorNickname,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NormalizeContent rejects whitespace-only and over-long bodies.
// The stored content keeps the author's original formatting.
func NormalizeContent(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > MaxMessageLen {
		return "", ErrMessageTooLong
	}
	return content, nil
}
