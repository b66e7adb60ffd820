package models

import "time"

// Comment is one message in a card's discussion thread.
type Comment struct {
	ID        int64     `json:"id"`
	Text      string    `json:"texto"`
	Author    string    `json:"autor"`
	CreatedAt time.Time `json:"dataHora"`
	CardID    int64     `json:"-"`
}

// NewComment builds a comment for cardID stamped with now.
func NewComment(cardID int64, text, author string, now time.Time) *Comment {
	return &Comment{
		Text:      text,
		Author:    author,
		CreatedAt: now,
		CardID:    cardID,
	}
}
