package domain

import "time"

type MessageID uint

// Message is immutable once created. ReplyTo always points at a thread root.
type Message struct {
	ID        MessageID  `json:"id"`
	RoomID    RoomID     `json:"roomId"`
	UserID    UserID     `json:"userId"`
	UserName  string     `json:"userName"`
	Content   string     `json:"content"`
	ReplyTo   *MessageID `json:"replyTo,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
