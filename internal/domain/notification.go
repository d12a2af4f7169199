package domain

import "time"

type NotificationKind string

const (
	NotifyNewMessage NotificationKind = "new_message"
	NotifyItemAdded  NotificationKind = "item_added"
)

// Notification is one row per recipient per event; never batched.
type Notification struct {
	ID        uint             `json:"id"`
	UserID    UserID           `json:"userId"`
	RoomID    RoomID           `json:"roomId"`
	ActorID   UserID           `json:"actorId"`
	Kind      NotificationKind `json:"kind"`
	Content   string           `json:"content"`
	CreatedAt time.Time        `json:"createdAt"`
}
