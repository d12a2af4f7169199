package domain

import "time"

type TaskID uint

type Task struct {
	ID         TaskID    `json:"id"`
	RoomID     RoomID    `json:"roomId"`
	Title      string    `json:"title"`
	Completed  bool      `json:"completed"`
	AssignedTo *UserID   `json:"assignedTo,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TaskUpdate carries only the fields a client asked to change.
type TaskUpdate struct {
	Title      *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Completed  *bool   `json:"completed,omitempty"`
	AssignedTo *UserID `json:"assignedTo,omitempty"`
}

func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Completed == nil && u.AssignedTo == nil
}
