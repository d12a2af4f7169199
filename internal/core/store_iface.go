package core

import (
	"context"

	"github.com/dkeye/Circle/internal/domain"
)

//go:generate mockgen -destination=mocks/mock_core.go -package=mocks github.com/dkeye/Circle/internal/core TokenVerifier,MembershipStore

// The interfaces below are the persistence collaborators the relay
// consumes. Missing rows are reported as domain.ErrNotFound, store
// failures as domain.ErrPersistence.

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (domain.UserID, error)
}

type MembershipStore interface {
	GetMembership(ctx context.Context, userID domain.UserID, roomID domain.RoomID) (*domain.Membership, error)
	GetRoomMembers(ctx context.Context, roomID domain.RoomID) ([]domain.UserID, error)
}

type UserStore interface {
	GetUserProfile(ctx context.Context, userID domain.UserID) (*domain.User, error)
}

type RoomStore interface {
	GetRoom(ctx context.Context, roomID domain.RoomID) (*domain.Room, error)
	// AddSpent atomically increments the room's spent counter and
	// returns the new value.
	AddSpent(ctx context.Context, roomID domain.RoomID, delta int64) (int64, error)
}

type MessageStore interface {
	CreateMessage(ctx context.Context, msg *domain.Message) error
	GetMessage(ctx context.Context, id domain.MessageID) (*domain.Message, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
}

type CartStore interface {
	GetCartItems(ctx context.Context, roomID domain.RoomID) ([]domain.CartItem, error)
	GetCartItem(ctx context.Context, itemID domain.ItemID) (*domain.CartItem, error)
	CreateCartItem(ctx context.Context, item *domain.CartItem) error
	CreateCartHistory(ctx context.Context, h *domain.CartHistory) error
}

type VoteStore interface {
	GetVote(ctx context.Context, itemID domain.ItemID, userID domain.UserID) (*domain.Vote, error)
	CreateVote(ctx context.Context, v *domain.Vote) error
	UpdateVote(ctx context.Context, v *domain.Vote) error
	DeleteVote(ctx context.Context, itemID domain.ItemID, userID domain.UserID) error
}

type TaskStore interface {
	GetTask(ctx context.Context, taskID domain.TaskID) (*domain.Task, error)
	UpdateTask(ctx context.Context, taskID domain.TaskID, upd domain.TaskUpdate) (*domain.Task, error)
	DeleteTask(ctx context.Context, taskID domain.TaskID) error
}

// Store is everything the side-effect handlers need.
type Store interface {
	MembershipStore
	UserStore
	RoomStore
	MessageStore
	NotificationStore
	CartStore
	VoteStore
	TaskStore
}
