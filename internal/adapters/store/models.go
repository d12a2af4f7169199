package store

import (
	"time"

	"github.com/dkeye/Circle/internal/domain"
)

type userRecord struct {
	ID        string `gorm:"primarykey;size:64"`
	Username  string `gorm:"size:64;not null"`
	CreatedAt time.Time
}

func (userRecord) TableName() string { return "users" }

type roomRecord struct {
	ID        uint   `gorm:"primarykey"`
	Name      string `gorm:"size:100;not null"`
	Budget    int64  `gorm:"not null;default:0"`
	Spent     int64  `gorm:"not null;default:0"`
	CreatedAt time.Time
}

func (roomRecord) TableName() string { return "rooms" }

type membershipRecord struct {
	RoomID    uint   `gorm:"primarykey"`
	UserID    string `gorm:"primarykey;size:64"`
	Role      string `gorm:"size:16;not null;default:member"`
	CreatedAt time.Time
}

func (membershipRecord) TableName() string { return "memberships" }

type messageRecord struct {
	ID        uint   `gorm:"primarykey"`
	RoomID    uint   `gorm:"index;not null"`
	UserID    string `gorm:"size:64;not null"`
	Content   string `gorm:"size:4000;not null"`
	ReplyTo   *uint  `gorm:"index"`
	CreatedAt time.Time
}

func (messageRecord) TableName() string { return "messages" }

type notificationRecord struct {
	ID        uint   `gorm:"primarykey"`
	UserID    string `gorm:"size:64;index;not null"`
	RoomID    uint   `gorm:"not null"`
	ActorID   string `gorm:"size:64;not null"`
	Kind      string `gorm:"size:32;not null"`
	Content   string `gorm:"size:4000"`
	Read      bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (notificationRecord) TableName() string { return "notifications" }

type cartItemRecord struct {
	ID        uint   `gorm:"primarykey"`
	RoomID    uint   `gorm:"index;not null"`
	Name      string `gorm:"size:200;not null"`
	Price     int64  `gorm:"not null"`
	Quantity  int    `gorm:"not null;default:1"`
	AddedBy   string `gorm:"size:64;not null"`
	CreatedAt time.Time
}

func (cartItemRecord) TableName() string { return "cart_items" }

type cartHistoryRecord struct {
	ID        uint   `gorm:"primarykey"`
	RoomID    uint   `gorm:"index;not null"`
	ItemID    uint   `gorm:"not null"`
	UserID    string `gorm:"size:64;not null"`
	Action    string `gorm:"size:16;not null"`
	ItemName  string `gorm:"size:200;not null"`
	Price     int64  `gorm:"not null"`
	Quantity  int    `gorm:"not null"`
	CreatedAt time.Time
}

func (cartHistoryRecord) TableName() string { return "cart_history" }

// voteRecord's composite key is the one-vote-per-(item, user) guarantee.
type voteRecord struct {
	ItemID    uint   `gorm:"primarykey"`
	UserID    string `gorm:"primarykey;size:64"`
	Value     int    `gorm:"not null"`
	UpdatedAt time.Time
}

func (voteRecord) TableName() string { return "votes" }

type taskRecord struct {
	ID         uint    `gorm:"primarykey"`
	RoomID     uint    `gorm:"index;not null"`
	Title      string  `gorm:"size:200;not null"`
	Completed  bool    `gorm:"not null;default:false"`
	AssignedTo *string `gorm:"size:64"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (taskRecord) TableName() string { return "tasks" }

func allModels() []any {
	return []any{
		&userRecord{}, &roomRecord{}, &membershipRecord{}, &messageRecord{},
		&notificationRecord{}, &cartItemRecord{}, &cartHistoryRecord{},
		&voteRecord{}, &taskRecord{},
	}
}

func (r roomRecord) toDomain() *domain.Room {
	return &domain.Room{ID: domain.RoomID(r.ID), Name: r.Name, Budget: r.Budget, Spent: r.Spent}
}

func (r messageRecord) toDomain() *domain.Message {
	m := &domain.Message{
		ID:        domain.MessageID(r.ID),
		RoomID:    domain.RoomID(r.RoomID),
		UserID:    domain.UserID(r.UserID),
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
	if r.ReplyTo != nil {
		parent := domain.MessageID(*r.ReplyTo)
		m.ReplyTo = &parent
	}
	return m
}

func (r cartItemRecord) toDomain() domain.CartItem {
	return domain.CartItem{
		ID:        domain.ItemID(r.ID),
		RoomID:    domain.RoomID(r.RoomID),
		Name:      r.Name,
		Price:     r.Price,
		Quantity:  r.Quantity,
		AddedBy:   domain.UserID(r.AddedBy),
		Votes:     []domain.Vote{},
		CreatedAt: r.CreatedAt,
	}
}

func (r taskRecord) toDomain() *domain.Task {
	t := &domain.Task{
		ID:        domain.TaskID(r.ID),
		RoomID:    domain.RoomID(r.RoomID),
		Title:     r.Title,
		Completed: r.Completed,
		UpdatedAt: r.UpdatedAt,
	}
	if r.AssignedTo != nil {
		uid := domain.UserID(*r.AssignedTo)
		t.AssignedTo = &uid
	}
	return t
}
