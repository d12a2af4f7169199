package domain

import "time"

type ItemID uint

// VoteValue is +1 or -1.
type VoteValue int

const (
	VoteDown VoteValue = -1
	VoteUp   VoteValue = 1
)

func (v VoteValue) Valid() bool { return v == VoteUp || v == VoteDown }

type Vote struct {
	ItemID ItemID    `json:"itemId"`
	UserID UserID    `json:"userId"`
	Value  VoteValue `json:"vote"`
}

// CartItem prices are in minor currency units.
type CartItem struct {
	ID        ItemID    `json:"id"`
	RoomID    RoomID    `json:"roomId"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Quantity  int       `json:"quantity"`
	AddedBy   UserID    `json:"addedBy"`
	Votes     []Vote    `json:"votes"`
	CreatedAt time.Time `json:"createdAt"`
}

func (i CartItem) Total() int64 { return i.Price * int64(i.Quantity) }

type CartAction string

const CartActionAdded CartAction = "added"

type CartHistory struct {
	ID       uint       `json:"id"`
	RoomID   RoomID     `json:"roomId"`
	ItemID   ItemID     `json:"itemId"`
	UserID   UserID     `json:"userId"`
	Action   CartAction `json:"action"`
	ItemName string     `json:"item_name"`
	Price    int64      `json:"price"`
	Quantity int        `json:"quantity"`
}
