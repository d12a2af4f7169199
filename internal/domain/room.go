package domain

type RoomID uint

// Room is a circle: a shopping group with a shared budget counter.
type Room struct {
	ID     RoomID `json:"id"`
	Name   string `json:"name"`
	Budget int64  `json:"budget"`
	Spent  int64  `json:"spent"`
}
