package protocol

import (
	"encoding/json"

	"github.com/dkeye/Circle/internal/domain"
)

const (
	TypeAuthSuccess Type = "auth_success"
	TypeAuthError   Type = "auth_error"
	TypeJoinedRoom  Type = "joined_room"
	TypeLeftRoom    Type = "left_room"
	TypeNewMessage  Type = "new_message"
	TypeCartUpdated Type = "cart_updated"
	TypeItemAdded   Type = "item_added"
	TypeTaskUpdated Type = "task_updated"
	TypeTaskDeleted Type = "task_deleted"
	TypeUserJoined  Type = "user_joined"
	TypeUserLeft    Type = "user_left"
	TypeError       Type = "error"
	TypePong        Type = "pong"
)

// Outbound is a server envelope payload.
type Outbound interface {
	OutboundType() Type
	outbound()
}

type AuthSuccess struct {
	UserID domain.UserID `json:"userId"`
}

type AuthError struct {
	Message string `json:"message"`
}

type JoinedRoom struct {
	RoomID  domain.RoomID   `json:"roomId"`
	Room    *domain.Room    `json:"room,omitempty"`
	Members []domain.UserID `json:"members"`
}

type LeftRoom struct {
	RoomID domain.RoomID `json:"roomId"`
}

type NewMessage struct {
	Message domain.Message `json:"message"`
}

// TypingState is sent under the same "typing" type the client uses.
type TypingState struct {
	UserID   domain.UserID `json:"userId"`
	UserName string        `json:"userName"`
	IsTyping bool          `json:"isTyping"`
}

type CartUpdated struct {
	CartItems []domain.CartItem `json:"cartItems"`
}

type ItemAdded struct {
	Item  domain.CartItem `json:"item"`
	Spent int64           `json:"spent"`
}

type TaskUpdated struct {
	Task      domain.Task   `json:"task"`
	UpdatedBy domain.UserID `json:"updatedBy"`
}

type TaskDeleted struct {
	TaskID    domain.TaskID `json:"taskId"`
	DeletedBy domain.UserID `json:"deletedBy"`
}

type UserJoined struct {
	UserID domain.UserID `json:"userId"`
}

type UserLeft struct {
	UserID domain.UserID `json:"userId"`
}

type Error struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type Pong struct{}

func (AuthSuccess) OutboundType() Type { return TypeAuthSuccess }
func (AuthError) OutboundType() Type   { return TypeAuthError }
func (JoinedRoom) OutboundType() Type  { return TypeJoinedRoom }
func (LeftRoom) OutboundType() Type    { return TypeLeftRoom }
func (NewMessage) OutboundType() Type  { return TypeNewMessage }
func (TypingState) OutboundType() Type { return TypeTyping }
func (CartUpdated) OutboundType() Type { return TypeCartUpdated }
func (ItemAdded) OutboundType() Type   { return TypeItemAdded }
func (TaskUpdated) OutboundType() Type { return TypeTaskUpdated }
func (TaskDeleted) OutboundType() Type { return TypeTaskDeleted }
func (UserJoined) OutboundType() Type  { return TypeUserJoined }
func (UserLeft) OutboundType() Type    { return TypeUserLeft }
func (Error) OutboundType() Type       { return TypeError }
func (Pong) OutboundType() Type        { return TypePong }

func (AuthSuccess) outbound() {}
func (AuthError) outbound()   {}
func (JoinedRoom) outbound()  {}
func (LeftRoom) outbound()    {}
func (NewMessage) outbound()  {}
func (TypingState) outbound() {}
func (CartUpdated) outbound() {}
func (ItemAdded) outbound()   {}
func (TaskUpdated) outbound() {}
func (TaskDeleted) outbound() {}
func (UserJoined) outbound()  {}
func (UserLeft) outbound()    {}
func (Error) outbound()       {}
func (Pong) outbound()        {}

type envelope struct {
	Type Type     `json:"type"`
	Data Outbound `json:"data"`
}

// Encode renders an outbound payload as a wire envelope.
func Encode(o Outbound) ([]byte, error) {
	return json.Marshal(envelope{Type: o.OutboundType(), Data: o})
}

// Envelope is the generic decoded form used by clients and tests.
type Envelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data"`
}
