// Package protocol defines the {type, data} envelopes exchanged over the
// duplex connection. Inbound and Outbound are closed sets: only types
// declared in this package satisfy them.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dkeye/Circle/internal/domain"
	"github.com/go-playground/validator/v10"
)

type Type string

const (
	TypeAuth        Type = "auth"
	TypeJoinRoom    Type = "join_room"
	TypeLeaveRoom   Type = "leave_room"
	TypeSendMessage Type = "send_message"
	TypeTyping      Type = "typing"
	TypeVoteItem    Type = "vote_item"
	TypeAddCartItem Type = "add_cart_item"
	TypeUpdateTask  Type = "update_task"
	TypeDeleteTask  Type = "delete_task"
	TypePing        Type = "ping"
)

// Inbound is a decoded client envelope.
type Inbound interface {
	InboundType() Type
	inbound()
}

type Auth struct {
	Token string `json:"token" validate:"required"`
}

type JoinRoom struct {
	RoomID domain.RoomID `json:"roomId" validate:"required"`
}

type LeaveRoom struct {
	RoomID domain.RoomID `json:"roomId" validate:"required"`
}

type SendMessage struct {
	Content string            `json:"content" validate:"required,max=4000"`
	ReplyTo *domain.MessageID `json:"replyTo,omitempty" validate:"omitempty,gt=0"`
}

type Typing struct {
	IsTyping *bool `json:"isTyping" validate:"required"`
}

type VoteItem struct {
	ItemID domain.ItemID    `json:"itemId" validate:"required"`
	Vote   domain.VoteValue `json:"vote" validate:"oneof=-1 1"`
}

// AddCartItem caps price at 1e14 so price times the largest quantity
// stays inside int64.
type AddCartItem struct {
	Name     string `json:"name" validate:"required,max=200"`
	Price    int64  `json:"price" validate:"gte=0,lte=100000000000000"`
	Quantity *int   `json:"quantity,omitempty" validate:"omitempty,gte=1,lte=10000"`
}

// Qty returns the requested quantity, defaulting to one.
func (a AddCartItem) Qty() int {
	if a.Quantity == nil {
		return 1
	}
	return *a.Quantity
}

type UpdateTask struct {
	TaskID  domain.TaskID     `json:"taskId" validate:"required"`
	Updates domain.TaskUpdate `json:"updates"`
}

type DeleteTask struct {
	TaskID domain.TaskID `json:"taskId" validate:"required"`
}

type Ping struct{}

func (Auth) InboundType() Type        { return TypeAuth }
func (JoinRoom) InboundType() Type    { return TypeJoinRoom }
func (LeaveRoom) InboundType() Type   { return TypeLeaveRoom }
func (SendMessage) InboundType() Type { return TypeSendMessage }
func (Typing) InboundType() Type      { return TypeTyping }
func (VoteItem) InboundType() Type    { return TypeVoteItem }
func (AddCartItem) InboundType() Type { return TypeAddCartItem }
func (UpdateTask) InboundType() Type  { return TypeUpdateTask }
func (DeleteTask) InboundType() Type  { return TypeDeleteTask }
func (Ping) InboundType() Type        { return TypePing }

func (Auth) inbound()        {}
func (JoinRoom) inbound()    {}
func (LeaveRoom) inbound()   {}
func (SendMessage) inbound() {}
func (Typing) inbound()      {}
func (VoteItem) inbound()    {}
func (AddCartItem) inbound() {}
func (UpdateTask) inbound()  {}
func (DeleteTask) inbound()  {}
func (Ping) inbound()        {}

var validate = validator.New(validator.WithRequiredStructEnabled())

type rawEnvelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Decode parses and validates one inbound envelope. Every failure wraps
// domain.ErrProtocol.
func Decode(raw []byte) (Inbound, error) {
	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope", domain.ErrProtocol)
	}

	var in Inbound
	var err error
	switch env.Type {
	case TypeAuth:
		in, err = decodeData[Auth](env.Data)
	case TypeJoinRoom:
		in, err = decodeData[JoinRoom](env.Data)
	case TypeLeaveRoom:
		in, err = decodeData[LeaveRoom](env.Data)
	case TypeSendMessage:
		in, err = decodeData[SendMessage](env.Data)
	case TypeTyping:
		in, err = decodeData[Typing](env.Data)
	case TypeVoteItem:
		in, err = decodeData[VoteItem](env.Data)
	case TypeAddCartItem:
		in, err = decodeData[AddCartItem](env.Data)
	case TypeUpdateTask:
		var u UpdateTask
		u, err = decodeData[UpdateTask](env.Data)
		if err == nil && u.Updates.Empty() {
			err = fmt.Errorf("%w: update_task: updates must not be empty", domain.ErrProtocol)
		}
		in = u
	case TypeDeleteTask:
		in, err = decodeData[DeleteTask](env.Data)
	case TypePing:
		in = Ping{}
	case "":
		return nil, fmt.Errorf("%w: missing type", domain.ErrProtocol)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", domain.ErrProtocol, env.Type)
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

func decodeData[T any](data json.RawMessage) (T, error) {
	var v T
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: malformed data", domain.ErrProtocol)
	}
	if err := validate.Struct(v); err != nil {
		return v, fmt.Errorf("%w: %s", domain.ErrProtocol, describe(err))
	}
	return v, nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "invalid data"
	}
	fe := verrs[0]
	return fmt.Sprintf("field %s failed %s", fe.Field(), fe.Tag())
}
