package app

import (
	"errors"
	"sync"

	"github.com/dkeye/Circle/internal/core"
	"github.com/dkeye/Circle/internal/domain"
	"github.com/google/uuid"
)

type ConnID string

type ConnState int

const (
	StateUnauthenticated ConnState = iota
	StateAuthenticated
	StateInRoom
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateInRoom:
		return "in_room"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrConnClosed        = errors.New("connection closed")
)

// Conn is one live duplex channel. It belongs to at most one room.
type Conn struct {
	id     ConnID
	signal core.SignalConnection

	mu     sync.RWMutex
	state  ConnState
	userID domain.UserID
	roomID domain.RoomID
}

func NewConn(sig core.SignalConnection) *Conn {
	return &Conn{id: ConnID(uuid.NewString()), signal: sig}
}

func (c *Conn) ID() ConnID { return c.id }

func (c *Conn) State() ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Conn) UserID() domain.UserID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// RoomID reports the current room; ok is false outside IN_ROOM.
func (c *Conn) RoomID() (domain.RoomID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateInRoom {
		return 0, false
	}
	return c.roomID, true
}

func (c *Conn) Authenticate(uid domain.UserID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateUnauthenticated {
		return ErrInvalidTransition
	}
	c.userID = uid
	c.state = StateAuthenticated
	return nil
}

// EnterRoom moves the connection into roomID, replacing any previous room.
func (c *Conn) EnterRoom(roomID domain.RoomID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAuthenticated && c.state != StateInRoom {
		return ErrInvalidTransition
	}
	c.roomID = roomID
	c.state = StateInRoom
	return nil
}

// ExitRoom returns the room the connection left.
func (c *Conn) ExitRoom() (domain.RoomID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateInRoom {
		return 0, false
	}
	prev := c.roomID
	c.roomID = 0
	c.state = StateAuthenticated
	return prev, true
}

// MarkClosed is terminal. It reports the room held at close time, if any.
func (c *Conn) MarkClosed() (domain.RoomID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, inRoom := c.roomID, c.state == StateInRoom
	c.roomID = 0
	c.state = StateClosed
	return prev, inRoom
}

func (c *Conn) Send(f core.Frame) error {
	if c.State() == StateClosed {
		return ErrConnClosed
	}
	return c.signal.TrySend(f)
}

// Close asks the transport to shut down; cleanup runs when its read loop exits.
func (c *Conn) Close() { c.signal.Close() }
