package app

import (
	"sync"
	"time"

	"github.com/dkeye/Circle/internal/domain"
	"github.com/dkeye/Circle/internal/protocol"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const DefaultTypingTimeout = 3 * time.Second

// RoomBroadcaster is the fan-out the typing tracker needs.
type RoomBroadcaster interface {
	BroadcastToRoom(roomID domain.RoomID, out protocol.Outbound, exclude domain.UserID) PublishResult
}

type typingKey struct {
	room domain.RoomID
	user domain.UserID
}

type typingEntry struct {
	timer clockwork.Timer
	gen   uint64
	name  string
}

// TypingTracker keeps one auto-clear timer per (room, user). Repeated
// "typing" events push the deadline out instead of stacking timers.
type TypingTracker struct {
	clock   clockwork.Clock
	timeout time.Duration
	bc      RoomBroadcaster

	mu      sync.Mutex
	gen     uint64
	pending map[typingKey]*typingEntry
}

func NewTypingTracker(clock clockwork.Clock, timeout time.Duration, bc RoomBroadcaster) *TypingTracker {
	if timeout <= 0 {
		timeout = DefaultTypingTimeout
	}
	return &TypingTracker{
		clock:   clock,
		timeout: timeout,
		bc:      bc,
		pending: make(map[typingKey]*typingEntry),
	}
}

func (t *TypingTracker) SetTyping(roomID domain.RoomID, user domain.User, isTyping bool) {
	key := typingKey{room: roomID, user: user.ID}
	if !isTyping {
		t.cancel(key)
		t.broadcast(key, user.Username, false)
		return
	}

	t.mu.Lock()
	if prev, ok := t.pending[key]; ok {
		prev.timer.Stop()
	}
	t.gen++
	gen := t.gen
	entry := &typingEntry{gen: gen, name: user.Username}
	entry.timer = t.clock.AfterFunc(t.timeout, func() { t.expire(key, gen) })
	t.pending[key] = entry
	t.mu.Unlock()

	t.broadcast(key, user.Username, true)
}

// Clear drops a pending indicator and announces the stop; no-op otherwise.
func (t *TypingTracker) Clear(roomID domain.RoomID, uid domain.UserID) {
	key := typingKey{room: roomID, user: uid}
	if entry := t.cancel(key); entry != nil {
		t.broadcast(key, entry.name, false)
	}
}

func (t *TypingTracker) cancel(key typingKey) *typingEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.pending[key]
	if !ok {
		return nil
	}
	entry.timer.Stop()
	delete(t.pending, key)
	return entry
}

// expire runs on the timer. A stale generation means the timer was
// replaced or cancelled after it had already fired.
func (t *TypingTracker) expire(key typingKey, gen uint64) {
	t.mu.Lock()
	entry, ok := t.pending[key]
	if !ok || entry.gen != gen {
		t.mu.Unlock()
		return
	}
	delete(t.pending, key)
	t.mu.Unlock()

	log.Debug().Str("module", "app.typing").Uint("room", uint(key.room)).Str("user", string(key.user)).Msg("typing expired")
	t.broadcast(key, entry.name, false)
}

func (t *TypingTracker) broadcast(key typingKey, name string, typing bool) {
	t.bc.BroadcastToRoom(key.room, protocol.TypingState{
		UserID:   key.user,
		UserName: name,
		IsTyping: typing,
	}, key.user)
}
