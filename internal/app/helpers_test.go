package app

import (
	"encoding/json"
	"sync"

	"github.com/dkeye/Circle/internal/core"
	"github.com/dkeye/Circle/internal/domain"
	"github.com/dkeye/Circle/internal/protocol"
)

// fakeSignal records frames; full makes TrySend report backpressure.
type fakeSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (f *fakeSignal) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return core.ErrConnClosed
	}
	if f.full {
		return core.ErrBackpressure
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSignal) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSignal) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSignal) envelopes() []protocol.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.Envelope, 0, len(f.frames))
	for _, fr := range f.frames {
		var env protocol.Envelope
		if err := json.Unmarshal(fr, &env); err == nil {
			out = append(out, env)
		}
	}
	return out
}

func (f *fakeSignal) count(t protocol.Type) int {
	n := 0
	for _, env := range f.envelopes() {
		if env.Type == t {
			n++
		}
	}
	return n
}

func authedConn(uid domain.UserID) (*Conn, *fakeSignal) {
	sig := &fakeSignal{}
	c := NewConn(sig)
	_ = c.Authenticate(uid)
	return c, sig
}

// recordingBroadcaster captures typing fan-out for tracker tests.
type recordingBroadcaster struct {
	mu   sync.Mutex
	sent []broadcastCall
}

type broadcastCall struct {
	room    domain.RoomID
	out     protocol.Outbound
	exclude domain.UserID
}

func (r *recordingBroadcaster) BroadcastToRoom(roomID domain.RoomID, out protocol.Outbound, exclude domain.UserID) PublishResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, broadcastCall{room: roomID, out: out, exclude: exclude})
	return PublishResult{}
}

func (r *recordingBroadcaster) typingEvents(typing bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.sent {
		if ts, ok := c.out.(protocol.TypingState); ok && ts.IsTyping == typing {
			n++
		}
	}
	return n
}

// isPending reports whether an auto-clear timer is armed for (room, user).
func (t *TypingTracker) isPending(roomID domain.RoomID, uid domain.UserID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[typingKey{room: roomID, user: uid}]
	return ok
}
