package app

import (
	"sync"

	"github.com/dkeye/Circle/internal/core"
	"github.com/dkeye/Circle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Dropped is a connection a frame could not be handed to.
type Dropped struct {
	Conn *Conn
	Err  error
}

// Registry indexes live connections by their owner. A user may hold
// several connections at once.
type Registry struct {
	mu     sync.RWMutex
	byUser map[domain.UserID]map[ConnID]*Conn
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[domain.UserID]map[ConnID]*Conn)}
}

func (r *Registry) Register(uid domain.UserID, c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns, ok := r.byUser[uid]
	if !ok {
		conns = make(map[ConnID]*Conn)
		r.byUser[uid] = conns
	}
	conns[c.ID()] = c
	log.Info().Str("module", "app.registry").Str("conn", string(c.ID())).Str("user", string(uid)).Int("conns", len(conns)).Msg("registered connection")
}

// Unregister removes c and reports whether its owner has no connections left.
func (r *Registry) Unregister(c *Conn) bool {
	uid := c.UserID()
	r.mu.Lock()
	defer r.mu.Unlock()
	conns, ok := r.byUser[uid]
	if !ok {
		return false
	}
	if _, ok := conns[c.ID()]; !ok {
		return false
	}
	delete(conns, c.ID())
	last := len(conns) == 0
	if last {
		delete(r.byUser, uid)
	}
	log.Info().Str("module", "app.registry").Str("conn", string(c.ID())).Str("user", string(uid)).Bool("last", last).Msg("unregistered connection")
	return last
}

func (r *Registry) ConnsOf(uid domain.UserID) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conn, 0, len(r.byUser[uid]))
	for _, c := range r.byUser[uid] {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Online(uid domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[uid]
	return ok
}

func (r *Registry) UserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// ConnFilter selects which of a user's connections receive a frame.
type ConnFilter func(c *Conn) bool

// InRoom keeps connections currently joined to roomID.
func InRoom(roomID domain.RoomID) ConnFilter {
	return func(c *Conn) bool {
		r, ok := c.RoomID()
		return ok && r == roomID
	}
}

// SendToUser hands f to every writable connection of uid accepted by
// keep (nil keeps all). Delivery is best-effort: failures are returned,
// never retried.
func (r *Registry) SendToUser(uid domain.UserID, f core.Frame, keep ConnFilter) (sent int, dropped []Dropped) {
	for _, c := range r.ConnsOf(uid) {
		if keep != nil && !keep(c) {
			continue
		}
		if err := c.Send(f); err != nil {
			dropped = append(dropped, Dropped{Conn: c, Err: err})
			continue
		}
		sent++
	}
	return sent, dropped
}
