package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dkeye/Circle/internal/core"
	"github.com/dkeye/Circle/internal/domain"
	"github.com/rs/zerolog/log"
)

// Directory tracks which users are present in which room right now.
// Persisted membership is consulted on join and never cached.
type Directory struct {
	members core.MembershipStore

	mu    sync.RWMutex
	rooms map[domain.RoomID]map[domain.UserID]struct{}
}

func NewDirectory(members core.MembershipStore) *Directory {
	return &Directory{
		members: members,
		rooms:   make(map[domain.RoomID]map[domain.UserID]struct{}),
	}
}

// Join adds uid to the presence set of roomID after checking membership.
// added is false when uid was already present.
func (d *Directory) Join(ctx context.Context, roomID domain.RoomID, uid domain.UserID) (added bool, err error) {
	if _, err := d.members.GetMembership(ctx, uid, roomID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, fmt.Errorf("%w: not a member of room %d", domain.ErrMembership, roomID)
		}
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	set, ok := d.rooms[roomID]
	if !ok {
		set = make(map[domain.UserID]struct{})
		d.rooms[roomID] = set
	}
	if _, ok := set[uid]; ok {
		return false, nil
	}
	set[uid] = struct{}{}
	log.Info().Str("module", "app.rooms").Uint("room", uint(roomID)).Str("user", string(uid)).Int("present", len(set)).Msg("user present")
	return true, nil
}

// Leave is idempotent; removed reports whether uid was present.
func (d *Directory) Leave(roomID domain.RoomID, uid domain.UserID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	set, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := set[uid]; !ok {
		return false
	}
	delete(set, uid)
	if len(set) == 0 {
		delete(d.rooms, roomID)
	}
	log.Info().Str("module", "app.rooms").Uint("room", uint(roomID)).Str("user", string(uid)).Msg("user absent")
	return true
}

// Members returns a sorted snapshot of the presence set.
func (d *Directory) Members(roomID domain.RoomID) []domain.UserID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.UserID, 0, len(d.rooms[roomID]))
	for uid := range d.rooms[roomID] {
		out = append(out, uid)
	}
	slices.Sort(out)
	return out
}

func (d *Directory) Count(roomID domain.RoomID) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms[roomID])
}
