package orch

import (
	"hash/fnv"
	"sync"

	"github.com/dkeye/Circle/internal/domain"
)

const lockStripes = 64

// userLocks serialises presence changes of one user across all of the
// user's connections. Unrelated users may share a stripe.
type userLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *userLocks) lock(uid domain.UserID) (unlock func()) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(uid))
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
