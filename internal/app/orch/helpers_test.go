package orch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Circle/internal/adapters/store"
	"github.com/dkeye/Circle/internal/app"
	"github.com/dkeye/Circle/internal/core"
	"github.com/dkeye/Circle/internal/core/mocks"
	"github.com/dkeye/Circle/internal/domain"
	"github.com/dkeye/Circle/internal/protocol"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeSignal struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (f *fakeSignal) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return core.ErrConnClosed
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSignal) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSignal) envelopes(t protocol.Type) []protocol.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []protocol.Envelope
	for _, fr := range f.frames {
		var env protocol.Envelope
		if err := json.Unmarshal(fr, &env); err == nil && env.Type == t {
			out = append(out, env)
		}
	}
	return out
}

func (f *fakeSignal) count(t protocol.Type) int { return len(f.envelopes(t)) }

func (f *fakeSignal) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

// last decodes the most recent envelope of type t into v.
func (f *fakeSignal) last(t *testing.T, typ protocol.Type, v any) {
	t.Helper()
	envs := f.envelopes(typ)
	require.NotEmpty(t, envs, "no %s envelope", typ)
	require.NoError(t, json.Unmarshal(envs[len(envs)-1].Data, v))
}

// recordingStore counts side effects and can fail notification writes
// or pause room lookups.
type recordingStore struct {
	core.Store

	mu         sync.Mutex
	notified   map[domain.UserID]int
	history    []domain.CartHistory
	failNotify map[domain.UserID]bool
	onGetRoom  func()
}

func newRecordingStore(st core.Store) *recordingStore {
	return &recordingStore{
		Store:      st,
		notified:   make(map[domain.UserID]int),
		failNotify: make(map[domain.UserID]bool),
	}
}

func (r *recordingStore) CreateNotification(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	fail := r.failNotify[n.UserID]
	r.mu.Unlock()
	if fail {
		return fmt.Errorf("create notification: %w: %w", domain.ErrPersistence, errors.New("disk full"))
	}
	if err := r.Store.CreateNotification(ctx, n); err != nil {
		return err
	}
	r.mu.Lock()
	r.notified[n.UserID]++
	r.mu.Unlock()
	return nil
}

func (r *recordingStore) CreateCartHistory(ctx context.Context, h *domain.CartHistory) error {
	if err := r.Store.CreateCartHistory(ctx, h); err != nil {
		return err
	}
	r.mu.Lock()
	r.history = append(r.history, *h)
	r.mu.Unlock()
	return nil
}

func (r *recordingStore) GetRoom(ctx context.Context, roomID domain.RoomID) (*domain.Room, error) {
	r.mu.Lock()
	hook := r.onGetRoom
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return r.Store.GetRoom(ctx, roomID)
}

func (r *recordingStore) setGetRoomHook(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onGetRoom = fn
}

func (r *recordingStore) failNotificationsFor(uid domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNotify[uid] = true
}

func (r *recordingStore) notifications(uid domain.UserID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notified[uid]
}

func (r *recordingStore) historyRows() []domain.CartHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.CartHistory(nil), r.history...)
}

type harness struct {
	t     *testing.T
	store *store.Store
	rec   *recordingStore
	orch  *Orchestrator
	clock *clockwork.FakeClock
	room  domain.RoomID
}

// newHarness wires the orchestrator over an in-memory database. Tokens
// of the form "tok-<user>" verify as <user>.
func newHarness(t *testing.T) *harness {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctrl := gomock.NewController(t)
	tokens := mocks.NewMockTokenVerifier(ctrl)
	tokens.EXPECT().VerifyToken(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, token string) (domain.UserID, error) {
		if uid, ok := strings.CutPrefix(token, "tok-"); ok && uid != "" {
			return domain.UserID(uid), nil
		}
		return "", fmt.Errorf("%w: invalid token", domain.ErrAuth)
	}).AnyTimes()

	clock := clockwork.NewFakeClock()
	rec := newRecordingStore(s)
	h := &harness{
		t:     t,
		store: s,
		rec:   rec,
		clock: clock,
		orch:  New(rec, tokens, clock, 3*time.Second, 2),
	}
	h.room = h.seedRoom("Flat 4", "ann", "bob", "cat")
	return h
}

func (h *harness) seedRoom(name string, members ...domain.UserID) domain.RoomID {
	h.t.Helper()
	ctx := context.Background()
	room := &domain.Room{Name: name, Budget: 10000}
	require.NoError(h.t, h.store.CreateRoom(ctx, room))
	for _, uid := range members {
		_ = h.store.CreateUser(ctx, domain.User{ID: uid, Username: strings.ToUpper(string(uid[:1])) + string(uid[1:])})
		require.NoError(h.t, h.store.AddMember(ctx, domain.Membership{RoomID: room.ID, UserID: uid}))
	}
	return room.ID
}

func (h *harness) connect() (*app.Conn, *fakeSignal) {
	sig := &fakeSignal{}
	return app.NewConn(sig), sig
}

func (h *harness) raw(typ protocol.Type, data any) []byte {
	h.t.Helper()
	raw, err := json.Marshal(map[string]any{"type": typ, "data": data})
	require.NoError(h.t, err)
	return raw
}

func (h *harness) send(c *app.Conn, typ protocol.Type, data any) {
	h.t.Helper()
	h.orch.Dispatch(context.Background(), c, h.raw(typ, data))
}

// login authenticates a new connection for uid and joins roomID.
func (h *harness) login(uid domain.UserID, roomID domain.RoomID) (*app.Conn, *fakeSignal) {
	h.t.Helper()
	c, sig := h.connect()
	h.send(c, protocol.TypeAuth, map[string]any{"token": "tok-" + string(uid)})
	require.Equal(h.t, app.StateAuthenticated, c.State())
	if roomID != 0 {
		h.send(c, protocol.TypeJoinRoom, map[string]any{"roomId": roomID})
		require.Equal(h.t, app.StateInRoom, c.State())
	}
	return c, sig
}

func errorCode(t *testing.T, sig *fakeSignal) string {
	t.Helper()
	var e protocol.Error
	sig.last(t, protocol.TypeError, &e)
	return e.Code
}
