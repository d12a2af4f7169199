package orch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Circle/internal/app"
	"github.com/dkeye/Circle/internal/domain"
	"github.com/dkeye/Circle/internal/protocol"
	"github.com/stretchr/testify/require"
)

func TestJoin_RejectsNonMember(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	other := h.seedRoom("Other", "dan")

	c, sig := h.login("ann", 0)
	h.send(c, protocol.TypeJoinRoom, map[string]any{"roomId": other})

	req.Equal("membership", errorCode(t, sig))
	req.Equal(app.StateAuthenticated, c.State())
	req.NotContains(h.orch.Rooms.Members(other), domain.UserID("ann"))
}

func TestJoin_AnnouncesToOthers(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)

	// given
	_, annSig := h.login("ann", h.room)

	// when
	_, bobSig := h.login("bob", h.room)

	// then
	var joined protocol.JoinedRoom
	bobSig.last(t, protocol.TypeJoinedRoom, &joined)
	req.Equal(h.room, joined.RoomID)
	req.Equal([]domain.UserID{"ann", "bob"}, joined.Members)
	req.NotNil(joined.Room)
	req.Equal("Flat 4", joined.Room.Name)

	var uj protocol.UserJoined
	annSig.last(t, protocol.TypeUserJoined, &uj)
	req.Equal(domain.UserID("bob"), uj.UserID)
	req.Zero(bobSig.count(protocol.TypeUserJoined))
}

func TestLeave(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	_, annSig := h.login("ann", h.room)
	bob, bobSig := h.login("bob", h.room)

	// leaving a room the connection is not in
	h.send(bob, protocol.TypeLeaveRoom, map[string]any{"roomId": h.room + 100})
	req.Equal("membership", errorCode(t, bobSig))
	req.Equal(app.StateInRoom, bob.State())

	// when
	h.send(bob, protocol.TypeLeaveRoom, map[string]any{"roomId": h.room})

	// then
	req.Equal(app.StateAuthenticated, bob.State())
	req.Equal(1, bobSig.count(protocol.TypeLeftRoom))
	var ul protocol.UserLeft
	annSig.last(t, protocol.TypeUserLeft, &ul)
	req.Equal(domain.UserID("bob"), ul.UserID)
	req.Equal([]domain.UserID{"ann"}, h.orch.Rooms.Members(h.room))
}

func TestDisconnect_OnlyConnectionAnnouncesLeave(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	_, annSig := h.login("ann", h.room)
	bob, _ := h.login("bob", h.room)

	// when
	h.orch.OnDisconnect(bob)

	// then
	req.Equal(1, annSig.count(protocol.TypeUserLeft))
	req.NotContains(h.orch.Rooms.Members(h.room), domain.UserID("bob"))
	req.False(h.orch.Registry.Online("bob"))
}

func TestDisconnect_OtherDeviceKeepsPresence(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	_, annSig := h.login("ann", h.room)
	phone, _ := h.login("bob", h.room)
	laptop, laptopSig := h.login("bob", h.room)

	// second device does not re-announce
	req.Equal(1, annSig.count(protocol.TypeUserJoined))

	// when
	h.orch.OnDisconnect(phone)

	// then
	req.Zero(annSig.count(protocol.TypeUserLeft))
	req.Contains(h.orch.Rooms.Members(h.room), domain.UserID("bob"))

	h.send(laptop, protocol.TypePing, nil)
	req.Equal(1, laptopSig.count(protocol.TypePong))

	h.orch.OnDisconnect(laptop)
	req.Equal(1, annSig.count(protocol.TypeUserLeft))
}

func TestJoin_SwitchRooms(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	second := h.seedRoom("Allotment", "bob", "dan")
	locked := h.seedRoom("Locked", "dan")

	_, annSig := h.login("ann", h.room)
	bob, bobSig := h.login("bob", h.room)
	_, danSig := h.login("dan", second)

	// a rejected switch keeps the old room
	h.send(bob, protocol.TypeJoinRoom, map[string]any{"roomId": locked})
	req.Equal("membership", errorCode(t, bobSig))
	roomID, ok := bob.RoomID()
	req.True(ok)
	req.Equal(h.room, roomID)
	req.Zero(annSig.count(protocol.TypeUserLeft))

	// when
	h.send(bob, protocol.TypeJoinRoom, map[string]any{"roomId": second})

	// then
	roomID, ok = bob.RoomID()
	req.True(ok)
	req.Equal(second, roomID)
	req.Equal(1, annSig.count(protocol.TypeUserLeft))
	req.Equal(1, danSig.count(protocol.TypeUserJoined))
	req.NotContains(h.orch.Rooms.Members(h.room), domain.UserID("bob"))
	req.Contains(h.orch.Rooms.Members(second), domain.UserID("bob"))
}

func TestTyping_ClearedOnLeave(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	_, annSig := h.login("ann", h.room)
	bob, _ := h.login("bob", h.room)

	h.send(bob, protocol.TypeTyping, map[string]any{"isTyping": true})
	var ts protocol.TypingState
	annSig.last(t, protocol.TypeTyping, &ts)
	req.True(ts.IsTyping)
	req.Equal("Bob", ts.UserName)

	h.send(bob, protocol.TypeLeaveRoom, map[string]any{"roomId": h.room})

	annSig.last(t, protocol.TypeTyping, &ts)
	req.False(ts.IsTyping)
}

func TestJoin_SecondDeviceRacingLeaveKeepsPresence(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	ctx := context.Background()

	// given a phone in the room and a laptop about to join it
	ann, annSig := h.login("ann", h.room)
	phone, _ := h.login("bob", h.room)
	laptop, laptopSig := h.login("bob", 0)
	joinRaw := h.raw(protocol.TypeJoinRoom, map[string]any{"roomId": h.room})
	leaveRaw := h.raw(protocol.TypeLeaveRoom, map[string]any{"roomId": h.room})

	reached := make(chan struct{})
	proceed := make(chan struct{})
	var once sync.Once
	h.rec.setGetRoomHook(func() {
		once.Do(func() { close(reached) })
		<-proceed
	})

	// when the laptop's join is paused after presence is recorded
	joined := make(chan struct{})
	go func() {
		defer close(joined)
		h.orch.Dispatch(ctx, laptop, joinRaw)
	}()
	<-reached
	h.rec.setGetRoomHook(nil)

	// and the phone leaves meanwhile
	left := make(chan struct{})
	go func() {
		defer close(left)
		h.orch.Dispatch(ctx, phone, leaveRaw)
	}()

	// then the leave waits for the join to finish
	req.Never(func() bool {
		select {
		case <-left:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond)
	close(proceed)

	done := func(ch chan struct{}) func() bool {
		return func() bool {
			select {
			case <-ch:
				return true
			default:
				return false
			}
		}
	}
	req.Eventually(done(joined), time.Second, 5*time.Millisecond)
	req.Eventually(done(left), time.Second, 5*time.Millisecond)

	roomID, ok := laptop.RoomID()
	req.True(ok)
	req.Equal(h.room, roomID)
	req.Contains(h.orch.Rooms.Members(h.room), domain.UserID("bob"))
	req.Zero(annSig.count(protocol.TypeUserLeft))

	// the laptop still receives room traffic
	h.send(ann, protocol.TypeSendMessage, map[string]any{"content": "still there?"})
	req.Equal(1, laptopSig.count(protocol.TypeNewMessage))
}
