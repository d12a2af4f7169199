package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_MultiDevice(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	phone, phoneSig := authedConn("ann")
	laptop, laptopSig := authedConn("ann")

	// Given one user with two connections
	reg.Register("ann", phone)
	reg.Register("ann", laptop)
	req.Len(reg.ConnsOf("ann"), 2)
	req.Equal(1, reg.UserCount())

	// When a frame is sent to the user
	sent, dropped := reg.SendToUser("ann", []byte(`{"type":"pong","data":{}}`), nil)

	// Then each connection gets exactly one copy
	req.Equal(2, sent)
	req.Empty(dropped)
	req.Len(phoneSig.frames, 1)
	req.Len(laptopSig.frames, 1)
}

func TestRegistry_UnregisterLastDropsUser(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	a, _ := authedConn("ann")
	b, _ := authedConn("ann")
	reg.Register("ann", a)
	reg.Register("ann", b)

	req.False(reg.Unregister(a))
	req.True(reg.Online("ann"))

	req.True(reg.Unregister(b))
	req.False(reg.Online("ann"))
	req.Equal(0, reg.UserCount())

	// unregistering twice is harmless
	req.False(reg.Unregister(b))
}

func TestRegistry_SendSkipsUnwritable(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	ok, okSig := authedConn("bob")
	gone, goneSig := authedConn("bob")
	full, fullSig := authedConn("bob")
	goneSig.Close()
	fullSig.full = true
	reg.Register("bob", ok)
	reg.Register("bob", gone)
	reg.Register("bob", full)

	sent, dropped := reg.SendToUser("bob", []byte("{}"), nil)

	req.Equal(1, sent)
	req.Len(dropped, 2)
	req.Len(okSig.frames, 1)
	req.Empty(goneSig.frames)
	req.Empty(fullSig.frames)
}

func TestRegistry_SendToUnknownUser(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	sent, dropped := reg.SendToUser("nobody", []byte("{}"), nil)
	req.Zero(sent)
	req.Empty(dropped)
}

func TestRegistry_SendFiltersByRoom(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	phone, phoneSig := authedConn("ann")
	laptop, laptopSig := authedConn("ann")
	idle, idleSig := authedConn("ann")
	req.NoError(phone.EnterRoom(10))
	req.NoError(laptop.EnterRoom(11))
	reg.Register("ann", phone)
	reg.Register("ann", laptop)
	reg.Register("ann", idle)

	sent, dropped := reg.SendToUser("ann", []byte("{}"), InRoom(10))

	req.Equal(1, sent)
	req.Empty(dropped)
	req.Len(phoneSig.frames, 1)
	req.Empty(laptopSig.frames)
	req.Empty(idleSig.frames)
}
