package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Circle/internal/app"
	"github.com/dkeye/Circle/internal/domain"
	"github.com/dkeye/Circle/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) handleAuth(ctx context.Context, c *app.Conn, m protocol.Auth) error {
	if c.State() != app.StateUnauthenticated {
		return fmt.Errorf("%w: already authenticated", domain.ErrAuth)
	}
	uid, err := o.Tokens.VerifyToken(ctx, m.Token)
	if err != nil {
		if !errors.Is(err, domain.ErrAuth) {
			err = fmt.Errorf("%w: %w", domain.ErrAuth, err)
		}
		return err
	}
	if err := c.Authenticate(uid); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAuth, err)
	}
	o.Registry.Register(uid, c)
	log.Info().Str("module", "orch").Str("conn", string(c.ID())).Str("user", string(uid)).Msg("authenticated")
	o.reply(c, protocol.AuthSuccess{UserID: uid})
	return nil
}

// handleJoin checks membership of the target room before touching the
// current one, so a rejected switch leaves the connection where it was.
// It holds the user's presence lock until the connection is in the room.
func (o *Orchestrator) handleJoin(ctx context.Context, c *app.Conn, m protocol.JoinRoom) error {
	uid := c.UserID()
	defer o.presence.lock(uid)()

	prev, inRoom := c.RoomID()
	if inRoom && prev == m.RoomID {
		room, err := o.Store.GetRoom(ctx, m.RoomID)
		if err != nil {
			return err
		}
		o.reply(c, protocol.JoinedRoom{RoomID: m.RoomID, Room: room, Members: o.Rooms.Members(m.RoomID)})
		return nil
	}

	added, err := o.Rooms.Join(ctx, m.RoomID, uid)
	if err != nil {
		return err
	}
	room, err := o.Store.GetRoom(ctx, m.RoomID)
	if err != nil {
		if added {
			o.Rooms.Leave(m.RoomID, uid)
		}
		return err
	}
	if err := c.EnterRoom(m.RoomID); err != nil {
		if added {
			o.Rooms.Leave(m.RoomID, uid)
		}
		return fmt.Errorf("%w: %w", domain.ErrAuth, err)
	}
	if inRoom {
		o.release(c, uid, prev)
	}

	log.Info().Str("module", "orch").Str("conn", string(c.ID())).Str("user", string(uid)).Uint("room", uint(m.RoomID)).Bool("first_device", added).Msg("joined room")
	o.reply(c, protocol.JoinedRoom{RoomID: m.RoomID, Room: room, Members: o.Rooms.Members(m.RoomID)})
	if added {
		o.Broadcaster.BroadcastToRoom(m.RoomID, protocol.UserJoined{UserID: uid}, uid)
	}
	return nil
}

func (o *Orchestrator) handleLeave(c *app.Conn, m protocol.LeaveRoom) error {
	current, ok := c.RoomID()
	if !ok || current != m.RoomID {
		return fmt.Errorf("%w: not in room %d", domain.ErrMembership, m.RoomID)
	}
	uid := c.UserID()
	o.withPresence(uid, func() {
		c.ExitRoom()
		o.release(c, uid, current)
	})

	log.Info().Str("module", "orch").Str("conn", string(c.ID())).Str("user", string(uid)).Uint("room", uint(current)).Msg("left room")
	o.reply(c, protocol.LeftRoom{RoomID: current})
	return nil
}

// OnDisconnect runs once when the transport read loop exits.
func (o *Orchestrator) OnDisconnect(c *app.Conn) {
	uid := c.UserID()
	o.withPresence(uid, func() {
		if roomID, inRoom := c.MarkClosed(); inRoom {
			o.release(c, uid, roomID)
		}
	})
	if uid != "" {
		o.Registry.Unregister(c)
	}
	log.Info().Str("module", "orch").Str("conn", string(c.ID())).Str("user", string(uid)).Msg("disconnected")
}

func (o *Orchestrator) withPresence(uid domain.UserID, fn func()) {
	defer o.presence.lock(uid)()
	fn()
}

// release ends uid's presence in roomID unless another of the user's
// connections (other than c) is still there. Callers hold the user's
// presence lock.
func (o *Orchestrator) release(c *app.Conn, uid domain.UserID, roomID domain.RoomID) {
	for _, other := range o.Registry.ConnsOf(uid) {
		if other == c {
			continue
		}
		if r, ok := other.RoomID(); ok && r == roomID {
			return
		}
	}
	o.Typing.Clear(roomID, uid)
	if o.Rooms.Leave(roomID, uid) {
		o.Broadcaster.BroadcastToRoom(roomID, protocol.UserLeft{UserID: uid}, uid)
	}
}
