// Package orch routes inbound envelopes through the per-connection state
// machine and coordinates persistence with the resulting broadcasts.
package orch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Circle/internal/app"
	"github.com/dkeye/Circle/internal/core"
	"github.com/dkeye/Circle/internal/domain"
	"github.com/dkeye/Circle/internal/protocol"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const defaultNotifyConcurrency = 4

type Orchestrator struct {
	Registry    *app.Registry
	Rooms       *app.Directory
	Broadcaster *app.Broadcaster
	Typing      *app.TypingTracker
	Votes       app.VoteReducer
	Store       core.Store
	Tokens      core.TokenVerifier

	// NotifyConcurrency bounds parallel notification writes per event.
	NotifyConcurrency int

	presence userLocks
}

// New wires the in-memory relay state around st. The policy kicks slow
// consumers.
func New(st core.Store, tokens core.TokenVerifier, clock clockwork.Clock, typingTimeout time.Duration, notifyConcurrency int) *Orchestrator {
	registry := app.NewRegistry()
	rooms := app.NewDirectory(st)
	bc := &app.Broadcaster{Rooms: rooms, Registry: registry, Policy: app.SimplePolicy{}}
	return &Orchestrator{
		Registry:          registry,
		Rooms:             rooms,
		Broadcaster:       bc,
		Typing:            app.NewTypingTracker(clock, typingTimeout, bc),
		Votes:             app.VoteReducer{Votes: st},
		Store:             st,
		Tokens:            tokens,
		NotifyConcurrency: notifyConcurrency,
	}
}

// Dispatch handles one raw envelope from c. Every failure is reported to
// c alone; the connection stays open.
func (o *Orchestrator) Dispatch(ctx context.Context, c *app.Conn, raw []byte) {
	if c.State() == app.StateClosed {
		return
	}

	var kind protocol.Type
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "orch").Str("conn", string(c.ID())).Str("type", string(kind)).Interface("panic", r).Msg("handler panic")
			o.reportError(c, kind, fmt.Errorf("handler panic: %v", r))
		}
	}()

	msg, err := protocol.Decode(raw)
	if err != nil {
		o.reportError(c, "", err)
		return
	}
	kind = msg.InboundType()

	if err := o.route(ctx, c, msg); err != nil {
		o.reportError(c, kind, err)
	}
}

func (o *Orchestrator) route(ctx context.Context, c *app.Conn, msg protocol.Inbound) error {
	switch m := msg.(type) {
	case protocol.Ping:
		o.reply(c, protocol.Pong{})
		return nil
	case protocol.Auth:
		return o.handleAuth(ctx, c, m)
	}

	if c.State() != app.StateAuthenticated && c.State() != app.StateInRoom {
		return fmt.Errorf("%w: authenticate first", domain.ErrAuth)
	}

	switch m := msg.(type) {
	case protocol.JoinRoom:
		return o.handleJoin(ctx, c, m)
	case protocol.LeaveRoom:
		return o.handleLeave(c, m)
	}

	roomID, ok := c.RoomID()
	if !ok {
		return fmt.Errorf("%w: join a room first", domain.ErrMembership)
	}

	switch m := msg.(type) {
	case protocol.SendMessage:
		return o.handleSendMessage(ctx, c, roomID, m)
	case protocol.Typing:
		return o.handleTyping(ctx, c, roomID, m)
	case protocol.VoteItem:
		return o.handleVote(ctx, c, roomID, m)
	case protocol.AddCartItem:
		return o.handleAddCartItem(ctx, c, roomID, m)
	case protocol.UpdateTask:
		return o.handleUpdateTask(ctx, c, roomID, m)
	case protocol.DeleteTask:
		return o.handleDeleteTask(ctx, c, roomID, m)
	default:
		return fmt.Errorf("%w: unhandled type %q", domain.ErrProtocol, msg.InboundType())
	}
}

// Refuse reports err to c without dispatching anything.
func (o *Orchestrator) Refuse(c *app.Conn, err error) {
	if c.State() == app.StateClosed {
		return
	}
	o.reportError(c, "", err)
}

// reportError sends a scoped error envelope to c. A failed auth is
// answered with auth_error, everything else with error{message, code}.
func (o *Orchestrator) reportError(c *app.Conn, kind protocol.Type, err error) {
	code := domain.ErrorCode(err)
	ev := log.Warn()
	if code == "persistence" || code == "internal" {
		ev = log.Error()
	}
	ev.Err(err).Str("module", "orch").Str("conn", string(c.ID())).Str("user", string(c.UserID())).Str("type", string(kind)).Str("code", code).Msg("request failed")

	if kind == protocol.TypeAuth && errors.Is(err, domain.ErrAuth) {
		o.reply(c, protocol.AuthError{Message: domain.PublicMessage(err)})
		return
	}
	o.reply(c, protocol.Error{Message: domain.PublicMessage(err), Code: code})
}

func (o *Orchestrator) reply(c *app.Conn, out protocol.Outbound) {
	if err := o.Broadcaster.SendTo(c, out); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("conn", string(c.ID())).Str("type", string(out.OutboundType())).Msg("reply dropped")
	}
}
