package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Circle/internal/app"
	"github.com/dkeye/Circle/internal/domain"
	"github.com/dkeye/Circle/internal/protocol"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func (o *Orchestrator) handleSendMessage(ctx context.Context, c *app.Conn, roomID domain.RoomID, m protocol.SendMessage) error {
	uid := c.UserID()
	user, err := o.profile(ctx, uid)
	if err != nil {
		return err
	}

	var replyTo *domain.MessageID
	if m.ReplyTo != nil {
		root, err := o.threadRoot(ctx, roomID, *m.ReplyTo)
		if err != nil {
			return err
		}
		replyTo = &root
	}

	msg := &domain.Message{
		RoomID:   roomID,
		UserID:   uid,
		UserName: user.Username,
		Content:  m.Content,
		ReplyTo:  replyTo,
	}
	if err := o.Store.CreateMessage(ctx, msg); err != nil {
		return err
	}

	o.Broadcaster.BroadcastToRoom(roomID, protocol.NewMessage{Message: *msg}, "")
	o.notifyMembers(ctx, roomID, uid, domain.NotifyNewMessage, fmt.Sprintf("%s: %s", user.Username, msg.Content))
	return nil
}

// threadRoot resolves the message a reply attaches to. Threads are one
// level deep, so a reply to a reply hangs off the original root.
func (o *Orchestrator) threadRoot(ctx context.Context, roomID domain.RoomID, id domain.MessageID) (domain.MessageID, error) {
	parent, err := o.Store.GetMessage(ctx, id)
	if err != nil {
		return 0, err
	}
	if parent.RoomID != roomID {
		return 0, fmt.Errorf("message %d: %w", id, domain.ErrNotFound)
	}
	if parent.ReplyTo != nil {
		return *parent.ReplyTo, nil
	}
	return parent.ID, nil
}

func (o *Orchestrator) handleTyping(ctx context.Context, c *app.Conn, roomID domain.RoomID, m protocol.Typing) error {
	user, err := o.profile(ctx, c.UserID())
	if err != nil {
		return err
	}
	o.Typing.SetTyping(roomID, user, *m.IsTyping)
	return nil
}

// profile falls back to the bare id when the user has no profile row.
func (o *Orchestrator) profile(ctx context.Context, uid domain.UserID) (domain.User, error) {
	u, err := o.Store.GetUserProfile(ctx, uid)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.User{ID: uid, Username: string(uid)}, nil
	}
	if err != nil {
		return domain.User{}, err
	}
	return *u, nil
}

// notifyMembers writes one notification per persisted member other than
// actor. It runs after the broadcast; failures are logged only.
func (o *Orchestrator) notifyMembers(ctx context.Context, roomID domain.RoomID, actor domain.UserID, kind domain.NotificationKind, content string) {
	members, err := o.Store.GetRoomMembers(ctx, roomID)
	if err != nil {
		log.Error().Err(err).Str("module", "orch.notify").Uint("room", uint(roomID)).Msg("list members")
		return
	}

	limit := o.NotifyConcurrency
	if limit <= 0 {
		limit = defaultNotifyConcurrency
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for _, uid := range members {
		if uid == actor {
			continue
		}
		g.Go(func() error {
			n := &domain.Notification{UserID: uid, RoomID: roomID, ActorID: actor, Kind: kind, Content: content}
			if err := o.Store.CreateNotification(ctx, n); err != nil {
				log.Error().Err(err).Str("module", "orch.notify").Uint("room", uint(roomID)).Str("user", string(uid)).Str("kind", string(kind)).Msg("notification write failed")
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Str("module", "orch.notify").Uint("room", uint(roomID)).Str("kind", string(kind)).Msg("some notifications were not written")
	}
}
