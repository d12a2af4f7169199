package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/Circle/internal/app"
	"github.com/dkeye/Circle/internal/domain"
	"github.com/dkeye/Circle/internal/protocol"
	"github.com/rs/zerolog/log"
)

// handleVote applies the toggle rule and resyncs the whole cart.
func (o *Orchestrator) handleVote(ctx context.Context, c *app.Conn, roomID domain.RoomID, m protocol.VoteItem) error {
	item, err := o.Store.GetCartItem(ctx, m.ItemID)
	if err != nil {
		return err
	}
	if item.RoomID != roomID {
		return fmt.Errorf("cart item %d: %w", m.ItemID, domain.ErrNotFound)
	}

	uid := c.UserID()
	action, err := o.Votes.Apply(ctx, m.ItemID, uid, m.Vote)
	if err != nil {
		return err
	}
	log.Debug().Str("module", "orch.cart").Uint("item", uint(m.ItemID)).Str("user", string(uid)).Stringer("action", action).Msg("vote applied")

	items, err := o.Store.GetCartItems(ctx, roomID)
	if err != nil {
		return err
	}
	o.Broadcaster.BroadcastToRoom(roomID, protocol.CartUpdated{CartItems: items}, "")
	return nil
}

func (o *Orchestrator) handleAddCartItem(ctx context.Context, c *app.Conn, roomID domain.RoomID, m protocol.AddCartItem) error {
	uid := c.UserID()
	item := &domain.CartItem{
		RoomID:   roomID,
		Name:     m.Name,
		Price:    m.Price,
		Quantity: m.Qty(),
		AddedBy:  uid,
	}
	if err := o.Store.CreateCartItem(ctx, item); err != nil {
		return err
	}
	if err := o.Store.CreateCartHistory(ctx, &domain.CartHistory{
		RoomID:   roomID,
		ItemID:   item.ID,
		UserID:   uid,
		Action:   domain.CartActionAdded,
		ItemName: item.Name,
		Price:    item.Price,
		Quantity: item.Quantity,
	}); err != nil {
		return err
	}
	spent, err := o.Store.AddSpent(ctx, roomID, item.Total())
	if err != nil {
		return err
	}

	log.Info().Str("module", "orch.cart").Uint("room", uint(roomID)).Uint("item", uint(item.ID)).Int64("spent", spent).Msg("item added")
	o.Broadcaster.BroadcastToRoom(roomID, protocol.ItemAdded{Item: *item, Spent: spent}, "")

	user, err := o.profile(ctx, uid)
	if err != nil {
		user = domain.User{ID: uid, Username: string(uid)}
	}
	o.notifyMembers(ctx, roomID, uid, domain.NotifyItemAdded, fmt.Sprintf("%s added %s", user.Username, item.Name))
	return nil
}
