package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/Circle/internal/app"
	"github.com/dkeye/Circle/internal/domain"
	"github.com/dkeye/Circle/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) taskInRoom(ctx context.Context, roomID domain.RoomID, id domain.TaskID) error {
	task, err := o.Store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task.RoomID != roomID {
		return fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (o *Orchestrator) handleUpdateTask(ctx context.Context, c *app.Conn, roomID domain.RoomID, m protocol.UpdateTask) error {
	if err := o.taskInRoom(ctx, roomID, m.TaskID); err != nil {
		return err
	}
	task, err := o.Store.UpdateTask(ctx, m.TaskID, m.Updates)
	if err != nil {
		return err
	}
	uid := c.UserID()
	log.Info().Str("module", "orch.task").Uint("room", uint(roomID)).Uint("task", uint(task.ID)).Str("user", string(uid)).Msg("task updated")
	o.Broadcaster.BroadcastToRoom(roomID, protocol.TaskUpdated{Task: *task, UpdatedBy: uid}, "")
	return nil
}

func (o *Orchestrator) handleDeleteTask(ctx context.Context, c *app.Conn, roomID domain.RoomID, m protocol.DeleteTask) error {
	if err := o.taskInRoom(ctx, roomID, m.TaskID); err != nil {
		return err
	}
	if err := o.Store.DeleteTask(ctx, m.TaskID); err != nil {
		return err
	}
	uid := c.UserID()
	log.Info().Str("module", "orch.task").Uint("room", uint(roomID)).Uint("task", uint(m.TaskID)).Str("user", string(uid)).Msg("task deleted")
	o.Broadcaster.BroadcastToRoom(roomID, protocol.TaskDeleted{TaskID: m.TaskID, DeletedBy: uid}, "")
	return nil
}
