package store

import (
	"context"

	"github.com/dkeye/Circle/internal/domain"
)

// Seeding helpers. Rows are normally written by the HTTP CRUD service;
// these exist for local runs and tests.

func (s *Store) CreateUser(ctx context.Context, u domain.User) error {
	rec := userRecord{ID: string(u.ID), Username: u.Username}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return wrap("create user", err)
	}
	return nil
}

func (s *Store) CreateRoom(ctx context.Context, room *domain.Room) error {
	rec := roomRecord{ID: uint(room.ID), Name: room.Name, Budget: room.Budget, Spent: room.Spent}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return wrap("create room", err)
	}
	room.ID = domain.RoomID(rec.ID)
	return nil
}

func (s *Store) AddMember(ctx context.Context, m domain.Membership) error {
	role := m.Role
	if role == "" {
		role = domain.RoleMember
	}
	rec := membershipRecord{RoomID: uint(m.RoomID), UserID: string(m.UserID), Role: string(role)}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return wrap("add member", err)
	}
	return nil
}

func (s *Store) CreateTask(ctx context.Context, task *domain.Task) error {
	rec := taskRecord{RoomID: uint(task.RoomID), Title: task.Title, Completed: task.Completed}
	if task.AssignedTo != nil {
		a := string(*task.AssignedTo)
		rec.AssignedTo = &a
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return wrap("create task", err)
	}
	task.ID = domain.TaskID(rec.ID)
	task.UpdatedAt = rec.UpdatedAt
	return nil
}
