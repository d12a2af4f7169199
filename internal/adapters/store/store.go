// Package store implements the relay's persistence collaborators on gorm.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Circle/internal/core"
	"github.com/dkeye/Circle/internal/domain"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ core.Store = (*Store)(nil)

type Store struct {
	db *gorm.DB
}

// Open connects to sqlite and migrates the schema. SQLite serialises
// writers anyway, so the pool is capped at one connection.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	log.Info().Str("module", "store").Str("dsn", dsn).Msg("database ready")
	return &Store{db: db}, nil
}

func New(db *gorm.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func wrap(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
}

func (s *Store) GetMembership(ctx context.Context, uid domain.UserID, roomID domain.RoomID) (*domain.Membership, error) {
	var rec membershipRecord
	err := s.db.WithContext(ctx).First(&rec, "room_id = ? AND user_id = ?", uint(roomID), string(uid)).Error
	if err != nil {
		return nil, wrap("get membership", err)
	}
	return &domain.Membership{RoomID: roomID, UserID: uid, Role: domain.Role(rec.Role)}, nil
}

func (s *Store) GetRoomMembers(ctx context.Context, roomID domain.RoomID) ([]domain.UserID, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&membershipRecord{}).
		Where("room_id = ?", uint(roomID)).Order("user_id").Pluck("user_id", &ids).Error
	if err != nil {
		return nil, wrap("get room members", err)
	}
	out := make([]domain.UserID, len(ids))
	for i, id := range ids {
		out[i] = domain.UserID(id)
	}
	return out, nil
}

func (s *Store) GetUserProfile(ctx context.Context, uid domain.UserID) (*domain.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", string(uid)).Error; err != nil {
		return nil, wrap("get user profile", err)
	}
	return &domain.User{ID: uid, Username: rec.Username}, nil
}

func (s *Store) GetRoom(ctx context.Context, roomID domain.RoomID) (*domain.Room, error) {
	var rec roomRecord
	if err := s.db.WithContext(ctx).First(&rec, uint(roomID)).Error; err != nil {
		return nil, wrap("get room", err)
	}
	return rec.toDomain(), nil
}

// AddSpent increments in a single UPDATE so concurrent adds never lose
// an increment.
func (s *Store) AddSpent(ctx context.Context, roomID domain.RoomID, delta int64) (int64, error) {
	var spent int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&roomRecord{}).Where("id = ?", uint(roomID)).
			UpdateColumn("spent", gorm.Expr("spent + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&roomRecord{}).Where("id = ?", uint(roomID)).Pluck("spent", &spent).Error
	})
	if err != nil {
		return 0, wrap("add spent", err)
	}
	return spent, nil
}

func (s *Store) CreateMessage(ctx context.Context, msg *domain.Message) error {
	rec := messageRecord{
		RoomID:  uint(msg.RoomID),
		UserID:  string(msg.UserID),
		Content: msg.Content,
	}
	if msg.ReplyTo != nil {
		parent := uint(*msg.ReplyTo)
		rec.ReplyTo = &parent
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return wrap("create message", err)
	}
	msg.ID = domain.MessageID(rec.ID)
	msg.CreatedAt = rec.CreatedAt
	return nil
}

func (s *Store) GetMessage(ctx context.Context, id domain.MessageID) (*domain.Message, error) {
	var rec messageRecord
	if err := s.db.WithContext(ctx).First(&rec, uint(id)).Error; err != nil {
		return nil, wrap("get message", err)
	}
	return rec.toDomain(), nil
}

func (s *Store) CreateNotification(ctx context.Context, n *domain.Notification) error {
	rec := notificationRecord{
		UserID:  string(n.UserID),
		RoomID:  uint(n.RoomID),
		ActorID: string(n.ActorID),
		Kind:    string(n.Kind),
		Content: n.Content,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return wrap("create notification", err)
	}
	n.ID = rec.ID
	n.CreatedAt = rec.CreatedAt
	return nil
}

func (s *Store) GetCartItems(ctx context.Context, roomID domain.RoomID) ([]domain.CartItem, error) {
	var recs []cartItemRecord
	if err := s.db.WithContext(ctx).Where("room_id = ?", uint(roomID)).Order("id").Find(&recs).Error; err != nil {
		return nil, wrap("get cart items", err)
	}
	items := make([]domain.CartItem, len(recs))
	ids := make([]uint, len(recs))
	index := make(map[uint]int, len(recs))
	for i, rec := range recs {
		items[i] = rec.toDomain()
		ids[i] = rec.ID
		index[rec.ID] = i
	}
	if len(ids) == 0 {
		return items, nil
	}

	var votes []voteRecord
	if err := s.db.WithContext(ctx).Where("item_id IN ?", ids).Order("item_id, user_id").Find(&votes).Error; err != nil {
		return nil, wrap("get cart votes", err)
	}
	for _, v := range votes {
		i := index[v.ItemID]
		items[i].Votes = append(items[i].Votes, domain.Vote{
			ItemID: domain.ItemID(v.ItemID),
			UserID: domain.UserID(v.UserID),
			Value:  domain.VoteValue(v.Value),
		})
	}
	return items, nil
}

func (s *Store) GetCartItem(ctx context.Context, itemID domain.ItemID) (*domain.CartItem, error) {
	var rec cartItemRecord
	if err := s.db.WithContext(ctx).First(&rec, uint(itemID)).Error; err != nil {
		return nil, wrap("get cart item", err)
	}
	item := rec.toDomain()
	return &item, nil
}

func (s *Store) CreateCartItem(ctx context.Context, item *domain.CartItem) error {
	rec := cartItemRecord{
		RoomID:   uint(item.RoomID),
		Name:     item.Name,
		Price:    item.Price,
		Quantity: item.Quantity,
		AddedBy:  string(item.AddedBy),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return wrap("create cart item", err)
	}
	item.ID = domain.ItemID(rec.ID)
	item.CreatedAt = rec.CreatedAt
	if item.Votes == nil {
		item.Votes = []domain.Vote{}
	}
	return nil
}

func (s *Store) CreateCartHistory(ctx context.Context, h *domain.CartHistory) error {
	rec := cartHistoryRecord{
		RoomID:   uint(h.RoomID),
		ItemID:   uint(h.ItemID),
		UserID:   string(h.UserID),
		Action:   string(h.Action),
		ItemName: h.ItemName,
		Price:    h.Price,
		Quantity: h.Quantity,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return wrap("create cart history", err)
	}
	h.ID = rec.ID
	return nil
}

func (s *Store) GetVote(ctx context.Context, itemID domain.ItemID, uid domain.UserID) (*domain.Vote, error) {
	var rec voteRecord
	err := s.db.WithContext(ctx).First(&rec, "item_id = ? AND user_id = ?", uint(itemID), string(uid)).Error
	if err != nil {
		return nil, wrap("get vote", err)
	}
	return &domain.Vote{ItemID: itemID, UserID: uid, Value: domain.VoteValue(rec.Value)}, nil
}

func (s *Store) CreateVote(ctx context.Context, v *domain.Vote) error {
	rec := voteRecord{ItemID: uint(v.ItemID), UserID: string(v.UserID), Value: int(v.Value)}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return wrap("create vote", err)
	}
	return nil
}

func (s *Store) UpdateVote(ctx context.Context, v *domain.Vote) error {
	res := s.db.WithContext(ctx).Model(&voteRecord{}).
		Where("item_id = ? AND user_id = ?", uint(v.ItemID), string(v.UserID)).
		Update("value", int(v.Value))
	if res.Error != nil {
		return wrap("update vote", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("update vote")
	}
	return nil
}

func (s *Store) DeleteVote(ctx context.Context, itemID domain.ItemID, uid domain.UserID) error {
	res := s.db.WithContext(ctx).
		Where("item_id = ? AND user_id = ?", uint(itemID), string(uid)).
		Delete(&voteRecord{})
	if res.Error != nil {
		return wrap("delete vote", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("delete vote")
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, taskID domain.TaskID) (*domain.Task, error) {
	var rec taskRecord
	if err := s.db.WithContext(ctx).First(&rec, uint(taskID)).Error; err != nil {
		return nil, wrap("get task", err)
	}
	return rec.toDomain(), nil
}

func (s *Store) UpdateTask(ctx context.Context, taskID domain.TaskID, upd domain.TaskUpdate) (*domain.Task, error) {
	fields := map[string]any{}
	if upd.Title != nil {
		fields["title"] = *upd.Title
	}
	if upd.Completed != nil {
		fields["completed"] = *upd.Completed
	}
	if upd.AssignedTo != nil {
		fields["assigned_to"] = string(*upd.AssignedTo)
	}

	var rec taskRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&taskRecord{}).Where("id = ?", uint(taskID)).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&rec, uint(taskID)).Error
	})
	if err != nil {
		return nil, wrap("update task", err)
	}
	return rec.toDomain(), nil
}

func (s *Store) DeleteTask(ctx context.Context, taskID domain.TaskID) error {
	res := s.db.WithContext(ctx).Delete(&taskRecord{}, uint(taskID))
	if res.Error != nil {
		return wrap("delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("delete task")
	}
	return nil
}
