package store

import (
	"context"

	"github.com/dkeye/Circle/internal/domain"
)

func (s *Store) countNotifications(ctx context.Context, uid domain.UserID) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&notificationRecord{}).Where("user_id = ?", string(uid)).Count(&n).Error; err != nil {
		return 0, wrap("count notifications", err)
	}
	return n, nil
}

func (s *Store) cartHistory(ctx context.Context, roomID domain.RoomID) ([]domain.CartHistory, error) {
	var recs []cartHistoryRecord
	if err := s.db.WithContext(ctx).Where("room_id = ?", uint(roomID)).Order("id").Find(&recs).Error; err != nil {
		return nil, wrap("list cart history", err)
	}
	out := make([]domain.CartHistory, len(recs))
	for i, r := range recs {
		out[i] = domain.CartHistory{
			ID:       r.ID,
			RoomID:   domain.RoomID(r.RoomID),
			ItemID:   domain.ItemID(r.ItemID),
			UserID:   domain.UserID(r.UserID),
			Action:   domain.CartAction(r.Action),
			ItemName: r.ItemName,
			Price:    r.Price,
			Quantity: r.Quantity,
		}
	}
	return out, nil
}
