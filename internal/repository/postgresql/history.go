package postgresql

import (
	"context"

	"github.com/mitzori/order-tracking/internal/db"
	"github.com/mitzori/order-tracking/internal/repository"
	"github.com/mitzori/order-tracking/internal/storage"
)

type HistoryRepo struct {
	db db.DB
}

func NewHistoryRepo(db db.DB) storage.HistoryRepository {
	return &HistoryRepo{db: db}
}

func (r *HistoryRepo) CreateTx(ctx context.Context, tx db.Tx, entry *repository.HistoryEntry) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO order_history (
            order_id, status, location, description, timestamp
        ) VALUES ($1, $2, $3, $4, $5)
    `, entry.OrderID, entry.Status, entry.Location, entry.Description, entry.Timestamp)
	return err
}

func (r *HistoryRepo) GetByOrderID(ctx context.Context, orderID int64) ([]*repository.HistoryEntry, error) {
	var entries []*repository.HistoryEntry
	err := r.db.Select(ctx, &entries, `
        SELECT * FROM order_history
        WHERE order_id = $1
        ORDER BY timestamp DESC, id DESC
    `, orderID)
	return entries, err
}
