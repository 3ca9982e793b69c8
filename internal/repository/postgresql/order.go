package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/mitzori/order-tracking/internal/db"
	"github.com/mitzori/order-tracking/internal/repository"
	"github.com/mitzori/order-tracking/internal/storage"
)

type OrderRepo struct {
	db db.DB
}

func NewOrderRepo(db db.DB) storage.OrderRepository {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) CreateTx(ctx context.Context, tx db.Tx, order *repository.Order) (int64, error) {
	var id int64
	err := tx.ExecQueryRow(ctx, `
        INSERT INTO orders (
            order_number, customer_name, customer_email, customer_phone,
            delivery_address, delivery_city, delivery_postal_code,
            status, current_location, is_delayed, notes,
            created_at, updated_at, estimated_delivery, delivered_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING id
    `, order.OrderNumber, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.DeliveryAddress, order.DeliveryCity, order.DeliveryPostalCode,
		order.Status, order.CurrentLocation, order.IsDelayed, order.Notes,
		order.CreatedAt, order.UpdatedAt, order.EstimatedDelivery, order.DeliveredAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *OrderRepo) GetByNumber(ctx context.Context, orderNumber string) (*repository.Order, error) {
	var order repository.Order
	err := r.db.Get(ctx, &order, "SELECT * FROM orders WHERE order_number = $1", orderNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) GetByNumberTx(ctx context.Context, tx db.Tx, orderNumber string) (*repository.Order, error) {
	var order repository.Order
	err := tx.Get(ctx, &order, "SELECT * FROM orders WHERE order_number = $1 FOR UPDATE", orderNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) UpdateTx(ctx context.Context, tx db.Tx, order *repository.Order) error {
	_, err := tx.Exec(ctx, `
        UPDATE orders
        SET
            customer_name = $1,
            customer_email = $2,
            customer_phone = $3,
            delivery_address = $4,
            delivery_city = $5,
            delivery_postal_code = $6,
            status = $7,
            current_location = $8,
            is_delayed = $9,
            notes = $10,
            updated_at = $11,
            estimated_delivery = $12,
            delivered_at = $13
        WHERE id = $14
    `, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.DeliveryAddress, order.DeliveryCity, order.DeliveryPostalCode,
		order.Status, order.CurrentLocation, order.IsDelayed, order.Notes,
		order.UpdatedAt, order.EstimatedDelivery, order.DeliveredAt, order.ID)
	return err
}

func (r *OrderRepo) List(ctx context.Context) ([]*repository.Order, error) {
	var orders []*repository.Order
	err := r.db.Select(ctx, &orders, "SELECT * FROM orders ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *OrderRepo) ExistsByNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int
	err := r.db.ExecQueryRow(ctx,
		"SELECT COUNT(*) FROM orders WHERE order_number = $1", orderNumber).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetCreatedAtTx backfills the historical creation time for imported
// orders, overriding the value assigned on insert.
func (r *OrderRepo) SetCreatedAtTx(ctx context.Context, tx db.Tx, id int64, createdAt time.Time) error {
	_, err := tx.Exec(ctx, "UPDATE orders SET created_at = $1 WHERE id = $2", createdAt, id)
	return err
}

func (r *OrderRepo) Delete(ctx context.Context, orderNumber string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM orders WHERE order_number = $1", orderNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}
