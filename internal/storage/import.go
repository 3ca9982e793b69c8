package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/mitzori/order-tracking/internal/repository"
)

// ImportedOrder is one already-fulfilled order reconstructed from an
// external export. CreatedAt is the true historical creation time and
// overrides the store default.
type ImportedOrder struct {
	OrderNumber        string
	CustomerName       string
	CustomerEmail      string
	CustomerPhone      string
	DeliveryAddress    string
	DeliveryCity       string
	DeliveryPostalCode string
	// FullAddress is the composed human-readable address used for the
	// final delivery history entry.
	FullAddress string
	CreatedAt   time.Time
	DeliveredAt *time.Time
}

func (s *TrackingStorage) OrderExists(ctx context.Context, orderNumber string) (bool, error) {
	return s.orderRepo.ExistsByNumber(ctx, orderNumber)
}

// ImportOrder inserts one imported order as DELIVERED together with a
// synthesized six-stage history, all in a single transaction. The first
// four stages carry the creation time, the last two the delivery time
// (or the creation time when the delivery time is unknown).
func (s *TrackingStorage) ImportOrder(ctx context.Context, imp ImportedOrder) error {
	row := &repository.Order{
		OrderNumber:        imp.OrderNumber,
		CustomerName:       imp.CustomerName,
		CustomerEmail:      imp.CustomerEmail,
		CustomerPhone:      imp.CustomerPhone,
		DeliveryAddress:    imp.DeliveryAddress,
		DeliveryCity:       imp.DeliveryCity,
		DeliveryPostalCode: imp.DeliveryPostalCode,
		Status:             string(StatusDelivered),
		CurrentLocation:    "Delivered to " + imp.DeliveryCity,
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
		EstimatedDelivery:  imp.DeliveredAt,
		DeliveredAt:        imp.DeliveredAt,
	}

	deliveredAt := imp.CreatedAt
	if imp.DeliveredAt != nil {
		deliveredAt = *imp.DeliveredAt
	}

	stages := []repository.HistoryEntry{
		{
			Status:      string(StatusPending),
			Location:    "Order placed",
			Description: "Your order has been received and is being processed.",
			Timestamp:   imp.CreatedAt,
		},
		{
			Status:      string(StatusProcessing),
			Location:    "Warehouse",
			Description: "Your order is being prepared for shipment.",
			Timestamp:   imp.CreatedAt,
		},
		{
			Status:      string(StatusShipped),
			Location:    "Origin facility",
			Description: "Your package has been shipped.",
			Timestamp:   imp.CreatedAt,
		},
		{
			Status:      string(StatusInTransit),
			Location:    "In transit",
			Description: "Your package is on its way.",
			Timestamp:   imp.CreatedAt,
		},
		{
			Status:      string(StatusOutForDelivery),
			Location:    imp.DeliveryCity,
			Description: "Out for delivery in your area.",
			Timestamp:   deliveredAt,
		},
		{
			Status:      string(StatusDelivered),
			Location:    imp.FullAddress,
			Description: "Package delivered successfully.",
			Timestamp:   deliveredAt,
		},
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	id, err := s.orderRepo.CreateTx(ctx, tx, row)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrOrderNumberTaken
		}
		return fmt.Errorf("failed to create imported order: %w", err)
	}

	if err := s.orderRepo.SetCreatedAtTx(ctx, tx, id, imp.CreatedAt); err != nil {
		return fmt.Errorf("failed to backfill creation time: %w", err)
	}

	for i := range stages {
		stages[i].OrderID = id
		if err := s.historyRepo.CreateTx(ctx, tx, &stages[i]); err != nil {
			return fmt.Errorf("failed to create history stage %s: %w", stages[i].Status, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit imported order: %w", err)
	}

	s.cache.Invalidate(ctx, imp.OrderNumber)
	return nil
}
