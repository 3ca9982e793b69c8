//go:generate mockgen -source ./storage.go -destination=./mocks/storage.go -package=mock_storage
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgconn"

	"github.com/mitzori/order-tracking/internal/db"
	"github.com/mitzori/order-tracking/internal/metrics"
	"github.com/mitzori/order-tracking/internal/repository"
)

type OrderRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, order *repository.Order) (int64, error)
	GetByNumber(ctx context.Context, orderNumber string) (*repository.Order, error)
	GetByNumberTx(ctx context.Context, tx db.Tx, orderNumber string) (*repository.Order, error)
	UpdateTx(ctx context.Context, tx db.Tx, order *repository.Order) error
	List(ctx context.Context) ([]*repository.Order, error)
	ExistsByNumber(ctx context.Context, orderNumber string) (bool, error)
	SetCreatedAtTx(ctx context.Context, tx db.Tx, id int64, createdAt time.Time) error
	Delete(ctx context.Context, orderNumber string) error
}

type HistoryRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, entry *repository.HistoryEntry) error
	GetByOrderID(ctx context.Context, orderID int64) ([]*repository.HistoryEntry, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, username, password string) error
	ValidateUser(ctx context.Context, username, password string) (bool, error)
	EnsureAdmin(ctx context.Context, username, password string) error
}

// TrackingCache holds rendered tracking views. Implementations are
// best effort: a failing cache must never fail a lookup.
type TrackingCache interface {
	Get(ctx context.Context, orderNumber string) (*TrackingView, bool)
	Set(ctx context.Context, orderNumber string, view *TrackingView)
	Invalidate(ctx context.Context, orderNumber string)
}

type TrackingStorage struct {
	db          db.DB
	orderRepo   OrderRepository
	historyRepo HistoryRepository
	cache       TrackingCache
}

func NewTrackingStorage(db db.DB, orderRepo OrderRepository, historyRepo HistoryRepository, cache TrackingCache) *TrackingStorage {
	if cache == nil {
		cache = noopCache{}
	}
	return &TrackingStorage{
		db:          db,
		orderRepo:   orderRepo,
		historyRepo: historyRepo,
		cache:       cache,
	}
}

type CreateOrderInput struct {
	OrderNumber        string
	CustomerName       string
	CustomerEmail      string
	CustomerPhone      string
	DeliveryAddress    string
	DeliveryCity       string
	DeliveryPostalCode string
	Status             Status
	CurrentLocation    string
	IsDelayed          bool
	Notes              string
	EstimatedDelivery  *time.Time
}

type UpdateOrderInput struct {
	CustomerName       string
	CustomerEmail      string
	CustomerPhone      string
	DeliveryAddress    string
	DeliveryCity       string
	DeliveryPostalCode string
	Status             Status
	CurrentLocation    string
	IsDelayed          bool
	Notes              string
	EstimatedDelivery  *time.Time
}

type StatusChangeInput struct {
	Status Status
	// CurrentLocation, when set, replaces the order's location before
	// the history entry is written.
	CurrentLocation *string
}

// applyStatusChange is the single transition function behind every
// mutation path. It mutates the row for the transition and returns the
// history entry to append, or nil when the status is unchanged.
func applyStatusChange(order *repository.Order, newStatus Status, now time.Time) *repository.HistoryEntry {
	if Status(order.Status) == newStatus {
		return nil
	}

	order.Status = string(newStatus)
	if newStatus == StatusDelivered && order.DeliveredAt == nil {
		deliveredAt := now
		order.DeliveredAt = &deliveredAt
	}

	return &repository.HistoryEntry{
		OrderID:     order.ID,
		Status:      string(newStatus),
		Location:    order.CurrentLocation,
		Description: "Status updated to " + newStatus.Display(),
		Timestamp:   now,
	}
}

// initialHistoryEntry covers creation, where there is no previous
// status to compare against.
func initialHistoryEntry(order *repository.Order, now time.Time) *repository.HistoryEntry {
	status := Status(order.Status)
	return &repository.HistoryEntry{
		OrderID:     order.ID,
		Status:      order.Status,
		Location:    order.CurrentLocation,
		Description: "Status updated to " + status.Display(),
		Timestamp:   now,
	}
}

func (s *TrackingStorage) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	orderNumber := strings.TrimSpace(in.OrderNumber)
	if orderNumber == "" {
		return nil, ErrOrderNumberRequired
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		return nil, ErrCustomerNameRequired
	}

	status := in.Status
	if status == "" {
		status = StatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}

	now := time.Now().UTC()
	row := &repository.Order{
		OrderNumber:        orderNumber,
		CustomerName:       in.CustomerName,
		CustomerEmail:      in.CustomerEmail,
		CustomerPhone:      in.CustomerPhone,
		DeliveryAddress:    in.DeliveryAddress,
		DeliveryCity:       in.DeliveryCity,
		DeliveryPostalCode: in.DeliveryPostalCode,
		Status:             string(status),
		CurrentLocation:    in.CurrentLocation,
		IsDelayed:          in.IsDelayed,
		Notes:              in.Notes,
		CreatedAt:          now,
		UpdatedAt:          now,
		EstimatedDelivery:  in.EstimatedDelivery,
	}
	if status == StatusDelivered {
		deliveredAt := now
		row.DeliveredAt = &deliveredAt
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	id, err := s.orderRepo.CreateTx(ctx, tx, row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrOrderNumberTaken
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	row.ID = id

	entry := initialHistoryEntry(row, now)
	if err := s.historyRepo.CreateTx(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("failed to create order history entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order creation: %w", err)
	}

	metrics.OrdersCreatedTotal.Inc()
	s.cache.Invalidate(ctx, orderNumber)

	return orderFromRow(row, []*repository.HistoryEntry{entry}), nil
}

func (s *TrackingStorage) GetOrder(ctx context.Context, orderNumber string) (*Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)

	row, err := s.orderRepo.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	history, err := s.historyRepo.GetByOrderID(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order history: %w", err)
	}

	return orderFromRow(row, history), nil
}

func (s *TrackingStorage) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := s.orderRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]Order, len(rows))
	for i, row := range rows {
		history, err := s.historyRepo.GetByOrderID(ctx, row.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get order history: %w", err)
		}
		orders[i] = *orderFromRow(row, history)
	}
	return orders, nil
}

func (s *TrackingStorage) UpdateOrder(ctx context.Context, orderNumber string, in UpdateOrderInput) (*Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if in.Status != "" && !in.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		return nil, ErrCustomerNameRequired
	}

	return s.mutateOrder(ctx, orderNumber, func(row *repository.Order, now time.Time) *repository.HistoryEntry {
		row.CustomerName = in.CustomerName
		row.CustomerEmail = in.CustomerEmail
		row.CustomerPhone = in.CustomerPhone
		row.DeliveryAddress = in.DeliveryAddress
		row.DeliveryCity = in.DeliveryCity
		row.DeliveryPostalCode = in.DeliveryPostalCode
		row.CurrentLocation = in.CurrentLocation
		row.IsDelayed = in.IsDelayed
		row.Notes = in.Notes
		row.EstimatedDelivery = in.EstimatedDelivery

		if in.Status == "" {
			return nil
		}
		return applyStatusChange(row, in.Status, now)
	})
}

func (s *TrackingStorage) UpdateOrderStatus(ctx context.Context, orderNumber string, in StatusChangeInput) (*Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}

	return s.mutateOrder(ctx, orderNumber, func(row *repository.Order, now time.Time) *repository.HistoryEntry {
		if in.CurrentLocation != nil {
			row.CurrentLocation = *in.CurrentLocation
		}
		return applyStatusChange(row, in.Status, now)
	})
}

// mutateOrder runs one edit inside a single transaction: the order row
// is locked, mutated, and the history entry produced by the mutation
// (if any) is appended atomically with the update.
func (s *TrackingStorage) mutateOrder(ctx context.Context, orderNumber string, mutate func(row *repository.Order, now time.Time) *repository.HistoryEntry) (*Order, error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	row, err := s.orderRepo.GetByNumberTx(ctx, tx, orderNumber)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	now := time.Now().UTC()
	entry := mutate(row, now)
	row.UpdatedAt = now

	if err := s.orderRepo.UpdateTx(ctx, tx, row); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if entry != nil {
		if err := s.historyRepo.CreateTx(ctx, tx, entry); err != nil {
			return nil, fmt.Errorf("failed to create order history entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order update: %w", err)
	}

	if entry != nil {
		metrics.StatusChangesTotal.WithLabelValues(row.Status).Inc()
	}
	s.cache.Invalidate(ctx, orderNumber)

	history, err := s.historyRepo.GetByOrderID(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order history: %w", err)
	}
	return orderFromRow(row, history), nil
}

// Track serves the public tracking projection for one order number.
func (s *TrackingStorage) Track(ctx context.Context, orderNumber string) (*TrackingView, error) {
	orderNumber = strings.TrimSpace(orderNumber)

	if view, ok := s.cache.Get(ctx, orderNumber); ok {
		metrics.TrackingLookupsTotal.WithLabelValues("found").Inc()
		return view, nil
	}

	row, err := s.orderRepo.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			metrics.TrackingLookupsTotal.WithLabelValues("not_found").Inc()
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	history, err := s.historyRepo.GetByOrderID(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order history: %w", err)
	}

	view := trackingViewFromRow(row, history)
	s.cache.Set(ctx, orderNumber, view)
	metrics.TrackingLookupsTotal.WithLabelValues("found").Inc()
	return view, nil
}

// Search is Track behind an explicit input validation step.
func (s *TrackingStorage) Search(ctx context.Context, orderNumber string) (*TrackingView, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, ErrOrderNumberRequired
	}
	return s.Track(ctx, orderNumber)
}

func (s *TrackingStorage) DeleteOrder(ctx context.Context, orderNumber string) error {
	orderNumber = strings.TrimSpace(orderNumber)

	if err := s.orderRepo.Delete(ctx, orderNumber); err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.cache.Invalidate(ctx, orderNumber)
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*TrackingView, bool) { return nil, false }
func (noopCache) Set(context.Context, string, *TrackingView)       {}
func (noopCache) Invalidate(context.Context, string)               {}
