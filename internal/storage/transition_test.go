package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitzori/order-tracking/internal/repository"
)

func TestApplyStatusChange(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("transition appends one entry", func(t *testing.T) {
		order := &repository.Order{
			ID:              42,
			Status:          string(StatusProcessing),
			CurrentLocation: "Warehouse 7",
		}

		entry := applyStatusChange(order, StatusShipped, now)

		require.NotNil(t, entry)
		assert.Equal(t, string(StatusShipped), order.Status)
		assert.Equal(t, int64(42), entry.OrderID)
		assert.Equal(t, string(StatusShipped), entry.Status)
		assert.Equal(t, "Warehouse 7", entry.Location)
		assert.Equal(t, "Status updated to Shipped", entry.Description)
		assert.Equal(t, now, entry.Timestamp)
		assert.Nil(t, order.DeliveredAt)
	})

	t.Run("same status yields no entry", func(t *testing.T) {
		order := &repository.Order{
			ID:     42,
			Status: string(StatusProcessing),
		}

		entry := applyStatusChange(order, StatusProcessing, now)

		assert.Nil(t, entry)
		assert.Equal(t, string(StatusProcessing), order.Status)
	})

	t.Run("delivery stamps delivered_at", func(t *testing.T) {
		order := &repository.Order{
			ID:     42,
			Status: string(StatusOutForDelivery),
		}

		entry := applyStatusChange(order, StatusDelivered, now)

		require.NotNil(t, entry)
		require.NotNil(t, order.DeliveredAt)
		assert.Equal(t, now, *order.DeliveredAt)
		assert.Equal(t, "Status updated to Delivered", entry.Description)
	})

	t.Run("existing delivered_at is preserved", func(t *testing.T) {
		earlier := now.Add(-48 * time.Hour)
		order := &repository.Order{
			ID:          42,
			Status:      string(StatusCancelled),
			DeliveredAt: &earlier,
		}

		applyStatusChange(order, StatusDelivered, now)

		assert.Equal(t, earlier, *order.DeliveredAt)
	})
}

func TestInitialHistoryEntry(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	order := &repository.Order{
		ID:              7,
		Status:          string(StatusPending),
		CurrentLocation: "",
	}

	entry := initialHistoryEntry(order, now)

	assert.Equal(t, int64(7), entry.OrderID)
	assert.Equal(t, string(StatusPending), entry.Status)
	assert.Equal(t, "", entry.Location)
	assert.Equal(t, "Status updated to Order Received", entry.Description)
	assert.Equal(t, now, entry.Timestamp)
}
