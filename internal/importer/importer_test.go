package importer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mitzori/order-tracking/internal/storage"
)

type fakeStore struct {
	existing map[string]bool
	imported []storage.ImportedOrder
}

func (f *fakeStore) OrderExists(_ context.Context, orderNumber string) (bool, error) {
	return f.existing[orderNumber], nil
}

func (f *fakeStore) ImportOrder(_ context.Context, imp storage.ImportedOrder) error {
	f.imported = append(f.imported, imp)
	return nil
}

func newTestImporter(store *fakeStore, now time.Time) *Importer {
	imp := New(store, zap.NewNop())
	imp.now = func() time.Time { return now }
	return imp
}

const exportHeader = "Name,Email,Shipping Name,Billing Name,Shipping Phone,Billing Phone," +
	"Shipping Address1,Shipping Address2,Billing Address1,Billing Address2," +
	"Shipping City,Billing City,Shipping Zip,Billing Zip," +
	"Shipping Province,Billing Province,Shipping Country,Billing Country," +
	"Created at,Fulfilled at\n"

func TestImport(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	t.Run("parses a full row", func(t *testing.T) {
		store := &fakeStore{existing: map[string]bool{}}
		imp := newTestImporter(store, now)

		csv := exportHeader +
			"#1001,maria@example.com,Maria Lopez,,+34 600 000 001,," +
			"12 Calle Mayor,Apt 3,,," +
			"Madrid,,28013,," +
			"Madrid,,Spain,," +
			"2024-11-02 09:30:00 +0100,2024-11-06 16:45:00 +0100\n"

		summary, err := imp.Import(ctx, strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Created)
		assert.Equal(t, 0, summary.Skipped)
		assert.Equal(t, 1, summary.Total)

		require.Len(t, store.imported, 1)
		got := store.imported[0]
		assert.Equal(t, "1001", got.OrderNumber)
		assert.Equal(t, "Maria Lopez", got.CustomerName)
		assert.Equal(t, "maria@example.com", got.CustomerEmail)
		assert.Equal(t, "+34 600 000 001", got.CustomerPhone)
		assert.Equal(t, "12 Calle Mayor, Apt 3", got.DeliveryAddress)
		assert.Equal(t, "Madrid", got.DeliveryCity)
		assert.Equal(t, "28013", got.DeliveryPostalCode)
		assert.Equal(t, "12 Calle Mayor, Apt 3, Madrid, Madrid, Spain", got.FullAddress)

		assert.Equal(t, time.Date(2024, 11, 2, 8, 30, 0, 0, time.UTC), got.CreatedAt)
		require.NotNil(t, got.DeliveredAt)
		assert.Equal(t, time.Date(2024, 11, 6, 15, 45, 0, 0, time.UTC), *got.DeliveredAt)
	})

	t.Run("falls back to billing fields", func(t *testing.T) {
		store := &fakeStore{existing: map[string]bool{}}
		imp := newTestImporter(store, now)

		csv := exportHeader +
			"#1002,,,John Smith,,+1 555 0100," +
			",,9 High St,," +
			",London,,SW1A," +
			",,,UK," +
			"2024-11-02 09:30:00 +0000,\n"

		_, err := imp.Import(ctx, strings.NewReader(csv))
		require.NoError(t, err)

		require.Len(t, store.imported, 1)
		got := store.imported[0]
		assert.Equal(t, "John Smith", got.CustomerName)
		assert.Equal(t, "+1 555 0100", got.CustomerPhone)
		assert.Equal(t, "9 High St", got.DeliveryAddress)
		assert.Equal(t, "London", got.DeliveryCity)
		assert.Equal(t, "9 High St, London, UK", got.FullAddress)
		assert.Nil(t, got.DeliveredAt)
	})

	t.Run("line item rows are deduplicated", func(t *testing.T) {
		store := &fakeStore{existing: map[string]bool{}}
		imp := newTestImporter(store, now)

		csv := exportHeader +
			"#1003,a@example.com,A,,,,,,,,,,,,,,,,2024-11-02 09:30:00 +0000,\n" +
			"#1003,,,,,,,,,,,,,,,,,,,\n" +
			"#1003,,,,,,,,,,,,,,,,,,,\n"

		summary, err := imp.Import(ctx, strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Created)
		assert.Equal(t, 1, summary.Total)
		assert.Len(t, store.imported, 1)
	})

	t.Run("existing orders are skipped", func(t *testing.T) {
		store := &fakeStore{existing: map[string]bool{"1004": true}}
		imp := newTestImporter(store, now)

		csv := exportHeader +
			"#1004,a@example.com,A,,,,,,,,,,,,,,,,2024-11-02 09:30:00 +0000,\n" +
			"#1005,b@example.com,B,,,,,,,,,,,,,,,,2024-11-02 09:30:00 +0000,\n"

		summary, err := imp.Import(ctx, strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Created)
		assert.Equal(t, 1, summary.Skipped)
		assert.Equal(t, 2, summary.Total)
		require.Len(t, store.imported, 1)
		assert.Equal(t, "1005", store.imported[0].OrderNumber)
	})

	t.Run("unparseable created date falls back to now", func(t *testing.T) {
		store := &fakeStore{existing: map[string]bool{}}
		imp := newTestImporter(store, now)

		csv := exportHeader +
			"#1006,a@example.com,A,,,,,,,,,,,,,,,,not-a-date,\n"

		summary, err := imp.Import(ctx, strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Created)
		require.Len(t, store.imported, 1)
		assert.Equal(t, now, store.imported[0].CreatedAt)
	})

	t.Run("rows without an order number are ignored", func(t *testing.T) {
		store := &fakeStore{existing: map[string]bool{}}
		imp := newTestImporter(store, now)

		csv := exportHeader +
			",a@example.com,A,,,,,,,,,,,,,,,,2024-11-02 09:30:00 +0000,\n"

		summary, err := imp.Import(ctx, strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 0, summary.Total)
		assert.Empty(t, store.imported)
	})

	t.Run("missing name column", func(t *testing.T) {
		store := &fakeStore{existing: map[string]bool{}}
		imp := newTestImporter(store, now)

		_, err := imp.Import(ctx, strings.NewReader("Email,Created at\n"))
		assert.Error(t, err)
	})
}
