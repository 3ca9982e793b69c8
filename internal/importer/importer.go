package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mitzori/order-tracking/internal/metrics"
	"github.com/mitzori/order-tracking/internal/storage"
)

// shopifyTimeLayout matches the timestamps in a Shopify order export,
// e.g. "2023-04-12 14:03:27 -0400".
const shopifyTimeLayout = "2006-01-02 15:04:05 -0700"

type Store interface {
	OrderExists(ctx context.Context, orderNumber string) (bool, error)
	ImportOrder(ctx context.Context, imp storage.ImportedOrder) error
}

type Summary struct {
	Created int
	Skipped int
	Total   int
}

type Importer struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func New(store Store, logger *zap.Logger) *Importer {
	return &Importer{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func (i *Importer) ImportFile(ctx context.Context, path string) (*Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	defer file.Close()

	return i.Import(ctx, file)
}

// Import reads a Shopify order export and creates every order it does
// not already have, each as DELIVERED with a synthesized history. The
// batch is best effort: a bad row is logged and skipped, never fatal.
func (i *Importer) Import(ctx context.Context, r io.Reader) (*Summary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read export header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[strings.TrimSpace(name)] = idx
	}
	if _, ok := columns["Name"]; !ok {
		return nil, errors.New("export is missing the Name column")
	}

	summary := &Summary{}
	seen := make(map[string]struct{})

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			i.logger.Warn("skipping unreadable row", zap.Error(err))
			continue
		}

		row := rowReader{columns: columns, record: record}

		orderNumber := strings.TrimPrefix(strings.TrimSpace(row.get("Name")), "#")
		if orderNumber == "" {
			i.logger.Warn("skipping row without an order number")
			continue
		}
		// Shopify repeats the order header row once per line item.
		// Only the first occurrence carries the order.
		if _, dup := seen[orderNumber]; dup {
			continue
		}
		seen[orderNumber] = struct{}{}
		summary.Total++

		exists, err := i.store.OrderExists(ctx, orderNumber)
		if err != nil {
			return summary, fmt.Errorf("failed to check order %s: %w", orderNumber, err)
		}
		if exists {
			summary.Skipped++
			metrics.ImportedOrdersTotal.WithLabelValues("skipped").Inc()
			i.logger.Info("order already exists, skipping", zap.String("order_number", orderNumber))
			continue
		}

		imp := i.buildOrder(orderNumber, row)
		if err := i.store.ImportOrder(ctx, imp); err != nil {
			if errors.Is(err, storage.ErrOrderNumberTaken) {
				summary.Skipped++
				metrics.ImportedOrdersTotal.WithLabelValues("skipped").Inc()
				continue
			}
			return summary, fmt.Errorf("failed to import order %s: %w", orderNumber, err)
		}

		summary.Created++
		metrics.ImportedOrdersTotal.WithLabelValues("created").Inc()
		i.logger.Info("imported order",
			zap.String("order_number", orderNumber),
			zap.String("customer", imp.CustomerName),
		)
	}

	return summary, nil
}

func (i *Importer) buildOrder(orderNumber string, row rowReader) storage.ImportedOrder {
	name := row.prefer("Shipping Name", "Billing Name")
	phone := row.prefer("Shipping Phone", "Billing Phone")
	city := row.prefer("Shipping City", "Billing City")
	zip := row.prefer("Shipping Zip", "Billing Zip")
	province := row.prefer("Shipping Province", "Billing Province")
	country := row.prefer("Shipping Country", "Billing Country")

	address := row.prefer("Shipping Address1", "Billing Address1")
	if address2 := row.prefer("Shipping Address2", "Billing Address2"); address2 != "" {
		address += ", " + address2
	}

	createdAt := i.parseTime(orderNumber, "Created at", row.get("Created at"))
	var deliveredAt *time.Time
	if raw := row.get("Fulfilled at"); raw != "" {
		t := i.parseTime(orderNumber, "Fulfilled at", raw)
		deliveredAt = &t
	}

	return storage.ImportedOrder{
		OrderNumber:        orderNumber,
		CustomerName:       name,
		CustomerEmail:      row.get("Email"),
		CustomerPhone:      phone,
		DeliveryAddress:    address,
		DeliveryCity:       city,
		DeliveryPostalCode: zip,
		FullAddress:        joinNonEmpty(address, city, province, country),
		CreatedAt:          createdAt,
		DeliveredAt:        deliveredAt,
	}
}

func (i *Importer) parseTime(orderNumber, column, raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return i.now().UTC()
	}
	t, err := time.Parse(shopifyTimeLayout, raw)
	if err != nil {
		i.logger.Warn("unparseable timestamp, falling back to now",
			zap.String("order_number", orderNumber),
			zap.String("column", column),
			zap.String("value", raw),
		)
		return i.now().UTC()
	}
	return t.UTC()
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

type rowReader struct {
	columns map[string]int
	record  []string
}

func (r rowReader) get(column string) string {
	idx, ok := r.columns[column]
	if !ok || idx >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[idx])
}

func (r rowReader) prefer(primary, fallback string) string {
	if v := r.get(primary); v != "" {
		return v
	}
	return r.get(fallback)
}
