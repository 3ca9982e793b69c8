package storage

import (
	"time"

	"github.com/mitzori/order-tracking/internal/repository"
)

// Order is the full internal view of a tracked order, including the
// fields the public tracking projection hides.
type Order struct {
	OrderNumber        string         `json:"order_number"`
	CustomerName       string         `json:"customer_name"`
	CustomerEmail      string         `json:"customer_email"`
	CustomerPhone      string         `json:"customer_phone"`
	DeliveryAddress    string         `json:"delivery_address"`
	DeliveryCity       string         `json:"delivery_city"`
	DeliveryPostalCode string         `json:"delivery_postal_code"`
	Status             Status         `json:"status"`
	StatusDisplay      string         `json:"status_display"`
	CurrentLocation    string         `json:"current_location"`
	ProgressPercentage int            `json:"progress_percentage"`
	IsDelayed          bool           `json:"is_delayed"`
	Notes              string         `json:"notes"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	EstimatedDelivery  *time.Time     `json:"estimated_delivery"`
	DeliveredAt        *time.Time     `json:"delivered_at"`
	History            []HistoryEntry `json:"history"`
}

type HistoryEntry struct {
	ID            int64     `json:"id"`
	Status        Status    `json:"status"`
	StatusDisplay string    `json:"status_display"`
	Location      string    `json:"location"`
	Description   string    `json:"description"`
	Timestamp     time.Time `json:"timestamp"`
}

// TrackingView is the privacy-reduced projection served to anonymous
// customers. It must never carry contact info, the delivery address
// or internal notes.
type TrackingView struct {
	OrderNumber        string         `json:"order_number"`
	Status             Status         `json:"status"`
	StatusDisplay      string         `json:"status_display"`
	CurrentLocation    string         `json:"current_location"`
	ProgressPercentage int            `json:"progress_percentage"`
	EstimatedDelivery  *time.Time     `json:"estimated_delivery"`
	DeliveredAt        *time.Time     `json:"delivered_at"`
	IsDelayed          bool           `json:"is_delayed"`
	History            []HistoryEntry `json:"history"`
}

func orderFromRow(row *repository.Order, history []*repository.HistoryEntry) *Order {
	status := Status(row.Status)
	return &Order{
		OrderNumber:        row.OrderNumber,
		CustomerName:       row.CustomerName,
		CustomerEmail:      row.CustomerEmail,
		CustomerPhone:      row.CustomerPhone,
		DeliveryAddress:    row.DeliveryAddress,
		DeliveryCity:       row.DeliveryCity,
		DeliveryPostalCode: row.DeliveryPostalCode,
		Status:             status,
		StatusDisplay:      status.Display(),
		CurrentLocation:    row.CurrentLocation,
		ProgressPercentage: status.Progress(),
		IsDelayed:          row.IsDelayed,
		Notes:              row.Notes,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
		EstimatedDelivery:  row.EstimatedDelivery,
		DeliveredAt:        row.DeliveredAt,
		History:            historyFromRows(history),
	}
}

func historyFromRows(rows []*repository.HistoryEntry) []HistoryEntry {
	entries := make([]HistoryEntry, len(rows))
	for i, row := range rows {
		status := Status(row.Status)
		entries[i] = HistoryEntry{
			ID:            row.ID,
			Status:        status,
			StatusDisplay: status.Display(),
			Location:      row.Location,
			Description:   row.Description,
			Timestamp:     row.Timestamp,
		}
	}
	return entries
}

func trackingViewFromRow(row *repository.Order, history []*repository.HistoryEntry) *TrackingView {
	status := Status(row.Status)
	return &TrackingView{
		OrderNumber:        row.OrderNumber,
		Status:             status,
		StatusDisplay:      status.Display(),
		CurrentLocation:    row.CurrentLocation,
		ProgressPercentage: status.Progress(),
		EstimatedDelivery:  row.EstimatedDelivery,
		DeliveredAt:        row.DeliveredAt,
		IsDelayed:          row.IsDelayed,
		History:            historyFromRows(history),
	}
}
