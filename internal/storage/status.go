package storage

import "fmt"

// Status is the closed set of lifecycle stages an order moves through.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusProcessing     Status = "PROCESSING"
	StatusShipped        Status = "SHIPPED"
	StatusInTransit      Status = "IN_TRANSIT"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
)

// AllStatuses lists every valid status in natural lifecycle order,
// with CANCELLED last as the off-path terminal state.
var AllStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusInTransit,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

var progressByStatus = map[Status]int{
	StatusPending:        0,
	StatusProcessing:     20,
	StatusShipped:        40,
	StatusInTransit:      60,
	StatusOutForDelivery: 80,
	StatusDelivered:      100,
	StatusCancelled:      0,
}

var displayByStatus = map[Status]string{
	StatusPending:        "Order Received",
	StatusProcessing:     "Processing",
	StatusShipped:        "Shipped",
	StatusInTransit:      "In Transit",
	StatusOutForDelivery: "Out for Delivery",
	StatusDelivered:      "Delivered",
	StatusCancelled:      "Cancelled",
}

// Progress returns the display percentage for the status. Unknown or
// legacy values map to 0.
func (s Status) Progress() int {
	return progressByStatus[s]
}

// Display returns the human-readable label. Unknown values fall back
// to the raw status code.
func (s Status) Display() string {
	if label, ok := displayByStatus[s]; ok {
		return label
	}
	return string(s)
}

func (s Status) Valid() bool {
	_, ok := progressByStatus[s]
	return ok
}

// ParseStatus validates externally supplied status input.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}
