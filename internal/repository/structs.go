package repository

import (
	"errors"
	"time"
)

var ErrObjectNotFound = errors.New("not found")

type Order struct {
	ID                 int64      `db:"id"`
	OrderNumber        string     `db:"order_number"`
	CustomerName       string     `db:"customer_name"`
	CustomerEmail      string     `db:"customer_email"`
	CustomerPhone      string     `db:"customer_phone"`
	DeliveryAddress    string     `db:"delivery_address"`
	DeliveryCity       string     `db:"delivery_city"`
	DeliveryPostalCode string     `db:"delivery_postal_code"`
	Status             string     `db:"status"`
	CurrentLocation    string     `db:"current_location"`
	IsDelayed          bool       `db:"is_delayed"`
	Notes              string     `db:"notes"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
	EstimatedDelivery  *time.Time `db:"estimated_delivery"`
	DeliveredAt        *time.Time `db:"delivered_at"`
}

type HistoryEntry struct {
	ID          int64     `db:"id"`
	OrderID     int64     `db:"order_id"`
	Status      string    `db:"status"`
	Location    string    `db:"location"`
	Description string    `db:"description"`
	Timestamp   time.Time `db:"timestamp"`
}

type User struct {
	ID       int64  `db:"id"`
	Username string `db:"username"`
	Password string `db:"password"`
}
