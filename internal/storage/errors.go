package storage

import "errors"

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNumberRequired  = errors.New("order number is required")
	ErrOrderNumberTaken     = errors.New("order number already exists")
	ErrCustomerNameRequired = errors.New("customer name is required")
	ErrInvalidStatus        = errors.New("invalid status")
)
