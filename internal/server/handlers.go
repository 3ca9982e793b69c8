package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mitzori/order-tracking/internal/storage"
)

type createOrderRequest struct {
	OrderNumber        string     `json:"order_number"`
	CustomerName       string     `json:"customer_name"`
	CustomerEmail      string     `json:"customer_email"`
	CustomerPhone      string     `json:"customer_phone"`
	DeliveryAddress    string     `json:"delivery_address"`
	DeliveryCity       string     `json:"delivery_city"`
	DeliveryPostalCode string     `json:"delivery_postal_code"`
	Status             string     `json:"status"`
	CurrentLocation    string     `json:"current_location"`
	IsDelayed          bool       `json:"is_delayed"`
	Notes              string     `json:"notes"`
	EstimatedDelivery  *time.Time `json:"estimated_delivery"`
}

type updateOrderRequest struct {
	CustomerName       string     `json:"customer_name"`
	CustomerEmail      string     `json:"customer_email"`
	CustomerPhone      string     `json:"customer_phone"`
	DeliveryAddress    string     `json:"delivery_address"`
	DeliveryCity       string     `json:"delivery_city"`
	DeliveryPostalCode string     `json:"delivery_postal_code"`
	Status             string     `json:"status"`
	CurrentLocation    string     `json:"current_location"`
	IsDelayed          bool       `json:"is_delayed"`
	Notes              string     `json:"notes"`
	EstimatedDelivery  *time.Time `json:"estimated_delivery"`
}

type statusChangeRequest struct {
	Status          string  `json:"status"`
	CurrentLocation *string `json:"current_location"`
}

type searchRequest struct {
	OrderNumber string `json:"order_number"`
}

func (s *Server) handleTrackOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := mux.Vars(r)["order_number"]

	view, err := s.storage.Track(r.Context(), orderNumber)
	if err != nil {
		s.respondStorageError(w, "track", err, "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleSearchOrder(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Order number is required")
		return
	}

	view, err := s.storage.Search(r.Context(), req.OrderNumber)
	if err != nil {
		s.respondStorageError(w, "search", err, "Order not found. Please verify your order number.")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.storage.ListOrders(r.Context())
	if err != nil {
		s.respondStorageError(w, "list_orders", err, "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := s.storage.CreateOrder(r.Context(), storage.CreateOrderInput{
		OrderNumber:        req.OrderNumber,
		CustomerName:       req.CustomerName,
		CustomerEmail:      req.CustomerEmail,
		CustomerPhone:      req.CustomerPhone,
		DeliveryAddress:    req.DeliveryAddress,
		DeliveryCity:       req.DeliveryCity,
		DeliveryPostalCode: req.DeliveryPostalCode,
		Status:             storage.Status(req.Status),
		CurrentLocation:    req.CurrentLocation,
		IsDelayed:          req.IsDelayed,
		Notes:              req.Notes,
		EstimatedDelivery:  req.EstimatedDelivery,
	})
	if err != nil {
		s.respondStorageError(w, "create_order", err, "Order not found")
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := mux.Vars(r)["order_number"]

	order, err := s.storage.GetOrder(r.Context(), orderNumber)
	if err != nil {
		s.respondStorageError(w, "get_order", err, "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := mux.Vars(r)["order_number"]

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := s.storage.UpdateOrder(r.Context(), orderNumber, storage.UpdateOrderInput{
		CustomerName:       req.CustomerName,
		CustomerEmail:      req.CustomerEmail,
		CustomerPhone:      req.CustomerPhone,
		DeliveryAddress:    req.DeliveryAddress,
		DeliveryCity:       req.DeliveryCity,
		DeliveryPostalCode: req.DeliveryPostalCode,
		Status:             storage.Status(req.Status),
		CurrentLocation:    req.CurrentLocation,
		IsDelayed:          req.IsDelayed,
		Notes:              req.Notes,
		EstimatedDelivery:  req.EstimatedDelivery,
	})
	if err != nil {
		s.respondStorageError(w, "update_order", err, "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderNumber := mux.Vars(r)["order_number"]

	var req statusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := s.storage.UpdateOrderStatus(r.Context(), orderNumber, storage.StatusChangeInput{
		Status:          storage.Status(req.Status),
		CurrentLocation: req.CurrentLocation,
	})
	if err != nil {
		s.respondStorageError(w, "update_order_status", err, "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := mux.Vars(r)["order_number"]

	if err := s.storage.DeleteOrder(r.Context(), orderNumber); err != nil {
		s.respondStorageError(w, "delete_order", err, "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Order deleted"})
}
