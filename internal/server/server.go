//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mitzori/order-tracking/internal/metrics"
	"github.com/mitzori/order-tracking/internal/storage"
)

type Storage interface {
	CreateOrder(ctx context.Context, in storage.CreateOrderInput) (*storage.Order, error)
	GetOrder(ctx context.Context, orderNumber string) (*storage.Order, error)
	ListOrders(ctx context.Context) ([]storage.Order, error)
	UpdateOrder(ctx context.Context, orderNumber string, in storage.UpdateOrderInput) (*storage.Order, error)
	UpdateOrderStatus(ctx context.Context, orderNumber string, in storage.StatusChangeInput) (*storage.Order, error)
	Track(ctx context.Context, orderNumber string) (*storage.TrackingView, error)
	Search(ctx context.Context, orderNumber string) (*storage.TrackingView, error)
	DeleteOrder(ctx context.Context, orderNumber string) error
}

type UserRepo interface {
	ValidateUser(ctx context.Context, username, password string) (bool, error)
}

type Server struct {
	storage      Storage
	userRepo     UserRepo
	logger       *zap.Logger
	server       *http.Server
	auditManager *AuditManager
}

func New(storage Storage, userRepo UserRepo, auditManager *AuditManager, logger *zap.Logger) *Server {
	return &Server{
		storage:      storage,
		userRepo:     userRepo,
		logger:       logger,
		auditManager: auditManager,
	}
}

func (s *Server) Run(ctx context.Context, port string) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.auditManager.Start(ctx)

	s.logger.Info("server starting", zap.String("port", port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}

	s.auditManager.Shutdown(ctx)
	return nil
}

func (s *Server) setupRoutes() http.Handler {
	r := mux.NewRouter()

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/orders").Subrouter()
	api.Use(s.auditLogMiddleware)

	// Public tracking surface.
	api.HandleFunc("/track/{order_number}/", s.handleTrackOrder).Methods(http.MethodGet).Name("trackOrder")
	api.HandleFunc("/search/", s.handleSearchOrder).Methods(http.MethodPost).Name("searchOrder")

	// Administrative surface.
	api.Handle("/", s.protect(s.handleListOrders)).Methods(http.MethodGet).Name("listOrders")
	api.Handle("/", s.protect(s.handleCreateOrder)).Methods(http.MethodPost).Name("createOrder")
	api.Handle("/{order_number}/", s.protect(s.handleGetOrder)).Methods(http.MethodGet).Name("getOrder")
	api.Handle("/{order_number}/", s.protect(s.handleUpdateOrder)).Methods(http.MethodPut).Name("updateOrder")
	api.Handle("/{order_number}/", s.protect(s.handleDeleteOrder)).Methods(http.MethodDelete).Name("deleteOrder")
	api.Handle("/{order_number}/status", s.protect(s.handleUpdateOrderStatus)).Methods(http.MethodPut).Name("updateOrderStatus")

	return r
}

func (s *Server) protect(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		valid, err := s.userRepo.ValidateUser(r.Context(), username, password)
		if err != nil || !valid {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondStorageError maps domain errors onto the HTTP surface.
// notFoundMsg varies per endpoint, the rest is uniform.
func (s *Server) respondStorageError(w http.ResponseWriter, operation string, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, storage.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, storage.ErrOrderNumberRequired):
		respondError(w, http.StatusBadRequest, "Order number is required")
	case errors.Is(err, storage.ErrCustomerNameRequired):
		respondError(w, http.StatusBadRequest, "Customer name is required")
	case errors.Is(err, storage.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "Invalid status")
	case errors.Is(err, storage.ErrOrderNumberTaken):
		respondError(w, http.StatusConflict, "Order number already exists")
	default:
		s.logger.Error("storage operation failed", zap.String("operation", operation), zap.Error(err))
		metrics.OperationErrorsTotal.WithLabelValues(operation).Inc()
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
