package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	mock_server "github.com/mitzori/order-tracking/internal/server/mocks"
	"github.com/mitzori/order-tracking/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *mock_server.MockStorage, *mock_server.MockUserRepo) {
	t.Helper()
	ctrl := gomock.NewController(t)

	mockStorage := mock_server.NewMockStorage(ctrl)
	mockUserRepo := mock_server.NewMockUserRepo(ctrl)
	srv := New(mockStorage, mockUserRepo, nil, zap.NewNop())
	return srv, mockStorage, mockUserRepo
}

func TestHandleTrackOrder(t *testing.T) {
	srv, mockStorage, _ := newTestServer(t)

	tests := []struct {
		name           string
		orderNumber    string
		setupMocks     func()
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "known order",
			orderNumber: "ORD-1001",
			setupMocks: func() {
				mockStorage.EXPECT().
					Track(gomock.Any(), "ORD-1001").
					Return(&storage.TrackingView{
						OrderNumber:        "ORD-1001",
						Status:             storage.StatusInTransit,
						StatusDisplay:      "In Transit",
						ProgressPercentage: 60,
						History:            []storage.HistoryEntry{},
					}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "unknown order",
			orderNumber: "1001",
			setupMocks: func() {
				mockStorage.EXPECT().
					Track(gomock.Any(), "1001").
					Return(nil, storage.ErrOrderNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"Order not found"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMocks()

			req := httptest.NewRequest(http.MethodGet, "/api/orders/track/"+tc.orderNumber+"/", nil)
			req = mux.SetURLVars(req, map[string]string{"order_number": tc.orderNumber})
			rr := httptest.NewRecorder()

			srv.handleTrackOrder(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
		})
	}
}

func TestHandleTrackOrderHidesCustomerFields(t *testing.T) {
	srv, mockStorage, _ := newTestServer(t)

	mockStorage.EXPECT().
		Track(gomock.Any(), "ORD-1001").
		Return(&storage.TrackingView{
			OrderNumber:   "ORD-1001",
			Status:        storage.StatusDelivered,
			StatusDisplay: "Delivered",
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/track/ORD-1001/", nil)
	req = mux.SetURLVars(req, map[string]string{"order_number": "ORD-1001"})
	rr := httptest.NewRecorder()

	srv.handleTrackOrder(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.NotContains(t, body, "customer_email")
	assert.NotContains(t, body, "customer_phone")
	assert.NotContains(t, body, "delivery_address")
	assert.NotContains(t, body, "notes")
}

func TestHandleSearchOrder(t *testing.T) {
	srv, mockStorage, _ := newTestServer(t)

	tests := []struct {
		name           string
		requestBody    string
		setupMocks     func()
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "match",
			requestBody: `{"order_number":"ORD-1001"}`,
			setupMocks: func() {
				mockStorage.EXPECT().
					Search(gomock.Any(), "ORD-1001").
					Return(&storage.TrackingView{OrderNumber: "ORD-1001"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "blank order number",
			requestBody: `{"order_number":"   "}`,
			setupMocks: func() {
				mockStorage.EXPECT().
					Search(gomock.Any(), "   ").
					Return(nil, storage.ErrOrderNumberRequired)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Order number is required"}`,
		},
		{
			name:        "no match",
			requestBody: `{"order_number":"ORD-9999"}`,
			setupMocks: func() {
				mockStorage.EXPECT().
					Search(gomock.Any(), "ORD-9999").
					Return(nil, storage.ErrOrderNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"Order not found. Please verify your order number."}`,
		},
		{
			name:           "malformed body",
			requestBody:    `{not json`,
			setupMocks:     func() {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Order number is required"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMocks()

			req := httptest.NewRequest(http.MethodPost, "/api/orders/search/", bytes.NewBufferString(tc.requestBody))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			srv.handleSearchOrder(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
		})
	}
}

func TestHandleCreateOrder(t *testing.T) {
	srv, mockStorage, _ := newTestServer(t)

	tests := []struct {
		name           string
		requestBody    string
		setupMocks     func()
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "created",
			requestBody: `{"order_number":"ORD-1001","customer_name":"Alice Chen"}`,
			setupMocks: func() {
				mockStorage.EXPECT().
					CreateOrder(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ interface{}, in storage.CreateOrderInput) (*storage.Order, error) {
						assert.Equal(t, "ORD-1001", in.OrderNumber)
						assert.Equal(t, "Alice Chen", in.CustomerName)
						return &storage.Order{
							OrderNumber:  "ORD-1001",
							CustomerName: "Alice Chen",
							Status:       storage.StatusPending,
						}, nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "duplicate order number",
			requestBody: `{"order_number":"ORD-1001","customer_name":"Alice Chen"}`,
			setupMocks: func() {
				mockStorage.EXPECT().
					CreateOrder(gomock.Any(), gomock.Any()).
					Return(nil, storage.ErrOrderNumberTaken)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"error":"Order number already exists"}`,
		},
		{
			name:        "missing customer name",
			requestBody: `{"order_number":"ORD-1001"}`,
			setupMocks: func() {
				mockStorage.EXPECT().
					CreateOrder(gomock.Any(), gomock.Any()).
					Return(nil, storage.ErrCustomerNameRequired)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Customer name is required"}`,
		},
		{
			name:           "malformed body",
			requestBody:    `{not json`,
			setupMocks:     func() {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid request body"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMocks()

			req := httptest.NewRequest(http.MethodPost, "/api/orders/", bytes.NewBufferString(tc.requestBody))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			srv.handleCreateOrder(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
		})
	}
}

func TestHandleUpdateOrderStatus(t *testing.T) {
	srv, mockStorage, _ := newTestServer(t)

	tests := []struct {
		name           string
		requestBody    string
		setupMocks     func()
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "transition",
			requestBody: `{"status":"SHIPPED","current_location":"Origin facility"}`,
			setupMocks: func() {
				mockStorage.EXPECT().
					UpdateOrderStatus(gomock.Any(), "ORD-1001", gomock.Any()).
					DoAndReturn(func(_ interface{}, _ string, in storage.StatusChangeInput) (*storage.Order, error) {
						assert.Equal(t, storage.StatusShipped, in.Status)
						require.NotNil(t, in.CurrentLocation)
						assert.Equal(t, "Origin facility", *in.CurrentLocation)
						return &storage.Order{
							OrderNumber: "ORD-1001",
							Status:      storage.StatusShipped,
						}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "invalid status",
			requestBody: `{"status":"TELEPORTED"}`,
			setupMocks: func() {
				mockStorage.EXPECT().
					UpdateOrderStatus(gomock.Any(), "ORD-1001", gomock.Any()).
					Return(nil, storage.ErrInvalidStatus)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid status"}`,
		},
		{
			name:        "unknown order",
			requestBody: `{"status":"SHIPPED"}`,
			setupMocks: func() {
				mockStorage.EXPECT().
					UpdateOrderStatus(gomock.Any(), "ORD-1001", gomock.Any()).
					Return(nil, storage.ErrOrderNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"Order not found"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.setupMocks()

			req := httptest.NewRequest(http.MethodPut, "/api/orders/ORD-1001/status", bytes.NewBufferString(tc.requestBody))
			req = mux.SetURLVars(req, map[string]string{"order_number": "ORD-1001"})
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()

			srv.handleUpdateOrderStatus(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
		})
	}
}

func TestProtect(t *testing.T) {
	srv, _, mockUserRepo := newTestServer(t)

	nextCalled := false
	handler := srv.protect(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing credentials", func(t *testing.T) {
		nextCalled = false
		req := httptest.NewRequest(http.MethodGet, "/api/orders/", nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, nextCalled)
	})

	t.Run("wrong credentials", func(t *testing.T) {
		nextCalled = false
		mockUserRepo.EXPECT().
			ValidateUser(gomock.Any(), "admin", "wrong").
			Return(false, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/orders/", nil)
		req.SetBasicAuth("admin", "wrong")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, nextCalled)
	})

	t.Run("valid credentials", func(t *testing.T) {
		nextCalled = false
		mockUserRepo.EXPECT().
			ValidateUser(gomock.Any(), "admin", "secret").
			Return(true, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/orders/", nil)
		req.SetBasicAuth("admin", "secret")
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, nextCalled)
	})
}
