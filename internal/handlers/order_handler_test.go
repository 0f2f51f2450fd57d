package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"food_order/internal/apperrors"
	"food_order/internal/models"
	"food_order/internal/repository"
	"food_order/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// stubOrderService lets each test script the service behavior and capture
// what the handler passed down.
type stubOrderService struct {
	createFunc func(services.CreateOrderCommand) (*models.Order, string, error)
	getFunc    func(uint) (*models.Order, error)
	listFunc   func(repository.ListFilter) (*services.OrderPage, error)
	recentFunc func(int) ([]models.Order, error)
	updateFunc func(uint, models.OrderStatus) (*models.Order, error)
	cancelFunc func(uint) (*models.Order, error)
	statsFunc  func() (*services.OrderStats, error)
}

func (s *stubOrderService) CreateOrder(cmd services.CreateOrderCommand) (*models.Order, string, error) {
	return s.createFunc(cmd)
}

func (s *stubOrderService) GetOrder(id uint) (*models.Order, error) { return s.getFunc(id) }

func (s *stubOrderService) ListOrders(f repository.ListFilter) (*services.OrderPage, error) {
	return s.listFunc(f)
}

func (s *stubOrderService) RecentOrders(limit int) ([]models.Order, error) {
	return s.recentFunc(limit)
}

func (s *stubOrderService) UpdateStatus(id uint, status models.OrderStatus) (*models.Order, error) {
	return s.updateFunc(id, status)
}

func (s *stubOrderService) CancelOrder(id uint) (*models.Order, error) { return s.cancelFunc(id) }

func (s *stubOrderService) Stats() (*services.OrderStats, error) { return s.statsFunc() }

func setupRouter(svc services.OrderService, adminKeyHash string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewOrderHandler(svc)
	router := gin.New()

	orders := router.Group("/orders")
	orders.POST("", h.CreateOrder)
	orders.GET("", h.ListOrders)
	orders.GET("/:id", h.GetOrder)
	orders.PATCH("/:id/status", AdminAuth(adminKeyHash), h.UpdateStatus)
	orders.PUT("/:id/cancel", h.CancelOrder)

	admin := orders.Group("/admin", AdminAuth(adminKeyHash))
	admin.GET("/stats", h.Stats)
	admin.GET("/recent", h.RecentOrders)

	return router
}

func perform(router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateOrderEndpoint(t *testing.T) {
	var captured services.CreateOrderCommand
	svc := &stubOrderService{
		createFunc: func(cmd services.CreateOrderCommand) (*models.Order, string, error) {
			captured = cmd
			return &models.Order{ID: 1, OrderNumber: "ORD-1-1", Status: models.StatusReceived}, "tok-123", nil
		},
	}
	router := setupRouter(svc, "")

	body := map[string]interface{}{
		"customer": map[string]string{
			"name":    "Ada Lovelace",
			"address": "12 Analytical Lane",
			"phone":   "555-0101",
		},
		"items": []map[string]interface{}{
			{"menuItemId": 1, "quantity": 2},
		},
		"deliveryFee": 2.99,
		"totalAmount": 28.97,
	}
	w := perform(router, http.MethodPost, "/orders", body, nil)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Order         models.Order `json:"order"`
		TrackingToken string       `json:"tracking_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ORD-1-1", resp.Order.OrderNumber)
	assert.Equal(t, "tok-123", resp.TrackingToken)

	assert.Equal(t, "Ada Lovelace", captured.Customer.Name)
	require.Len(t, captured.Items, 1)
	assert.Equal(t, uint(1), captured.Items[0].MenuItemID)
	assert.Equal(t, 2, captured.Items[0].Quantity)
	require.NotNil(t, captured.DeliveryFee)
	assert.InDelta(t, 2.99, *captured.DeliveryFee, 0.001)
	require.NotNil(t, captured.TotalAmount)
	assert.InDelta(t, 28.97, *captured.TotalAmount, 0.001)
}

func TestCreateOrderEndpointBadJSON(t *testing.T) {
	svc := &stubOrderService{}
	router := setupRouter(svc, "")

	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrderEndpointValidationError(t *testing.T) {
	svc := &stubOrderService{
		createFunc: func(services.CreateOrderCommand) (*models.Order, string, error) {
			return nil, "", apperrors.NewValidation(apperrors.CodeTotalMismatch,
				"total amount mismatch: provided 999.00, computed 37.96")
		},
	}
	router := setupRouter(svc, "")

	w := perform(router, http.MethodPost, "/orders", map[string]interface{}{}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.CodeTotalMismatch, resp["code"])
	assert.Contains(t, resp["error"], "37.96")
}

func TestListOrdersEndpointDefaults(t *testing.T) {
	var captured repository.ListFilter
	svc := &stubOrderService{
		listFunc: func(f repository.ListFilter) (*services.OrderPage, error) {
			captured = f
			return &services.OrderPage{Page: 1, Limit: 50}, nil
		},
	}
	router := setupRouter(svc, "")

	w := perform(router, http.MethodGet, "/orders", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, captured.Limit)
	assert.Equal(t, 1, captured.Page)
	assert.Equal(t, "createdAt", captured.SortBy)
	assert.Equal(t, "desc", captured.Order)
	assert.Empty(t, captured.Status)
}

func TestListOrdersEndpointWithFilter(t *testing.T) {
	var captured repository.ListFilter
	svc := &stubOrderService{
		listFunc: func(f repository.ListFilter) (*services.OrderPage, error) {
			captured = f
			return &services.OrderPage{}, nil
		},
	}
	router := setupRouter(svc, "")

	w := perform(router, http.MethodGet, "/orders?status=Preparing&limit=10&page=3&order=asc", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusPreparing, captured.Status)
	assert.Equal(t, 10, captured.Limit)
	assert.Equal(t, 3, captured.Page)
	assert.Equal(t, "asc", captured.Order)
}

func TestGetOrderEndpointNotFound(t *testing.T) {
	svc := &stubOrderService{
		getFunc: func(id uint) (*models.Order, error) {
			return nil, apperrors.NewNotFound("order", id)
		},
	}
	router := setupRouter(svc, "")

	w := perform(router, http.MethodGet, "/orders/42", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrderEndpointBadID(t *testing.T) {
	svc := &stubOrderService{}
	router := setupRouter(svc, "")

	w := perform(router, http.MethodGet, "/orders/nope", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	svc := &stubOrderService{
		updateFunc: func(id uint, status models.OrderStatus) (*models.Order, error) {
			return &models.Order{ID: id, Status: status}, nil
		},
	}
	router := setupRouter(svc, "")

	w := perform(router, http.MethodPatch, "/orders/5/status",
		map[string]string{"status": "Preparing"}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, models.StatusPreparing, order.Status)
}

func TestUpdateStatusEndpointMissingStatus(t *testing.T) {
	svc := &stubOrderService{}
	router := setupRouter(svc, "")

	w := perform(router, http.MethodPatch, "/orders/5/status", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatusEndpointConflict(t *testing.T) {
	svc := &stubOrderService{
		updateFunc: func(uint, models.OrderStatus) (*models.Order, error) {
			return nil, apperrors.NewConflict(apperrors.CodeInvalidTransition,
				"cannot change status from \"Delivered\" to \"Preparing\"")
		},
	}
	router := setupRouter(svc, "")

	w := perform(router, http.MethodPatch, "/orders/5/status",
		map[string]string{"status": "Preparing"}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.CodeInvalidTransition, resp["code"])
}

func TestCancelEndpointAlreadyCancelled(t *testing.T) {
	svc := &stubOrderService{
		cancelFunc: func(uint) (*models.Order, error) {
			return nil, apperrors.NewConflict(apperrors.CodeAlreadyCancelled, "order is already cancelled")
		},
	}
	router := setupRouter(svc, "")

	w := perform(router, http.MethodPut, "/orders/5/cancel", nil, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.CodeAlreadyCancelled, resp["code"])
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	svc := &stubOrderService{
		getFunc: func(uint) (*models.Order, error) {
			return nil, errors.New("pq: connection refused")
		},
	}
	router := setupRouter(svc, "")

	w := perform(router, http.MethodGet, "/orders/5", nil, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestStatsEndpoint(t *testing.T) {
	svc := &stubOrderService{
		statsFunc: func() (*services.OrderStats, error) {
			return &services.OrderStats{TotalOrders: 7, Revenue: 123.45}, nil
		},
	}
	router := setupRouter(svc, "")

	w := perform(router, http.MethodGet, "/orders/admin/stats", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var stats services.OrderStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(7), stats.TotalOrders)
}

func TestAdminAuthMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("opensesame"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := &stubOrderService{
		statsFunc: func() (*services.OrderStats, error) {
			return &services.OrderStats{}, nil
		},
	}
	router := setupRouter(svc, string(hash))

	w := perform(router, http.MethodGet, "/orders/admin/stats", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(router, http.MethodGet, "/orders/admin/stats", nil,
		map[string]string{"Authorization": "Bearer guess"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(router, http.MethodGet, "/orders/admin/stats", nil,
		map[string]string{"Authorization": "Bearer opensesame"})
	assert.Equal(t, http.StatusOK, w.Code)
}
