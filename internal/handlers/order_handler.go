package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"food_order/internal/apperrors"
	"food_order/internal/models"
	"food_order/internal/repository"
	"food_order/internal/services"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService services.OrderService
}

func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

type createOrderRequest struct {
	Customer struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
	} `json:"customer"`
	Items []struct {
		MenuItemID uint `json:"menuItemId"`
		Quantity   int  `json:"quantity"`
	} `json:"items"`
	DeliveryInstructions string   `json:"deliveryInstructions"`
	PaymentMethod        string   `json:"paymentMethod"`
	DeliveryFee          *float64 `json:"deliveryFee"`
	TotalAmount          *float64 `json:"totalAmount"`
}

// CreateOrder handles POST /orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cmd := services.CreateOrderCommand{
		Customer: services.CustomerCommand{
			Name:    req.Customer.Name,
			Address: req.Customer.Address,
			Phone:   req.Customer.Phone,
			Email:   req.Customer.Email,
		},
		DeliveryInstructions: req.DeliveryInstructions,
		PaymentMethod:        req.PaymentMethod,
		DeliveryFee:          req.DeliveryFee,
		TotalAmount:          req.TotalAmount,
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, services.ItemCommand{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
		})
	}

	order, token, err := h.orderService.CreateOrder(cmd)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order":          order,
		"tracking_token": token,
	})
}

// ListOrders handles GET /orders with status/limit/page/sort/order params.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	filter := repository.ListFilter{
		Status: models.OrderStatus(c.Query("status")),
		Limit:  limit,
		Page:   page,
		SortBy: c.DefaultQuery("sort", "createdAt"),
		Order:  c.DefaultQuery("order", "desc"),
	}

	pageResult, err := h.orderService.ListOrders(filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageResult)
}

// GetOrder handles GET /orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateStatus handles PATCH /orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	order, err := h.orderService.UpdateStatus(id, models.OrderStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CancelOrder handles PUT /orders/:id/cancel.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	order, err := h.orderService.CancelOrder(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Stats handles GET /orders/admin/stats.
func (h *OrderHandler) Stats(c *gin.Context) {
	stats, err := h.orderService.Stats()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RecentOrders handles GET /orders/admin/recent.
func (h *OrderHandler) RecentOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	orders, err := h.orderService.RecentOrders(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return 0, false
	}
	return uint(id), true
}

// respondError maps the error taxonomy onto the HTTP codes the frontend
// expects: validation and conflicts are 400, unknown orders 404, everything
// else a generic 500 that never leaks internals.
func respondError(c *gin.Context, err error) {
	var validation *apperrors.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message, "code": validation.Code})
		return
	}

	var notFound *apperrors.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
		return
	}

	var conflict *apperrors.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusBadRequest, gin.H{"error": conflict.Message, "code": conflict.Code})
		return
	}

	log.Printf("internal error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
