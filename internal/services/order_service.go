package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strings"
	"time"

	"food_order/internal/apperrors"
	"food_order/internal/models"
	"food_order/internal/realtime"
	"food_order/internal/repository"

	"github.com/google/uuid"
)

// totalTolerance is the allowed absolute difference between a client-supplied
// total and the server-computed one.
const totalTolerance = 0.01

// CreateOrderCommand is a checkout request before validation and pricing.
// Item prices are never taken from the client; only catalog references and
// quantities are.
type CreateOrderCommand struct {
	Customer             CustomerCommand
	Items                []ItemCommand
	DeliveryInstructions string
	PaymentMethod        string
	DeliveryFee          *float64
	TotalAmount          *float64
}

type CustomerCommand struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

type ItemCommand struct {
	MenuItemID uint
	Quantity   int
}

// OrderPage is one page of a filtered listing plus per-status counts over
// the whole table (not just the returned page).
type OrderPage struct {
	Orders       []models.Order               `json:"orders"`
	Total        int64                        `json:"total"`
	Page         int                          `json:"page"`
	Limit        int                          `json:"limit"`
	StatusCounts map[models.OrderStatus]int64 `json:"status_counts"`
}

// OrderStats aggregates dashboard numbers. Revenue counts Delivered orders
// only.
type OrderStats struct {
	StatusCounts map[models.OrderStatus]int64 `json:"status_counts"`
	TotalOrders  int64                        `json:"total_orders"`
	Revenue      float64                      `json:"revenue"`
	TodayCount   int64                        `json:"today_count"`
	WeekCount    int64                        `json:"week_count"`
}

// TokenStore persists short-lived tracking tokens for the realtime layer.
type TokenStore interface {
	SetTrackingToken(orderID uint, token string, ttl time.Duration) error
}

// StatsCache is a short-TTL cache in front of the stats aggregation.
type StatsCache interface {
	GetCachedStats(dest interface{}) (bool, error)
	SetCachedStats(stats interface{}, ttl time.Duration) error
}

type OrderService interface {
	CreateOrder(cmd CreateOrderCommand) (*models.Order, string, error)
	GetOrder(id uint) (*models.Order, error)
	ListOrders(filter repository.ListFilter) (*OrderPage, error)
	RecentOrders(limit int) ([]models.Order, error)
	UpdateStatus(id uint, status models.OrderStatus) (*models.Order, error)
	CancelOrder(id uint) (*models.Order, error)
	Stats() (*OrderStats, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	menuRepo  repository.MenuItemRepository
	notifier  realtime.Notifier
	tokens    TokenStore
	cache     StatsCache
	tokenTTL  time.Duration
	cacheTTL  time.Duration
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	menuRepo repository.MenuItemRepository,
	notifier realtime.Notifier,
	tokens TokenStore,
	cache StatsCache,
	tokenTTL, cacheTTL time.Duration,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		menuRepo:  menuRepo,
		notifier:  notifier,
		tokens:    tokens,
		cache:     cache,
		tokenTTL:  tokenTTL,
		cacheTTL:  cacheTTL,
	}
}

func (s *orderService) CreateOrder(cmd CreateOrderCommand) (*models.Order, string, error) {
	customer, err := validateCustomer(cmd.Customer)
	if err != nil {
		return nil, "", err
	}

	if len(cmd.Items) == 0 {
		return nil, "", apperrors.NewValidation(apperrors.CodeMissingField, "order must contain at least one item")
	}

	// Resolve and price every line against the catalog. Any bad line aborts
	// the whole order; nothing partial is ever persisted.
	items := make([]models.OrderItem, 0, len(cmd.Items))
	subtotal := 0.0
	for _, line := range cmd.Items {
		if line.Quantity < 1 {
			return nil, "", apperrors.NewValidation(apperrors.CodeInvalidQuantity,
				"quantity must be at least 1 for menu item %d", line.MenuItemID)
		}

		menuItem, err := s.menuRepo.GetByID(line.MenuItemID)
		if err != nil {
			if errors.Is(err, repository.ErrMenuItemNotFound) {
				return nil, "", apperrors.NewValidation(apperrors.CodeItemNotFound,
					"menu item %d not found", line.MenuItemID)
			}
			return nil, "", fmt.Errorf("catalog lookup failed: %w", err)
		}
		if !menuItem.Available {
			return nil, "", apperrors.NewValidation(apperrors.CodeItemUnavailable,
				"menu item %q is currently unavailable", menuItem.Name)
		}

		lineTotal := round2(menuItem.Price * float64(line.Quantity))
		subtotal = round2(subtotal + lineTotal)
		items = append(items, models.OrderItem{
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			ImageURL:   menuItem.ImageURL,
			Quantity:   line.Quantity,
			UnitPrice:  menuItem.Price,
			LineTotal:  lineTotal,
		})
	}

	deliveryFee := 0.0
	if cmd.DeliveryFee != nil {
		if *cmd.DeliveryFee < 0 {
			return nil, "", apperrors.NewValidation(apperrors.CodeMissingField, "delivery fee cannot be negative")
		}
		deliveryFee = *cmd.DeliveryFee
	}

	totalAmount := round2(subtotal + deliveryFee)
	if cmd.TotalAmount != nil && math.Abs(*cmd.TotalAmount-totalAmount) > totalTolerance {
		return nil, "", apperrors.NewValidation(apperrors.CodeTotalMismatch,
			"total amount mismatch: provided %.2f, computed %.2f (subtotal %.2f + delivery fee %.2f)",
			*cmd.TotalAmount, totalAmount, subtotal, deliveryFee)
	}

	paymentMethod := models.PaymentCash
	if cmd.PaymentMethod != "" {
		paymentMethod = models.PaymentMethod(cmd.PaymentMethod)
		if !models.IsValidPaymentMethod(paymentMethod) {
			return nil, "", apperrors.NewValidation(apperrors.CodeInvalidPayment,
				"payment method must be one of cash, card, online")
		}
	}

	order := &models.Order{
		OrderNumber:          generateOrderNumber(),
		Customer:             customer,
		Items:                items,
		Subtotal:             subtotal,
		DeliveryFee:          deliveryFee,
		TotalAmount:          totalAmount,
		Status:               models.StatusReceived,
		PaymentMethod:        paymentMethod,
		PaymentStatus:        models.PaymentPending,
		DeliveryInstructions: strings.TrimSpace(cmd.DeliveryInstructions),
		OrderDate:            time.Now(),
	}

	if err := s.orderRepo.Create(order); err != nil {
		log.Printf("order create failed for %s: %v", order.OrderNumber, err)
		return nil, "", fmt.Errorf("failed to create order: %w", err)
	}

	// Tracking token lets the customer subscribe to this order's realtime
	// updates. Losing it only degrades tracking, never the order.
	token := uuid.NewString()
	if s.tokens != nil {
		if err := s.tokens.SetTrackingToken(order.ID, token, s.tokenTTL); err != nil {
			log.Printf("failed to store tracking token for order %d: %v", order.ID, err)
		}
	}

	s.notifier.Emit(realtime.AdminRoom, realtime.EventNewOrder, order)

	return order, token, nil
}

func validateCustomer(c CustomerCommand) (models.CustomerInfo, error) {
	name := strings.TrimSpace(c.Name)
	address := strings.TrimSpace(c.Address)
	phone := strings.TrimSpace(c.Phone)

	if name == "" {
		return models.CustomerInfo{}, apperrors.NewValidation(apperrors.CodeMissingField, "customer name is required")
	}
	if address == "" {
		return models.CustomerInfo{}, apperrors.NewValidation(apperrors.CodeMissingField, "customer address is required")
	}
	if phone == "" {
		return models.CustomerInfo{}, apperrors.NewValidation(apperrors.CodeMissingField, "customer phone is required")
	}

	return models.CustomerInfo{
		Name:    name,
		Address: address,
		Phone:   phone,
		Email:   strings.TrimSpace(c.Email),
	}, nil
}

func (s *orderService) GetOrder(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperrors.NewNotFound("order", id)
		}
		return nil, err
	}
	attachEstimate(order, time.Now())
	return order, nil
}

func (s *orderService) ListOrders(filter repository.ListFilter) (*OrderPage, error) {
	if filter.Status != "" && !models.IsValidStatus(filter.Status) {
		return nil, apperrors.NewValidation(apperrors.CodeInvalidStatus,
			"unknown status filter %q", filter.Status)
	}

	orders, total, err := s.orderRepo.List(filter)
	if err != nil {
		return nil, err
	}

	counts, err := s.orderRepo.CountByStatus()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range orders {
		attachEstimate(&orders[i], now)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	return &OrderPage{
		Orders:       orders,
		Total:        total,
		Page:         page,
		Limit:        limit,
		StatusCounts: counts,
	}, nil
}

func (s *orderService) RecentOrders(limit int) ([]models.Order, error) {
	orders, err := s.orderRepo.Recent(limit)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range orders {
		attachEstimate(&orders[i], now)
	}
	return orders, nil
}

// errSameStatus marks a same-state transition inside the store transaction
// so it can be treated as a no-op success instead of a write.
var errSameStatus = errors.New("status unchanged")

func (s *orderService) UpdateStatus(id uint, status models.OrderStatus) (*models.Order, error) {
	if !models.IsValidStatus(status) {
		return nil, apperrors.NewValidation(apperrors.CodeInvalidStatus,
			"invalid status %q, must be one of %v", status, models.AllStatuses)
	}

	order, err := s.orderRepo.Transition(id, func(o *models.Order) error {
		if o.Status == status {
			return errSameStatus
		}
		if !o.CanTransitionTo(status) {
			return apperrors.NewConflict(apperrors.CodeInvalidTransition,
				"cannot change status from %q to %q", o.Status, status)
		}
		applyTransition(o, status)
		return nil
	})
	if err != nil {
		if errors.Is(err, errSameStatus) {
			// Idempotent retry: succeed without touching the row or
			// notifying anyone.
			return s.GetOrder(id)
		}
		return nil, s.mapTransitionError(id, err)
	}

	s.broadcastStatusChange(order)
	return order, nil
}

func (s *orderService) CancelOrder(id uint) (*models.Order, error) {
	order, err := s.orderRepo.Transition(id, func(o *models.Order) error {
		if o.Status == models.StatusCancelled {
			return apperrors.NewConflict(apperrors.CodeAlreadyCancelled, "order is already cancelled")
		}
		if !o.CanTransitionTo(models.StatusCancelled) {
			return apperrors.NewConflict(apperrors.CodeInvalidTransition,
				"cannot cancel an order with status %q", o.Status)
		}
		applyTransition(o, models.StatusCancelled)
		return nil
	})
	if err != nil {
		return nil, s.mapTransitionError(id, err)
	}

	s.broadcastStatusChange(order)
	return order, nil
}

// applyTransition mutates the order for an already-validated status change
// and stamps the terminal side effects.
func applyTransition(o *models.Order, status models.OrderStatus) {
	o.Status = status
	switch status {
	case models.StatusDelivered:
		now := time.Now()
		o.DeliveredAt = &now
		o.PaymentStatus = models.PaymentPaid
	case models.StatusCancelled:
		now := time.Now()
		o.CancelledAt = &now
	}
}

func (s *orderService) mapTransitionError(id uint, err error) error {
	if errors.Is(err, repository.ErrOrderNotFound) {
		return apperrors.NewNotFound("order", id)
	}
	var conflict *apperrors.ConflictError
	if errors.As(err, &conflict) {
		return err
	}
	log.Printf("status update failed for order %d: %v", id, err)
	return fmt.Errorf("failed to update order %d: %w", id, err)
}

// broadcastStatusChange tells the customer tracking this order and every
// admin dashboard about a committed transition. Best-effort only.
func (s *orderService) broadcastStatusChange(order *models.Order) {
	s.notifier.Emit(realtime.OrderRoom(order.ID), realtime.EventOrderStatusUpdated, realtime.StatusUpdatePayload{
		OrderID:      order.ID,
		Status:       string(order.Status),
		UpdatedOrder: order,
	})
	s.notifier.Emit(realtime.AdminRoom, realtime.EventOrderUpdated, order)
}

func (s *orderService) Stats() (*OrderStats, error) {
	if s.cache != nil {
		var cached OrderStats
		if ok, err := s.cache.GetCachedStats(&cached); err == nil && ok {
			return &cached, nil
		}
	}

	counts, err := s.orderRepo.CountByStatus()
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	revenue, err := s.orderRepo.DeliveredRevenue()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayCount, err := s.orderRepo.CountCreatedSince(startOfDay)
	if err != nil {
		return nil, err
	}
	weekCount, err := s.orderRepo.CountCreatedSince(now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	stats := &OrderStats{
		StatusCounts: counts,
		TotalOrders:  total,
		Revenue:      revenue,
		TodayCount:   todayCount,
		WeekCount:    weekCount,
	}

	if s.cache != nil {
		if err := s.cache.SetCachedStats(stats, s.cacheTTL); err != nil {
			log.Printf("failed to cache stats: %v", err)
		}
	}
	return stats, nil
}

// attachEstimate adds a derived delivery window to in-flight orders. The
// window shrinks as the order ages and is floored at 5-15 minutes.
func attachEstimate(o *models.Order, now time.Time) {
	if o.IsTerminal() {
		return
	}
	elapsed := now.Sub(o.CreatedAt).Minutes()
	remaining := 45 - elapsed
	if remaining < 5 {
		remaining = 5
	}
	if remaining > 60 {
		remaining = 60
	}
	o.EstimatedDelivery = &models.TimeEstimate{
		Min: int(math.Floor(remaining)),
		Max: int(math.Floor(remaining + 10)),
	}
}

func generateOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%d", time.Now().UnixMilli(), rand.Intn(1000))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
