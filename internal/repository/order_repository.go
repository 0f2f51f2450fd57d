package repository

import (
	"errors"
	"time"

	"food_order/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter narrows and pages a listing of orders.
type ListFilter struct {
	Status models.OrderStatus
	Limit  int
	Page   int
	SortBy string
	Order  string
}

var ErrOrderNotFound = errors.New("order not found")

type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	List(filter ListFilter) ([]models.Order, int64, error)
	Recent(limit int) ([]models.Order, error)
	CountByStatus() (map[models.OrderStatus]int64, error)
	DeliveredRevenue() (float64, error)
	CountCreatedSince(since time.Time) (int64, error)
	Transition(id uint, apply func(order *models.Order) error) (*models.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"created_at":  "created_at",
	"orderDate":   "order_date",
	"order_date":  "order_date",
	"totalAmount": "total_amount",
	"status":      "status",
}

func (r *orderRepository) List(filter ListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if filter.Order == "asc" {
		direction = "ASC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	var orders []models.Order
	err := query.
		Preload("Items").
		Order(column + " " + direction).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepository) Recent(limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	var orders []models.Order
	err := r.db.Preload("Items").Order("created_at DESC").Limit(limit).Find(&orders).Error
	return orders, err
}

func (r *orderRepository) CountByStatus() (map[models.OrderStatus]int64, error) {
	type row struct {
		Status models.OrderStatus
		Count  int64
	}
	var rows []row
	err := r.db.Model(&models.Order{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.OrderStatus]int64, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		counts[s] = 0
	}
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

func (r *orderRepository) DeliveredRevenue() (float64, error) {
	var revenue float64
	err := r.db.Model(&models.Order{}).
		Where("status = ?", models.StatusDelivered).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&revenue).Error
	return revenue, err
}

func (r *orderRepository) CountCreatedSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

// Transition loads the order under a row lock, lets apply mutate it, and
// persists the changed fields in the same transaction. Concurrent updates to
// the same order serialize on the lock, so status events commit in order.
func (r *orderRepository) Transition(id uint, apply func(order *models.Order) error) (*models.Order, error) {
	var order models.Order
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if err := apply(&order); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":         order.Status,
			"payment_status": order.PaymentStatus,
			"delivered_at":   order.DeliveredAt,
			"cancelled_at":   order.CancelledAt,
		}
		return tx.Model(&order).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}
