package models

import (
	"time"

	"gorm.io/gorm"
)

// CustomerInfo is a snapshot of the customer's delivery details taken at
// order time. It is embedded on purpose, not a foreign key: editing a user
// profile later must not change where a historical order was delivered.
type CustomerInfo struct {
	Name    string `json:"name" gorm:"not null"`
	Address string `json:"address" gorm:"not null"`
	Phone   string `json:"phone" gorm:"not null"`
	Email   string `json:"email"`
}

type Order struct {
	ID                   uint           `json:"id" gorm:"primaryKey"`
	OrderNumber          string         `json:"order_number" gorm:"unique;not null"`
	Customer             CustomerInfo   `json:"customer" gorm:"embedded;embeddedPrefix:customer_"`
	Items                []OrderItem    `json:"items" gorm:"foreignKey:OrderID"`
	Subtotal             float64        `json:"subtotal" gorm:"not null"`
	DeliveryFee          float64        `json:"delivery_fee" gorm:"default:0"`
	TotalAmount          float64        `json:"total_amount" gorm:"not null"`
	Status               OrderStatus    `json:"status" gorm:"type:varchar(20);default:'Order Received'"`
	PaymentMethod        PaymentMethod  `json:"payment_method" gorm:"type:varchar(10);default:'cash'"`
	PaymentStatus        PaymentStatus  `json:"payment_status" gorm:"type:varchar(10);default:'Pending'"`
	DeliveryInstructions string         `json:"delivery_instructions"`
	OrderDate            time.Time      `json:"order_date" gorm:"not null"`
	DeliveredAt          *time.Time     `json:"delivered_at,omitempty"`
	CancelledAt          *time.Time     `json:"cancelled_at,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `json:"-" gorm:"index"`

	// EstimatedDelivery is recomputed on every read and never stored.
	EstimatedDelivery *TimeEstimate `json:"estimated_delivery,omitempty" gorm:"-"`
}

// OrderItem is one line of an order. Name and UnitPrice are snapshots of the
// menu item at order time; later catalog edits leave historical orders intact.
type OrderItem struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	OrderID    uint      `json:"order_id" gorm:"not null;index"`
	MenuItemID uint      `json:"menu_item_id" gorm:"not null"`
	Name       string    `json:"name" gorm:"not null"`
	ImageURL   string    `json:"image_url"`
	Quantity   int       `json:"quantity" gorm:"not null"`
	UnitPrice  float64   `json:"unit_price" gorm:"not null"`
	LineTotal  float64   `json:"line_total" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TimeEstimate is a presentation aid for orders still in flight. It is
// derived from the order's age on every read and is not authoritative.
type TimeEstimate struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// CanTransitionTo reports whether the order may move to next from its
// current status.
func (o *Order) CanTransitionTo(next OrderStatus) bool {
	return o.Status.CanTransitionTo(next)
}

// IsTerminal reports whether the order has reached a final status.
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}
