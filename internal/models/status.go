package models

// OrderStatus is the delivery-pipeline state of an order.
type OrderStatus string

const (
	StatusReceived       OrderStatus = "Order Received"
	StatusPreparing      OrderStatus = "Preparing"
	StatusOutForDelivery OrderStatus = "Out for Delivery"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
)

// AllStatuses lists every valid order status, in pipeline order.
var AllStatuses = []OrderStatus{
	StatusReceived,
	StatusPreparing,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

// statusRank orders the pipeline states. Status only ever moves to a higher
// rank; skipping ahead (e.g. Preparing straight to Delivered) is allowed,
// moving backward is not.
var statusRank = map[OrderStatus]int{
	StatusReceived:       0,
	StatusPreparing:      1,
	StatusOutForDelivery: 2,
	StatusDelivered:      3,
}

// IsValidStatus reports whether s is one of the fixed status values.
func IsValidStatus(s OrderStatus) bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed out of s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether the pipeline permits moving from s to next.
// Cancellation is reachable from every non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	nextRank, ok := statusRank[next]
	if !ok {
		return false
	}
	return nextRank > statusRank[s]
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentOnline PaymentMethod = "online"
)

// IsValidPaymentMethod reports whether m is a supported payment method.
func IsValidPaymentMethod(m PaymentMethod) bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentOnline
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"
)
