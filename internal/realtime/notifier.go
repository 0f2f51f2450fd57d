package realtime

import "fmt"

// Server-to-client event names.
const (
	EventNewOrder           = "newOrder"
	EventOrderUpdated       = "orderUpdated"
	EventOrderStatusUpdated = "orderStatusUpdated"
	EventError              = "error"
)

// AdminRoom receives every order creation and status change.
const AdminRoom = "admin"

// OrderRoom names the room a customer joins to track one order.
func OrderRoom(orderID uint) string {
	return fmt.Sprintf("order-%d", orderID)
}

// Notifier fans an event out to every live subscriber of a room. Delivery is
// best-effort: implementations never block the caller and never report
// failure, since the order mutation that triggered the event is already
// committed.
type Notifier interface {
	Emit(room, event string, payload interface{})
}

// Event is the wire envelope pushed to subscribers.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// StatusUpdatePayload is the body of an orderStatusUpdated event.
type StatusUpdatePayload struct {
	OrderID      uint        `json:"orderId"`
	Status       string      `json:"status"`
	UpdatedOrder interface{} `json:"updatedOrder"`
}
