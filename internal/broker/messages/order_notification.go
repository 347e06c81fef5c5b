package messages

import "time"

// Виды событий, по которым бот шлёт уведомления.
const (
	NotificationOrderCreated  = "order_created"
	NotificationStatusChanged = "status_changed"
)

// OrderNotification — событие в топике order.notifications.
// Ключ сообщения — OrderNumber, чтобы события одного заказа шли по порядку.
type OrderNotification struct {
	Kind           string    `json:"kind"`
	OrderNumber    string    `json:"order_number"`
	ClientName     string    `json:"client_name"`
	ContainerCount int       `json:"container_count"`
	GoodsType      string    `json:"goods_type,omitempty"`
	Route          string    `json:"route,omitempty"`
	OldStatus      string    `json:"old_status,omitempty"`
	NewStatus      string    `json:"new_status,omitempty"`
	DeviceID       string    `json:"device_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
