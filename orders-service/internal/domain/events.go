package domain

import "time"

const EventTypeOrderPlaced = "order.placed"

type OrderPlacedItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// OrderPlacedEvent is written to the outbox with every stored order.
type OrderPlacedEvent struct {
	OrderID   string            `json:"order_id"`
	UserID    string            `json:"user_id"`
	Items     []OrderPlacedItem `json:"items"`
	OrderDate time.Time         `json:"order_date"`
}

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	items := make([]OrderPlacedItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderPlacedItem{ID: it.ID, Quantity: it.Quantity})
	}
	return OrderPlacedEvent{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Items:     items,
		OrderDate: o.OrderDate,
	}
}
