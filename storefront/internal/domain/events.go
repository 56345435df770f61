package domain

import "time"

const EventTypeOrderPlaced = "order.placed"

type OrderPlacedItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// OrderPlacedEvent is published by the orders service for every stored order.
type OrderPlacedEvent struct {
	OrderID   string            `json:"order_id"`
	UserID    string            `json:"user_id"`
	Items     []OrderPlacedItem `json:"items"`
	OrderDate time.Time         `json:"order_date"`
}
