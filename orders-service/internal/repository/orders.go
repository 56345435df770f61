package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fjod/go_bookstore/orders-service/internal/domain"
)

const orderColumns = `id, user_id, shipping_info, payment_method, items, total_amount, order_date, created_at`

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = r.now()
	}
	order.CreatedAt = timestamp(order.CreatedAt)
	order.OrderDate = timestamp(order.OrderDate)

	shippingJSON, err := json.Marshal(order.ShippingInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping info: %w", err)
	}
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	payload, err := json.Marshal(domain.NewOrderPlacedEvent(order))
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO orders (` + orderColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	// JSON columns go in as strings; lib/pq would send []byte as bytea.
	_, err = tx.ExecContext(ctx, r.rebind(query),
		order.ID,
		order.UserID,
		string(shippingJSON),
		string(order.PaymentMethod),
		string(itemsJSON),
		order.TotalAmount.StringFixed(2),
		order.OrderDate,
		order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	outboxQuery := `INSERT INTO outbox (aggregate_id, event_type, payload, created_at)
	                VALUES ($1, $2, $3, $4)`
	_, err = tx.ExecContext(ctx, r.rebind(outboxQuery),
		order.UserID,
		domain.EventTypeOrderPlaced,
		string(payload),
		order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

// ListOrdersByUserID returns the user's orders, newest order date first.
func (r *Repository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY order_date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order        domain.Order
		shippingJSON []byte
		itemsJSON    []byte
		method       string
	)
	if err := row.Scan(
		&order.ID,
		&order.UserID,
		&shippingJSON,
		&method,
		&itemsJSON,
		&order.TotalAmount,
		&order.OrderDate,
		&order.CreatedAt,
	); err != nil {
		return nil, err
	}
	order.PaymentMethod = domain.PaymentMethod(method)

	if err := json.Unmarshal(shippingJSON, &order.ShippingInfo); err != nil {
		return nil, fmt.Errorf("unmarshal shipping info: %w", err)
	}
	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return &order, nil
}
