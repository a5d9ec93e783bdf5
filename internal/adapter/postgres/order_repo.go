package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"florist/internal/domain"

	"github.com/lib/pq"
)

var _ domain.OrderRepository = (*DB)(nil)

// CreateOrder stores a confirmed order and its lines in one transaction.
func (d *DB) CreateOrder(ctx context.Context, o *domain.Order) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO orders (number, user_id, email, subtotal, tax, shipping, total,
				full_name, address, city, zip_code, card_last4, confirmed_at, estimated_delivery)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			o.Number, o.UserID, o.Email,
			o.Totals.Subtotal, o.Totals.Tax, o.Totals.Shipping, o.Totals.Total,
			o.ShipTo.FullName, o.ShipTo.Address, o.ShipTo.City, o.ShipTo.ZipCode,
			o.CardLast4, o.ConfirmedAt, o.EstimatedDelivery,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for i, l := range o.Lines {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO order_lines (order_number, position, product_id, name, price, image_ref, quantity) VALUES ($1, $2, $3, $4, $5, $6, $7)",
				o.Number, i, l.ProductID, l.Name, l.Price, l.ImageRef, l.Quantity,
			)
			if err != nil {
				return fmt.Errorf("insert order line %s: %w", l.ProductID, err)
			}
		}
		return nil
	})
}

// ListOrdersByUser returns a customer's orders, newest first.
func (d *DB) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT number, user_id, email, subtotal, tax, shipping, total,
			full_name, address, city, zip_code, card_last4, confirmed_at, estimated_delivery
		FROM orders WHERE user_id = $1 ORDER BY confirmed_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var (
		orders  []domain.Order
		numbers []string
	)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.Number, &o.UserID, &o.Email,
			&o.Totals.Subtotal, &o.Totals.Tax, &o.Totals.Shipping, &o.Totals.Total,
			&o.ShipTo.FullName, &o.ShipTo.Address, &o.ShipTo.City, &o.ShipTo.ZipCode,
			&o.CardLast4, &o.ConfirmedAt, &o.EstimatedDelivery,
		); err != nil {
			return nil, err
		}
		orders = append(orders, o)
		numbers = append(numbers, o.Number)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	lines, err := d.orderLines(ctx, numbers)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].Number]
	}
	return orders, nil
}

func (d *DB) orderLines(ctx context.Context, numbers []string) (map[string][]domain.CartLine, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT order_number, product_id, name, price, image_ref, quantity
		FROM order_lines WHERE order_number = ANY($1) ORDER BY order_number, position`,
		pq.Array(numbers),
	)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]domain.CartLine, len(numbers))
	for rows.Next() {
		var (
			number string
			l      domain.CartLine
		)
		if err := rows.Scan(&number, &l.ProductID, &l.Name, &l.Price, &l.ImageRef, &l.Quantity); err != nil {
			return nil, err
		}
		out[number] = append(out[number], l)
	}
	return out, rows.Err()
}
