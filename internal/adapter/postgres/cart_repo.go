package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"florist/internal/domain"
)

var _ domain.CartRepository = (*DB)(nil)

// LoadCart returns the saved lines of a browsing session in insertion order.
func (d *DB) LoadCart(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT product_id, name, price, image_ref, quantity FROM cart_lines WHERE session_id = $1 ORDER BY position",
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var lines []domain.CartLine
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Price, &l.ImageRef, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// SaveCart replaces the saved lines of a browsing session.
func (d *DB) SaveCart(ctx context.Context, sessionID string, lines []domain.CartLine) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM cart_lines WHERE session_id = $1", sessionID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		now := time.Now()
		for i, l := range lines {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO cart_lines (session_id, position, product_id, name, price, image_ref, quantity, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
				sessionID, i, l.ProductID, l.Name, l.Price, l.ImageRef, l.Quantity, now,
			)
			if err != nil {
				return fmt.Errorf("insert cart line %s: %w", l.ProductID, err)
			}
		}
		return nil
	})
}

// DeleteCart removes the saved lines of a browsing session.
func (d *DB) DeleteCart(ctx context.Context, sessionID string) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM cart_lines WHERE session_id = $1", sessionID)
	return err
}

func (d *DB) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
