package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coalmart/storefront/internal/fulfillment/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			outstanding BOOLEAN NOT NULL DEFAULT TRUE,
			paid BOOLEAN NOT NULL DEFAULT FALSE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL,
			country TEXT NOT NULL,
			postal_code TEXT NOT NULL,
			city TEXT NOT NULL,
			address_line_1 TEXT NOT NULL,
			address_line_2 TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ordered_items (
			order_id TEXT NOT NULL REFERENCES orders(id),
			product_id BIGINT NOT NULL,
			quantity INT NOT NULL CHECK (quantity > 0),
			price_cents BIGINT NOT NULL,
			PRIMARY KEY (order_id, product_id)
		)`,
		`CREATE TABLE IF NOT EXISTS outbox (
			id BIGSERIAL PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			type TEXT NOT NULL,
			payload BYTEA NOT NULL,
			headers JSONB,
			traceparent TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			relay_id TEXT,
			lease_until TIMESTAMPTZ,
			retry_count INT NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveWithOutbox commits the whole checkout in one transaction: consume the
// user's reservations, write the order and its item snapshots, queue the
// event. The reservations deleted inside the transaction must match the
// quantities the engine enumerated; any drift aborts the commit so the holds
// stay intact for a retry. Stock is not touched here.
func (r *Repository) SaveWithOutbox(ctx context.Context, o domain.Order, items []domain.OrderedItem, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx,
		`DELETE FROM reservations WHERE user_id=$1 RETURNING product_id, quantity`, o.UserID)
	if err != nil {
		return err
	}
	consumed := make(map[int64]int)
	for rows.Next() {
		var productID int64
		var quantity int
		if err := rows.Scan(&productID, &quantity); err != nil {
			rows.Close()
			return err
		}
		consumed[productID] = quantity
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if len(consumed) == 0 {
		return domain.ErrEmptyCart
	}
	if len(consumed) != len(items) {
		return fmt.Errorf("cart changed during checkout")
	}
	for _, item := range items {
		if consumed[item.ProductID] != item.Quantity {
			return fmt.Errorf("cart changed during checkout")
		}
	}

	_, err = tx.Exec(ctx, `INSERT INTO orders
		(id, user_id, outstanding, paid, first_name, last_name, email, phone, country, postal_code, city, address_line_1, address_line_2, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		o.ID, o.UserID, o.Outstanding, o.Paid,
		o.Contact.FirstName, o.Contact.LastName, o.Contact.Email, o.Contact.Phone,
		o.Contact.Country, o.Contact.PostalCode, o.Contact.City,
		o.Contact.AddressLine1, o.Contact.AddressLine2, o.CreatedAt)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`INSERT INTO ordered_items (order_id, product_id, quantity, price_cents)
			VALUES ($1,$2,$3,$4)`,
			item.OrderID, item.ProductID, item.Quantity, item.PriceCents)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		"order", o.ID, eventType, payload, map[string]string{}, traceparent)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) GetOrder(ctx context.Context, orderID string) (domain.OrderWithItems, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, outstanding, paid, first_name, last_name, email, phone, country, postal_code, city, address_line_1, address_line_2, created_at
		FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.UserID, &o.Outstanding, &o.Paid,
			&o.Contact.FirstName, &o.Contact.LastName, &o.Contact.Email, &o.Contact.Phone,
			&o.Contact.Country, &o.Contact.PostalCode, &o.Contact.City,
			&o.Contact.AddressLine1, &o.Contact.AddressLine2, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.OrderWithItems{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.OrderWithItems{}, err
	}

	items, err := r.itemsFor(ctx, orderID)
	if err != nil {
		return domain.OrderWithItems{}, err
	}
	return domain.OrderWithItems{Order: o, Items: items}, nil
}

// ListOutstanding returns orders awaiting fulfillment, oldest first.
func (r *Repository) ListOutstanding(ctx context.Context) ([]domain.OrderWithItems, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, outstanding, paid, first_name, last_name, email, phone, country, postal_code, city, address_line_1, address_line_2, created_at
		FROM orders WHERE outstanding ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.OrderWithItems
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Outstanding, &o.Paid,
			&o.Contact.FirstName, &o.Contact.LastName, &o.Contact.Email, &o.Contact.Phone,
			&o.Contact.Country, &o.Contact.PostalCode, &o.Contact.City,
			&o.Contact.AddressLine1, &o.Contact.AddressLine2, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, domain.OrderWithItems{Order: o})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.itemsFor(ctx, orders[i].Order.ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *Repository) MarkFulfilled(ctx context.Context, orderID string) error {
	return r.setFlag(ctx, orderID, `UPDATE orders SET outstanding=FALSE WHERE id=$1`)
}

func (r *Repository) MarkPaid(ctx context.Context, orderID string) error {
	return r.setFlag(ctx, orderID, `UPDATE orders SET paid=TRUE WHERE id=$1`)
}

func (r *Repository) setFlag(ctx context.Context, orderID, stmt string) error {
	ct, err := r.pool.Exec(ctx, stmt, orderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *Repository) itemsFor(ctx context.Context, orderID string) ([]domain.OrderedItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, product_id, quantity, price_cents FROM ordered_items WHERE order_id=$1 ORDER BY product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderedItem
	for rows.Next() {
		var item domain.OrderedItem
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.Quantity, &item.PriceCents); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
