package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coalmart/storefront/internal/stock/domain"
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
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price_cents BIGINT NOT NULL,
		in_stock INT NOT NULL DEFAULT 0 CHECK (in_stock >= 0)
	)`)
	return err
}

func (r *Repository) TryReserve(ctx context.Context, productID int64, quantity int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := ReserveTx(ctx, tx, productID, quantity); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) Release(ctx context.Context, productID int64, quantity int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := ReleaseTx(ctx, tx, productID, quantity); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) PeekAvailable(ctx context.Context, productID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT in_stock FROM products WHERE id=$1`, productID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrProductNotFound
	}
	return n, err
}

func (r *Repository) GetProduct(ctx context.Context, productID int64) (domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, price_cents, in_stock FROM products WHERE id=$1`, productID).
		Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.InStock)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, err
}

func (r *Repository) ListAvailable(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, price_cents, in_stock FROM products WHERE in_stock > 0 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.InStock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) AddProduct(ctx context.Context, p domain.Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, description, price_cents, in_stock) VALUES ($1,$2,$3,$4) RETURNING id`,
		p.Name, p.Description, p.PriceCents, p.InStock).Scan(&id)
	return id, err
}

// ReserveTx performs the ledger's check-and-decrement inside the caller's
// transaction. The conditional UPDATE takes the product row lock, which is
// the serialization point for every mutation of in_stock; callers composing
// larger transactions must touch the product row before the reservation row
// to keep the lock order uniform.
func ReserveTx(ctx context.Context, tx pgx.Tx, productID int64, quantity int) error {
	ct, err := tx.Exec(ctx,
		`UPDATE products SET in_stock = in_stock - $2 WHERE id = $1 AND in_stock >= $2`,
		productID, quantity)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id=$1)`, productID).Scan(&exists); err != nil {
			return fmt.Errorf("reserve stock: %w", err)
		}
		if !exists {
			return domain.ErrProductNotFound
		}
		return domain.ErrInsufficientStock
	}
	return nil
}

// ReleaseTx returns quantity units to the product inside the caller's
// transaction.
func ReleaseTx(ctx context.Context, tx pgx.Tx, productID int64, quantity int) error {
	ct, err := tx.Exec(ctx,
		`UPDATE products SET in_stock = in_stock + $2 WHERE id = $1`,
		productID, quantity)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
