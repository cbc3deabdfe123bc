package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/coalmart/storefront/internal/reservation/domain"
	stockpg "github.com/coalmart/storefront/internal/stock/infrastructure/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewStore(log *slog.Logger, pool *pgxpool.Pool) *Store {
	return &Store{log: log, pool: pool}
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS reservations (
		user_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, product_id)
	)`)
	return err
}

// AddToCart decrements stock and merges the hold in one transaction. The
// conditional stock UPDATE locks the product row first; the reservation row
// lock follows, the same order RemoveFromCart uses.
func (s *Store) AddToCart(ctx context.Context, userID, productID int64, quantity int) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := stockpg.ReserveTx(ctx, tx, productID, quantity); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `INSERT INTO reservations (user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$4)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = reservations.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`,
		userID, productID, quantity, now)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RemoveFromCart releases the full reserved quantity and deletes the hold.
func (s *Store) RemoveFromCart(ctx context.Context, userID, productID int64) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Product row lock first, matching AddToCart's lock order.
	var inStock int
	err = tx.QueryRow(ctx, `SELECT in_stock FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&inStock)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	var quantity int
	err = tx.QueryRow(ctx,
		`SELECT quantity FROM reservations WHERE user_id=$1 AND product_id=$2`,
		userID, productID).Scan(&quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	if err := stockpg.ReleaseTx(ctx, tx, productID, quantity); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM reservations WHERE user_id=$1 AND product_id=$2`, userID, productID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) ListReservations(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, product_id, quantity, created_at, updated_at
		 FROM reservations WHERE user_id=$1 ORDER BY product_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.UserID, &res.ProductID, &res.Quantity, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}
