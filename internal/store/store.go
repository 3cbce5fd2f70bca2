package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"returns-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetOrder retrieves an order and its product lines. Returns
// models.ErrOrderNotFound when the id does not exist.
func (s *Store) GetOrder(ctx context.Context, orderID string) (*models.Order, []models.OrderProduct, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("order %s: %w", orderID, models.ErrOrderNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	var products []models.OrderProduct
	err = s.db.SelectContext(ctx, &products,
		"SELECT * FROM order_products WHERE order_id = $1 ORDER BY id", orderID)
	if err != nil {
		return nil, nil, err
	}

	return &order, products, nil
}

// MarkReturnInProgress flips the return flag for an order/product pair. The
// guarded UPDATE is the serialization point: exactly one concurrent caller
// wins, the rest get models.ErrReturnInProgress.
func (s *Store) MarkReturnInProgress(ctx context.Context, orderID, productID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE order_products
		SET return_status = $1, updated_at = NOW()
		WHERE order_id = $2 AND product_id = $3 AND return_status = $4`,
		models.ReturnStatusInProgress, orderID, productID, models.ReturnStatusNone)
	if err != nil {
		return fmt.Errorf("failed to mark return in progress: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var existing string
		err := s.db.GetContext(ctx, &existing,
			"SELECT return_status FROM order_products WHERE order_id = $1 AND product_id = $2",
			orderID, productID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("order %s product %s: %w", orderID, productID, models.ErrOrderNotFound)
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("status %s: %w", existing, models.ErrReturnInProgress)
	}

	return nil
}

// ClearReturnInProgress rolls the flag back (compensation after a failed
// label issuance)
func (s *Store) ClearReturnInProgress(ctx context.Context, orderID, productID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE order_products
		SET return_status = $1, updated_at = NOW()
		WHERE order_id = $2 AND product_id = $3 AND return_status = $4`,
		models.ReturnStatusNone, orderID, productID, models.ReturnStatusInProgress)
	return err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
