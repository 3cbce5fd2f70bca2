package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"returns-service/internal/models"
)

// CreateLabel persists an issued return label. The rma_id column carries a
// unique constraint; a collision surfaces as an error instead of a silent
// overwrite.
func (s *Store) CreateLabel(ctx context.Context, label *models.ReturnLabel) error {
	query := `
		INSERT INTO return_labels
			(rma_id, order_id, product_id, carrier, shipment_type, instructions,
			 label_url, pickup_window, reason, customer_name, pickup_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	return s.db.GetContext(ctx, &label.CreatedAt, query,
		label.RMAID, label.OrderID, label.ProductID, label.Carrier,
		label.ShipmentType, label.Instructions, label.LabelURL,
		label.PickupWindow, label.Reason, label.CustomerName, label.PickupAddress)
}

// GetLabelByRMA retrieves a previously issued label
func (s *Store) GetLabelByRMA(ctx context.Context, rmaID string) (*models.ReturnLabel, error) {
	var label models.ReturnLabel
	err := s.db.GetContext(ctx, &label,
		"SELECT * FROM return_labels WHERE rma_id = $1", rmaID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("label %s: %w", rmaID, models.ErrLabelNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &label, nil
}

// GetLabelsByOrderID retrieves all labels issued for an order
func (s *Store) GetLabelsByOrderID(ctx context.Context, orderID string) ([]models.ReturnLabel, error) {
	var labels []models.ReturnLabel
	err := s.db.SelectContext(ctx, &labels,
		"SELECT * FROM return_labels WHERE order_id = $1 ORDER BY created_at DESC", orderID)
	return labels, err
}

// AppendAuditEntry persists one audit entry. Entries are never updated or
// deleted after this insert.
func (s *Store) AppendAuditEntry(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (request_id, seq, subject, stage, outcome, detail, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	row := s.db.QueryRowxContext(ctx, query,
		entry.RequestID, entry.Seq, entry.Subject, entry.Stage,
		entry.Outcome, entry.Detail, entry.Payload)
	return row.Scan(&entry.ID, &entry.CreatedAt)
}

// GetAuditEntriesByRequestID retrieves the trail for one request, in stage
// execution order
func (s *Store) GetAuditEntriesByRequestID(ctx context.Context, requestID string) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM audit_entries WHERE request_id = $1 ORDER BY seq", requestID)
	return entries, err
}
