package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forgeline-erp/forgeline/internal/platform/db"
)

// Repository persists inventory records in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	GetRecordForUpdate(ctx context.Context, componentID int64) (InventoryRecord, error)
	UpdateOnHand(ctx context.Context, componentID, onHand int64) error
	UpdateReorderLevel(ctx context.Context, componentID, level int64) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const recordColumns = `component_id, on_hand, COALESCE(reorder_level, 0), COALESCE(location, '')`

// GetRecord returns the inventory record for a component.
func (r *Repository) GetRecord(ctx context.Context, componentID int64) (InventoryRecord, error) {
	var rec InventoryRecord
	err := r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM inventory_records WHERE component_id=$1`, componentID).
		Scan(&rec.ComponentID, &rec.OnHand, &rec.ReorderLevel, &rec.Location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return InventoryRecord{}, ErrNotFound
		}
		return InventoryRecord{}, err
	}
	return rec, nil
}

// ListRecords returns all inventory records.
func (r *Repository) ListRecords(ctx context.Context) ([]InventoryRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+recordColumns+` FROM inventory_records ORDER BY component_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []InventoryRecord
	for rows.Next() {
		var rec InventoryRecord
		if err := rows.Scan(&rec.ComponentID, &rec.OnHand, &rec.ReorderLevel, &rec.Location); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (t *txRepository) GetRecordForUpdate(ctx context.Context, componentID int64) (InventoryRecord, error) {
	var rec InventoryRecord
	err := t.tx.QueryRow(ctx, `SELECT `+recordColumns+` FROM inventory_records WHERE component_id=$1 FOR UPDATE`, componentID).
		Scan(&rec.ComponentID, &rec.OnHand, &rec.ReorderLevel, &rec.Location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return InventoryRecord{}, ErrNotFound
		}
		return InventoryRecord{}, err
	}
	return rec, nil
}

func (t *txRepository) UpdateOnHand(ctx context.Context, componentID, onHand int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE inventory_records SET on_hand=$2 WHERE component_id=$1`, componentID, onHand)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) UpdateReorderLevel(ctx context.Context, componentID, level int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE inventory_records SET reorder_level=$2 WHERE component_id=$1`, componentID, level)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
