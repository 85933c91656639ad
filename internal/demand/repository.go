package demand

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads BOM and sales order rows from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListBOMEntries returns all BOM rows for the component.
func (r *Repository) ListBOMEntries(ctx context.Context, componentID int64) ([]BOMEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT component_id, product_id, qty_per_unit FROM bom_entries WHERE component_id=$1 ORDER BY product_id`, componentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []BOMEntry
	for rows.Next() {
		var entry BOMEntry
		if err := rows.Scan(&entry.ComponentID, &entry.ProductID, &entry.QtyPerUnit); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListOpenOrderLines returns order lines for the products whose parent order
// is not in a terminal status.
func (r *Repository) ListOpenOrderLines(ctx context.Context, productIDs []int64) ([]SalesOrderLine, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT l.order_id, l.product_id, l.qty, o.status
FROM sales_order_lines l
JOIN sales_orders o ON o.id = l.order_id
WHERE l.product_id = ANY($1) AND o.status NOT IN ($2, $3)
ORDER BY l.id`, productIDs, OrderStatusCompleted, OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []SalesOrderLine
	for rows.Next() {
		var line SalesOrderLine
		if err := rows.Scan(&line.OrderID, &line.ProductID, &line.Qty, &line.OrderStatus); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
