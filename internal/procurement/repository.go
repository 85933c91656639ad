package procurement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/forgeline-erp/forgeline/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreateOrder(ctx context.Context, po PurchaseOrder) (int64, error)
	InsertLine(ctx context.Context, line POLine) error
	UpdateOrderStatus(ctx context.Context, id int64, status POStatus) error
	UpdateLineReceived(ctx context.Context, lineID int64, received int64) error
	GetLineForUpdate(ctx context.Context, lineID int64) (POLine, error)
	GetOrderLocked(ctx context.Context, poID int64) (PurchaseOrder, error)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const lineColumns = `l.id, l.po_id, l.offer_id, l.component_id, o.supplier_id, s.name, l.order_qty, l.received_qty, l.price::text`

const lineJoins = `FROM purchase_order_lines l
JOIN supplier_offers o ON o.id = l.offer_id
JOIN suppliers s ON s.id = o.supplier_id`

// GetOrder returns a purchase order with its lines.
func (r *Repository) GetOrder(ctx context.Context, id int64) (PurchaseOrder, error) {
	po, err := scanOrder(r.pool.QueryRow(ctx, `SELECT id, number, status, ordered_at, note FROM purchase_orders WHERE id=$1`, id))
	if err != nil {
		return PurchaseOrder{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+lineColumns+` `+lineJoins+` WHERE l.po_id=$1 ORDER BY l.id`, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	po.Lines, err = collectLines(rows)
	if err != nil {
		return PurchaseOrder{}, err
	}
	return po, nil
}

// ListOrders returns all purchase orders with their lines.
func (r *Repository) ListOrders(ctx context.Context) ([]PurchaseOrder, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, number, status, ordered_at, note FROM purchase_orders ORDER BY ordered_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []PurchaseOrder
	index := map[int64]int{}
	for rows.Next() {
		po, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		index[po.ID] = len(orders)
		orders = append(orders, po)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	lineRows, err := r.pool.Query(ctx, `SELECT `+lineColumns+` `+lineJoins+` ORDER BY l.id`)
	if err != nil {
		return nil, err
	}
	lines, err := collectLines(lineRows)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		if i, ok := index[line.POID]; ok {
			orders[i].Lines = append(orders[i].Lines, line)
		}
	}
	return orders, nil
}

// ListOpenLines returns lines of open orders for a component. Owing filtering
// happens in the service.
func (r *Repository) ListOpenLines(ctx context.Context, componentID int64) ([]POLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+lineColumns+` `+lineJoins+`
JOIN purchase_orders po ON po.id = l.po_id
WHERE l.component_id = $1 AND po.status IN ($2, $3)
ORDER BY l.id`, componentID, StatusApproved, StatusPartiallyReceived)
	if err != nil {
		return nil, err
	}
	return collectLines(rows)
}

func (t *txRepo) CreateOrder(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO purchase_orders (number, status, ordered_at, note) VALUES ($1, $2, $3, $4) RETURNING id`,
		po.Number, po.Status, po.OrderedAt, po.Note).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: order number %s already used", ErrValidation, po.Number)
		}
		return 0, err
	}
	return id, nil
}

// InsertLine snapshots the offer price onto the line at order time.
func (t *txRepo) InsertLine(ctx context.Context, line POLine) error {
	tag, err := t.tx.Exec(ctx, `INSERT INTO purchase_order_lines (po_id, offer_id, component_id, order_qty, received_qty, price)
SELECT $1, o.id, $3, $4, 0, o.price FROM supplier_offers o WHERE o.id = $2`,
		line.POID, line.OfferID, line.ComponentID, line.OrderQty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: unknown offer %d", ErrValidation, line.OfferID)
	}
	return nil
}

func (t *txRepo) UpdateOrderStatus(ctx context.Context, id int64, status POStatus) error {
	tag, err := t.tx.Exec(ctx, `UPDATE purchase_orders SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) UpdateLineReceived(ctx context.Context, lineID int64, received int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE purchase_order_lines SET received_qty=$2 WHERE id=$1`, lineID, received)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) GetLineForUpdate(ctx context.Context, lineID int64) (POLine, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+lineColumns+` `+lineJoins+` WHERE l.id=$1 FOR UPDATE OF l`, lineID)
	line, err := scanLine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return POLine{}, ErrNotFound
		}
		return POLine{}, err
	}
	return line, nil
}

func (t *txRepo) GetOrderLocked(ctx context.Context, poID int64) (PurchaseOrder, error) {
	po, err := scanOrder(t.tx.QueryRow(ctx, `SELECT id, number, status, ordered_at, note FROM purchase_orders WHERE id=$1 FOR UPDATE`, poID))
	if err != nil {
		return PurchaseOrder{}, err
	}
	rows, err := t.tx.Query(ctx, `SELECT `+lineColumns+` `+lineJoins+` WHERE l.po_id=$1 ORDER BY l.id`, poID)
	if err != nil {
		return PurchaseOrder{}, err
	}
	po.Lines, err = collectLines(rows)
	if err != nil {
		return PurchaseOrder{}, err
	}
	return po, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (PurchaseOrder, error) {
	var po PurchaseOrder
	var orderedAt time.Time
	err := row.Scan(&po.ID, &po.Number, &po.Status, &orderedAt, &po.Note)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, ErrNotFound
		}
		return PurchaseOrder{}, err
	}
	po.OrderedAt = orderedAt
	return po, nil
}

func scanLine(row rowScanner) (POLine, error) {
	var line POLine
	var price string
	if err := row.Scan(&line.ID, &line.POID, &line.OfferID, &line.ComponentID, &line.SupplierID, &line.SupplierName, &line.OrderQty, &line.ReceivedQty, &price); err != nil {
		return POLine{}, err
	}
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return POLine{}, fmt.Errorf("procurement: parse line price: %w", err)
	}
	line.Price = parsed
	return line, nil
}

func collectLines(rows pgx.Rows) ([]POLine, error) {
	defer rows.Close()
	var lines []POLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
