package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/forgeline-erp/forgeline/internal/jobs"
)

// OverreceiptScanJob sweeps purchase order lines where the received quantity
// exceeds the ordered quantity. The receive path clamps such lines to zero
// owing, so the scan exists to surface data that needs manual correction.
type OverreceiptScanJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewOverreceiptScanJob initialises the over-receipt scan handler.
func NewOverreceiptScanJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverreceiptScanJob {
	return &OverreceiptScanJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle executes one scan over all purchase order lines.
func (j *OverreceiptScanJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("overreceipt scan: handler not configured")
	}

	tracker := j.Metrics.Track(TaskOverreceiptScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	rows, err := j.Pool.Query(ctx, `SELECT l.id, l.po_id, po.number, l.order_qty, l.received_qty
FROM purchase_order_lines l
JOIN purchase_orders po ON po.id = l.po_id
WHERE l.received_qty > l.order_qty
ORDER BY l.id`)
	if err != nil {
		resultErr = err
		return err
	}
	defer rows.Close()

	flagged := 0
	for rows.Next() {
		var (
			lineID, poID          int64
			number                string
			orderQty, receivedQty int64
		)
		if err := rows.Scan(&lineID, &poID, &number, &orderQty, &receivedQty); err != nil {
			resultErr = err
			return err
		}
		flagged++
		j.Logger.Warn("over-received purchase order line",
			slog.Int64("line_id", lineID),
			slog.Int64("po_id", poID),
			slog.String("po_number", number),
			slog.Int64("ordered", orderQty),
			slog.Int64("received", receivedQty),
		)
	}
	if err := rows.Err(); err != nil {
		resultErr = err
		return err
	}

	if flagged > 0 {
		j.Metrics.AddAnomalies(TaskOverreceiptScan, "over_receipt", flagged)
	}
	j.Logger.Info("over-receipt scan finished", slog.Int("flagged", flagged))
	return nil
}
