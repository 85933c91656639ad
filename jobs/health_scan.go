package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/forgeline-erp/forgeline/internal/inventory"
	jobmetrics "github.com/forgeline-erp/forgeline/internal/jobs"
)

// HealthScanJob recomputes every stock position, refreshes the dashboard
// cache and logs components that need ordering attention.
type HealthScanJob struct {
	Service *inventory.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewHealthScanJob initialises the stock health scan handler.
func NewHealthScanJob(service *inventory.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *HealthScanJob {
	return &HealthScanJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle executes one full dashboard rebuild.
func (j *HealthScanJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("health scan: handler not configured")
	}

	tracker := j.Metrics.Track(TaskHealthScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	dashboard, err := j.Service.RefreshDashboard(ctx)
	if err != nil {
		resultErr = err
		return err
	}

	urgent := 0
	for _, pos := range dashboard.Positions {
		switch pos.Health {
		case inventory.HealthCritical, inventory.HealthInsufficient:
			urgent++
			j.Logger.Warn("component needs ordering",
				slog.Int64("component_id", pos.ComponentID),
				slog.String("health", string(pos.Health)),
				slog.Int64("on_hand", pos.OnHand),
				slog.Int64("required", pos.Required),
				slog.Int64("on_order", pos.OnOrder),
			)
		}
	}
	if urgent > 0 {
		j.Metrics.AddAnomalies(TaskHealthScan, "needs_ordering", urgent)
	}
	j.Logger.Info("stock health scan finished",
		slog.Int("positions", len(dashboard.Positions)),
		slog.Int("urgent", urgent),
	)
	return nil
}
