package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/forgeline-erp/forgeline/internal/attendance"
	jobmetrics "github.com/forgeline-erp/forgeline/internal/jobs"
)

// SummaryRecomputeJob rebuilds a staff member's daily attendance summary.
type SummaryRecomputeJob struct {
	Service *attendance.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSummaryRecomputeJob initialises the recompute handler.
func NewSummaryRecomputeJob(service *attendance.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *SummaryRecomputeJob {
	return &SummaryRecomputeJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle executes the recompute for one staff/day.
func (j *SummaryRecomputeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("summary recompute: handler not configured")
	}
	var payload AttendanceRecomputePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskAttendanceRecompute)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	summary, err := j.Service.RecomputeSummary(ctx, payload.StaffID, date)
	if err != nil {
		resultErr = err
		return err
	}
	j.Logger.Info("attendance summary recomputed",
		slog.Int64("staff_id", payload.StaffID),
		slog.String("date", payload.Date),
		slog.Int64("work_minutes", summary.TotalWorkMinutes),
		slog.Int64("overtime_minutes", summary.OvertimeMinutes),
	)
	return nil
}
