package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAttendanceRecompute rebuilds one staff member's daily summary.
	TaskAttendanceRecompute = "attendance:recompute"
	// TaskOverreceiptScan flags purchase order lines received beyond the
	// ordered quantity.
	TaskOverreceiptScan = "procurement:overreceipt_scan"
	// TaskHealthScan recomputes stock positions and refreshes the dashboard.
	TaskHealthScan = "inventory:health_scan"
)

// AttendanceRecomputePayload identifies the staff/day to rebuild.
type AttendanceRecomputePayload struct {
	StaffID int64  `json:"staff_id"`
	Date    string `json:"date"`
}

// NewAttendanceRecomputeTask constructs the recompute task.
func NewAttendanceRecomputeTask(staffID int64, date time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(AttendanceRecomputePayload{StaffID: staffID, Date: date.Format("2006-01-02")})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAttendanceRecompute, data), nil
}

// NewOverreceiptScanTask constructs the over-receipt scan task.
func NewOverreceiptScanTask() *asynq.Task {
	return asynq.NewTask(TaskOverreceiptScan, nil)
}

// NewHealthScanTask constructs the stock health scan task.
func NewHealthScanTask() *asynq.Task {
	return asynq.NewTask(TaskHealthScan, nil)
}

// Client submits jobs to the queue. It satisfies attendance.TaskEnqueuer.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueRecompute queues a daily summary rebuild for one staff/day.
func (c *Client) EnqueueRecompute(ctx context.Context, staffID int64, date time.Time) error {
	task, err := NewAttendanceRecomputeTask(staffID, date)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
