package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forgeline-erp/forgeline/internal/platform/db"
)

// Repository persists attendance data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	InsertEvent(ctx context.Context, evt ClockEvent) (int64, error)
	UpdateEvent(ctx context.Context, evt ClockEvent) error
	DeleteEvent(ctx context.Context, eventID int64) error
	ReplaceSegments(ctx context.Context, staffID int64, date time.Time, segments []TimeSegment) error
	UpsertSummary(ctx context.Context, summary DailySummary) error
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

// ListEvents returns the staff member's events for one day ordered by time.
func (r *Repository) ListEvents(ctx context.Context, staffID int64, date time.Time) ([]ClockEvent, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, staff_id, event_time, event_type, COALESCE(break_type, ''), COALESCE(verification_method, '')
FROM clock_events
WHERE staff_id=$1 AND event_time >= $2 AND event_time < $3
ORDER BY event_time, id`, staffID, date, date.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []ClockEvent
	for rows.Next() {
		var evt ClockEvent
		if err := rows.Scan(&evt.ID, &evt.StaffID, &evt.At, &evt.Type, &evt.BreakType, &evt.VerificationMethod); err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

// ListSegments returns stored segments for one staff/day.
func (r *Repository) ListSegments(ctx context.Context, staffID int64, date time.Time) ([]TimeSegment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, staff_id, start_time, end_time, segment_type, COALESCE(break_type, ''), duration_minutes
FROM time_segments
WHERE staff_id=$1 AND date_worked=$2
ORDER BY start_time, id`, staffID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var segments []TimeSegment
	for rows.Next() {
		var seg TimeSegment
		if err := rows.Scan(&seg.ID, &seg.StaffID, &seg.Start, &seg.End, &seg.Type, &seg.BreakType, &seg.DurationMinutes); err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// GetEvent returns a single clock event.
func (r *Repository) GetEvent(ctx context.Context, eventID int64) (ClockEvent, error) {
	var evt ClockEvent
	err := r.pool.QueryRow(ctx, `SELECT id, staff_id, event_time, event_type, COALESCE(break_type, ''), COALESCE(verification_method, '')
FROM clock_events WHERE id=$1`, eventID).
		Scan(&evt.ID, &evt.StaffID, &evt.At, &evt.Type, &evt.BreakType, &evt.VerificationMethod)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ClockEvent{}, ErrNotFound
		}
		return ClockEvent{}, err
	}
	return evt, nil
}

// GetSummary returns the stored daily summary for one staff/day.
func (r *Repository) GetSummary(ctx context.Context, staffID int64, date time.Time) (DailySummary, error) {
	var summary DailySummary
	err := r.pool.QueryRow(ctx, `SELECT staff_id, date_worked, total_work_minutes, total_break_minutes, lunch_break_minutes, other_break_minutes, regular_minutes, overtime_minutes, first_clock_in, last_clock_out, is_complete
FROM daily_summaries WHERE staff_id=$1 AND date_worked=$2`, staffID, date).
		Scan(&summary.StaffID, &summary.Date, &summary.TotalWorkMinutes, &summary.TotalBreakMinutes, &summary.LunchBreakMinutes, &summary.OtherBreakMinutes, &summary.RegularMinutes, &summary.OvertimeMinutes, &summary.FirstClockIn, &summary.LastClockOut, &summary.IsComplete)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DailySummary{}, ErrNotFound
		}
		return DailySummary{}, err
	}
	return summary, nil
}

func (t *txRepository) InsertEvent(ctx context.Context, evt ClockEvent) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO clock_events (staff_id, event_time, event_type, break_type, verification_method) VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, '')) RETURNING id`,
		evt.StaffID, evt.At, evt.Type, evt.BreakType, evt.VerificationMethod).Scan(&id)
	return id, err
}

func (t *txRepository) UpdateEvent(ctx context.Context, evt ClockEvent) error {
	tag, err := t.tx.Exec(ctx, `UPDATE clock_events SET event_time=$2, event_type=$3, break_type=NULLIF($4, ''), verification_method=NULLIF($5, '') WHERE id=$1`,
		evt.ID, evt.At, evt.Type, evt.BreakType, evt.VerificationMethod)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepository) DeleteEvent(ctx context.Context, eventID int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM clock_events WHERE id=$1`, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceSegments drops and reinserts the day's derived segments.
func (t *txRepository) ReplaceSegments(ctx context.Context, staffID int64, date time.Time, segments []TimeSegment) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM time_segments WHERE staff_id=$1 AND date_worked=$2`, staffID, date); err != nil {
		return err
	}
	for _, seg := range segments {
		_, err := t.tx.Exec(ctx, `INSERT INTO time_segments (staff_id, date_worked, start_time, end_time, segment_type, break_type, duration_minutes) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`,
			staffID, date, seg.Start, seg.End, seg.Type, seg.BreakType, seg.DurationMinutes)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepository) UpsertSummary(ctx context.Context, summary DailySummary) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO daily_summaries (staff_id, date_worked, total_work_minutes, total_break_minutes, lunch_break_minutes, other_break_minutes, regular_minutes, overtime_minutes, first_clock_in, last_clock_out, is_complete)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (staff_id, date_worked) DO UPDATE SET
	total_work_minutes = EXCLUDED.total_work_minutes,
	total_break_minutes = EXCLUDED.total_break_minutes,
	lunch_break_minutes = EXCLUDED.lunch_break_minutes,
	other_break_minutes = EXCLUDED.other_break_minutes,
	regular_minutes = EXCLUDED.regular_minutes,
	overtime_minutes = EXCLUDED.overtime_minutes,
	first_clock_in = EXCLUDED.first_clock_in,
	last_clock_out = EXCLUDED.last_clock_out,
	is_complete = EXCLUDED.is_complete`,
		summary.StaffID, summary.Date, summary.TotalWorkMinutes, summary.TotalBreakMinutes, summary.LunchBreakMinutes, summary.OtherBreakMinutes, summary.RegularMinutes, summary.OvertimeMinutes, summary.FirstClockIn, summary.LastClockOut, summary.IsComplete)
	return err
}
