package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/forgeline-erp/forgeline/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListEvents(ctx context.Context, staffID int64, date time.Time) ([]ClockEvent, error)
	ListSegments(ctx context.Context, staffID int64, date time.Time) ([]TimeSegment, error)
	GetEvent(ctx context.Context, eventID int64) (ClockEvent, error)
	GetSummary(ctx context.Context, staffID int64, date time.Time) (DailySummary, error)
}

// TaskEnqueuer schedules background summary recomputes.
type TaskEnqueuer interface {
	EnqueueRecompute(ctx context.Context, staffID int64, date time.Time) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns clock event mutations and daily summary recomputation.
type Service struct {
	repo           RepositoryPort
	tasks          TaskEnqueuer
	audit          AuditPort
	logger         *slog.Logger
	workdayMinutes int64
}

// NewService constructs attendance service.
func NewService(repo RepositoryPort, tasks TaskEnqueuer, audit AuditPort, workdayMinutes int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if workdayMinutes <= 0 {
		workdayMinutes = 480
	}
	return &Service{repo: repo, tasks: tasks, audit: audit, workdayMinutes: workdayMinutes, logger: logger}
}

// EventInput describes a new clock event.
type EventInput struct {
	StaffID            int64
	At                 time.Time
	Type               EventType
	BreakType          string
	VerificationMethod string
	ActorID            int64
}

// DaySheet bundles everything the staff day view needs.
type DaySheet struct {
	Events          []ClockEvent  `json:"events"`
	Segments        []TimeSegment `json:"segments"`
	Summary         DailySummary  `json:"summary"`
	MissingClockOut bool          `json:"missing_clock_out"`
}

// RecordEvent appends a clock event and schedules a summary recompute for the
// affected day.
func (s *Service) RecordEvent(ctx context.Context, input EventInput) (ClockEvent, error) {
	if input.StaffID <= 0 || input.At.IsZero() || !ValidEventType(input.Type) {
		return ClockEvent{}, ErrValidation
	}
	evt := ClockEvent{
		StaffID:            input.StaffID,
		At:                 input.At,
		Type:               input.Type,
		BreakType:          input.BreakType,
		VerificationMethod: input.VerificationMethod,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertEvent(ctx, evt)
		if err != nil {
			return err
		}
		evt.ID = id
		return nil
	})
	if err != nil {
		return ClockEvent{}, err
	}
	s.recordAudit(ctx, input.ActorID, "CLOCK_EVENT", evt.ID, map[string]any{"staff_id": evt.StaffID, "type": string(evt.Type)})
	s.enqueueRecompute(ctx, evt.StaffID, dateOf(evt.At))
	return evt, nil
}

// UpdateEvent rewrites a clock event and schedules recomputes for every day it
// touched. Moving an event across midnight dirties both the old and new day.
func (s *Service) UpdateEvent(ctx context.Context, eventID int64, input EventInput) (ClockEvent, error) {
	if input.At.IsZero() || !ValidEventType(input.Type) {
		return ClockEvent{}, ErrValidation
	}
	prev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return ClockEvent{}, err
	}
	evt := ClockEvent{
		ID:                 eventID,
		StaffID:            prev.StaffID,
		At:                 input.At,
		Type:               input.Type,
		BreakType:          input.BreakType,
		VerificationMethod: input.VerificationMethod,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateEvent(ctx, evt)
	})
	if err != nil {
		return ClockEvent{}, err
	}
	s.recordAudit(ctx, input.ActorID, "CLOCK_EVENT_UPDATE", eventID, map[string]any{"staff_id": evt.StaffID, "type": string(evt.Type)})
	s.enqueueRecompute(ctx, evt.StaffID, dateOf(prev.At))
	if !dateOf(evt.At).Equal(dateOf(prev.At)) {
		s.enqueueRecompute(ctx, evt.StaffID, dateOf(evt.At))
	}
	return evt, nil
}

// DeleteEvent removes a clock event and schedules a recompute for its day.
func (s *Service) DeleteEvent(ctx context.Context, eventID, actorID int64) error {
	evt, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeleteEvent(ctx, eventID)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "CLOCK_EVENT_DELETE", eventID, map[string]any{"staff_id": evt.StaffID})
	s.enqueueRecompute(ctx, evt.StaffID, dateOf(evt.At))
	return nil
}

// RecomputeSummary rebuilds the day's segments from raw events and upserts the
// daily summary keyed on (staff_id, date_worked). The whole day is replaced,
// never patched incrementally.
func (s *Service) RecomputeSummary(ctx context.Context, staffID int64, date time.Time) (DailySummary, error) {
	if staffID <= 0 {
		return DailySummary{}, ErrValidation
	}
	date = dateOf(date)
	events, err := s.repo.ListEvents(ctx, staffID, date)
	if err != nil {
		return DailySummary{}, err
	}
	segments := BuildSegments(events)
	summary := ComputeSummary(staffID, date, events, segments, s.workdayMinutes)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.ReplaceSegments(ctx, staffID, date, segments); err != nil {
			return err
		}
		return tx.UpsertSummary(ctx, summary)
	})
	if err != nil {
		return DailySummary{}, err
	}
	return summary, nil
}

// GetDaySheet returns the events, valid segments, stored summary and the
// missing clock-out warning for one staff/day.
func (s *Service) GetDaySheet(ctx context.Context, staffID int64, date time.Time) (DaySheet, error) {
	date = dateOf(date)
	events, err := s.repo.ListEvents(ctx, staffID, date)
	if err != nil {
		return DaySheet{}, err
	}
	segments, err := s.repo.ListSegments(ctx, staffID, date)
	if err != nil {
		return DaySheet{}, err
	}
	if len(segments) == 0 {
		// recompute has not landed yet, derive in memory
		segments = BuildSegments(events)
	}
	valid := segments[:0]
	for _, seg := range segments {
		if seg.Valid() {
			valid = append(valid, seg)
		}
	}
	summary, err := s.repo.GetSummary(ctx, staffID, date)
	if errors.Is(err, ErrNotFound) {
		summary = ComputeSummary(staffID, date, events, valid, s.workdayMinutes)
	} else if err != nil {
		return DaySheet{}, err
	}
	return DaySheet{
		Events:          events,
		Segments:        valid,
		Summary:         summary,
		MissingClockOut: MissingClockOut(events),
	}, nil
}

func (s *Service) enqueueRecompute(ctx context.Context, staffID int64, date time.Time) {
	if s.tasks == nil {
		return
	}
	if err := s.tasks.EnqueueRecompute(ctx, staffID, date); err != nil {
		s.logger.Warn("enqueue summary recompute",
			slog.Int64("staff_id", staffID),
			slog.Time("date", date),
			slog.Any("error", err),
		)
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "clock_event", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}

// dateOf normalizes an instant to its UTC midnight day key.
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
