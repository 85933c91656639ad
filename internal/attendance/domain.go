package attendance

import (
	"errors"
	"time"
)

// Clock event types recorded from the shop-floor terminals.
type EventType string

const (
	EventClockIn    EventType = "clock_in"
	EventClockOut   EventType = "clock_out"
	EventBreakStart EventType = "break_start"
	EventBreakEnd   EventType = "break_end"
)

// ValidEventType reports whether t is a known clock event type.
func ValidEventType(t EventType) bool {
	switch t {
	case EventClockIn, EventClockOut, EventBreakStart, EventBreakEnd:
		return true
	}
	return false
}

// Segment types derived from paired clock events.
type SegmentType string

const (
	SegmentWork  SegmentType = "work"
	SegmentBreak SegmentType = "break"
)

// Break types; lunch is tracked separately in the daily summary.
const (
	BreakTypeLunch = "lunch"
	BreakTypeOther = "other"
)

// ClockEvent is a raw clock-in/out or break event for one staff member.
type ClockEvent struct {
	ID                 int64     `json:"id"`
	StaffID            int64     `json:"staff_id"`
	At                 time.Time `json:"at"`
	Type               EventType `json:"type"`
	BreakType          string    `json:"break_type,omitempty"`
	VerificationMethod string    `json:"verification_method,omitempty"`
}

// TimeSegment is a continuous interval of work or break time.
type TimeSegment struct {
	ID              int64       `json:"id"`
	StaffID         int64       `json:"staff_id"`
	Start           time.Time   `json:"start"`
	End             time.Time   `json:"end"`
	Type            SegmentType `json:"type"`
	BreakType       string      `json:"break_type,omitempty"`
	DurationMinutes int64       `json:"duration_minutes"`
}

// Valid reports whether the segment covers a strictly positive interval.
// Zero and negative durations occur with clock skew or duplicated events and
// are dropped rather than surfaced as errors.
func (s TimeSegment) Valid() bool {
	return s.End.After(s.Start)
}

// DailySummary is the per staff/day aggregate, recomputed in full whenever the
// underlying events change.
type DailySummary struct {
	StaffID           int64      `json:"staff_id"`
	Date              time.Time  `json:"date"`
	TotalWorkMinutes  int64      `json:"total_work_minutes"`
	TotalBreakMinutes int64      `json:"total_break_minutes"`
	LunchBreakMinutes int64      `json:"lunch_break_minutes"`
	OtherBreakMinutes int64      `json:"other_break_minutes"`
	RegularMinutes    int64      `json:"regular_minutes"`
	OvertimeMinutes   int64      `json:"overtime_minutes"`
	FirstClockIn      *time.Time `json:"first_clock_in,omitempty"`
	LastClockOut      *time.Time `json:"last_clock_out,omitempty"`
	IsComplete        bool       `json:"is_complete"`
}

// BuildSegments pairs ordered clock events into non-overlapping work and break
// segments. An unmatched trailing clock_in or break_start produces no segment;
// MissingClockOut surfaces that state as a warning flag instead.
func BuildSegments(events []ClockEvent) []TimeSegment {
	var segments []TimeSegment
	var (
		inWork    bool
		inBreak   bool
		markStart time.Time
		breakType string
		staffID   int64
	)
	closeSegment := func(end time.Time, typ SegmentType, breakType string) {
		seg := TimeSegment{
			StaffID:         staffID,
			Start:           markStart,
			End:             end,
			Type:            typ,
			BreakType:       breakType,
			DurationMinutes: int64(end.Sub(markStart) / time.Minute),
		}
		if seg.Valid() {
			segments = append(segments, seg)
		}
	}
	for _, evt := range events {
		staffID = evt.StaffID
		switch evt.Type {
		case EventClockIn:
			if !inWork && !inBreak {
				inWork = true
				markStart = evt.At
			}
		case EventBreakStart:
			if inWork {
				closeSegment(evt.At, SegmentWork, "")
				inWork = false
				inBreak = true
				markStart = evt.At
				breakType = evt.BreakType
				if breakType == "" {
					breakType = BreakTypeOther
				}
			}
		case EventBreakEnd:
			if inBreak {
				closeSegment(evt.At, SegmentBreak, breakType)
				inBreak = false
				inWork = true
				markStart = evt.At
			}
		case EventClockOut:
			if inBreak {
				closeSegment(evt.At, SegmentBreak, breakType)
				inBreak = false
			} else if inWork {
				closeSegment(evt.At, SegmentWork, "")
				inWork = false
			}
		}
	}
	return segments
}

// MissingClockOut reports whether the chronologically last event of the day is
// a clock_in without a matching clock_out.
func MissingClockOut(events []ClockEvent) bool {
	if len(events) == 0 {
		return false
	}
	return events[len(events)-1].Type == EventClockIn
}

// ComputeSummary aggregates the day's segments and events into the daily
// summary. Invalid segments contribute nothing. The regular/overtime split is
// taken over work minutes only; break minutes are tracked in their own
// buckets.
func ComputeSummary(staffID int64, date time.Time, events []ClockEvent, segments []TimeSegment, workdayMinutes int64) DailySummary {
	if workdayMinutes <= 0 {
		workdayMinutes = 480
	}
	summary := DailySummary{StaffID: staffID, Date: date}
	for _, seg := range segments {
		if !seg.Valid() {
			continue
		}
		switch seg.Type {
		case SegmentWork:
			summary.TotalWorkMinutes += seg.DurationMinutes
		case SegmentBreak:
			summary.TotalBreakMinutes += seg.DurationMinutes
			if seg.BreakType == BreakTypeLunch {
				summary.LunchBreakMinutes += seg.DurationMinutes
			} else {
				summary.OtherBreakMinutes += seg.DurationMinutes
			}
		}
	}
	if summary.TotalWorkMinutes > workdayMinutes {
		summary.RegularMinutes = workdayMinutes
		summary.OvertimeMinutes = summary.TotalWorkMinutes - workdayMinutes
	} else {
		summary.RegularMinutes = summary.TotalWorkMinutes
	}
	var lastClockIn *time.Time
	for _, evt := range events {
		at := evt.At
		switch evt.Type {
		case EventClockIn:
			if summary.FirstClockIn == nil {
				summary.FirstClockIn = &at
			}
			lastClockIn = &at
		case EventClockOut:
			summary.LastClockOut = &at
		}
	}
	summary.IsComplete = lastClockIn != nil && summary.LastClockOut != nil && summary.LastClockOut.After(*lastClockIn)
	return summary
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("attendance: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("attendance: invalid input")
)
