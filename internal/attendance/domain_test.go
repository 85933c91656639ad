package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func at(h, m int) time.Time {
	return time.Date(2026, time.March, 9, h, m, 0, 0, time.UTC)
}

func evt(t EventType, when time.Time) ClockEvent {
	return ClockEvent{StaffID: 7, At: when, Type: t}
}

func TestBuildSegmentsFullDay(t *testing.T) {
	events := []ClockEvent{
		evt(EventClockIn, at(8, 0)),
		{StaffID: 7, At: at(12, 0), Type: EventBreakStart, BreakType: BreakTypeLunch},
		evt(EventBreakEnd, at(12, 30)),
		evt(EventClockOut, at(17, 0)),
	}
	segments := BuildSegments(events)
	require.Len(t, segments, 3)

	require.Equal(t, SegmentWork, segments[0].Type)
	require.Equal(t, int64(240), segments[0].DurationMinutes)

	require.Equal(t, SegmentBreak, segments[1].Type)
	require.Equal(t, BreakTypeLunch, segments[1].BreakType)
	require.Equal(t, int64(30), segments[1].DurationMinutes)

	require.Equal(t, SegmentWork, segments[2].Type)
	require.Equal(t, int64(270), segments[2].DurationMinutes)
}

func TestBuildSegmentsUnmatchedClockIn(t *testing.T) {
	segments := BuildSegments([]ClockEvent{evt(EventClockIn, at(8, 0))})
	require.Empty(t, segments)
	require.True(t, MissingClockOut([]ClockEvent{evt(EventClockIn, at(8, 0))}))
}

func TestBuildSegmentsBreakDefaultsToOther(t *testing.T) {
	events := []ClockEvent{
		evt(EventClockIn, at(8, 0)),
		evt(EventBreakStart, at(10, 0)),
		evt(EventBreakEnd, at(10, 15)),
		evt(EventClockOut, at(16, 0)),
	}
	segments := BuildSegments(events)
	require.Len(t, segments, 3)
	require.Equal(t, BreakTypeOther, segments[1].BreakType)
}

func TestBuildSegmentsClockOutDuringBreak(t *testing.T) {
	events := []ClockEvent{
		evt(EventClockIn, at(8, 0)),
		evt(EventBreakStart, at(12, 0)),
		evt(EventClockOut, at(12, 20)),
	}
	segments := BuildSegments(events)
	require.Len(t, segments, 2)
	require.Equal(t, SegmentWork, segments[0].Type)
	require.Equal(t, SegmentBreak, segments[1].Type)
	require.Equal(t, int64(20), segments[1].DurationMinutes)
}

func TestBuildSegmentsIgnoresStrayEvents(t *testing.T) {
	// break_end without break, double clock_in
	events := []ClockEvent{
		evt(EventBreakEnd, at(7, 0)),
		evt(EventClockIn, at(8, 0)),
		evt(EventClockIn, at(8, 5)),
		evt(EventClockOut, at(9, 0)),
	}
	segments := BuildSegments(events)
	require.Len(t, segments, 1)
	require.Equal(t, at(8, 0), segments[0].Start)
	require.Equal(t, int64(60), segments[0].DurationMinutes)
}

func TestBuildSegmentsDropsZeroDuration(t *testing.T) {
	events := []ClockEvent{
		evt(EventClockIn, at(8, 0)),
		evt(EventClockOut, at(8, 0)),
	}
	require.Empty(t, BuildSegments(events))
}

func TestComputeSummarySplitsOvertime(t *testing.T) {
	segments := []TimeSegment{
		{Start: at(8, 0), End: at(16, 20), Type: SegmentWork, DurationMinutes: 500},
	}
	summary := ComputeSummary(7, at(0, 0), nil, segments, 480)
	require.Equal(t, int64(500), summary.TotalWorkMinutes)
	require.Equal(t, int64(480), summary.RegularMinutes)
	require.Equal(t, int64(20), summary.OvertimeMinutes)
}

func TestComputeSummaryUnderThreshold(t *testing.T) {
	segments := []TimeSegment{
		{Start: at(8, 0), End: at(13, 0), Type: SegmentWork, DurationMinutes: 300},
	}
	summary := ComputeSummary(7, at(0, 0), nil, segments, 480)
	require.Equal(t, int64(300), summary.RegularMinutes)
	require.Zero(t, summary.OvertimeMinutes)
}

func TestComputeSummarySkipsInvalidSegments(t *testing.T) {
	segments := []TimeSegment{
		{Start: at(9, 0), End: at(8, 0), Type: SegmentWork, DurationMinutes: -60},
		{Start: at(10, 0), End: at(10, 0), Type: SegmentWork},
		{Start: at(10, 0), End: at(11, 0), Type: SegmentWork, DurationMinutes: 60},
	}
	summary := ComputeSummary(7, at(0, 0), nil, segments, 480)
	require.Equal(t, int64(60), summary.TotalWorkMinutes)
}

func TestComputeSummaryBreakBuckets(t *testing.T) {
	segments := []TimeSegment{
		{Start: at(8, 0), End: at(12, 0), Type: SegmentWork, DurationMinutes: 240},
		{Start: at(12, 0), End: at(12, 45), Type: SegmentBreak, BreakType: BreakTypeLunch, DurationMinutes: 45},
		{Start: at(15, 0), End: at(15, 10), Type: SegmentBreak, BreakType: BreakTypeOther, DurationMinutes: 10},
	}
	summary := ComputeSummary(7, at(0, 0), nil, segments, 480)
	require.Equal(t, int64(55), summary.TotalBreakMinutes)
	require.Equal(t, int64(45), summary.LunchBreakMinutes)
	require.Equal(t, int64(10), summary.OtherBreakMinutes)
	// breaks never leak into the regular/overtime split
	require.Equal(t, int64(240), summary.RegularMinutes)
	require.Zero(t, summary.OvertimeMinutes)
}

func TestComputeSummaryCompleteness(t *testing.T) {
	events := []ClockEvent{
		evt(EventClockIn, at(8, 0)),
		evt(EventClockOut, at(16, 0)),
	}
	summary := ComputeSummary(7, at(0, 0), events, nil, 480)
	require.True(t, summary.IsComplete)
	require.NotNil(t, summary.FirstClockIn)
	require.Equal(t, at(8, 0), *summary.FirstClockIn)
	require.NotNil(t, summary.LastClockOut)
	require.Equal(t, at(16, 0), *summary.LastClockOut)

	open := ComputeSummary(7, at(0, 0), append(events, evt(EventClockIn, at(17, 0))), nil, 480)
	require.False(t, open.IsComplete)
}
