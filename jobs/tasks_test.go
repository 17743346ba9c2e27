package jobs

import (
	"testing"
	"time"
)

func TestPreviousMonthBounds(t *testing.T) {
	cases := []struct {
		now   time.Time
		start time.Time
		end   time.Time
	}{
		{
			now:   time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
			start: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			now:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			start: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		start, end := previousMonth(tc.now)
		if !start.Equal(tc.start) || !end.Equal(tc.end) {
			t.Fatalf("previousMonth(%s) = %s..%s, want %s..%s", tc.now, start, end, tc.start, tc.end)
		}
	}
}

func TestNewConsolidationTaskRoundTrip(t *testing.T) {
	payload := ConsolidationPayload{
		PeriodStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	task, err := NewConsolidationTask(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskConsolidationRun {
		t.Fatalf("unexpected task type %q", task.Type())
	}
	if len(task.Payload()) == 0 {
		t.Fatal("expected payload bytes")
	}
}
