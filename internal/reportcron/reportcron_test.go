package reportcron

import (
	"context"
	"testing"
	"time"

	"chatdb/pkg/config"
)

// TestSnapshotWindowEndsAtTick pins the window to the tick time itself, not
// a day boundary; with a daily 02:00 cron a midnight-truncated end would
// silently drop the last two hours from every snapshot.
func TestSnapshotWindowEndsAtTick(t *testing.T) {
	now := time.Date(2024, 5, 15, 2, 0, 0, 0, time.UTC)
	start, end := snapshotWindow(now, 1)
	if !end.Equal(now) {
		t.Fatalf("window must end at the tick; got %v", end)
	}
	if !start.Equal(now.AddDate(0, 0, -1)) {
		t.Fatalf("unexpected window start %v", start)
	}

	start, _ = snapshotWindow(now, 7)
	if !start.Equal(now.AddDate(0, 0, -7)) {
		t.Fatalf("unexpected 7-day window start %v", start)
	}
}

func TestStartDisabled(t *testing.T) {
	cancel, err := Start(context.Background(), config.ReportsConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("disabled scheduler must not error: %v", err)
	}
	if cancel == nil {
		t.Fatalf("disabled scheduler must still return a cancel func")
	}
	cancel()
}

func TestStartRejectsInvalidCron(t *testing.T) {
	_, err := Start(context.Background(), config.ReportsConfig{Enabled: true, Cron: "not a cron"}, nil)
	if err == nil {
		t.Fatalf("invalid cron expression must be rejected at startup")
	}
}
