package notify

import (
	"testing"
	"time"

	"speechtrainer/internal/analysis"
)

func TestPaceRateLimit(t *testing.T) {
	n := New(false) // disabled so no real notifications fire
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return clock }

	// First out-of-band feedback records an alert time.
	n.Pace(analysis.FeedbackFast)
	first := n.lastAlert
	if first.IsZero() {
		t.Fatal("no alert recorded for fast pace")
	}

	// Within the gap, a second alert is suppressed.
	clock = clock.Add(5 * time.Second)
	n.Pace(analysis.FeedbackSlow)
	if !n.lastAlert.Equal(first) {
		t.Error("alert fired inside the rate-limit gap")
	}

	// After the gap it fires again.
	clock = clock.Add(paceAlertGap)
	n.Pace(analysis.FeedbackSlow)
	if n.lastAlert.Equal(first) {
		t.Error("alert did not fire after the rate-limit gap")
	}
}

func TestPaceIgnoresIdealAndSilence(t *testing.T) {
	n := New(false)

	n.Pace(analysis.FeedbackIdeal)
	n.Pace(analysis.FeedbackNone)

	if !n.lastAlert.IsZero() {
		t.Error("alert recorded for ideal pace or silence")
	}
}
