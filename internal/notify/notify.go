// Package notify provides desktop notifications for pacing alerts.
package notify

import (
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"speechtrainer/internal/analysis"
)

const appName = "Speech Trainer"

// paceAlertGap - minimum time between pacing notifications.
const paceAlertGap = 15 * time.Second

// Notifier sends system notifications.
type Notifier struct {
	mu        sync.Mutex
	enabled   bool
	lastAlert time.Time
	now       func() time.Time
}

// New creates a Notifier.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled, now: time.Now}
}

// SetEnabled turns notifications on or off.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SessionStarted announces the start of a practice session.
func (n *Notifier) SessionStarted() {
	n.notify("Session started", "Speak into the microphone")
}

// SessionStopped announces the end of a session with a short summary.
func (n *Notifier) SessionStopped(summary string) {
	n.notify("Session finished", summary)
}

// Pace alerts when the speaking pace leaves the ideal band. Alerts are
// rate-limited; ideal pace and silence never alert.
func (n *Notifier) Pace(feedback string) {
	if feedback != analysis.FeedbackSlow && feedback != analysis.FeedbackFast {
		return
	}

	n.mu.Lock()
	if n.now().Sub(n.lastAlert) < paceAlertGap {
		n.mu.Unlock()
		return
	}
	n.lastAlert = n.now()
	n.mu.Unlock()

	n.notify("Pace check", feedback)
}

// Error reports a failure.
func (n *Notifier) Error(msg string) {
	n.notify("Error", msg)
}

func (n *Notifier) notify(title, message string) {
	n.mu.Lock()
	enabled := n.enabled
	n.mu.Unlock()
	if !enabled {
		return
	}
	// Notification failures are not critical, ignore them.
	_ = beeep.Notify(appName+": "+title, message, "")
}
