// Package analysis computes live speaking metrics: pace, clarity,
// filler words and repeated phrases.
package analysis

import (
	"strings"
	"sync"
	"time"
)

const (
	// IdealWPMMin - lower bound of the comfortable speaking pace.
	IdealWPMMin = 140
	// IdealWPMMax - upper bound of the comfortable speaking pace.
	IdealWPMMax = 160
	// PauseThreshold - silence longer than this resets the pace window.
	PauseThreshold = 2 * time.Second
	// MinWPMDuration - minimum window span before WPM is computed.
	MinWPMDuration = 1500 * time.Millisecond
	// PhraseLength - length of word n-grams tracked for repetition.
	PhraseLength = 3
	// ConfidenceThreshold - words below this confidence are ignored.
	ConfidenceThreshold = 0.80
	// DefaultWindow - default sliding window for pace calculation.
	DefaultWindow = 10 * time.Second
)

// Pacing feedback values reported in Stats.
const (
	FeedbackNone  = "..."
	FeedbackSlow  = "A bit slow"
	FeedbackFast  = "A bit fast"
	FeedbackIdeal = "Ideal pace"
)

// Word is a recognized word with its confidence and wall-clock start time.
type Word struct {
	Text       string
	Confidence float64
	Start      time.Time
}

// Stats is a snapshot of all speech metrics.
type Stats struct {
	WPM               int     `json:"wpm"`
	PacingFeedback    string  `json:"pacing_feedback"`
	ClarityScore      float64 `json:"clarity_score"`
	FillerWords       int     `json:"filler_words"`
	TotalWords        int     `json:"total_words"`
	RepetitivePhrases int     `json:"repetitive_phrases"`
}

// Analyzer accumulates recognition results and derives speaking metrics.
//
// Session statistics are updated only from final results so partials can
// never double-count. Live counters track the current unconfirmed
// utterance and are folded into snapshots; they reset only when the
// utterance is confirmed, not on pauses.
type Analyzer struct {
	mu        sync.Mutex
	window    time.Duration
	threshold float64
	now       func() time.Time

	// Sliding window of word start times for WPM.
	timestamps []time.Time

	// Session-wide statistics, updated only from final results.
	sessionWords         int
	sessionFillers       int
	sessionRepeats       int
	sessionConfidenceSum float64
	sessionConfidenceN   int
	phraseCounts         map[string]int

	// Live data for the current, unconfirmed utterance.
	liveWords   []string
	liveFillers int
	liveRepeats int
	lastPartial string

	lastWordAt  time.Time
	smoothedWPM float64
}

// New creates an Analyzer with the given pace window.
// A zero or negative window falls back to DefaultWindow.
func New(window time.Duration) *Analyzer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Analyzer{
		window:       window,
		threshold:    ConfidenceThreshold,
		now:          time.Now,
		phraseCounts: make(map[string]int),
	}
}

// SetConfidenceThreshold overrides the minimum word confidence.
func (a *Analyzer) SetConfidenceThreshold(threshold float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.threshold = threshold
}

// SetClock overrides the time source. Sessions over recorded audio use
// this so that time advances with the recording rather than the wall
// clock, which the pipeline outruns.
func (a *Analyzer) SetClock(clock func() time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if clock != nil {
		a.now = clock
	}
}

// ProcessFinal records a final, confirmed recognition result. This is the
// single source of truth for session-wide statistics.
func (a *Analyzer) ProcessFinal(words []Word) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	a.lastWordAt = now

	// The live utterance is now confirmed, drop the live counters.
	a.liveWords = nil
	a.liveFillers = 0
	a.liveRepeats = 0
	a.lastPartial = ""

	var confirmed []Word
	for _, w := range words {
		if w.Text != "" && w.Confidence >= a.threshold {
			confirmed = append(confirmed, w)
		}
	}

	texts := make([]string, 0, len(confirmed))
	for _, w := range confirmed {
		texts = append(texts, strings.ToLower(w.Text))
	}

	a.sessionWords += len(texts)
	for _, t := range texts {
		if IsFiller(t) {
			a.sessionFillers++
		}
	}

	if len(texts) >= PhraseLength {
		for i := 0; i+PhraseLength <= len(texts); i++ {
			phrase := strings.Join(texts[i:i+PhraseLength], " ")
			if a.phraseCounts[phrase] > 0 {
				a.sessionRepeats++
			}
			a.phraseCounts[phrase]++
		}
	}

	for _, w := range confirmed {
		a.sessionConfidenceSum += w.Confidence
		a.sessionConfidenceN++

		start := w.Start
		if start.IsZero() {
			start = now
		}
		a.timestamps = append(a.timestamps, start)
	}
}

// ProcessPartial updates the live counters from the latest partial
// transcript. Repeated identical partials are ignored.
func (a *Analyzer) ProcessPartial(partial string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	partial = strings.TrimSpace(partial)
	if partial == "" || partial == a.lastPartial {
		return
	}

	now := a.now()
	a.lastWordAt = now
	a.lastPartial = partial

	words := strings.Fields(strings.ToLower(partial))

	// The partial transcript can both grow and shrink as the engine
	// revises its hypothesis; keep the timestamp window in sync.
	diff := len(words) - len(a.liveWords)
	if diff > 0 {
		for i := 0; i < diff; i++ {
			a.timestamps = append(a.timestamps, now)
		}
	} else {
		for i := 0; i < -diff && len(a.timestamps) > 0; i++ {
			a.timestamps = a.timestamps[:len(a.timestamps)-1]
		}
	}

	a.liveWords = words

	a.liveFillers = 0
	for _, w := range words {
		if IsFiller(w) {
			a.liveFillers++
		}
	}

	a.liveRepeats = 0
	if len(words) >= PhraseLength {
		for i := 0; i+PhraseLength <= len(words); i++ {
			phrase := strings.Join(words[i:i+PhraseLength], " ")
			if a.phraseCounts[phrase] > 0 {
				a.liveRepeats++
			}
		}
	}
}

// Snapshot returns the current metrics. Each call advances the smoothed
// WPM value, so callers are expected to poll at a steady interval.
func (a *Analyzer) Snapshot() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()

	// Drop word timestamps that fell out of the window.
	for len(a.timestamps) > 0 && now.Sub(a.timestamps[0]) > a.window {
		a.timestamps = a.timestamps[1:]
	}

	// On a pause, reset only the WPM window, not the live word counts.
	if !a.lastWordAt.IsZero() && now.Sub(a.lastWordAt) > PauseThreshold {
		a.timestamps = a.timestamps[:0]
		a.lastWordAt = time.Time{}
	}

	var raw float64
	if len(a.timestamps) > 2 {
		duration := now.Sub(a.timestamps[0])
		if duration >= MinWPMDuration {
			raw = float64(len(a.timestamps)) / duration.Seconds() * 60
		}
	}

	factor := 0.5
	if raw > 0 {
		factor = 0.3
	}
	a.smoothedWPM = factor*raw + (1-factor)*a.smoothedWPM
	if a.smoothedWPM < 5 {
		a.smoothedWPM = 0
	}

	clarity := 1.0
	if a.sessionConfidenceN > 0 {
		clarity = a.sessionConfidenceSum / float64(a.sessionConfidenceN)
	}

	feedback := FeedbackNone
	if a.smoothedWPM > 10 {
		switch {
		case a.smoothedWPM < IdealWPMMin:
			feedback = FeedbackSlow
		case a.smoothedWPM > IdealWPMMax:
			feedback = FeedbackFast
		default:
			feedback = FeedbackIdeal
		}
	}

	return Stats{
		WPM:               int(a.smoothedWPM),
		PacingFeedback:    feedback,
		ClarityScore:      clarity * 100,
		FillerWords:       a.sessionFillers + a.liveFillers,
		TotalWords:        a.sessionWords + len(a.liveWords),
		RepetitivePhrases: a.sessionRepeats + a.liveRepeats,
	}
}
