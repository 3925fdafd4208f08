// Package trainer runs speech analysis sessions: it feeds audio into a
// recognizer and turns recognition results into metrics and events.
package trainer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"speechtrainer/internal/analysis"
	"speechtrainer/internal/speech"
)

const (
	// StatsInterval - how often a stats event is published.
	StatsInterval = 250 * time.Millisecond
	// CaptionWords - how many trailing words the caption keeps.
	CaptionWords = 20
)

// Options configure a session.
type Options struct {
	// Window for the pace calculation. Zero uses the analyzer default.
	Window time.Duration

	// Confidence below which words are excluded from the transcript.
	// Zero uses analysis.ConfidenceThreshold.
	Confidence float64

	// SampleRate, when non-zero, switches the session to an audio
	// clock: time advances with the PCM16 samples consumed instead of
	// the wall clock. Set this when processing a recording, which runs
	// much faster than real time.
	SampleRate float64
}

// Session consumes an audio stream and publishes analysis events.
type Session struct {
	mu         sync.Mutex
	id         string
	recognizer speech.Recognizer
	analyzer   *analysis.Analyzer
	events     chan Event
	confidence float64
	now        func() time.Time
	sampleRate float64

	transcript []speech.Word
	latest     analysis.Stats
	started    time.Time
	stopped    time.Time
	audio      time.Duration
}

// New creates a session over the given recognizer.
func New(recognizer speech.Recognizer, opts Options) *Session {
	confidence := opts.Confidence
	if confidence <= 0 {
		confidence = analysis.ConfidenceThreshold
	}

	analyzer := analysis.New(opts.Window)
	analyzer.SetConfidenceThreshold(confidence)

	s := &Session{
		id:         uuid.NewString(),
		recognizer: recognizer,
		analyzer:   analyzer,
		events:     make(chan Event, 64),
		confidence: confidence,
		now:        time.Now,
		sampleRate: opts.SampleRate,
	}
	if s.sampleRate > 0 {
		analyzer.SetClock(s.clock)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Events returns the event channel. It is closed when Run returns.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Latest returns the most recent stats snapshot.
func (s *Session) Latest() analysis.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Transcript returns the confirmed transcript so far.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return joinWords(s.transcript)
}

// Run processes audio chunks until the channel closes or ctx is
// cancelled, then flushes the recognizer and returns the final report.
func (s *Session) Run(ctx context.Context, chunks <-chan []byte) (*Report, error) {
	s.mu.Lock()
	s.started = s.now()
	s.mu.Unlock()

	defer close(s.events)

	s.emit(Event{Type: EventStatus, Message: "ready"})

	var lastStats time.Time

	for {
		select {
		case <-ctx.Done():
			return s.finish(), nil

		case chunk, ok := <-chunks:
			if !ok {
				return s.finish(), nil
			}

			s.advance(len(chunk))

			result, err := s.recognizer.Accept(chunk)
			if err != nil {
				s.emit(Event{Type: EventError, Message: err.Error()})
				return nil, err
			}

			if result != nil {
				s.handleFinal(result)
			} else {
				partial, err := s.recognizer.Partial()
				if err != nil {
					s.emit(Event{Type: EventError, Message: err.Error()})
					return nil, err
				}
				if partial != "" {
					s.analyzer.ProcessPartial(partial)
					s.emit(Event{Type: EventPartial, Text: partial})
				}
			}
		}

		if now := s.clock(); now.Sub(lastStats) >= StatsInterval {
			s.publishStats()
			lastStats = now
		}
	}
}

// handleFinal routes a confirmed utterance into the analyzer and the
// transcript.
func (s *Session) handleFinal(result *speech.Result) {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	words := make([]analysis.Word, len(result.Words))
	for i, w := range result.Words {
		words[i] = analysis.Word{
			Text:       w.Word,
			Confidence: w.Conf,
			// Engine timing is stream-relative seconds; anchor it to the
			// session start so the pace window sees wall-clock times.
			Start: started.Add(time.Duration(w.Start * float64(time.Second))),
		}
	}
	s.analyzer.ProcessFinal(words)

	s.mu.Lock()
	for _, w := range result.Words {
		if w.Conf >= s.confidence {
			s.transcript = append(s.transcript, w)
		}
	}
	s.mu.Unlock()

	s.emit(Event{Type: EventFinal, Text: result.Text, Words: result.Words})
}

func (s *Session) publishStats() {
	stats := s.analyzer.Snapshot()

	s.mu.Lock()
	s.latest = stats
	s.mu.Unlock()

	s.emit(Event{Type: EventStats, Stats: &stats})
}

func (s *Session) finish() *Report {
	if result, err := s.recognizer.Flush(); err == nil && result != nil {
		s.handleFinal(result)
	}

	s.publishStats()

	stopped := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = stopped
	return &Report{
		SessionID:       s.id,
		StartedAt:       s.started,
		StoppedAt:       s.stopped,
		DurationSeconds: s.stopped.Sub(s.started).Seconds(),
		Stats:           s.latest,
		Transcript:      joinWords(s.transcript),
	}
}

// Caption returns the trailing confirmed words plus the live partial,
// trimmed so captions do not grow without bound.
func (s *Session) Caption(partial string) string {
	s.mu.Lock()
	words := s.transcript
	if len(words) > CaptionWords {
		words = words[len(words)-CaptionWords:]
	}
	text := joinWords(words)
	s.mu.Unlock()

	if partial != "" {
		if text != "" {
			text += " "
		}
		text += partial + "..."
	}
	return text
}

// clock returns the session's notion of now. With an audio clock it is
// the session start plus the duration of the audio consumed so far,
// which keeps pace windows and the report duration on the recording's
// timeline.
func (s *Session) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sampleRate > 0 {
		return s.started.Add(s.audio)
	}
	return s.now()
}

// advance moves the audio clock forward by n bytes of PCM16 samples.
func (s *Session) advance(n int) {
	if s.sampleRate <= 0 {
		return
	}
	s.mu.Lock()
	s.audio += time.Duration(float64(n) / 2 / s.sampleRate * float64(time.Second))
	s.mu.Unlock()
}

// emit publishes an event without ever blocking the audio loop; slow
// consumers lose intermediate events.
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func joinWords(words []speech.Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		if w.Word != "" {
			parts = append(parts, w.Word)
		}
	}
	return strings.Join(parts, " ")
}
