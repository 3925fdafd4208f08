package trainer

import (
	"context"
	"strings"
	"testing"
	"time"

	"speechtrainer/internal/analysis"
	"speechtrainer/internal/speech"
)

// scriptStep is what the fake recognizer does for one Accept call.
type scriptStep struct {
	partial string
	final   *speech.Result
}

// fakeRecognizer plays back a scripted sequence of recognition results.
type fakeRecognizer struct {
	script  []scriptStep
	pos     int
	pending *speech.Result // returned by Flush
	closed  bool
}

func (f *fakeRecognizer) Accept(chunk []byte) (*speech.Result, error) {
	if f.pos >= len(f.script) {
		return nil, nil
	}
	step := f.script[f.pos]
	f.pos++
	if step.final != nil {
		return step.final, nil
	}
	return nil, nil
}

func (f *fakeRecognizer) Partial() (string, error) {
	if f.pos == 0 || f.pos > len(f.script) {
		return "", nil
	}
	return f.script[f.pos-1].partial, nil
}

func (f *fakeRecognizer) Flush() (*speech.Result, error) {
	return f.pending, nil
}

func (f *fakeRecognizer) Name() string { return "fake" }
func (f *fakeRecognizer) Close()       { f.closed = true }

func words(conf float64, texts ...string) []speech.Word {
	out := make([]speech.Word, len(texts))
	for i, t := range texts {
		out[i] = speech.Word{Word: t, Conf: conf, Start: float64(i), End: float64(i) + 0.5}
	}
	return out
}

// runSession drives a session over n chunks and collects all events.
func runSession(t *testing.T, rec speech.Recognizer, n int) (*Report, []Event) {
	t.Helper()

	session := New(rec, Options{})

	var events []Event
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for ev := range session.Events() {
			events = append(events, ev)
		}
	}()

	chunks := make(chan []byte)
	go func() {
		defer close(chunks)
		for i := 0; i < n; i++ {
			chunks <- make([]byte, 2048)
		}
	}()

	report, err := session.Run(context.Background(), chunks)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	<-collected
	return report, events
}

func TestSessionTranscriptAndEvents(t *testing.T) {
	rec := &fakeRecognizer{
		script: []scriptStep{
			{partial: "hello"},
			{partial: "hello there"},
			{final: &speech.Result{Text: "hello there friend", Words: words(0.95, "hello", "there", "friend")}},
		},
	}

	report, events := runSession(t, rec, 3)

	if report.Transcript != "hello there friend" {
		t.Errorf("Transcript = %q, want %q", report.Transcript, "hello there friend")
	}
	if report.Stats.TotalWords != 3 {
		t.Errorf("TotalWords = %d, want 3", report.Stats.TotalWords)
	}
	if report.SessionID == "" {
		t.Error("empty SessionID")
	}
	if report.StoppedAt.Before(report.StartedAt) {
		t.Error("StoppedAt before StartedAt")
	}

	var sawStatus, sawPartial, sawFinal, sawStats bool
	for _, ev := range events {
		switch ev.Type {
		case EventStatus:
			sawStatus = true
		case EventPartial:
			sawPartial = true
		case EventFinal:
			sawFinal = true
			if ev.Text != "hello there friend" {
				t.Errorf("final event text = %q", ev.Text)
			}
			if len(ev.Words) != 3 {
				t.Errorf("final event words = %d, want 3", len(ev.Words))
			}
		case EventStats:
			sawStats = true
			if ev.Stats == nil {
				t.Error("stats event with nil data")
			}
		}
	}
	if !sawStatus || !sawPartial || !sawFinal || !sawStats {
		t.Errorf("missing event types: status=%v partial=%v final=%v stats=%v",
			sawStatus, sawPartial, sawFinal, sawStats)
	}
}

func TestSessionFiltersLowConfidenceFromTranscript(t *testing.T) {
	rec := &fakeRecognizer{
		script: []scriptStep{
			{final: &speech.Result{Text: "good bad", Words: []speech.Word{
				{Word: "good", Conf: 0.95},
				{Word: "bad", Conf: 0.30},
			}}},
		},
	}

	report, _ := runSession(t, rec, 1)

	if report.Transcript != "good" {
		t.Errorf("Transcript = %q, want %q", report.Transcript, "good")
	}
}

func TestSessionFlushesPendingUtterance(t *testing.T) {
	rec := &fakeRecognizer{
		pending: &speech.Result{Text: "trailing words here", Words: words(0.9, "trailing", "words", "here")},
	}

	report, _ := runSession(t, rec, 1)

	if report.Transcript != "trailing words here" {
		t.Errorf("Transcript = %q, want flushed utterance", report.Transcript)
	}
}

func TestSessionContextCancel(t *testing.T) {
	rec := &fakeRecognizer{}
	session := New(rec, Options{})

	go func() {
		for range session.Events() {
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chunks := make(chan []byte) // never closed, never written
	done := make(chan struct{})
	var report *Report
	go func() {
		defer close(done)
		report, _ = session.Run(ctx, chunks)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancel")
	}
	if report == nil {
		t.Fatal("Run returned nil report on cancel")
	}
}

func TestCaption(t *testing.T) {
	rec := &fakeRecognizer{
		script: []scriptStep{
			{final: &speech.Result{Text: "one two", Words: words(0.9, "one", "two")}},
		},
	}

	session := New(rec, Options{})
	go func() {
		for range session.Events() {
		}
	}()

	chunks := make(chan []byte, 1)
	chunks <- make([]byte, 2048)
	close(chunks)
	if _, err := session.Run(context.Background(), chunks); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := session.Caption("three fo")
	want := "one two three fo..."
	if got != want {
		t.Errorf("Caption = %q, want %q", got, want)
	}
}

// TestSessionAudioClock feeds an 8 second recording at 150 WPM through
// the pipeline in a few milliseconds. With the audio clock the report
// must show the recording's duration and pace, not the processing time.
func TestSessionAudioClock(t *testing.T) {
	const rate = 16000
	second := make([]byte, rate*2) // one second of PCM16

	utterance := func(start float64, texts ...string) *speech.Result {
		ws := make([]speech.Word, len(texts))
		for i, txt := range texts {
			ws[i] = speech.Word{Word: txt, Conf: 0.95, Start: start + 0.4*float64(i)}
		}
		return &speech.Result{Text: strings.Join(texts, " "), Words: ws}
	}

	rec := &fakeRecognizer{
		script: []scriptStep{
			{}, {final: utterance(0, "alpha", "bravo", "charlie", "delta", "echo")},
			{}, {final: utterance(2, "foxtrot", "golf", "hotel", "india", "juliett")},
			{}, {final: utterance(4, "kilo", "lima", "mike", "november", "oscar")},
			{}, {final: utterance(6, "papa", "quebec", "romeo", "sierra", "tango")},
		},
	}

	session := New(rec, Options{SampleRate: rate})
	go func() {
		for range session.Events() {
		}
	}()

	chunks := make(chan []byte)
	go func() {
		defer close(chunks)
		for i := 0; i < 8; i++ {
			chunks <- second
		}
	}()

	report, err := session.Run(context.Background(), chunks)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.DurationSeconds < 7.9 || report.DurationSeconds > 8.1 {
		t.Errorf("DurationSeconds = %.2f, want the recording length of 8s", report.DurationSeconds)
	}
	if report.Stats.TotalWords != 20 {
		t.Errorf("TotalWords = %d, want 20", report.Stats.TotalWords)
	}
	if report.Stats.WPM < 100 || report.Stats.WPM > 160 {
		t.Errorf("WPM = %d, want a value tracking the 150 WPM recording", report.Stats.WPM)
	}
	if report.Stats.PacingFeedback == analysis.FeedbackNone {
		t.Errorf("PacingFeedback = %q, want pace feedback", report.Stats.PacingFeedback)
	}
}

func TestStreamPCM(t *testing.T) {
	pcm := make([]byte, 10000)
	var total, count int
	for chunk := range StreamPCM(context.Background(), pcm, 4096) {
		total += len(chunk)
		count++
	}
	if total != len(pcm) {
		t.Errorf("streamed %d bytes, want %d", total, len(pcm))
	}
	if count != 3 {
		t.Errorf("streamed %d chunks, want 3", count)
	}
}
