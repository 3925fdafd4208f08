package server

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/websocket/v2"

	"speechtrainer/internal/analysis"
	"speechtrainer/internal/models"
	"speechtrainer/internal/trainer"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	manager, err := models.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return New(manager)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestModels(t *testing.T) {
	s := newTestServer(t)

	// Put one registry model on disk so downloaded states differ.
	info, ok := models.GetModel(models.DefaultModelID())
	if !ok {
		t.Fatal("default model missing from registry")
	}
	if err := os.MkdirAll(s.manager.ModelPath(info), 0755); err != nil {
		t.Fatal(err)
	}

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/models", nil))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var statuses []modelStatus
	if err := json.Unmarshal(body, &statuses); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(statuses) != len(models.Registry) {
		t.Fatalf("got %d models, want %d", len(statuses), len(models.Registry))
	}

	byID := make(map[string]modelStatus)
	for _, st := range statuses {
		byID[st.ID] = st
	}
	if !byID[models.DefaultModelID()].Downloaded {
		t.Errorf("%s should be reported downloaded", models.DefaultModelID())
	}
	if byID["vosk-small-de"].Downloaded {
		t.Error("vosk-small-de should not be reported downloaded")
	}
}

func TestStats(t *testing.T) {
	s := newTestServer(t)

	s.SetStats(analysis.Stats{
		WPM:            151,
		PacingFeedback: analysis.FeedbackIdeal,
		ClarityScore:   93.5,
		TotalWords:     42,
	})

	resp, err := s.app.Test(httptest.NewRequest("GET", "/api/stats", nil))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var stats analysis.Stats
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if stats.WPM != 151 || stats.PacingFeedback != analysis.FeedbackIdeal {
		t.Errorf("stats = %+v", stats)
	}
}

func TestShutdownReleasesClients(t *testing.T) {
	s := newTestServer(t)

	// Register a client the way handleLive does.
	conn := &websocket.Conn{}
	ch := make(chan trainer.Event, clientBuffer)
	s.mu.Lock()
	s.clients[conn] = ch
	s.mu.Unlock()

	_ = s.Shutdown()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("got an event, want a closed channel")
		}
	default:
		t.Error("client channel still open after Shutdown")
	}

	// Broadcasting after shutdown must be a no-op, not a send on a
	// closed channel.
	s.Broadcast(trainer.Event{Type: trainer.EventStatus, Message: "late"})
}

func TestWebsocketUpgradeRequired(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.app.Test(httptest.NewRequest("GET", "/ws/live", nil))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 426 {
		t.Errorf("status = %d, want 426 without upgrade headers", resp.StatusCode)
	}
}
