// Package server exposes the live training feed over HTTP and websocket.
package server

import (
	"log"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"speechtrainer/internal/analysis"
	"speechtrainer/internal/models"
	"speechtrainer/internal/trainer"
)

// clientBuffer - events queued per websocket client before drops.
const clientBuffer = 64

// modelStatus is the /api/models response item.
type modelStatus struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Language   string `json:"language,omitempty"`
	Downloaded bool   `json:"downloaded"`
}

// Server serves session events and model state to clients.
type Server struct {
	app     *fiber.App
	manager *models.Manager

	mu      sync.RWMutex
	latest  analysis.Stats
	clients map[*websocket.Conn]chan trainer.Event
	closed  bool
}

// New creates a server over the given model manager.
func New(manager *models.Manager) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		manager: manager,
		clients: make(map[*websocket.Conn]chan trainer.Event),
	}

	s.app.Get("/health", s.handleHealth)
	s.app.Get("/api/models", s.handleModels)
	s.app.Get("/api/stats", s.handleStats)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws/live", websocket.New(s.handleLive))

	return s
}

// Listen serves until Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops the server gracefully. Client channels are closed so
// every handleLive goroutine unwinds instead of waiting forever on a
// feed that ended with the session.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for conn, ch := range s.clients {
			close(ch)
			delete(s.clients, conn)
		}
	}
	s.mu.Unlock()
	return s.app.Shutdown()
}

// SetStats records the latest metrics snapshot for /api/stats.
func (s *Server) SetStats(stats analysis.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = stats
}

// Broadcast fans an event out to all connected websocket clients.
// Slow clients lose events rather than stalling the session.
func (s *Server) Broadcast(ev trainer.Event) {
	if ev.Type == trainer.EventStats && ev.Stats != nil {
		s.SetStats(*ev.Stats)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleModels(c *fiber.Ctx) error {
	statuses := make([]modelStatus, 0, len(models.Registry))
	for _, m := range models.Registry {
		statuses = append(statuses, modelStatus{
			ID:         m.ID,
			Name:       m.Name,
			Kind:       string(m.Kind),
			Language:   m.Language,
			Downloaded: s.manager.IsDownloaded(m),
		})
	}
	return c.JSON(statuses)
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	return c.JSON(latest)
}

func (s *Server) handleLive(conn *websocket.Conn) {
	ch := make(chan trainer.Event, clientBuffer)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[conn] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for ev := range ch {
		if err := conn.WriteJSON(ev); err != nil {
			log.Printf("websocket client dropped: %v", err)
			return
		}
	}
}
