// Package web serves the live monitoring dashboard: REST endpoints for
// pipeline status and the timeline, plus websocket streams of frame
// results and change-frame JPEGs.
package web

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/framewatch/framewatch/internal/log"
	"github.com/framewatch/framewatch/pkg/hub"
	"github.com/framewatch/framewatch/pkg/monitor"
)

// Server is the dashboard server for one monitor session.
type Server struct {
	app    *fiber.App
	port   string
	sess   *monitor.Session
	logger *slog.Logger

	eventHub *hub.Hub
	frameHub *hub.Hub
}

// NewServer builds the dashboard around a session. Attach must be called
// before the session runs so the result stream reaches the hubs.
func NewServer(port string, sess *monitor.Session) *Server {
	s := &Server{
		port:     port,
		sess:     sess,
		logger:   log.With("component", "web"),
		eventHub: hub.New("events"),
		frameHub: hub.New("frames"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "framewatch dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development.
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/timeline", s.handleTimeline)
	api.Get("/config", s.handleConfig)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/events", websocket.New(s.handleEventsWS))
	app.Get("/ws/frames", websocket.New(s.handleFramesWS))

	s.app = app
	return s
}

// Attach wires the session callbacks into the broadcast hubs.
func (s *Server) Attach() {
	s.sess.OnResult = func(result monitor.FrameResult) {
		if err := s.eventHub.BroadcastJSON(result); err != nil {
			s.logger.Warn("encode frame result", "err", err)
		}
	}
	s.sess.OnFrame = func(jpeg []byte) {
		s.frameHub.BroadcastBinary(jpeg)
	}
}

// Run starts the hubs and serves until ctx is cancelled or the listener
// fails.
func (s *Server) Run(ctx context.Context) error {
	go s.eventHub.Run(ctx)
	go s.frameHub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", "http://localhost:"+s.port)
		errCh <- s.app.Listen(":" + s.port)
	}()

	select {
	case <-ctx.Done():
		return s.app.Shutdown()
	case err := <-errCh:
		return err
	}
}
