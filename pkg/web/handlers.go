package web

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/framewatch/framewatch/pkg/hub"
)

// replayLimit bounds how many timeline entries are replayed to a newly
// connected events client; it must fit the client's send buffer.
const replayLimit = 100

// handleStatus returns the live pipeline snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"session_id":    s.sess.ID(),
		"buffer":        s.sess.BufferStatus(),
		"event_clients": s.eventHub.ClientCount(),
		"frame_clients": s.frameHub.ClientCount(),
	})
}

// handleTimeline returns the results accumulated so far.
func (s *Server) handleTimeline(c *fiber.Ctx) error {
	return c.JSON(s.sess.Timeline())
}

// handleConfig returns the session configuration.
func (s *Server) handleConfig(c *fiber.Ctx) error {
	return c.JSON(s.sess.Config())
}

// handleEventsWS streams frame results as JSON messages. The client is
// registered before the timeline snapshot is taken, so no result falls
// between replay and the live stream; a result arriving in that window
// can appear twice or ahead of the replay, and consumers key on the
// frame sequence.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	client := hub.NewClient(s.eventHub, c)

	timeline := s.sess.Timeline()
	if len(timeline) > replayLimit {
		timeline = timeline[len(timeline)-replayLimit:]
	}
	for _, entry := range timeline {
		data, err := json.Marshal(entry)
		if err != nil {
			s.logger.Warn("encode timeline entry", "err", err)
			continue
		}
		if !client.Queue(hub.NewJSONMessage(data)) {
			break
		}
	}

	client.Run()
}

// handleFramesWS streams change-frame JPEGs as binary messages.
func (s *Server) handleFramesWS(c *websocket.Conn) {
	hub.NewClient(s.frameHub, c).Run()
}
