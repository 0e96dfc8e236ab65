package stream

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterRoutes(r fiber.Router, hub *Hub, svc *Service, authMiddleware fiber.Handler) {
	// dashboard feed: server-to-client subjectPositionUpdate fan-out
	r.Get("/feed", authMiddleware, websocket.New(func(c *websocket.Conn) {
		sub := hub.Subscribe()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range sub.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unsubscribe(sub)
		<-done
	}))

	// tracker ingest: positionUpdate and stopTracking envelopes
	r.Get("/track", authMiddleware, websocket.New(func(c *websocket.Conn) {
		employeeID, _ := c.Locals("employee_id").(string)
		if employeeID == "" {
			_ = c.Close()
			return
		}

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var env Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				log.Printf("stream: bad envelope from %s: %v", employeeID, err)
				continue
			}

			switch env.Kind {
			case KindPositionUpdate:
				if err := svc.HandlePosition(context.Background(), env, employeeID); err != nil {
					log.Printf("stream: dropped update for visit %s: %v", env.VisitID, err)
				}
			case KindStopTracking:
				// advisory only; the end-visit call is authoritative
				log.Printf("stream: stop-tracking advisory for visit %s", env.VisitID)
			default:
				log.Printf("stream: unknown message kind %q", env.Kind)
			}
		}
	}))
}
