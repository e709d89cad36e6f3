package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes exposes the websocket progress transport. Each
// connection relays hub payloads for one upload id until the client
// disconnects.
func RegisterRoutes(r fiber.Router, hub *Hub) {
	r.Get("/ws/:uploadId", websocket.New(func(c *websocket.Conn) {
		uploadID := c.Params("uploadId")
		client := hub.Register(uploadID)
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		<-done
	}))
}
