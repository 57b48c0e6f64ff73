package routes

import (
	"pixelboard-server/controllers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func WebSocketRoutes(app *fiber.App, wsController *controllers.WebSocketController, voiceController *controllers.VoiceSocketController) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/:canvasId", websocket.New(wsController.HandleWebSocket))
	app.Get("/ws/:canvasId/voice", websocket.New(voiceController.HandleVoice))
}
