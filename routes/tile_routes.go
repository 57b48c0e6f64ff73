package routes

import (
	"pixelboard-server/controllers"
	middleware "pixelboard-server/middlewares"
	"pixelboard-server/utils"

	"github.com/gofiber/fiber/v2"
)

func TileRoutes(app *fiber.App, tileController *controllers.TileController, chatController *controllers.ChatController, store *utils.PublicKeyStore) {
	auth := middleware.JWTParser(store)

	app.Put("/canvas/:id/tile", auth, tileController.SaveTile)
	app.Get("/canvas/:id/tile", auth, tileController.GetTile)
	app.Get("/canvas/:id/tiles", auth, tileController.GetTilesByCanvas)
	app.Post("/tile/:tileId/like", auth, tileController.LikeTile)
	app.Get("/canvas/:id/messages", auth, chatController.GetRecentMessages)
}
