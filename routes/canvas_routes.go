package routes

import (
	"pixelboard-server/controllers"
	middleware "pixelboard-server/middlewares"
	"pixelboard-server/utils"

	"github.com/gofiber/fiber/v2"
)

func CanvasRoutes(app *fiber.App, canvasController *controllers.CanvasController, store *utils.PublicKeyStore) {
	auth := middleware.JWTParser(store)

	app.Post("/canvas", auth, canvasController.CreateCanvas)
	app.Get("/canvas/:id", auth, canvasController.GetCanvasByID)
	app.Get("/canvases", auth, canvasController.ListCanvases)
	app.Put("/canvas/:id/title", auth, canvasController.UpdateCanvasTitle)
	app.Delete("/canvas/:id", auth, canvasController.DeleteCanvasByID)
}
