package routes

import (
	"pixelboard-server/controllers"
	middleware "pixelboard-server/middlewares"
	"pixelboard-server/utils"

	"github.com/gofiber/fiber/v2"
)

func LockRoutes(app *fiber.App, lockController *controllers.LockController, store *utils.PublicKeyStore) {
	auth := middleware.JWTParser(store)

	app.Get("/canvas/:id/locks", auth, lockController.GetCanvasLocks)
	app.Post("/canvas/:id/locks/release", auth, lockController.ForceRelease)
	app.Post("/locks/cleanup", auth, lockController.CleanupExpired)
}
