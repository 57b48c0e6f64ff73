package main

import (
	"log"
	"time"

	"pixelboard-server/configs"
	"pixelboard-server/controllers"
	"pixelboard-server/models"
	"pixelboard-server/repository"
	"pixelboard-server/routes"
	"pixelboard-server/server"
	service "pixelboard-server/services"
	"pixelboard-server/utils"

	fiberprometheus "github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {

	configs.LoadEnv()

	if configs.Env("CONSUL_ADDRESS", "") != "" {
		err := configs.RegisterService(
			"pixelboard-server",
			"pixelboard-server",
			"localhost",
			4000,
			"http://localhost:4000/health",
		)
		if err != nil {
			log.Fatalf("Consul service registration failed: %v", err)
		}
	}

	configs.ConnectRedis()
	client := configs.ConnectMongo()
	redisClient := configs.GetRedisClient()

	db := client.Database(configs.Env("MONGO_DB", "pixelboard"))
	canvasRepo := repository.NewCanvasRepository(db.Collection("canvases"))
	tileRepo := repository.NewTileRepository(db.Collection("tiles"))
	chatRepo := repository.NewChatRepository(db.Collection("messages"))
	presenceRepo := repository.NewRedisPresenceRepository(redisClient)

	store := utils.NewPublicKeyStore()
	if dir := configs.Env("JWT_PUBLIC_KEY_DIR", ""); dir != "" {
		if err := store.LoadKeys(dir); err != nil {
			log.Fatalf("Failed to load public keys from %s: %v", dir, err)
		}
	}

	registry := service.NewRegistry()
	locks := service.NewLockService(service.DefaultLockTTL)

	// Sweeper-expired leases are announced like any voluntary release so
	// clients unblock without polling.
	locks.OnRelease(func(lock models.TileLock) {
		registry.Broadcast(lock.CanvasID, models.LockEvent{
			Type:     "tile_lock_released",
			CanvasID: lock.CanvasID,
			TileX:    lock.TileX,
			TileY:    lock.TileY,
			HolderID: lock.HolderID,
		}, "")
	})
	stopSweeper := locks.StartSweeper(30 * time.Second)
	defer stopSweeper()

	canvasController := controllers.NewCanvasController(canvasRepo, tileRepo)
	tileController := controllers.NewTileController(tileRepo, canvasRepo, locks, registry)
	chatController := controllers.NewChatController(chatRepo)
	lockController := controllers.NewLockController(locks)
	wsController := controllers.NewWebSocketController(registry, locks, canvasRepo, chatRepo, presenceRepo, store)
	voiceController := controllers.NewVoiceSocketController()

	app := fiber.New()

	p := fiberprometheus.New("pixelboard-server")
	p.RegisterAt(app, "/metrics")
	app.Use(p.Middleware)

	app.Use(cors.New(cors.Config{
		AllowOrigins: configs.Env("CORS_ORIGIN", "http://localhost:3000"),
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
	}))

	routes.CanvasRoutes(app, canvasController, store)
	routes.TileRoutes(app, tileController, chatController, store)
	routes.LockRoutes(app, lockController, store)
	routes.WebSocketRoutes(app, wsController, voiceController)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "UP",
		})
	})

	go func() {
		if err := server.RunGRPCServer(configs.Env("GRPC_ADDR", ":50051"), store); err != nil {
			log.Fatalf("Failed to start gRPC server: %v", err)
		}
	}()

	log.Println("Starting server on port 4000...")
	if err := app.Listen(":4000"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
