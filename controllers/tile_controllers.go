package controllers

import (
	"time"

	"pixelboard-server/models"
	"pixelboard-server/repository"
	service "pixelboard-server/services"
	"pixelboard-server/utils"

	"github.com/gofiber/fiber/v2"
)

type TileController struct {
	repo       repository.TileRepositoryInterface
	canvasRepo repository.CanvasRepositoryInterface
	locks      *service.LockService
	registry   *service.Registry
}

func NewTileController(
	repo repository.TileRepositoryInterface,
	canvasRepo repository.CanvasRepositoryInterface,
	locks *service.LockService,
	registry *service.Registry,
) *TileController {
	return &TileController{repo: repo, canvasRepo: canvasRepo, locks: locks, registry: registry}
}

func requestUserID(c *fiber.Ctx) string {
	if claims, ok := c.Locals("user").(*utils.CustomClaims); ok {
		return claims.UserID
	}
	return ""
}

// SaveTile persists a tile payload. The lease is advisory, so the write path
// re-checks the holder here: a live lease owned by someone else rejects the
// write even if the requester held the lease when it started editing. The
// broadcast goes out only after the write committed.
func (tc *TileController) SaveTile(c *fiber.Ctx) error {
	canvasID := c.Params("id")
	userID := requestUserID(c)

	canvas, err := tc.canvasRepo.FindCanvasByID(canvasID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Canvas not found"})
	}

	var tile models.Tile
	if err := c.BodyParser(&tile); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if !canvas.ContainsTile(tile.X, tile.Y) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Tile coordinate is outside the canvas"})
	}
	if !tile.ValidPayload(canvas.TileSize) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Tile payload does not match tile size"})
	}

	key := service.TileKey{CanvasID: canvasID, X: tile.X, Y: tile.Y}
	if holder, held := tc.locks.Holder(key); held && holder != userID {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Tile is being edited by another user"})
	}

	tile.CanvasID = canvasID
	tile.OwnerID = userID
	saved, created, err := tc.repo.SaveTile(tile)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save tile"})
	}

	eventType := "tile_updated"
	if created {
		eventType = "tile_created"
	}
	tc.registry.Broadcast(canvasID, models.TileEvent{
		Type:      eventType,
		TileID:    saved.ID,
		CanvasID:  saved.CanvasID,
		CreatorID: saved.OwnerID,
		X:         saved.X,
		Y:         saved.Y,
		LikeCount: saved.LikeCount,
		Timestamp: time.Now(),
	}, "")

	return c.Status(fiber.StatusOK).JSON(saved)
}

func (tc *TileController) GetTile(c *fiber.Ctx) error {
	canvasID := c.Params("id")
	x := c.QueryInt("x")
	y := c.QueryInt("y")

	tile, err := tc.repo.FindTileByCoord(canvasID, x, y)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Tile not found"})
	}
	return c.Status(fiber.StatusOK).JSON(tile)
}

func (tc *TileController) GetTilesByCanvas(c *fiber.Ctx) error {
	canvasID := c.Params("id")
	tiles, err := tc.repo.FindTilesByCanvas(canvasID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to find tiles"})
	}
	return c.Status(fiber.StatusOK).JSON(tiles)
}

func (tc *TileController) LikeTile(c *fiber.Ctx) error {
	id := c.Params("tileId")
	tile, err := tc.repo.LikeTile(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Tile not found"})
	}

	tc.registry.Broadcast(tile.CanvasID, models.TileEvent{
		Type:      "tile_liked",
		TileID:    tile.ID,
		CanvasID:  tile.CanvasID,
		CreatorID: tile.OwnerID,
		X:         tile.X,
		Y:         tile.Y,
		LikeCount: tile.LikeCount,
		Timestamp: time.Now(),
	}, "")

	return c.Status(fiber.StatusOK).JSON(tile)
}
