package controllers

import (
	service "pixelboard-server/services"

	"github.com/gofiber/fiber/v2"
)

// LockController is the collaborator surface around the lock service: status
// queries for UIs, forced release and the expired-lock cleanup trigger for
// admins.
type LockController struct {
	locks *service.LockService
}

func NewLockController(locks *service.LockService) *LockController {
	return &LockController{locks: locks}
}

func (lc *LockController) GetCanvasLocks(c *fiber.Ctx) error {
	canvasID := c.Params("id")
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"canvas_id": canvasID,
		"locks":     lc.locks.LocksForCanvas(canvasID),
	})
}

func (lc *LockController) ForceRelease(c *fiber.Ctx) error {
	canvasID := c.Params("id")
	var request struct {
		TileX int `json:"tile_x"`
		TileY int `json:"tile_y"`
	}
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	lc.locks.ForceRelease(service.TileKey{CanvasID: canvasID, X: request.TileX, Y: request.TileY})
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "success"})
}

func (lc *LockController) CleanupExpired(c *fiber.Ctx) error {
	released := lc.locks.SweepExpired()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"released": released})
}
