package controllers

import (
	"pixelboard-server/models"
	"pixelboard-server/repository"

	"github.com/gofiber/fiber/v2"
)

type CanvasController struct {
	repo     repository.CanvasRepositoryInterface
	tileRepo repository.TileRepositoryInterface
}

func NewCanvasController(repo repository.CanvasRepositoryInterface, tileRepo repository.TileRepositoryInterface) *CanvasController {
	return &CanvasController{repo: repo, tileRepo: tileRepo}
}

func (cc *CanvasController) CreateCanvas(c *fiber.Ctx) error {
	var canvas models.Canvas
	if err := c.BodyParser(&canvas); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if err := canvas.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	objectID, err := cc.repo.SaveCanvas(canvas)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save canvas"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": objectID})
}

func (cc *CanvasController) GetCanvasByID(c *fiber.Ctx) error {
	id := c.Params("id")
	canvas, err := cc.repo.FindCanvasByID(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Canvas not found"})
	}
	return c.Status(fiber.StatusOK).JSON(canvas)
}

func (cc *CanvasController) ListCanvases(c *fiber.Ctx) error {
	canvases, err := cc.repo.FindAllCanvases()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to find canvases"})
	}
	return c.Status(fiber.StatusOK).JSON(canvases)
}

func (cc *CanvasController) UpdateCanvasTitle(c *fiber.Ctx) error {
	id := c.Params("id")
	var request struct {
		NewTitle string `json:"new_title"`
	}
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := cc.repo.UpdateCanvasTitle(id, request.NewTitle); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update canvas title"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "success"})
}

// DeleteCanvasByID removes the canvas and every tile on it. Orphaned tiles
// would never render again, so they go with the grid.
func (cc *CanvasController) DeleteCanvasByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := cc.repo.DeleteCanvasByID(id); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete canvas"})
	}
	if err := cc.tileRepo.DeleteTilesByCanvas(id); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete canvas tiles"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "success"})
}
