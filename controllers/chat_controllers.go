package controllers

import (
	"pixelboard-server/repository"

	"github.com/gofiber/fiber/v2"
)

type ChatController struct {
	repo repository.ChatRepositoryInterface
}

func NewChatController(repo repository.ChatRepositoryInterface) *ChatController {
	return &ChatController{repo: repo}
}

func (cc *ChatController) GetRecentMessages(c *fiber.Ctx) error {
	canvasID := c.Params("id")
	limit := int64(c.QueryInt("limit", 50))
	messages, err := cc.repo.FindRecentByCanvas(canvasID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load messages"})
	}
	return c.Status(fiber.StatusOK).JSON(messages)
}
