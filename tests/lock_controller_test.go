package tests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"pixelboard-server/controllers"
	"pixelboard-server/models"
	service "pixelboard-server/services"
)

func setupLockApp() (*fiber.App, *service.LockService) {
	app := fiber.New()
	locks := service.NewLockService(service.DefaultLockTTL)

	lockController := controllers.NewLockController(locks)

	app.Get("/canvas/:id/locks", lockController.GetCanvasLocks)
	app.Post("/canvas/:id/locks/force-release", lockController.ForceRelease)
	app.Post("/locks/cleanup", lockController.CleanupExpired)

	return app, locks
}

func TestGetCanvasLocks(t *testing.T) {
	app, locks := setupLockApp()

	_, err := locks.Acquire(service.TileKey{CanvasID: "c1", X: 3, Y: 4}, "alice", time.Minute)
	assert.NoError(t, err)
	_, err = locks.Acquire(service.TileKey{CanvasID: "c2", X: 0, Y: 0}, "bob", time.Minute)
	assert.NoError(t, err)

	req := httptest.NewRequest("GET", "/canvas/c1/locks", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var respBody struct {
		CanvasID string            `json:"canvas_id"`
		Locks    []models.TileLock `json:"locks"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&respBody))
	assert.Equal(t, "c1", respBody.CanvasID)
	assert.Len(t, respBody.Locks, 1)
	assert.Equal(t, "alice", respBody.Locks[0].HolderID)
}

func TestForceReleaseLock(t *testing.T) {
	app, locks := setupLockApp()

	key := service.TileKey{CanvasID: "c1", X: 3, Y: 4}
	_, err := locks.Acquire(key, "alice", time.Minute)
	assert.NoError(t, err)

	body, _ := json.Marshal(map[string]int{"tile_x": 3, "tile_y": 4})
	req := httptest.NewRequest("POST", "/canvas/c1/locks/force-release", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, held := locks.Holder(key)
	assert.False(t, held)
}

func TestCleanupExpiredLocks(t *testing.T) {
	app, locks := setupLockApp()

	// Nothing is expired; the endpoint reports zero released.
	_, err := locks.Acquire(service.TileKey{CanvasID: "c1", X: 0, Y: 0}, "alice", time.Minute)
	assert.NoError(t, err)

	req := httptest.NewRequest("POST", "/locks/cleanup", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var respBody map[string]int
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&respBody))
	assert.Equal(t, 0, respBody["released"])
}
