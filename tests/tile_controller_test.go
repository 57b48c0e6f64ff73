package tests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"pixelboard-server/controllers"
	"pixelboard-server/models"
	service "pixelboard-server/services"
	"pixelboard-server/utils"
)

type tileFixture struct {
	app        *fiber.App
	canvasRepo *MockCanvasRepository
	tileRepo   *MockTileRepository
	locks      *service.LockService
	canvasID   string
}

// setupTileApp wires the tile routes with an auth stand-in that fixes the
// requester identity, the way the JWT middleware does in production.
func setupTileApp(t *testing.T, userID string) *tileFixture {
	t.Helper()

	app := fiber.New()
	canvasRepo := NewMockCanvasRepository()
	tileRepo := NewMockTileRepository()
	locks := service.NewLockService(service.DefaultLockTTL)
	registry := service.NewRegistry()

	tileController := controllers.NewTileController(tileRepo, canvasRepo, locks, registry)

	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", &utils.CustomClaims{UserID: userID, Username: "user-" + userID})
		return c.Next()
	})
	app.Post("/canvas/:id/tiles", tileController.SaveTile)
	app.Get("/canvas/:id/tile", tileController.GetTile)
	app.Get("/canvas/:id/tiles", tileController.GetTilesByCanvas)
	app.Post("/tiles/:tileId/like", tileController.LikeTile)

	canvasID, err := canvasRepo.SaveCanvas(models.Canvas{
		Title:             "board",
		Width:             256,
		Height:            256,
		TileSize:          32,
		CollaborationMode: "open",
	})
	assert.NoError(t, err)

	return &tileFixture{
		app:        app,
		canvasRepo: canvasRepo,
		tileRepo:   tileRepo,
		locks:      locks,
		canvasID:   canvasID,
	}
}

func tilePayload() string {
	return strings.Repeat("7", 32*32)
}

func TestSaveTile_Success(t *testing.T) {
	f := setupTileApp(t, "alice")

	body, _ := json.Marshal(models.Tile{X: 1, Y: 1, Pixels: tilePayload()})
	req := httptest.NewRequest("POST", "/canvas/"+f.canvasID+"/tiles", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var saved models.Tile
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&saved))
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "alice", saved.OwnerID)
	assert.Equal(t, f.canvasID, saved.CanvasID)
}

func TestSaveTile_CanvasNotFound(t *testing.T) {
	f := setupTileApp(t, "alice")

	body, _ := json.Marshal(models.Tile{X: 1, Y: 1, Pixels: tilePayload()})
	req := httptest.NewRequest("POST", "/canvas/nope/tiles", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSaveTile_OutOfBounds(t *testing.T) {
	f := setupTileApp(t, "alice")

	body, _ := json.Marshal(models.Tile{X: 8, Y: 0, Pixels: tilePayload()})
	req := httptest.NewRequest("POST", "/canvas/"+f.canvasID+"/tiles", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSaveTile_WrongPayloadSize(t *testing.T) {
	f := setupTileApp(t, "alice")

	body, _ := json.Marshal(models.Tile{X: 0, Y: 0, Pixels: "short"})
	req := httptest.NewRequest("POST", "/canvas/"+f.canvasID+"/tiles", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSaveTile_LockedByAnotherUser(t *testing.T) {
	f := setupTileApp(t, "bob")

	_, err := f.locks.Acquire(service.TileKey{CanvasID: f.canvasID, X: 2, Y: 2}, "alice", 0)
	assert.NoError(t, err)

	body, _ := json.Marshal(models.Tile{X: 2, Y: 2, Pixels: tilePayload()})
	req := httptest.NewRequest("POST", "/canvas/"+f.canvasID+"/tiles", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	_, err = f.tileRepo.FindTileByCoord(f.canvasID, 2, 2)
	assert.Error(t, err)
}

func TestSaveTile_HolderMayWrite(t *testing.T) {
	f := setupTileApp(t, "alice")

	_, err := f.locks.Acquire(service.TileKey{CanvasID: f.canvasID, X: 2, Y: 2}, "alice", 0)
	assert.NoError(t, err)

	body, _ := json.Marshal(models.Tile{X: 2, Y: 2, Pixels: tilePayload()})
	req := httptest.NewRequest("POST", "/canvas/"+f.canvasID+"/tiles", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGetTileByCoord(t *testing.T) {
	f := setupTileApp(t, "alice")

	_, _, err := f.tileRepo.SaveTile(models.Tile{CanvasID: f.canvasID, X: 2, Y: 3, Pixels: tilePayload(), OwnerID: "alice"})
	assert.NoError(t, err)

	req := httptest.NewRequest("GET", "/canvas/"+f.canvasID+"/tile?x=2&y=3", nil)
	resp, err := f.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var tile models.Tile
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&tile))
	assert.Equal(t, 2, tile.X)
	assert.Equal(t, 3, tile.Y)

	req = httptest.NewRequest("GET", "/canvas/"+f.canvasID+"/tile?x=9&y=9", nil)
	resp, err = f.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetTilesByCanvas(t *testing.T) {
	f := setupTileApp(t, "alice")

	_, _, err := f.tileRepo.SaveTile(models.Tile{CanvasID: f.canvasID, X: 0, Y: 0, Pixels: tilePayload(), OwnerID: "alice"})
	assert.NoError(t, err)
	_, _, err = f.tileRepo.SaveTile(models.Tile{CanvasID: f.canvasID, X: 1, Y: 0, Pixels: tilePayload(), OwnerID: "bob"})
	assert.NoError(t, err)

	req := httptest.NewRequest("GET", "/canvas/"+f.canvasID+"/tiles", nil)
	resp, err := f.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var tiles []models.Tile
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&tiles))
	assert.Len(t, tiles, 2)
}

func TestLikeTile(t *testing.T) {
	f := setupTileApp(t, "alice")

	saved, _, err := f.tileRepo.SaveTile(models.Tile{CanvasID: f.canvasID, X: 0, Y: 0, Pixels: tilePayload(), OwnerID: "bob"})
	assert.NoError(t, err)

	req := httptest.NewRequest("POST", "/tiles/"+saved.ID+"/like", nil)
	resp, err := f.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var tile models.Tile
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&tile))
	assert.Equal(t, 1, tile.LikeCount)
}

func TestLikeTile_NotFound(t *testing.T) {
	f := setupTileApp(t, "alice")

	req := httptest.NewRequest("POST", "/tiles/nope/like", nil)
	resp, err := f.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
