package tests

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"pixelboard-server/models"
	"pixelboard-server/utils"
)

type MockTileRepository struct {
	byCoord map[string]models.Tile
	byID    map[string]string // tile id -> coord key
	mu      sync.RWMutex
}

func NewMockTileRepository() *MockTileRepository {
	return &MockTileRepository{
		byCoord: make(map[string]models.Tile),
		byID:    make(map[string]string),
	}
}

func coordKey(canvasID string, x, y int) string {
	return fmt.Sprintf("%s/%d/%d", canvasID, x, y)
}

func (m *MockTileRepository) SaveTile(tile models.Tile) (models.Tile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tile.Pixels == "fail" {
		return models.Tile{}, false, errors.New("failed to save tile")
	}

	key := coordKey(tile.CanvasID, tile.X, tile.Y)
	now := time.Now()

	existing, ok := m.byCoord[key]
	if ok {
		existing.Pixels = tile.Pixels
		existing.UpdatedAt = now
		m.byCoord[key] = existing
		return existing, false, nil
	}

	tile.ID = utils.GenerateID()
	tile.CreatedAt = now
	tile.UpdatedAt = now
	m.byCoord[key] = tile
	m.byID[tile.ID] = key
	return tile, true, nil
}

func (m *MockTileRepository) FindTileByCoord(canvasID string, x, y int) (models.Tile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tile, ok := m.byCoord[coordKey(canvasID, x, y)]
	if !ok {
		return models.Tile{}, errors.New("tile not found")
	}
	return tile, nil
}

func (m *MockTileRepository) FindTilesByCanvas(canvasID string) ([]models.Tile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tiles := make([]models.Tile, 0)
	for _, tile := range m.byCoord {
		if tile.CanvasID == canvasID {
			tiles = append(tiles, tile)
		}
	}
	return tiles, nil
}

func (m *MockTileRepository) LikeTile(id string) (models.Tile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, ok := m.byID[id]
	if !ok {
		return models.Tile{}, errors.New("tile not found")
	}
	tile := m.byCoord[key]
	tile.LikeCount++
	m.byCoord[key] = tile
	return tile, nil
}

func (m *MockTileRepository) DeleteTilesByCanvas(canvasID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, tile := range m.byCoord {
		if tile.CanvasID == canvasID {
			delete(m.byID, tile.ID)
			delete(m.byCoord, key)
		}
	}
	return nil
}
