package tests

import (
	"errors"
	"sync"
	"time"

	"pixelboard-server/models"
	"pixelboard-server/utils"
)

type MockChatRepository struct {
	data []models.ChatMessage
	mu   sync.RWMutex
}

func NewMockChatRepository() *MockChatRepository {
	return &MockChatRepository{}
}

func (m *MockChatRepository) InsertMessage(msg models.ChatMessage) (models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.Text == "fail" {
		return models.ChatMessage{}, errors.New("failed to insert message")
	}
	msg.ID = utils.GenerateID()
	msg.CreatedAt = time.Now()
	m.data = append(m.data, msg)
	return msg, nil
}

func (m *MockChatRepository) FindRecentByCanvas(canvasID string, limit int64) ([]models.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	messages := make([]models.ChatMessage, 0)
	for i := len(m.data) - 1; i >= 0 && int64(len(messages)) < limit; i-- {
		if m.data[i].CanvasID == canvasID {
			messages = append(messages, m.data[i])
		}
	}
	return messages, nil
}
