package repository

import (
	"context"
	"encoding/json"

	"pixelboard-server/models"

	"github.com/go-redis/redis/v8"
)

type PresenceRepositoryInterface interface {
	SetPresence(ctx context.Context, canvasID string, presence models.Presence) error
	GetPresences(ctx context.Context, canvasID string) ([]models.Presence, error)
	RemovePresence(ctx context.Context, canvasID, userID string) error
}

// RedisPresenceRepository keeps one hash per canvas, field = user id. Presence
// deliberately outlives the websocket connection so a reconnecting user's
// status survives the drop.
type RedisPresenceRepository struct {
	client *redis.Client
}

func NewRedisPresenceRepository(client *redis.Client) *RedisPresenceRepository {
	return &RedisPresenceRepository{client: client}
}

func presenceKey(canvasID string) string {
	return "canvas:" + canvasID + ":presence"
}

func (r *RedisPresenceRepository) SetPresence(ctx context.Context, canvasID string, presence models.Presence) error {
	data, err := json.Marshal(presence)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, presenceKey(canvasID), presence.UserID, data).Err()
}

func (r *RedisPresenceRepository) GetPresences(ctx context.Context, canvasID string) ([]models.Presence, error) {
	fields, err := r.client.HGetAll(ctx, presenceKey(canvasID)).Result()
	if err != nil {
		return nil, err
	}
	presences := make([]models.Presence, 0, len(fields))
	for _, raw := range fields {
		var p models.Presence
		if err := json.Unmarshal([]byte(raw), &p); err == nil {
			presences = append(presences, p)
		}
	}
	return presences, nil
}

func (r *RedisPresenceRepository) RemovePresence(ctx context.Context, canvasID, userID string) error {
	return r.client.HDel(ctx, presenceKey(canvasID), userID).Err()
}
