package repository

import (
	"context"
	"time"

	"pixelboard-server/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChatRepositoryInterface interface {
	InsertMessage(msg models.ChatMessage) (models.ChatMessage, error)
	FindRecentByCanvas(canvasID string, limit int64) ([]models.ChatMessage, error)
}

type ChatRepository struct {
	collection *mongo.Collection
}

func NewChatRepository(collection *mongo.Collection) *ChatRepository {
	return &ChatRepository{collection: collection}
}

func (r *ChatRepository) InsertMessage(msg models.ChatMessage) (models.ChatMessage, error) {
	objectID := primitive.NewObjectID()
	msg.ID = objectID.Hex()
	msg.CreatedAt = time.Now()

	doc := bson.M{
		"_id":             objectID,
		"canvas_id":       msg.CanvasID,
		"sender_id":       msg.SenderID,
		"sender_username": msg.SenderUsername,
		"text":            msg.Text,
		"created_at":      msg.CreatedAt,
	}
	if _, err := r.collection.InsertOne(context.Background(), doc); err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}

func (r *ChatRepository) FindRecentByCanvas(canvasID string, limit int64) ([]models.ChatMessage, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(limit)
	cursor, err := r.collection.Find(context.Background(), bson.M{"canvas_id": canvasID}, opts)
	if err != nil {
		return nil, err
	}
	var messages []models.ChatMessage
	if err = cursor.All(context.Background(), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
