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

type TileRepositoryInterface interface {
	SaveTile(tile models.Tile) (models.Tile, bool, error)
	FindTileByCoord(canvasID string, x, y int) (models.Tile, error)
	FindTilesByCanvas(canvasID string) ([]models.Tile, error)
	LikeTile(id string) (models.Tile, error)
	DeleteTilesByCanvas(canvasID string) error
}

type TileRepository struct {
	collection *mongo.Collection
}

func NewTileRepository(collection *mongo.Collection) *TileRepository {
	return &TileRepository{collection: collection}
}

// SaveTile upserts the tile keyed by (canvas_id, x, y) and reports whether a
// new tile was created. Ownership is set on first write and never changed by
// a later save.
func (r *TileRepository) SaveTile(tile models.Tile) (models.Tile, bool, error) {
	now := time.Now()
	filter := bson.M{"canvas_id": tile.CanvasID, "x": tile.X, "y": tile.Y}
	update := bson.M{
		"$set": bson.M{
			"pixels":     tile.Pixels,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"canvas_id":  tile.CanvasID,
			"x":          tile.X,
			"y":          tile.Y,
			"owner_id":   tile.OwnerID,
			"like_count": 0,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.Tile
	err := r.collection.FindOneAndUpdate(context.Background(), filter, update, opts).Decode(&saved)
	if err != nil {
		return models.Tile{}, false, err
	}
	// On insert both timestamps land on the same value; a later save only
	// advances updated_at.
	created := saved.CreatedAt.Equal(saved.UpdatedAt)
	return saved, created, nil
}

func (r *TileRepository) FindTileByCoord(canvasID string, x, y int) (models.Tile, error) {
	var tile models.Tile
	filter := bson.M{"canvas_id": canvasID, "x": x, "y": y}
	err := r.collection.FindOne(context.Background(), filter).Decode(&tile)
	return tile, err
}

func (r *TileRepository) FindTilesByCanvas(canvasID string) ([]models.Tile, error) {
	var tiles []models.Tile
	cursor, err := r.collection.Find(context.Background(), bson.M{"canvas_id": canvasID})
	if err != nil {
		return nil, err
	}
	if err = cursor.All(context.Background(), &tiles); err != nil {
		return nil, err
	}
	return tiles, nil
}

func (r *TileRepository) LikeTile(id string) (models.Tile, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Tile{}, err
	}
	filter := bson.M{"_id": objectID}
	update := bson.M{"$inc": bson.M{"like_count": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var tile models.Tile
	err = r.collection.FindOneAndUpdate(context.Background(), filter, update, opts).Decode(&tile)
	return tile, err
}

func (r *TileRepository) DeleteTilesByCanvas(canvasID string) error {
	_, err := r.collection.DeleteMany(context.Background(), bson.M{"canvas_id": canvasID})
	return err
}
