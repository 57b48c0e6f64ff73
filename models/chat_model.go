package models

import "time"

type ChatMessage struct {
	ID             string    `bson:"_id,omitempty" json:"id,omitempty"`
	CanvasID       string    `bson:"canvas_id" json:"canvas_id"`
	SenderID       string    `bson:"sender_id" json:"sender_id"`
	SenderUsername string    `bson:"sender_username" json:"sender_username"`
	Text           string    `bson:"text" json:"text"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
