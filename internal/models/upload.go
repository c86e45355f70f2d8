package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UploadRecord is one completed upload analysis stored in MongoDB.
type UploadRecord struct {
	ID              primitive.ObjectID `json:"id"               bson:"_id,omitempty"`
	UserID          int64              `json:"user_id"          bson:"user_id"`
	ObjectKey       string             `json:"object_key"       bson:"object_key"`
	DetectedBooks   []string           `json:"detected_books"   bson:"detected_books"`
	DetectionError  string             `json:"detection_error,omitempty" bson:"detection_error,omitempty"`
	Recommendations []Recommendation   `json:"recommendations"  bson:"recommendations"`
	SaveMessage     string             `json:"save_message"     bson:"save_message"`
	CreatedAt       time.Time          `json:"created_at"       bson:"created_at"`
}
