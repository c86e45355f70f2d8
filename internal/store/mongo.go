package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shelfscape/backend/internal/models"
)

// HistoryStore handles upload history documents in MongoDB.
type HistoryStore struct {
	col *mongo.Collection
}

func NewHistoryStore(db *mongo.Database) *HistoryStore {
	return &HistoryStore{col: db.Collection("uploads")}
}

func (s *HistoryStore) Insert(ctx context.Context, rec *models.UploadRecord) (string, error) {
	rec.CreatedAt = time.Now()
	res, err := s.col.InsertOne(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("mongo insert: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	return oid.Hex(), nil
}

func (s *HistoryStore) ListByUser(ctx context.Context, userID int64) ([]models.UploadRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var recs []models.UploadRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}
