package db

import (
	"context"
	"fmt"
	"time"

	"voice-emotion/models"
	"voice-emotion/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoOpTimeout = 10 * time.Second

type MongoClient struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoClient(uri string) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("error pinging MongoDB: %w", err)
	}

	dbName := utils.GetEnv("MONGO_DB", "voice_emotion")
	collection := client.Database(dbName).Collection("predictions")

	return &MongoClient{client: client, collection: collection}, nil
}

func (c *MongoClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// StorePrediction inserts a prediction record.
func (c *MongoClient) StorePrediction(record *models.PredictionRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if record.ID == 0 {
		record.ID = record.Timestamp.UnixNano()
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	doc := bson.M{
		"_id":        record.ID,
		"timestamp":  record.Timestamp,
		"emotion":    record.Emotion,
		"confidence": record.Confidence,
		"valid":      record.Valid,
		"error":      record.Error,
		"latencyMs":  record.LatencyMs,
		"source":     record.Source,
	}
	if len(record.Probabilities) > 0 {
		doc["probabilities"] = string(record.Probabilities)
	}

	if _, err := c.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("error storing prediction: %w", err)
	}
	return nil
}

// GetRecentPredictions returns the newest records first.
func (c *MongoClient) GetRecentPredictions(limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := c.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying predictions: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.PredictionRecord
	for cursor.Next(ctx) {
		var doc struct {
			ID            int64     `bson:"_id"`
			Timestamp     time.Time `bson:"timestamp"`
			Emotion       string    `bson:"emotion"`
			Confidence    float64   `bson:"confidence"`
			Valid         bool      `bson:"valid"`
			Error         string    `bson:"error"`
			LatencyMs     float64   `bson:"latencyMs"`
			Probabilities string    `bson:"probabilities"`
			Source        string    `bson:"source"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding prediction: %w", err)
		}

		record := models.PredictionRecord{
			ID:         doc.ID,
			Timestamp:  doc.Timestamp,
			Emotion:    doc.Emotion,
			Confidence: doc.Confidence,
			Valid:      doc.Valid,
			Error:      doc.Error,
			LatencyMs:  doc.LatencyMs,
			Source:     doc.Source,
		}
		if doc.Probabilities != "" {
			record.Probabilities = []byte(doc.Probabilities)
		}
		records = append(records, record)
	}

	return records, cursor.Err()
}
