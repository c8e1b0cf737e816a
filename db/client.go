package db

// Prediction History Storage
//
// Every served prediction can be recorded for later review. Two backends are
// supported behind one interface: SQLite (the default, zero-setup) and
// MongoDB for shared deployments. The backend is selected with DB_TYPE
// ("sqlite" or "mongo"); connection details come from DB_PATH or MONGO_URI.
// Storage failures are logged and never affect the prediction response.

import (
	"fmt"

	"voice-emotion/models"
	"voice-emotion/utils"
)

// Client persists and lists prediction records.
type Client interface {
	StorePrediction(record *models.PredictionRecord) error
	GetRecentPredictions(limit int) ([]models.PredictionRecord, error)
	Close() error
}

// NewDBClient builds the backend selected by environment configuration.
func NewDBClient() (Client, error) {
	dbType := utils.GetEnv("DB_TYPE", "sqlite")
	switch dbType {
	case "sqlite":
		path := utils.GetEnv("DB_PATH", "data/predictions.db")
		return NewSQLiteClient(path)
	case "mongo":
		uri := utils.GetEnv("MONGO_URI", "mongodb://localhost:27017")
		return NewMongoClient(uri)
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE: %s", dbType)
	}
}
