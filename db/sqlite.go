package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"voice-emotion/models"
	"voice-emotion/utils"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

type SQLiteClient struct {
	db *sql.DB
}

func NewSQLiteClient(dataSourceName string) (*SQLiteClient, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	// Add busy timeout param to DSN (milliseconds)
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000"
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	return &SQLiteClient{db: db}, nil
}

func createTables(db *sql.DB) error {
	createPredictionsTable := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        emotion TEXT,
        confidence REAL NOT NULL DEFAULT 0,
        valid INTEGER NOT NULL DEFAULT 0,
        error TEXT,
        latency_ms REAL NOT NULL DEFAULT 0,
        probabilities TEXT,
        source TEXT
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_timestamp ON predictions(timestamp);
    `

	if _, err := db.Exec(createPredictionsTable); err != nil {
		return fmt.Errorf("error creating predictions table: %w", err)
	}
	return nil
}

func (c *SQLiteClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// StorePrediction inserts a prediction record.
func (c *SQLiteClient) StorePrediction(record *models.PredictionRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	var probabilitiesJSON *string
	if len(record.Probabilities) > 0 {
		s := string(record.Probabilities)
		probabilitiesJSON = &s
	}

	validInt := 0
	if record.Valid {
		validInt = 1
	}

	_, err := c.db.Exec(`
		INSERT INTO predictions (
			timestamp, emotion, confidence, valid, error,
			latency_ms, probabilities, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Timestamp,
		record.Emotion,
		record.Confidence,
		validInt,
		record.Error,
		record.LatencyMs,
		probabilitiesJSON,
		record.Source,
	)
	if err != nil {
		return fmt.Errorf("error storing prediction: %w", err)
	}
	return nil
}

// GetRecentPredictions returns the newest records first.
func (c *SQLiteClient) GetRecentPredictions(limit int) ([]models.PredictionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := c.db.Query(`
		SELECT id, timestamp, emotion, confidence, valid, error,
		       latency_ms, probabilities, source
		FROM predictions
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying predictions: %w", err)
	}
	defer rows.Close()

	var records []models.PredictionRecord
	for rows.Next() {
		var r models.PredictionRecord
		var validInt int
		var errorText sql.NullString
		var probabilitiesJSON sql.NullString
		var source sql.NullString

		err := rows.Scan(
			&r.ID,
			&r.Timestamp,
			&r.Emotion,
			&r.Confidence,
			&validInt,
			&errorText,
			&r.LatencyMs,
			&probabilitiesJSON,
			&source,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning prediction: %w", err)
		}

		r.Valid = validInt == 1
		r.Error = errorText.String
		r.Source = source.String
		if probabilitiesJSON.Valid {
			r.Probabilities = json.RawMessage(probabilitiesJSON.String)
		}

		records = append(records, r)
	}

	return records, rows.Err()
}
