package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/mitsumori/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		area REAL NOT NULL,
		rooms REAL,
		toilets REAL,
		floors REAL,
		district TEXT,
		ward TEXT,
		lat REAL,
		lng REAL,
		width REAL,
		length REAL,
		predicted_price REAL NOT NULL,
		confidence_lower REAL,
		confidence_upper REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
	CREATE INDEX IF NOT EXISTS idx_predictions_district ON predictions(district);
	`
	_, err := db.Exec(schema)
	return err
}

const predictionColumns = `id, area, rooms, toilets, floors, district, ward, lat, lng, width, length,
	predicted_price, confidence_lower, confidence_upper, created_at`

// SavePrediction inserts a prediction. CreatedAt is set when zero.
func (s *SQLiteStorage) SavePrediction(ctx context.Context, rec *models.PredictionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("prediction id is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions (`+predictionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Area, rec.Rooms, rec.Toilets, rec.Floors, rec.District, rec.Ward,
		rec.Lat, rec.Lng, rec.Width, rec.Length,
		rec.PredictedPrice, rec.ConfidenceLower, rec.ConfidenceUpper, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPrediction(row scanner) (*models.PredictionRecord, error) {
	var rec models.PredictionRecord
	var district, ward sql.NullString
	err := row.Scan(&rec.ID, &rec.Area, &rec.Rooms, &rec.Toilets, &rec.Floors, &district, &ward,
		&rec.Lat, &rec.Lng, &rec.Width, &rec.Length,
		&rec.PredictedPrice, &rec.ConfidenceLower, &rec.ConfidenceUpper, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.District = district.String
	rec.Ward = ward.String
	return &rec, nil
}

// GetPrediction returns a prediction by ID.
func (s *SQLiteStorage) GetPrediction(ctx context.Context, id string) (*models.PredictionRecord, error) {
	rec, err := scanPrediction(s.db.QueryRowContext(ctx,
		`SELECT `+predictionColumns+` FROM predictions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: prediction %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListPredictions returns predictions newest first.
func (s *SQLiteStorage) ListPredictions(ctx context.Context, offset, limit int) ([]*models.PredictionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+predictionColumns+`
		 FROM predictions ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []*models.PredictionRecord{}
	for rows.Next() {
		rec, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// CountPredictions returns the number of stored predictions.
func (s *SQLiteStorage) CountPredictions(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM predictions`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
