package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/cv-synth/internal/types"
)

// StoredDocument is an accepted document as persisted
type StoredDocument struct {
	NaturalKey string
	Document   types.Document
	Report     *types.Report
	Score      float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SaveDocument stores an accepted document under its natural key. Saving the
// same key again replaces the content.
func (db *DB) SaveDocument(ctx context.Context, key string, doc *types.Document, report *types.Report) error {
	content, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	var reportJSON []byte
	var score float64
	if report != nil {
		if reportJSON, err = json.Marshal(report); err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		score = report.Score.Overall
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO documents (natural_key, document_id, occupation, canton, career_level, score, content, report)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (natural_key) DO UPDATE
		 SET document_id = $2, occupation = $3, canton = $4, career_level = $5,
		     score = $6, content = $7, report = $8, updated_at = NOW()`,
		key, doc.ID, doc.Occupation, doc.Canton, string(doc.CareerLevel), score, content, reportJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", key, err)
	}
	return nil
}

// GetDocument retrieves a stored document by natural key. Returns nil, nil
// when none exists.
func (db *DB) GetDocument(ctx context.Context, key string) (*StoredDocument, error) {
	var (
		s          StoredDocument
		content    []byte
		reportJSON []byte
	)
	err := db.pool.QueryRow(ctx,
		`SELECT natural_key, score, content, report, created_at, updated_at
		 FROM documents WHERE natural_key = $1`,
		key,
	).Scan(&s.NaturalKey, &s.Score, &content, &reportJSON, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document %s: %w", key, err)
	}

	if err := json.Unmarshal(content, &s.Document); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document %s: %w", key, err)
	}
	if len(reportJSON) > 0 {
		s.Report = &types.Report{}
		if err := json.Unmarshal(reportJSON, s.Report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report %s: %w", key, err)
		}
	}
	return &s, nil
}

// CountDocuments returns the number of stored documents
func (db *DB) CountDocuments(ctx context.Context) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}
