package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/cv-synth/internal/types"
)

// GetOccupation looks an occupation up by title, ignoring case and
// punctuation. Returns nil, nil when it is unknown.
func (db *DB) GetOccupation(ctx context.Context, title string) (*types.Occupation, error) {
	var o types.Occupation
	err := db.pool.QueryRow(ctx,
		`SELECT id, title, description, industry, activities, skills
		 FROM occupations WHERE title_normalized = $1`,
		normalizeName(title),
	).Scan(&o.ID, &o.Title, &o.Description, &o.Industry, &o.Activities, &o.Skills)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get occupation %s: %w", title, err)
	}
	return &o, nil
}

// UpsertOccupation stores reference data for one occupation
func (db *DB) UpsertOccupation(ctx context.Context, o *types.Occupation) error {
	activities, skills := o.Activities, o.Skills
	if activities == nil {
		activities = []string{}
	}
	if skills == nil {
		skills = []string{}
	}
	id := o.ID
	if id == "" {
		id = normalizeName(o.Title)
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO occupations (id, title, title_normalized, description, industry, activities, skills)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE
		 SET title = $2, title_normalized = $3, description = $4, industry = $5, activities = $6, skills = $7`,
		id, o.Title, normalizeName(o.Title), o.Description, o.Industry, activities, skills,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert occupation %s: %w", o.Title, err)
	}
	return nil
}
