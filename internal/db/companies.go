package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/cv-synth/internal/companies"
)

// ByRegionAndIndustry returns companies of industry registered in canton
// region, ordered by name. It satisfies companies.Directory.
func (db *DB) ByRegionAndIndustry(ctx context.Context, region string, industry companies.Industry) ([]companies.Company, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT name, canton, industry, size_band
		 FROM companies
		 WHERE industry = $1 AND canton = $2
		 ORDER BY name`,
		string(industry), strings.ToUpper(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies in %s/%s: %w", region, industry, err)
	}
	return collectCompanies(rows)
}

// ByIndustry returns companies of industry in any canton, ordered by name
func (db *DB) ByIndustry(ctx context.Context, industry companies.Industry) ([]companies.Company, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT name, canton, industry, size_band
		 FROM companies
		 WHERE industry = $1
		 ORDER BY name`,
		string(industry),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies in %s: %w", industry, err)
	}
	return collectCompanies(rows)
}

// CompaniesByRegionAndIndustry is ByRegionAndIndustry for callers outside the
// Directory abstraction
func (db *DB) CompaniesByRegionAndIndustry(ctx context.Context, region string, industry companies.Industry) ([]companies.Company, error) {
	return db.ByRegionAndIndustry(ctx, region, industry)
}

// CompaniesByIndustry is ByIndustry for callers outside the Directory abstraction
func (db *DB) CompaniesByIndustry(ctx context.Context, industry companies.Industry) ([]companies.Company, error) {
	return db.ByIndustry(ctx, industry)
}

// UpsertCompany inserts a company or updates the one with the same
// normalized name
func (db *DB) UpsertCompany(ctx context.Context, c companies.Company) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO companies (name, name_normalized, canton, industry, size_band)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (name_normalized) DO UPDATE
		 SET name = $1, canton = $3, industry = $4, size_band = $5`,
		c.Name, normalizeName(c.Name), strings.ToUpper(c.Canton), string(c.Industry), c.SizeBand,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert company %s: %w", c.Name, err)
	}
	return nil
}

func collectCompanies(rows pgx.Rows) ([]companies.Company, error) {
	defer rows.Close()

	var out []companies.Company
	for rows.Next() {
		var c companies.Company
		var industry string
		if err := rows.Scan(&c.Name, &c.Canton, &industry, &c.SizeBand); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		c.Industry = companies.Industry(industry)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate companies: %w", err)
	}
	return out, nil
}
