package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/cv-synth/internal/companies"
	"github.com/jonathan/cv-synth/internal/db"
	"github.com/jonathan/cv-synth/internal/types"
)

var loadReferenceCmd = &cobra.Command{
	Use:   "load-reference",
	Short: "Create tables and load company and occupation reference data",
	Long:  "Applies the database schema, then upserts companies and occupations from JSON files. Requires database_url.",
	RunE:  runLoadReference,
}

var (
	loadReferenceCompanies   string
	loadReferenceOccupations string
)

func init() {
	loadReferenceCmd.Flags().StringVar(&loadReferenceCompanies, "companies", "", "Path to company list JSON file")
	loadReferenceCmd.Flags().StringVar(&loadReferenceOccupations, "occupations", "", "Path to occupation list JSON file")

	rootCmd.AddCommand(loadReferenceCmd)
}

func runLoadReference(cmd *cobra.Command, _ []string) error {
	if cfg.DatabaseURL == "" {
		return errors.New("database_url is required (set CVSYNTH_DATABASE_URL or DATABASE_URL)")
	}

	// Read inputs before touching the database
	var companyList []companies.Company
	if loadReferenceCompanies != "" {
		if err := readJSON(loadReferenceCompanies, &companyList); err != nil {
			return err
		}
	}
	var occupationList []types.Occupation
	if loadReferenceOccupations != "" {
		if err := readJSON(loadReferenceOccupations, &occupationList); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}

	loadedCompanies, loadedOccupations, skipped := 0, 0, 0
	for _, c := range companyList {
		industry, ok := companies.ParseIndustry(string(c.Industry))
		if !ok || c.Name == "" {
			logger.Warn("skipping company", zap.String("name", c.Name), zap.String("industry", string(c.Industry)))
			skipped++
			continue
		}
		c.Industry = industry
		if err := database.UpsertCompany(ctx, c); err != nil {
			return err
		}
		loadedCompanies++
	}
	for i := range occupationList {
		if occupationList[i].Title == "" {
			skipped++
			continue
		}
		if err := database.UpsertOccupation(ctx, &occupationList[i]); err != nil {
			return err
		}
		loadedOccupations++
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d companies and %d occupations (%d skipped)\n",
		loadedCompanies, loadedOccupations, skipped)
	return nil
}
