package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/cv-synth/internal/quality"
	"github.com/jonathan/cv-synth/internal/types"
)

// ErrQualityGate is returned when a scored document does not pass
var ErrQualityGate = errors.New("document failed the quality gate")

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a CV document against the quality gate",
	Long:  "Scores a CV document JSON file on completeness, realism, language and achievements and writes the quality report.",
	RunE:  runScore,
}

var (
	scoreInput     string
	scoreOutput    string
	scoreThreshold float64
	scoreNow       string
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreInput, "in", "i", "", "Path to CV document JSON file (required)")
	scoreCmd.Flags().StringVarP(&scoreOutput, "out", "o", "", "Path to output report JSON file (stdout if empty)")
	scoreCmd.Flags().Float64Var(&scoreThreshold, "threshold", 0, "Pass threshold; 0 uses the config value")
	scoreCmd.Flags().StringVar(&scoreNow, "now", "", "Override today as YYYY-MM")

	if err := scoreCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	var doc types.Document
	if err := readJSON(scoreInput, &doc); err != nil {
		return err
	}

	now, err := parseNow(scoreNow)
	if err != nil {
		return err
	}
	r, err := loadRules()
	if err != nil {
		return err
	}
	threshold := scoreThreshold
	if threshold == 0 && cfg != nil {
		threshold = cfg.QualityThreshold
	}

	report := quality.Score(&doc, quality.Options{Now: now, Rules: r, Threshold: threshold})
	logger.Debug("document scored",
		zap.String("in", scoreInput),
		zap.Float64("overall", report.Score.Overall),
		zap.Bool("passed", report.Passed),
	)

	if p := printer(cmd); p != nil {
		p.PrintReport(report)
	}
	if err := writeJSON(cmd.OutOrStdout(), scoreOutput, report); err != nil {
		return err
	}
	if !report.Passed {
		return fmt.Errorf("%w: overall %.1f, threshold %.1f, %d error(s)",
			ErrQualityGate, report.Score.Overall, report.Threshold, report.ErrorCount)
	}
	return nil
}
