package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/cv-synth/internal/timeline"
	"github.com/jonathan/cv-synth/internal/types"
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Build, validate and repair a CV timeline for a persona",
	Long: "Calculates education, job and gap periods for the persona given by flags, then validates " +
		"and auto-fixes them. With --periods an existing period list is validated and fixed instead.",
	RunE: runTimeline,
}

var (
	timelinePersona  types.Persona
	timelineLevel    string
	timelinePeriods  string
	timelineSeed     uint64
	timelineNow      string
	timelineOutput   string
	timelineNoRepair bool
)

// timelineOutputDoc is the JSON written by the timeline command
type timelineOutputDoc struct {
	Persona types.Persona         `json:"persona"`
	Seed    uint64                `json:"seed"`
	Summary timeline.Summary      `json:"summary"`
	Periods []types.Period        `json:"periods"`
	Issues  []types.TimelineIssue `json:"issues"`
	Changes []timeline.Change     `json:"changes,omitempty"`
}

func init() {
	f := timelineCmd.Flags()
	f.IntVar(&timelinePersona.Age, "age", 0, "Persona age, 18 to 65 (required)")
	f.IntVar(&timelinePersona.ExperienceYears, "experience", 0, "Years of work experience")
	f.StringVar(&timelineLevel, "level", "", "Career level: junior, mid, senior or lead (required)")
	f.IntVar(&timelinePersona.EducationStartYear, "education-start", 0, "Year education started (required)")
	f.IntVar(&timelinePersona.EducationDuration, "education-duration", 3, "Education duration in years")
	f.StringVar(&timelinePersona.Canton, "canton", "", "Two-letter canton code")
	f.StringVar(&timelinePersona.Occupation, "occupation", "", "Occupation title")
	f.StringVar(&timelinePersona.Language, "language", "de", "Label language: de, fr, it or en")
	f.StringVar(&timelinePeriods, "periods", "", "Path to a JSON period list to validate instead of calculating one")
	f.Uint64Var(&timelineSeed, "seed", 0, "Random seed; 0 uses the config seed or the clock")
	f.StringVar(&timelineNow, "now", "", "Override today as YYYY-MM")
	f.StringVarP(&timelineOutput, "out", "o", "", "Path to output JSON file (stdout if empty)")
	f.BoolVar(&timelineNoRepair, "no-repair", false, "Only validate, do not auto-fix")

	for _, name := range []string{"age", "level", "education-start"} {
		if err := timelineCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}

	rootCmd.AddCommand(timelineCmd)
}

func runTimeline(cmd *cobra.Command, _ []string) error {
	persona := timelinePersona
	level, err := types.ParseCareerLevel(timelineLevel)
	if err != nil {
		return err
	}
	persona.CareerLevel = level
	if err := persona.Validate(); err != nil {
		return fmt.Errorf("invalid persona: %w", err)
	}

	now, err := parseNow(timelineNow)
	if err != nil {
		return err
	}
	r, err := loadRules()
	if err != nil {
		return err
	}
	seed := resolveSeed(timelineSeed)
	opts := timeline.Options{Rand: timeline.NewRand(seed), Now: now, Rules: r, Language: persona.Language}

	var periods []types.Period
	if timelinePeriods != "" {
		if err := readJSON(timelinePeriods, &periods); err != nil {
			return err
		}
	} else {
		periods, err = timeline.Calculate(persona, opts)
		if err != nil {
			var infeasible *timeline.InfeasibleError
			if errors.As(err, &infeasible) {
				if p := printer(cmd); p != nil {
					p.PrintTimelineIssues(infeasible.Issues)
				}
			}
			return err
		}
	}

	out := timelineOutputDoc{Persona: persona, Seed: seed}
	var fixErr error
	if timelineNoRepair {
		out.Periods = periods
		out.Issues = timeline.Validate(timeline.Input{Persona: &persona, Periods: periods}, opts)
		if timeline.HasErrors(out.Issues) {
			fixErr = &timeline.UnfixableError{Issues: out.Issues}
		}
	} else {
		result, err := timeline.ValidateAndFix(persona, periods, opts)
		var unfixable *timeline.UnfixableError
		if err != nil && !errors.As(err, &unfixable) {
			return err
		}
		fixErr = err
		out.Periods, out.Issues, out.Changes = result.Periods, result.Issues, result.Changes
	}
	out.Summary = timeline.Summarize(out.Periods, now)

	logger.Debug("timeline built",
		zap.Uint64("seed", seed),
		zap.Int("periods", len(out.Periods)),
		zap.Int("issues", len(out.Issues)),
		zap.Int("changes", len(out.Changes)),
	)

	if p := printer(cmd); p != nil {
		p.PrintTimeline(out.Periods, now)
		p.PrintTimelineIssues(out.Issues)
	}

	if err := writeJSON(cmd.OutOrStdout(), timelineOutput, out); err != nil {
		return err
	}
	if fixErr != nil {
		return fmt.Errorf("timeline has unresolved issues: %w", fixErr)
	}
	return nil
}
