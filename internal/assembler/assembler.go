// Package assembler turns a persona into a scored CV document: it builds and
// repairs the timeline, resolves employers, generates the text through an LLM,
// filters implausible metrics and runs the quality gate, retrying a bounded
// number of times.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/cv-synth/internal/companies"
	"github.com/jonathan/cv-synth/internal/dates"
	"github.com/jonathan/cv-synth/internal/llm"
	"github.com/jonathan/cv-synth/internal/metrics"
	"github.com/jonathan/cv-synth/internal/quality"
	"github.com/jonathan/cv-synth/internal/rules"
	"github.com/jonathan/cv-synth/internal/schemas"
	"github.com/jonathan/cv-synth/internal/timeline"
	"github.com/jonathan/cv-synth/internal/types"
)

// maxFeedbackReasons caps how many rejection reasons are fed into the next prompt
const maxFeedbackReasons = 5

// OccupationSource looks up occupation reference data. A missing occupation
// is (nil, nil).
type OccupationSource interface {
	GetOccupation(ctx context.Context, title string) (*types.Occupation, error)
}

// Stage names the pipeline step that rejected an attempt
type Stage string

const (
	StagePersona    Stage = "persona"
	StageTimeline   Stage = "timeline"
	StageGeneration Stage = "generation"
	StageSchema     Stage = "schema"
	StageQuality    Stage = "quality"
)

// Rejection records why one attempt was discarded
type Rejection struct {
	Attempt int      `json:"attempt"`
	Stage   Stage    `json:"stage"`
	Reasons []string `json:"reasons"`
}

// Outcome is the terminal result of assembling one persona. Document and
// Report hold the last scored attempt, accepted or not.
type Outcome struct {
	Document   *types.Document   `json:"document,omitempty"`
	Report     *types.Report     `json:"report,omitempty"`
	Accepted   bool              `json:"accepted"`
	Attempts   int               `json:"attempts"`
	Rejections []Rejection       `json:"rejections,omitempty"`
	Changes    []timeline.Change `json:"changes,omitempty"`
}

// Options configures an Assembler. Zero values take defaults.
type Options struct {
	MaxAttempts   int
	BulletsPerJob int
	Now           dates.YearMonth
	Rules         *rules.Rules
	Threshold     float64
	Tier          llm.ModelTier
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BulletsPerJob <= 0 {
		o.BulletsPerJob = 3
	}
	if o.Now.IsZero() {
		o.Now = dates.Today()
	}
	if o.Rules == nil {
		o.Rules = rules.Default()
	}
	if o.Tier == "" {
		o.Tier = llm.TierStandard
	}
	return o
}

// Assembler is stateless across calls and safe for concurrent use when its
// collaborators are
type Assembler struct {
	client      llm.Client
	directory   companies.Directory
	occupations OccupationSource
	metrics     *metrics.Validator
	logger      *zap.Logger
	opts        Options
}

// New creates an Assembler. directory and logger may be nil.
func New(client llm.Client, directory companies.Directory, opts Options, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	return &Assembler{
		client:    client,
		directory: directory,
		metrics:   metrics.NewValidator(opts.Rules),
		logger:    logger,
		opts:      opts,
	}
}

// WithOccupations enables occupation reference lookups
func (a *Assembler) WithOccupations(src OccupationSource) *Assembler {
	a.occupations = src
	return a
}

// Assemble runs up to MaxAttempts attempts for persona. Rejections are part
// of the Outcome; the error is reserved for context cancellation, storage
// failures and exhausted text generation.
func (a *Assembler) Assemble(ctx context.Context, persona types.Persona, seed uint64) (*Outcome, error) {
	log := a.logger.With(zap.String("occupation", persona.Occupation), zap.Uint64("seed", seed))
	out := &Outcome{}

	if err := persona.Validate(); err != nil {
		out.Rejections = append(out.Rejections, Rejection{Stage: StagePersona, Reasons: []string{err.Error()}})
		log.Info("persona rejected", zap.Error(err))
		return out, nil
	}

	occupation, err := a.lookupOccupation(ctx, persona.Occupation)
	if err != nil {
		return nil, err
	}

	var feedback []string
	for attempt := 1; attempt <= a.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out.Attempts = attempt

		rnd := timeline.NewRand(seed + uint64(attempt-1))
		tier := a.opts.Tier
		if attempt > 1 && attempt == a.opts.MaxAttempts {
			tier = llm.TierAdvanced
		}

		rejection, err := a.attempt(ctx, persona, occupation, rnd, tier, feedback, out)
		if err != nil {
			return nil, err
		}
		if rejection == nil {
			out.Accepted = true
			log.Info("document accepted",
				zap.Int("attempt", attempt),
				zap.Float64("score", out.Report.Score.Overall),
			)
			return out, nil
		}

		rejection.Attempt = attempt
		out.Rejections = append(out.Rejections, *rejection)
		feedback = rejection.Reasons
		log.Info("attempt rejected",
			zap.Int("attempt", attempt),
			zap.String("stage", string(rejection.Stage)),
			zap.Strings("reasons", rejection.Reasons),
		)
	}

	return out, nil
}

// attempt builds and scores one candidate. A nil rejection with a nil error
// means the document passed.
func (a *Assembler) attempt(ctx context.Context, persona types.Persona, occupation *types.Occupation,
	rnd *rand.Rand, tier llm.ModelTier, feedback []string, out *Outcome) (*Rejection, error) {
	topts := timeline.Options{Rand: rnd, Now: a.opts.Now, Rules: a.opts.Rules, Language: persona.Language}

	periods, err := timeline.Calculate(persona, topts)
	if err != nil {
		var infeasible *timeline.InfeasibleError
		if errors.As(err, &infeasible) {
			return &Rejection{Stage: StageTimeline, Reasons: issueMessages(infeasible.Issues)}, nil
		}
		return nil, err
	}

	fixed, err := timeline.ValidateAndFix(persona, periods, topts)
	if err != nil {
		var unfixable *timeline.UnfixableError
		if errors.As(err, &unfixable) {
			return &Rejection{Stage: StageTimeline, Reasons: issueMessages(unfixable.Issues)}, nil
		}
		return nil, err
	}
	out.Changes = fixed.Changes

	doc := skeleton(persona, fixed, rnd)
	if err := a.resolveEmployers(ctx, doc, persona, rnd); err != nil {
		return nil, err
	}

	content, err := a.generate(ctx, doc, occupation, tier, feedback)
	if err != nil {
		var genErr *GenerationError
		if errors.As(err, &genErr) {
			return &Rejection{Stage: StageGeneration, Reasons: []string{genErr.Error()}}, nil
		}
		return nil, err
	}
	a.apply(doc, content, occupation)

	if err := schemas.ValidateDocument(doc); err != nil {
		var verr *schemas.ValidationError
		if errors.As(err, &verr) {
			out.Document = doc
			return &Rejection{Stage: StageSchema, Reasons: fieldMessages(verr)}, nil
		}
		return nil, err
	}

	report := quality.Score(doc, quality.Options{Now: a.opts.Now, Rules: a.opts.Rules, Threshold: a.opts.Threshold})
	out.Document, out.Report = doc, report
	if report.Passed {
		return nil, nil
	}
	return &Rejection{Stage: StageQuality, Reasons: reportReasons(report)}, nil
}

func (a *Assembler) lookupOccupation(ctx context.Context, title string) (*types.Occupation, error) {
	if a.occupations == nil || title == "" {
		return nil, nil
	}
	occ, err := a.occupations.GetOccupation(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("failed to look up occupation %q: %w", title, err)
	}
	return occ, nil
}

// resolveEmployers assigns a distinct, occupation-compatible employer and a
// level-appropriate title to every job
func (a *Assembler) resolveEmployers(ctx context.Context, doc *types.Document, persona types.Persona, rnd *rand.Rand) error {
	resolver := companies.NewResolver(a.directory, rnd)
	used := make([]string, 0, len(doc.Jobs))
	for i := range doc.Jobs {
		job := &doc.Jobs[i]
		company, match, err := resolver.Resolve(ctx, persona.Occupation, persona.Canton, used)
		if err != nil {
			return err
		}
		used = append(used, company.Name)

		job.Company = company.Name
		job.Industry = string(company.Industry)
		job.Canton = company.Canton
		job.Position = PositionTitle(persona.Occupation, job.Level, doc.Language, rnd)

		a.logger.Debug("employer resolved",
			zap.Int("job", i+1),
			zap.String("company", company.Name),
			zap.String("match", string(match)),
		)
	}
	return nil
}

// skeleton builds the dated document before any text is generated
func skeleton(persona types.Persona, fixed *timeline.Result, rnd *rand.Rand) *types.Document {
	language := persona.Language
	if language == "" {
		language = "de"
	}

	doc := &types.Document{
		ID:              uuid.NewString(),
		FirstName:       persona.FirstName,
		LastName:        persona.LastName,
		Email:           EmailAddress(persona.FirstName, persona.LastName, rnd),
		Canton:          persona.Canton,
		Language:        language,
		Occupation:      persona.Occupation,
		Industry:        persona.Industry,
		Age:             persona.Age,
		ExperienceYears: persona.ExperienceYears,
		CareerLevel:     persona.CareerLevel,
		Education:       []types.Education{},
		Jobs:            fixed.Jobs,
		Gaps:            fixed.Gaps,
	}
	if doc.Jobs == nil {
		doc.Jobs = []types.Job{}
	}

	for _, p := range fixed.Periods {
		if p.Kind != types.PeriodEducation {
			continue
		}
		e := types.Education{Institution: p.Label, Start: p.Start}
		if p.End != nil {
			e.End = types.EndPtr(*p.End)
		}
		doc.Education = append(doc.Education, e)
	}
	sort.SliceStable(doc.Education, func(i, j int) bool {
		return doc.Education[i].Start.Before(doc.Education[j].Start)
	})
	return doc
}

func issueMessages(issues []types.TimelineIssue) []string {
	var out []string
	for _, issue := range issues {
		if issue.Severity == types.SeverityError {
			out = append(out, issue.Message)
		}
	}
	return out
}

func fieldMessages(verr *schemas.ValidationError) []string {
	out := make([]string, 0, len(verr.Errors))
	for _, e := range verr.Errors {
		out = append(out, e.Field+": "+e.Message)
	}
	return out
}

// reportReasons lists errors first, then the most expensive penalties
func reportReasons(report *types.Report) []string {
	var reasons []string
	for _, issue := range report.Timeline {
		if issue.Severity == types.SeverityError {
			reasons = append(reasons, issue.Message)
		}
	}

	issues := append([]types.QualityIssue(nil), report.Issues...)
	sort.SliceStable(issues, func(i, j int) bool {
		if (issues[i].Severity == types.SeverityError) != (issues[j].Severity == types.SeverityError) {
			return issues[i].Severity == types.SeverityError
		}
		return issues[i].Penalty > issues[j].Penalty
	})
	for _, issue := range issues {
		reasons = append(reasons, string(issue.Dimension)+": "+issue.Message)
	}

	if len(reasons) > maxFeedbackReasons {
		reasons = reasons[:maxFeedbackReasons]
	}
	if len(reasons) == 0 {
		reasons = []string{fmt.Sprintf("overall score %.1f below threshold %.1f", report.Score.Overall, report.Threshold)}
	}
	return reasons
}

func languageName(code string) string {
	switch strings.ToLower(code) {
	case "fr":
		return "French"
	case "it":
		return "Italian"
	case "en":
		return "English"
	default:
		return "Swiss German (Hochdeutsch with Swiss spelling, no ß)"
	}
}
