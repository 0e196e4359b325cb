// Package batch runs the assembler over many personas with a fixed-size
// worker pool, checkpointing accepted documents so a killed run can resume.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/cv-synth/internal/assembler"
	"github.com/jonathan/cv-synth/internal/checkpoint"
	"github.com/jonathan/cv-synth/internal/timeline"
	"github.com/jonathan/cv-synth/internal/types"
)

// Assembler is the part of *assembler.Assembler the pool needs
type Assembler interface {
	Assemble(ctx context.Context, persona types.Persona, seed uint64) (*assembler.Outcome, error)
}

// DocumentSink persists accepted documents
type DocumentSink interface {
	SaveDocument(ctx context.Context, key string, doc *types.Document, report *types.Report) error
}

// Status is the terminal state of one batch item
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Result is the terminal outcome of one batch item
type Result struct {
	Index      int                   `json:"index"`
	Key        string                `json:"key"`
	Status     Status                `json:"status"`
	DocumentID string                `json:"document_id,omitempty"`
	Attempts   int                   `json:"attempts,omitempty"`
	Score      float64               `json:"score,omitempty"`
	Rejections []assembler.Rejection `json:"rejections,omitempty"`
	Error      string                `json:"error,omitempty"`
	Document   *types.Document       `json:"-"`
}

// Summary counts results by status
type Summary struct {
	Total    int `json:"total"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Summarize counts results by status
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusAccepted:
			s.Accepted++
		case StatusRejected:
			s.Rejected++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

// Options configures a Runner
type Options struct {
	// Count is the number of personas to process
	Count int
	// Workers bounds concurrent assemblies. Zero means 4.
	Workers int
	// Seed makes the run reproducible; each item derives its own seed
	Seed uint64
	// Store, when set, skips items already accepted by an earlier run
	Store checkpoint.Store
	// Sink, when set, receives every accepted document
	Sink DocumentSink
}

// Runner is the worker pool
type Runner struct {
	source    PersonaSource
	assembler Assembler
	metrics   *Metrics
	logger    *zap.Logger
	opts      Options
}

// New creates a Runner. metrics and logger may be nil.
func New(source PersonaSource, asm Assembler, opts Options, metrics *Metrics, logger *zap.Logger) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{source: source, assembler: asm, metrics: metrics, logger: logger, opts: opts}
}

// Metrics returns the runner's counters
func (r *Runner) Metrics() *Metrics {
	return r.metrics
}

// Run processes Count items and returns their results in index order.
// Per-item generation errors become failed results; context cancellation
// and checkpoint or sink failures abort the run.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, r.opts.Count)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i := 0; i < r.opts.Count; i++ {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := r.process(gCtx, i)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}

	s := Summarize(results)
	r.logger.Info("batch finished",
		zap.Int("total", s.Total),
		zap.Int("accepted", s.Accepted),
		zap.Int("rejected", s.Rejected),
		zap.Int("skipped", s.Skipped),
		zap.Int("failed", s.Failed),
	)
	return results, nil
}

func (r *Runner) process(ctx context.Context, index int) (Result, error) {
	seed := ItemSeed(r.opts.Seed, index)
	persona, err := r.source.Persona(ctx, index, timeline.NewRand(seed))
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("failed to draw persona %d: %w", index, err)
	}

	key := NaturalKey(persona, index)
	res := Result{Index: index, Key: key}
	log := r.logger.With(zap.Int("index", index), zap.String("key", key))

	if r.opts.Store != nil {
		done, err := r.opts.Store.IsDone(ctx, key)
		if err != nil {
			return Result{}, err
		}
		if done {
			res.Status = StatusSkipped
			r.metrics.Skipped.Inc()
			log.Debug("already done, skipping")
			return res, nil
		}
	}

	start := time.Now()
	out, err := r.assembler.Assemble(ctx, persona, seed)
	r.metrics.Duration.Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return Result{}, err
		}
		res.Status = StatusFailed
		res.Error = err.Error()
		r.metrics.Failed.Inc()
		log.Warn("assembly failed", zap.Error(err))
		return res, nil
	}

	res.Attempts = out.Attempts
	res.Rejections = out.Rejections
	if out.Attempts > 1 {
		r.metrics.Retries.Add(float64(out.Attempts - 1))
	}
	if out.Report != nil {
		res.Score = out.Report.Score.Overall
	}

	if !out.Accepted {
		res.Status = StatusRejected
		r.metrics.Rejected.WithLabelValues(string(finalStage(out))).Inc()
		log.Info("persona rejected", zap.Int("attempts", out.Attempts))
		return res, nil
	}

	res.Status = StatusAccepted
	res.DocumentID = out.Document.ID
	res.Document = out.Document

	if r.opts.Sink != nil {
		if err := r.opts.Sink.SaveDocument(ctx, key, out.Document, out.Report); err != nil {
			return Result{}, fmt.Errorf("failed to save document %s: %w", key, err)
		}
	}
	if r.opts.Store != nil {
		if err := r.opts.Store.MarkDone(ctx, key, out.Document.ID); err != nil {
			return Result{}, err
		}
	}
	r.metrics.Accepted.Inc()
	log.Info("document accepted", zap.String("document_id", out.Document.ID), zap.Float64("score", res.Score))
	return res, nil
}

func finalStage(out *assembler.Outcome) assembler.Stage {
	if n := len(out.Rejections); n > 0 {
		return out.Rejections[n-1].Stage
	}
	return assembler.StageQuality
}

// ItemSeed derives a well-spread per-item seed from the run seed (splitmix64)
func ItemSeed(seed uint64, index int) uint64 {
	z := seed + uint64(index+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// NaturalKey identifies a batch item across runs, e.g.
// "informatiker-zh-senior-34-000012"
func NaturalKey(p types.Persona, index int) string {
	occupation := slug(p.Occupation)
	if occupation == "" {
		occupation = "unknown"
	}
	canton := strings.ToLower(p.Canton)
	if canton == "" {
		canton = "ch"
	}
	return fmt.Sprintf("%s-%s-%s-%d-%06d", occupation, canton, p.CareerLevel, p.Age, index)
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case r == 'ä':
			b.WriteString("ae")
			dash = false
		case r == 'ö':
			b.WriteString("oe")
			dash = false
		case r == 'ü':
			b.WriteString("ue")
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
