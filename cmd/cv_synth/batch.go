package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/cv-synth/internal/assembler"
	"github.com/jonathan/cv-synth/internal/batch"
	"github.com/jonathan/cv-synth/internal/checkpoint"
	"github.com/jonathan/cv-synth/internal/companies"
	"github.com/jonathan/cv-synth/internal/db"
	"github.com/jonathan/cv-synth/internal/llm"
	"github.com/jonathan/cv-synth/internal/observability"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate CV documents for many personas",
	Long: "Runs the assembler over personas from --personas with a fixed-size worker pool. " +
		"Accepted documents are written as JSON lines and, when a database is configured, stored. " +
		"With a Redis URL configured, a rerun with the same --run-id skips accepted items.",
	RunE: runBatch,
}

var (
	batchPersonas  string
	batchCompanies string
	batchCount     int
	batchWorkers   int
	batchSeed      uint64
	batchRunID     string
	batchOutput    string
	batchRPS       float64
	batchNow       string
)

// checkpointTTL bounds how long a run can be resumed
const checkpointTTL = 7 * 24 * time.Hour

// newLLMClient is replaced in tests
var newLLMClient = func(ctx context.Context, provider, apiKey string) (llm.Client, error) {
	p, err := llm.ParseProvider(provider)
	if err != nil {
		return nil, err
	}
	return llm.NewClient(ctx, llm.ConfigFor(p), apiKey)
}

func init() {
	f := batchCmd.Flags()
	f.StringVarP(&batchPersonas, "personas", "p", "", "Path to persona JSON file (required)")
	f.StringVar(&batchCompanies, "companies", "", "Path to a company directory JSON file; ignored when a database is configured")
	f.IntVarP(&batchCount, "count", "n", 10, "Number of documents to generate")
	f.IntVar(&batchWorkers, "workers", 0, "Concurrent workers; 0 uses the config value")
	f.Uint64Var(&batchSeed, "seed", 0, "Run seed; 0 uses the config seed or the clock")
	f.StringVar(&batchRunID, "run-id", "", "Checkpoint run ID (new UUID if empty)")
	f.StringVarP(&batchOutput, "out", "o", "", "Path to output JSON lines file (stdout if empty)")
	f.Float64Var(&batchRPS, "rps", 2, "Maximum LLM requests per second across workers; 0 disables pacing")
	f.StringVar(&batchNow, "now", "", "Override today as YYYY-MM")

	if err := batchCmd.MarkFlagRequired("personas"); err != nil {
		panic(fmt.Sprintf("failed to mark personas flag as required: %v", err))
	}

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	source, err := batch.LoadPersonas(batchPersonas)
	if err != nil {
		return err
	}
	now, err := parseNow(batchNow)
	if err != nil {
		return err
	}
	r, err := loadRules()
	if err != nil {
		return err
	}

	runID := batchRunID
	if runID == "" {
		runID = uuid.NewString()
	}
	seed := resolveSeed(batchSeed)
	workers := batchWorkers
	if workers == 0 {
		workers = cfg.Workers
	}
	log := logger.With(zap.String("run_id", runID))

	metrics := batch.NewMetrics()
	inner, err := newLLMClient(ctx, cfg.LLMProvider, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	client := llm.NewRetryClient(inner, llm.DefaultRetryConfig(),
		llm.WithLimiter(llm.NewLimiter(batchRPS, workers)),
		llm.WithLogger(log),
		llm.WithRetryHook(metrics.RetryHook()),
	)
	defer func() { _ = client.Close() }()

	opts := batch.Options{Count: batchCount, Workers: workers, Seed: seed}
	var directory companies.Directory
	var occupations assembler.OccupationSource

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
		directory, occupations, opts.Sink = database, database, database
	} else if batchCompanies != "" {
		var list []companies.Company
		if err := readJSON(batchCompanies, &list); err != nil {
			return err
		}
		directory = companies.NewMemoryDirectory(list)
	}

	if cfg.RedisURL != "" {
		rc, err := checkpoint.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		store := checkpoint.NewRedisStore(rc, runID, checkpointTTL)
		defer func() { _ = store.Close() }()
		if err := store.Ping(ctx); err != nil {
			return err
		}
		opts.Store = store
	} else {
		opts.Store = checkpoint.NewMemoryStore()
	}

	asm := assembler.New(client, directory, assembler.Options{
		MaxAttempts: cfg.MaxAttempts,
		Now:         now,
		Rules:       r,
		Threshold:   cfg.QualityThreshold,
	}, log)
	if occupations != nil {
		asm = asm.WithOccupations(occupations)
	}

	log.Info("batch started",
		zap.Int("count", batchCount),
		zap.Int("workers", workers),
		zap.Uint64("seed", seed),
		zap.String("provider", cfg.LLMProvider),
	)
	results, runErr := batch.New(source, asm, opts, metrics, log).Run(ctx)

	if err := writeResults(cmd.OutOrStdout(), batchOutput, results); err != nil {
		return err
	}
	observability.NewPrinter(cmd.ErrOrStderr()).PrintBatchSummary(batch.Summarize(results))
	return runErr
}

// batchLine is one JSON line of batch output
type batchLine struct {
	batch.Result
	Document any `json:"document,omitempty"`
}

// writeResults writes one JSON object per processed item
func writeResults(w io.Writer, path string, results []batch.Result) error {
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, res := range results {
		if res.Key == "" {
			// never started
			continue
		}
		line := batchLine{Result: res}
		if res.Document != nil {
			line.Document = res.Document
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to write result %d: %w", res.Index, err)
		}
	}
	return bw.Flush()
}
