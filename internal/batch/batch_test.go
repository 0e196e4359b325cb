package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jonathan/cv-synth/internal/assembler"
	"github.com/jonathan/cv-synth/internal/checkpoint"
	"github.com/jonathan/cv-synth/internal/llm"
	"github.com/jonathan/cv-synth/internal/types"
)

type stubAssembler struct {
	fn    func(persona types.Persona, seed uint64) (*assembler.Outcome, error)
	calls atomic.Int32
}

func (s *stubAssembler) Assemble(ctx context.Context, persona types.Persona, seed uint64) (*assembler.Outcome, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.fn(persona, seed)
}

func accepted(persona types.Persona, seed uint64) (*assembler.Outcome, error) {
	return &assembler.Outcome{
		Accepted: true,
		Attempts: 1,
		Document: &types.Document{ID: fmt.Sprintf("doc-%d", seed), FirstName: persona.FirstName},
		Report:   &types.Report{Score: types.QualityScore{Overall: 88}, Passed: true},
	}, nil
}

type memorySink struct {
	mu   sync.Mutex
	docs map[string]*types.Document
}

func (m *memorySink) SaveDocument(_ context.Context, key string, doc *types.Document, _ *types.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs == nil {
		m.docs = make(map[string]*types.Document)
	}
	m.docs[key] = doc
	return nil
}

func personas() *SliceSource {
	return &SliceSource{
		Personas: []types.Persona{
			{Age: 34, ExperienceYears: 10, CareerLevel: types.LevelSenior, EducationStartYear: 2006, EducationDuration: 9, Canton: "ZH", Occupation: "Informatiker", FirstName: "Laura", LastName: "Meier"},
			{Age: 25, ExperienceYears: 3, CareerLevel: types.LevelJunior, EducationStartYear: 2016, EducationDuration: 4, Canton: "TI", Occupation: "Cuoco", Language: "it", FirstName: "Marco", LastName: "Rossi"},
		},
		FirstNames: []string{"Anna", "Nina"},
		LastNames:  []string{"Keller", "Frei"},
	}
}

func TestRun_AllAccepted(t *testing.T) {
	asm := &stubAssembler{fn: accepted}
	sink := &memorySink{}
	store := checkpoint.NewMemoryStore()

	r := New(personas(), asm, Options{Count: 6, Workers: 3, Seed: 1, Store: store, Sink: sink}, nil, zaptest.NewLogger(t))
	results, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 6)

	for i, res := range results {
		assert.Equal(t, i, res.Index)
		assert.Equal(t, StatusAccepted, res.Status)
		assert.Equal(t, 88.0, res.Score)
		id, ok := store.DocumentID(res.Key)
		assert.True(t, ok)
		assert.Equal(t, res.DocumentID, id)
	}
	assert.Equal(t, Summary{Total: 6, Accepted: 6}, Summarize(results))
	assert.Len(t, sink.docs, 6)
	assert.Equal(t, 6.0, testutil.ToFloat64(r.Metrics().Accepted))
}

func TestRun_ResumesFromCheckpoint(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	opts := Options{Count: 4, Workers: 2, Seed: 9, Store: store}

	first := &stubAssembler{fn: accepted}
	_, err := New(personas(), first, opts, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(4), first.calls.Load())

	opts.Count = 6
	second := &stubAssembler{fn: accepted}
	r := New(personas(), second, opts, nil, nil)
	results, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), second.calls.Load())
	assert.Equal(t, Summary{Total: 6, Accepted: 2, Skipped: 4}, Summarize(results))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.Metrics().Skipped))
}

func TestRun_RejectedAndFailed(t *testing.T) {
	asm := &stubAssembler{fn: func(persona types.Persona, seed uint64) (*assembler.Outcome, error) {
		switch persona.Occupation {
		case "Cuoco":
			return &assembler.Outcome{
				Attempts: 3,
				Rejections: []assembler.Rejection{
					{Attempt: 1, Stage: assembler.StageGeneration, Reasons: []string{"bad json"}},
					{Attempt: 3, Stage: assembler.StageQuality, Reasons: []string{"score"}},
				},
			}, nil
		default:
			return nil, &llm.RetryExhaustedError{Attempts: 3, Cause: errors.New("503")}
		}
	}}

	r := New(personas(), asm, Options{Count: 4, Workers: 2}, nil, zaptest.NewLogger(t))
	results, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 4, Rejected: 2, Failed: 2}, Summarize(results))
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Contains(t, results[0].Error, "retry exhausted")
	assert.Equal(t, StatusRejected, results[1].Status)
	assert.Len(t, results[1].Rejections, 2)

	m := r.Metrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Rejected.WithLabelValues("quality")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Failed))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Retries))
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	asm := &stubAssembler{fn: accepted}
	_, err := New(personas(), asm, Options{Count: 10}, nil, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type failingSink struct{}

func (failingSink) SaveDocument(context.Context, string, *types.Document, *types.Report) error {
	return errors.New("connection refused")
}

func TestRun_SinkFailureAborts(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	asm := &stubAssembler{fn: accepted}
	_, err := New(personas(), asm, Options{Count: 3, Workers: 1, Sink: failingSink{}, Store: store}, nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 0, store.Len())
}

func TestRun_IsReproducible(t *testing.T) {
	run := func() []Result {
		asm := &stubAssembler{fn: accepted}
		results, err := New(personas(), asm, Options{Count: 5, Workers: 5, Seed: 42}, nil, nil).Run(context.Background())
		require.NoError(t, err)
		return results
	}
	a, b := run(), run()
	for i := range a {
		assert.Equal(t, a[i].Key, b[i].Key)
		assert.Equal(t, a[i].DocumentID, b[i].DocumentID)
		assert.Equal(t, a[i].Document.FirstName, b[i].Document.FirstName)
	}
}

func TestMetrics_RetryHook(t *testing.T) {
	m := NewMetrics()
	hook := m.RetryHook()
	hook(1, errors.New("429"))
	hook(2, errors.New("429"))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LLMRetries))
}

func TestItemSeed(t *testing.T) {
	seen := make(map[uint64]bool)
	for i := 0; i < 1000; i++ {
		s := ItemSeed(7, i)
		assert.False(t, seen[s])
		seen[s] = true
	}
	assert.Equal(t, ItemSeed(7, 3), ItemSeed(7, 3))
	assert.NotEqual(t, ItemSeed(7, 3), ItemSeed(8, 3))
}

func TestNaturalKey(t *testing.T) {
	p := types.Persona{Age: 41, CareerLevel: types.LevelLead, Canton: "BE", Occupation: "Kaufmann/Kauffrau EFZ"}
	assert.Equal(t, "kaufmann-kauffrau-efz-be-lead-41-000012", NaturalKey(p, 12))

	p = types.Persona{Age: 30, CareerLevel: types.LevelMid, Occupation: "Bäcker-Konditor"}
	assert.Equal(t, "baecker-konditor-ch-mid-30-000000", NaturalKey(p, 0))

	assert.Equal(t, "unknown-ch-junior-20-000001", NaturalKey(types.Persona{Age: 20, CareerLevel: types.LevelJunior}, 1))
}

func TestSliceSource(t *testing.T) {
	src := personas()
	ctx := context.Background()

	p, err := src.Persona(ctx, 1, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, "Marco", p.FirstName)

	p, err = src.Persona(ctx, 2, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, "Informatiker", p.Occupation)
	assert.Contains(t, []string{"Anna", "Nina"}, p.FirstName)
	assert.Contains(t, []string{"Keller", "Frei"}, p.LastName)

	_, err = (&SliceSource{}).Persona(ctx, 0, nil)
	assert.Error(t, err)
}

func TestLoadPersonas(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "personas.json")
	require.NoError(t, os.WriteFile(good, []byte(`{
		"personas": [{"age": 34, "experience_years": 10, "career_level": "senior",
			"education_start_year": 2006, "education_duration": 9, "occupation": "Informatiker"}],
		"first_names": ["Anna"]
	}`), 0644))

	src, err := LoadPersonas(good)
	require.NoError(t, err)
	require.Len(t, src.Personas, 1)
	assert.Equal(t, []string{"Anna"}, src.FirstNames)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"personas": [{"age": 70, "career_level": "senior", "education_start_year": 2000, "education_duration": 3}]}`), 0644))
	_, err = LoadPersonas(bad)
	assert.ErrorContains(t, err, "persona 0")

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"personas": []}`), 0644))
	_, err = LoadPersonas(empty)
	assert.ErrorContains(t, err, "no personas")

	_, err = LoadPersonas(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to read persona file")
}
