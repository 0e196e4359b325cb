// Package timeline builds, checks and repairs the dated period sequence of a CV:
// education, employment and explained gaps, walking forward to today.
package timeline

import (
	"math/rand/v2"
	"time"

	"github.com/jonathan/cv-synth/internal/dates"
	"github.com/jonathan/cv-synth/internal/rules"
)

// Options carries the injected collaborators shared by the calculator,
// validator and auto-fix
type Options struct {
	// Rand drives sampling in the calculator. Nil means a time-seeded source.
	Rand *rand.Rand
	// Now is "today". Zero means the current month.
	Now dates.YearMonth
	// Rules are the tuning tables. Nil means the embedded defaults.
	Rules *rules.Rules
	// Language selects filler labels (de, fr, it, en). Empty means de.
	Language string
}

// NewRand returns a reproducible source for the given seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func (o Options) withDefaults() Options {
	if o.Rand == nil {
		o.Rand = NewRand(uint64(time.Now().UnixNano()))
	}
	if o.Now.IsZero() {
		o.Now = dates.Today()
	}
	if o.Rules == nil {
		o.Rules = rules.Default()
	}
	if o.Language == "" {
		o.Language = "de"
	}
	return o
}
