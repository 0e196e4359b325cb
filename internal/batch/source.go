package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/jonathan/cv-synth/internal/types"
)

// PersonaSource draws the persona for one batch item. Implementations must be
// safe for concurrent use and deterministic for a given index and rnd.
type PersonaSource interface {
	Persona(ctx context.Context, index int, rnd *rand.Rand) (types.Persona, error)
}

// SliceSource cycles through a fixed list of personas. When names are set,
// items past the first cycle get a name drawn from them so repeated
// personas stay distinguishable.
type SliceSource struct {
	Personas   []types.Persona
	FirstNames []string
	LastNames  []string
}

func (s *SliceSource) Persona(ctx context.Context, index int, rnd *rand.Rand) (types.Persona, error) {
	if err := ctx.Err(); err != nil {
		return types.Persona{}, err
	}
	if len(s.Personas) == 0 {
		return types.Persona{}, fmt.Errorf("persona source is empty")
	}
	p := s.Personas[index%len(s.Personas)]
	if index >= len(s.Personas) && rnd != nil {
		if len(s.FirstNames) > 0 {
			p.FirstName = s.FirstNames[rnd.IntN(len(s.FirstNames))]
		}
		if len(s.LastNames) > 0 {
			p.LastName = s.LastNames[rnd.IntN(len(s.LastNames))]
		}
	}
	return p, nil
}

// personaFile is the on-disk shape read by LoadPersonas
type personaFile struct {
	Personas   []types.Persona `json:"personas"`
	FirstNames []string        `json:"first_names,omitempty"`
	LastNames  []string        `json:"last_names,omitempty"`
}

// LoadPersonas reads a JSON persona file into a SliceSource. Every persona
// is validated up front.
func LoadPersonas(path string) (*SliceSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read persona file %s: %w", path, err)
	}

	var f personaFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse persona file: %w", err)
	}
	if len(f.Personas) == 0 {
		return nil, fmt.Errorf("persona file %s has no personas", path)
	}
	for i := range f.Personas {
		if err := f.Personas[i].Validate(); err != nil {
			return nil, fmt.Errorf("persona %d: %w", i, err)
		}
	}
	return &SliceSource{Personas: f.Personas, FirstNames: f.FirstNames, LastNames: f.LastNames}, nil
}
