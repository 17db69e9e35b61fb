package pricing

import (
	"fmt"
	"sort"
)

// Model describes a chat model and its per-million-token prices in USD.
type Model struct {
	ID                   string
	DisplayName          string
	InputCostPerMillion  float64
	OutputCostPerMillion float64
	DefaultMaxTokens     int
	Description          string
}

const DefaultModelID = "claude-3-5-haiku-latest"

var builtinModels = []Model{
	{
		ID:                   "claude-3-5-haiku-latest",
		DisplayName:          "Claude 3.5 Haiku",
		InputCostPerMillion:  1.00,
		OutputCostPerMillion: 5.00,
		DefaultMaxTokens:     2048,
		Description:          "Fast and efficient model for everyday tasks.",
	},
	{
		ID:                   "claude-3-7-sonnet-latest",
		DisplayName:          "Claude 3.7 Sonnet",
		InputCostPerMillion:  5.00,
		OutputCostPerMillion: 20.00,
		DefaultMaxTokens:     4096,
		Description:          "Powerful model with advanced reasoning capabilities.",
	},
	{
		ID:                   "claude-3-5-sonnet-latest",
		DisplayName:          "Claude 3.5 Sonnet",
		InputCostPerMillion:  3.00,
		OutputCostPerMillion: 15.00,
		DefaultMaxTokens:     4096,
		Description:          "Balanced performance and cost.",
	},
	{
		ID:                   "claude-3-opus-latest",
		DisplayName:          "Claude 3 Opus",
		InputCostPerMillion:  15.00,
		OutputCostPerMillion: 75.00,
		DefaultMaxTokens:     4096,
		Description:          "Most powerful model for complex tasks.",
	},
	{
		ID:                   "claude-3-haiku-20240307",
		DisplayName:          "Claude 3 Haiku",
		InputCostPerMillion:  0.25,
		OutputCostPerMillion: 1.25,
		DefaultMaxTokens:     2048,
		Description:          "Fastest and most cost-effective.",
	},
}

// Registry is an immutable id -> Model lookup table.
type Registry struct {
	models map[string]Model
}

// NewRegistry builds a registry from models. Later duplicates win.
func NewRegistry(models ...Model) *Registry {
	r := &Registry{models: make(map[string]Model, len(models))}
	for _, m := range models {
		r.models[m.ID] = m
	}
	return r
}

// DefaultRegistry returns the built-in Anthropic model table.
func DefaultRegistry() *Registry {
	return NewRegistry(builtinModels...)
}

func (r *Registry) Lookup(id string) (Model, bool) {
	m, ok := r.models[id]
	return m, ok
}

// Get is Lookup returning an error suitable for showing to the user.
func (r *Registry) Get(id string) (Model, error) {
	m, ok := r.models[id]
	if !ok {
		return Model{}, fmt.Errorf("model %q not found", id)
	}
	return m, nil
}

// List returns all models sorted by id.
func (r *Registry) List() []Model {
	out := make([]Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
