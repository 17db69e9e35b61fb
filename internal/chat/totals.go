package chat

import (
	"fmt"

	"github.com/namikmesic/claude-tty/internal/render"
)

// Totals accumulates usage over a session.
type Totals struct {
	Exchanges    int
	Failed       int
	Unmetered    int // completed without usage
	InputTokens  int
	OutputTokens int
	Cost         float64
}

func (t *Totals) Add(stats *render.Stats) {
	t.Exchanges++
	if stats == nil {
		t.Unmetered++
		return
	}
	t.InputTokens += stats.InputTokens
	t.OutputTokens += stats.OutputTokens
	t.Cost += stats.Cost
}

func (t *Totals) Fail() { t.Failed++ }

func (t Totals) String() string {
	s := fmt.Sprintf("%d exchanges | Tokens: %d in, %d out | Cost: $%.6f",
		t.Exchanges, t.InputTokens, t.OutputTokens, t.Cost)
	if t.Unmetered > 0 {
		s += fmt.Sprintf(" | %d without usage", t.Unmetered)
	}
	if t.Failed > 0 {
		s += fmt.Sprintf(" | %d failed", t.Failed)
	}
	return s
}
