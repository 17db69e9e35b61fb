package render

import (
	"github.com/namikmesic/claude-tty/internal/pricing"
	"github.com/namikmesic/claude-tty/internal/stream"
)

// Renderer is implemented by the UI shell. The driver calls the hooks in a
// fixed order: Thinking, then at most one ClearThinking, any number of
// Update calls, and finally a single Final.
type Renderer interface {
	Thinking()
	ClearThinking()
	Update(text string)
	Final(text string, stats *Stats)
}

// Driver turns accumulator snapshots into renderer calls for one exchange.
type Driver struct {
	r        Renderer
	model    pricing.Model
	thinking bool
	updates  int
	final    bool
	stats    *Stats
}

func NewDriver(r Renderer, m pricing.Model) *Driver {
	return &Driver{r: r, model: m}
}

// Start shows the thinking indicator. Call it before the request is sent.
func (d *Driver) Start() {
	if d.thinking || d.final {
		return
	}
	d.thinking = true
	d.r.Thinking()
}

// Observe is called after every accumulator step. Steps that did not change
// the text or usage are not rendered.
func (d *Driver) Observe(resp stream.Response, changed bool) {
	if !changed || d.final {
		return
	}
	d.clearThinking()
	d.updates++
	d.r.Update(resp.Text)
}

// Finish renders the final frame once.
func (d *Driver) Finish(resp stream.Response) {
	if d.final {
		return
	}
	d.clearThinking()
	d.final = true
	d.stats = StatsFor(d.model, resp)
	d.r.Final(resp.Text, d.stats)
}

// Abort removes the thinking indicator without a final frame. Use it when
// the exchange failed.
func (d *Driver) Abort() {
	d.clearThinking()
}

// Updates reports how many Update calls were made.
func (d *Driver) Updates() int { return d.updates }

// Stats returns the usage passed to Final, if any.
func (d *Driver) Stats() *Stats { return d.stats }

func (d *Driver) clearThinking() {
	if !d.thinking {
		return
	}
	d.thinking = false
	d.r.ClearThinking()
}

// StatsFor returns the usage summary for resp, or nil when either token
// count was never reported.
func StatsFor(m pricing.Model, resp stream.Response) *Stats {
	cost, ok := pricing.Cost(m, resp.InputTokens, resp.OutputTokens)
	if !ok {
		return nil
	}
	return &Stats{
		InputTokens:  *resp.InputTokens,
		OutputTokens: *resp.OutputTokens,
		Cost:         cost,
	}
}
