package stream

// State is the accumulator's position in the exchange lifecycle.
type State int

const (
	Idle State = iota
	Streaming
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Response is the folded view of one exchange so far.
type Response struct {
	Text         string
	InputTokens  *int
	OutputTokens *int
	StopReason   string
	Finished     bool
	Err          *StreamError // set when the API reported an in-band error
}

// Usage returns both token counts when both have been reported.
func (r Response) Usage() (input, output int, ok bool) {
	if r.InputTokens == nil || r.OutputTokens == nil {
		return 0, 0, false
	}
	return *r.InputTokens, *r.OutputTokens, true
}

// Accumulator folds stream events into a Response. It is a value: Apply
// returns the next accumulator and leaves the receiver untouched, so each
// step can be inspected in isolation. Use a zero Accumulator per exchange.
type Accumulator struct {
	state State
	resp  Response
}

func (a Accumulator) State() State       { return a.state }
func (a Accumulator) Response() Response { return a.resp }
func (a Accumulator) Done() bool         { return a.state == Done }

// Apply folds ev and reports whether the reply text or usage changed.
// Events arriving after Done are ignored.
func (a Accumulator) Apply(ev Event) (Accumulator, bool) {
	if a.state == Done || ev == nil {
		return a, false
	}
	a.state = Streaming

	switch e := ev.(type) {
	case ContentBlockDelta:
		if e.Text == "" {
			return a, false
		}
		a.resp.Text += e.Text
		return a, true

	case MessageStart:
		return a.applyUsage(e.Usage)

	case MessageDelta:
		if e.StopReason != "" {
			a.resp.StopReason = e.StopReason
		}
		return a.applyUsage(e.Usage)

	case MessageStop:
		a.state = Done
		a.resp.Finished = true
		return a, false

	case StreamError:
		a.state = Done
		a.resp.Err = &e
		return a, false

	default:
		// ContentBlockStart, ContentBlockStop, Ping, Ignored.
		return a, false
	}
}

func (a Accumulator) applyUsage(u Usage) (Accumulator, bool) {
	changed := false
	if u.InputTokens != nil && !sameCount(a.resp.InputTokens, *u.InputTokens) {
		v := *u.InputTokens
		a.resp.InputTokens = &v
		changed = true
	}
	if u.OutputTokens != nil && !sameCount(a.resp.OutputTokens, *u.OutputTokens) {
		v := *u.OutputTokens
		a.resp.OutputTokens = &v
		changed = true
	}
	return a, changed
}

func sameCount(cur *int, v int) bool {
	return cur != nil && *cur == v
}
