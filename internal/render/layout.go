package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// FixedPadding is the horizontal space the box takes from the terminal
// width: one border column and one blank column on each side.
const FixedPadding = 4

// MinWidth is the narrowest box Layout draws: the borders plus one text
// column. Terminals narrower than this get a MinWidth frame, which the
// terminal reflows.
const MinWidth = FixedPadding + 1

// DefaultWidth is used when the terminal width cannot be determined.
const DefaultWidth = 80

// Stats is the usage summary shown under a finished reply.
type Stats struct {
	InputTokens  int
	OutputTokens int
	Cost         float64
}

func (s Stats) String() string {
	return fmt.Sprintf("Tokens: %d in, %d out | Cost: $%.6f", s.InputTokens, s.OutputTokens, s.Cost)
}

// Frame is one rendered reply, split into parts so a terminal renderer can
// style borders and body independently.
type Frame struct {
	Title  string
	Top    string
	Body   []string // wrapped lines, right-padded to the inner width
	Bottom string
	Status string // empty when no usage is known
	Inner  int
}

var border = lipgloss.RoundedBorder()

// Row returns body line i framed by the side borders.
func (f Frame) Row(i int) string {
	return border.Left + " " + f.Body[i] + " " + border.Right
}

// Lines returns the plain text of the frame, top to bottom.
func (f Frame) Lines() []string {
	lines := make([]string, 0, f.Height())
	if f.Title != "" {
		lines = append(lines, f.Title)
	}
	lines = append(lines, f.Top)
	for i := range f.Body {
		lines = append(lines, f.Row(i))
	}
	lines = append(lines, f.Bottom)
	if f.Status != "" {
		lines = append(lines, f.Status)
	}
	return lines
}

// Height is the number of terminal rows the frame occupies.
func (f Frame) Height() int {
	h := 2 + len(f.Body)
	if f.Title != "" {
		h++
	}
	if f.Status != "" {
		h++
	}
	return h
}

// InnerWidth is the text width inside the box for a terminal of width cols.
func InnerWidth(cols int) int {
	if cols <= 0 {
		cols = DefaultWidth
	}
	return max(cols-FixedPadding, 1)
}

// Layout computes the frame for text in a terminal cols wide, never
// narrower than MinWidth. It does no I/O, so the same inputs always
// produce the same frame.
func Layout(cols int, title, text string, stats *Stats) Frame {
	inner := InnerWidth(cols)
	if cols <= 0 {
		cols = DefaultWidth
	}
	cols = max(cols, MinWidth)

	wrapped := Wrap(text, inner)
	if len(wrapped) == 0 {
		wrapped = []string{""}
	}
	body := make([]string, len(wrapped))
	for i, line := range wrapped {
		body[i] = line + strings.Repeat(" ", max(inner-runewidth.StringWidth(line), 0))
	}

	f := Frame{
		Top:    border.TopLeft + strings.Repeat(border.Top, inner+2) + border.TopRight,
		Body:   body,
		Bottom: border.BottomLeft + strings.Repeat(border.Bottom, inner+2) + border.BottomRight,
		Inner:  inner,
	}
	if title != "" {
		f.Title = runewidth.Truncate("🤖 "+title+":", cols, "…")
	}
	if stats != nil {
		f.Status = runewidth.Truncate(stats.String(), cols, "…")
	}
	return f
}
