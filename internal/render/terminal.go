package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

type styles struct {
	title   lipgloss.Style
	border  lipgloss.Style
	status  lipgloss.Style
	spinner lipgloss.Style
	hint    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		border:  r.NewStyle().Foreground(lipgloss.Color("63")),
		status:  r.NewStyle().Faint(true),
		spinner: r.NewStyle().Foreground(lipgloss.Color("205")),
		hint:    r.NewStyle().Faint(true).Italic(true),
	}
}

// Terminal renders replies as a bordered box that is repainted in place on
// every update. When the output is not a terminal only the final text is
// written.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	out    *termenv.Output
	st     styles
	tty    bool
	fd     int
	width  int // fixed width, 0 means ask the terminal
	height int // fixed height, 0 means ask the terminal
	title  string
	spin   spinner.Spinner
	shown  []int // display widths of the lines currently on screen

	stop chan struct{}
	done chan struct{}
}

type Option func(*Terminal)

// WithWidth pins the render width instead of querying the terminal.
func WithWidth(cols int) Option {
	return func(t *Terminal) { t.width = cols }
}

// WithHeight pins the screen height instead of querying the terminal.
func WithHeight(rows int) Option {
	return func(t *Terminal) { t.height = rows }
}

// WithTTY overrides terminal detection.
func WithTTY(tty bool) Option {
	return func(t *Terminal) { t.tty = tty }
}

// WithSpinner replaces the thinking animation.
func WithSpinner(s spinner.Spinner) Option {
	return func(t *Terminal) { t.spin = s }
}

func NewTerminal(w io.Writer, title string, opts ...Option) *Terminal {
	t := &Terminal{
		w:     w,
		title: title,
		spin:  spinner.MiniDot,
		fd:    -1,
	}
	if f, ok := w.(*os.File); ok {
		t.fd = int(f.Fd())
		t.tty = term.IsTerminal(t.fd)
	}
	for _, o := range opts {
		o(t)
	}
	t.out = termenv.NewOutput(w, termenv.WithTTY(t.tty))
	t.st = newStyles(lipgloss.NewRenderer(w))
	return t
}

// SetTitle changes the model name shown above subsequent replies.
func (t *Terminal) SetTitle(title string) {
	t.mu.Lock()
	t.title = title
	t.mu.Unlock()
}

// Thinking starts the spinner. It keeps animating until ClearThinking.
func (t *Terminal) Thinking() {
	if !t.tty {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	t.shown = nil
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	t.out.HideCursor()
	t.drawSpinner(0)
	go t.animate(t.stop, t.done)
}

func (t *Terminal) animate(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	fps := t.spin.FPS
	if fps <= 0 {
		fps = time.Second / 10
	}
	ticker := time.NewTicker(fps)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			frame++
			t.mu.Lock()
			t.drawSpinner(frame)
			t.mu.Unlock()
		}
	}
}

func (t *Terminal) drawSpinner(frame int) {
	if len(t.spin.Frames) == 0 {
		return
	}
	glyph := t.spin.Frames[frame%len(t.spin.Frames)]
	_, _ = t.out.WriteString("\r")
	t.out.ClearLine()
	_, _ = t.out.WriteString(t.st.spinner.Render(glyph) + " " + t.st.hint.Render("Thinking..."))
}

// ClearThinking stops the spinner and erases its line.
func (t *Terminal) ClearThinking() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()
	if stop == nil {
		return
	}

	close(stop)
	<-done

	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = t.out.WriteString("\r")
	t.out.ClearLine()
	t.out.ShowCursor()
}

// Update repaints the in-progress reply.
func (t *Terminal) Update(text string) {
	if !t.tty {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.redraw(Layout(t.cols(), t.title, text, nil), true)
}

// Final repaints the reply with its usage line and leaves it on screen.
func (t *Terminal) Final(text string, stats *Stats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.tty {
		fmt.Fprintln(t.w, text)
		return
	}
	t.redraw(Layout(t.cols(), t.title, text, stats), false)
	t.shown = nil
}

// Errorf prints a one-line error, clearing any partial frame first.
func (t *Terminal) Errorf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tty && len(t.shown) > 0 {
		cols, rows := t.size()
		t.out.CursorPrevLine(t.occupied(cols, rows))
		_, _ = t.out.WriteString(termenv.CSI + fmt.Sprintf(termenv.EraseDisplaySeq, 0))
	}
	t.shown = nil
	fmt.Fprintf(t.w, "Error: "+format+"\n", args...)
}

func (t *Terminal) cols() int {
	cols, _ := t.size()
	return cols
}

// size returns the screen width and height. A height of 0 means unknown.
func (t *Terminal) size() (cols, rows int) {
	cols, rows = t.width, t.height
	if (cols <= 0 || rows <= 0) && t.fd >= 0 {
		if w, h, err := term.GetSize(t.fd); err == nil {
			if cols <= 0 {
				cols = w
			}
			if rows <= 0 {
				rows = h
			}
		}
	}
	if cols <= 0 {
		cols = DefaultWidth
	}
	return cols, max(rows, 0)
}

// occupied is the number of screen rows the lines on screen take at the
// given width. Lines drawn wider than cols have been reflowed by the
// terminal. The cursor cannot move above the first row, so the count is
// capped to what is still visible.
func (t *Terminal) occupied(cols, rows int) int {
	n := 0
	for _, w := range t.shown {
		n += max((w+cols-1)/cols, 1)
	}
	if rows > 1 {
		n = min(n, rows-1)
	}
	return n
}

// redraw moves back over the lines on screen, clears to the end of the
// screen and writes f. With clip set only the tail of f that fits on the
// screen is written; rows above it would scroll out of reach of the next
// repaint. Callers hold t.mu.
func (t *Terminal) redraw(f Frame, clip bool) {
	cols, rows := t.size()

	var b strings.Builder
	if up := t.occupied(cols, rows); up > 0 {
		fmt.Fprintf(&b, termenv.CSI+termenv.CursorPreviousLineSeq, up)
	}
	b.WriteString(termenv.CSI + fmt.Sprintf(termenv.EraseDisplaySeq, 0))

	plain := f.Lines()
	styled := make([]string, 0, len(plain))
	if f.Title != "" {
		styled = append(styled, t.st.title.Render(f.Title))
	}
	styled = append(styled, t.st.border.Render(f.Top))
	side := t.st.border.Render(border.Left)
	rightSide := t.st.border.Render(border.Right)
	for _, line := range f.Body {
		styled = append(styled, side+" "+line+" "+rightSide)
	}
	styled = append(styled, t.st.border.Render(f.Bottom))
	if f.Status != "" {
		styled = append(styled, t.st.status.Render(f.Status))
	}

	if clip && rows > 1 && len(styled) > rows-1 {
		skip := len(styled) - (rows - 1)
		styled, plain = styled[skip:], plain[skip:]
	}

	t.shown = t.shown[:0]
	for i, line := range styled {
		b.WriteString(line + "\n")
		t.shown = append(t.shown, runewidth.StringWidth(plain[i]))
	}

	_, _ = t.out.WriteString(b.String())
}
