package render

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Wrap word-wraps text to at most width display columns per line.
// Words are split on whitespace; explicit newlines start a new line. A word
// wider than width is hard-split into width-column chunks.
func Wrap(text string, width int) []string {
	if text == "" {
		return nil
	}
	if width < 1 {
		width = 1
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(para, width)...)
	}
	return lines
}

func wrapParagraph(para string, width int) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var cur strings.Builder
	curWidth := 0

	flush := func() {
		if curWidth > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			curWidth = 0
		}
	}

	for _, word := range words {
		w := runewidth.StringWidth(word)

		if w > width {
			flush()
			lines = append(lines, hardSplit(word, width)...)
			continue
		}

		if curWidth > 0 && curWidth+1+w > width {
			flush()
		}
		if curWidth > 0 {
			cur.WriteByte(' ')
			curWidth++
		}
		cur.WriteString(word)
		curWidth += w
	}
	flush()

	return lines
}

// hardSplit cuts word into chunks of at most width columns. A single rune
// wider than width gets a chunk of its own.
func hardSplit(word string, width int) []string {
	var chunks []string
	var cur strings.Builder
	curWidth := 0

	for _, r := range word {
		rw := runewidth.RuneWidth(r)
		if curWidth > 0 && curWidth+rw > width {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curWidth = 0
		}
		cur.WriteRune(r)
		curWidth += rw
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
