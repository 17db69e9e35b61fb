package stream

import (
	"bytes"
	"errors"
	"io"
	"iter"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

const readBufferSize = 32 * 1024

// Decoder maintains state across chunks to handle partial SSE lines.
type Decoder struct {
	buffer []byte
	utf8   *encoding.Decoder
}

func NewDecoder() *Decoder {
	return &Decoder{utf8: unicode.UTF8.NewDecoder()}
}

// Feed appends a raw chunk and returns every line it completed, in order.
// A trailing partial line stays buffered until a later chunk terminates it.
func (d *Decoder) Feed(chunk []byte) []string {
	d.buffer = append(d.buffer, chunk...)
	var lines []string

	for {
		idx := bytes.IndexByte(d.buffer, '\n')
		if idx == -1 {
			break
		}
		lines = append(lines, d.decode(d.buffer[:idx]))
		d.buffer = d.buffer[idx+1:]
	}

	return lines
}

// Flush returns the unterminated tail left at end of stream, if any.
func (d *Decoder) Flush() (string, bool) {
	if len(d.buffer) == 0 {
		return "", false
	}
	line := d.decode(d.buffer)
	d.buffer = nil
	return line, true
}

// decode converts one raw line to text. Invalid UTF-8 becomes U+FFFD.
func (d *Decoder) decode(raw []byte) string {
	raw = bytes.TrimRight(raw, "\r")
	s, err := d.utf8.String(string(raw))
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	return s
}

// Lines reads r until EOF and yields complete lines in arrival order.
// A transport error is yielded once as the final element.
func Lines(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		dec := NewDecoder()
		buf := make([]byte, readBufferSize)

		for {
			n, err := r.Read(buf)
			if n > 0 {
				for _, line := range dec.Feed(buf[:n]) {
					if !yield(line, nil) {
						return
					}
				}
			}
			if err == nil {
				continue
			}
			if errors.Is(err, io.EOF) {
				if tail, ok := dec.Flush(); ok {
					yield(tail, nil)
				}
				return
			}
			yield("", err)
			return
		}
	}
}
