package capture

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/namikmesic/claude-tty/internal/jetstream"
	"github.com/namikmesic/claude-tty/internal/stream"
)

// Recorder passes a response body through unchanged while publishing every
// chunk it reads. Capture failures are logged and never reach the reader.
// The capture counts as complete once message_stop has gone by, since
// readers stop there without waiting for EOF.
type Recorder struct {
	store   *Store
	body    io.ReadCloser
	subject string
	dec     *stream.Decoder
	marker  Marker
	failed  bool
	once    sync.Once
}

// Record wraps body. The end marker is published on EOF, on a read error
// or on Close, whichever comes first.
func (s *Store) Record(id, model string, body io.ReadCloser) *Recorder {
	return &Recorder{
		store:   s,
		body:    body,
		subject: jetstream.ChunkSubject(id),
		dec:     stream.NewDecoder(),
		marker:  Marker{ID: id, Model: model, Started: time.Now().UTC()},
	}
}

func (r *Recorder) Read(p []byte) (int, error) {
	n, err := r.body.Read(p)
	if n > 0 && !r.failed {
		// Publish copies the payload before returning.
		if _, perr := r.store.js.Publish(r.subject, p[:n]); perr != nil {
			r.failed = true
			log.Warn().Err(perr).Str("exchange_id", r.marker.ID).Msg("stream capture stopped")
		} else {
			r.marker.Chunks++
			r.marker.Bytes += int64(n)
		}
	}
	if n > 0 {
		for _, line := range r.dec.Feed(p[:n]) {
			r.scan(line)
		}
	}
	if err != nil {
		if tail, ok := r.dec.Flush(); ok {
			r.scan(tail)
		}
		if !errors.Is(err, io.EOF) {
			r.marker.Error = err.Error()
		}
		r.finish()
	}
	return n, err
}

func (r *Recorder) scan(line string) {
	if r.marker.Complete || !stream.IsData(line) {
		return
	}
	if ev, err := stream.Parse(line); err == nil {
		if _, ok := ev.(stream.MessageStop); ok {
			r.marker.Complete = true
		}
	}
}

func (r *Recorder) Close() error {
	r.finish()
	return r.body.Close()
}

func (r *Recorder) finish() {
	r.once.Do(func() {
		if r.failed {
			r.marker.Error = "capture incomplete"
		}
		data, err := json.Marshal(r.marker)
		if err != nil {
			return
		}
		if _, err := r.store.js.Publish(jetstream.DoneSubject(r.marker.ID), data); err != nil {
			log.Warn().Err(err).Str("exchange_id", r.marker.ID).Msg("publish capture marker")
		}
	})
}
