package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	nats "github.com/nats-io/nats.go"

	"github.com/namikmesic/claude-tty/internal/jetstream"
)

// ErrNotFound is returned for exchange ids with no capture.
var ErrNotFound = errors.New("capture not found")

// Marker is published once an exchange's body has been read or closed.
type Marker struct {
	ID       string    `json:"id"`
	Model    string    `json:"model"`
	Started  time.Time `json:"started"`
	Chunks   int       `json:"chunks"`
	Bytes    int64     `json:"bytes"`
	Complete bool      `json:"complete"` // message_stop was captured
	Error    string    `json:"error,omitempty"`
}

// Store records raw response bodies into JetStream and reads them back.
type Store struct {
	js           nats.JetStreamContext
	replayWindow time.Duration
}

func NewStore(js nats.JetStreamContext) *Store {
	return &Store{js: js, replayWindow: 5 * time.Second}
}

// Marker returns the end marker of one exchange.
func (s *Store) Marker(id string) (Marker, error) {
	msg, err := s.js.GetLastMsg(jetstream.StreamName, jetstream.DoneSubject(id))
	if errors.Is(err, nats.ErrMsgNotFound) {
		return Marker{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Marker{}, fmt.Errorf("load marker: %w", err)
	}
	var m Marker
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		return Marker{}, fmt.Errorf("decode marker: %w", err)
	}
	return m, nil
}

// List returns the markers of every retained exchange, oldest first.
func (s *Store) List() ([]Marker, error) {
	info, err := s.js.StreamInfo(jetstream.StreamName, &nats.StreamInfoRequest{SubjectsFilter: jetstream.DoneFilter})
	if err != nil {
		return nil, fmt.Errorf("stream info: %w", err)
	}

	markers := make([]Marker, 0, len(info.State.Subjects))
	for subject := range info.State.Subjects {
		id := strings.TrimSuffix(strings.TrimPrefix(subject, jetstream.SubjectPrefix), ".done")
		m, err := s.Marker(id)
		if errors.Is(err, ErrNotFound) {
			continue // aged out between the two calls
		}
		if err != nil {
			return nil, err
		}
		markers = append(markers, m)
	}

	sort.Slice(markers, func(i, j int) bool {
		return markers[i].Started.Before(markers[j].Started)
	})
	return markers, nil
}

// Delete removes every message of one exchange.
func (s *Store) Delete(id string) error {
	for _, subject := range []string{jetstream.ChunkSubject(id), jetstream.DoneSubject(id)} {
		if err := s.js.PurgeStream(jetstream.StreamName, &nats.StreamPurgeRequest{Subject: subject}); err != nil {
			return fmt.Errorf("purge %s: %w", subject, err)
		}
	}
	return nil
}
