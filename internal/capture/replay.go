package capture

import (
	"fmt"
	"io"

	nats "github.com/nats-io/nats.go"

	"github.com/namikmesic/claude-tty/internal/jetstream"
)

// Open returns the captured body of an exchange. Reads return the chunks
// with their original boundaries, so the replay exercises the decoder the
// same way the live stream did.
func (s *Store) Open(id string) (io.Reader, Marker, error) {
	m, err := s.Marker(id)
	if err != nil {
		return nil, Marker{}, err
	}

	subject := jetstream.ChunkSubject(id)
	info, err := s.js.StreamInfo(jetstream.StreamName, &nats.StreamInfoRequest{SubjectsFilter: subject})
	if err != nil {
		return nil, Marker{}, fmt.Errorf("stream info: %w", err)
	}
	count := info.State.Subjects[subject]
	if count == 0 {
		return &chunkReader{}, m, nil
	}

	sub, err := s.js.SubscribeSync(subject, nats.DeliverAll(), nats.AckNone())
	if err != nil {
		return nil, Marker{}, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	defer sub.Unsubscribe()

	chunks := make([][]byte, 0, count)
	for range count {
		msg, err := sub.NextMsg(s.replayWindow)
		if err != nil {
			return nil, Marker{}, fmt.Errorf("read chunk %d of %d: %w", len(chunks)+1, count, err)
		}
		chunks = append(chunks, msg.Data)
	}
	return &chunkReader{chunks: chunks}, m, nil
}

type chunkReader struct {
	chunks [][]byte
	off    int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	for len(c.chunks) > 0 {
		n := copy(p, c.chunks[0][c.off:])
		c.off += n
		if c.off == len(c.chunks[0]) {
			c.chunks = c.chunks[1:]
			c.off = 0
		}
		if n > 0 || len(p) == 0 {
			return n, nil
		}
	}
	return 0, io.EOF
}
