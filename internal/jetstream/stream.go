package jetstream

import (
	"errors"
	"time"

	nats "github.com/nats-io/nats.go"
)

const (
	StreamName    = "CLAUDE_TTY"
	SubjectPrefix = "claude.exchange."

	// DoneFilter matches the end marker of every exchange.
	DoneFilter = SubjectPrefix + "*.done"
)

// EnsureStream creates the capture stream or updates its retention.
// Messages are kept until they age out so an exchange can be replayed
// any number of times.
func EnsureStream(js nats.JetStreamContext, maxAge time.Duration) error {
	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{SubjectPrefix + ">"},
		Storage:   nats.FileStorage,
		MaxAge:    maxAge,
		Retention: nats.LimitsPolicy,
	}
	_, err := js.AddStream(cfg)
	if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		_, err = js.UpdateStream(cfg)
	}
	return err
}

func ChunkSubject(exchangeID string) string {
	return SubjectPrefix + exchangeID
}

func DoneSubject(exchangeID string) string {
	return SubjectPrefix + exchangeID + ".done"
}
