package jetstream

import (
	"testing"
	"time"

	nats "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureStream(t *testing.T) {
	srv, err := Start(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(srv.Shutdown)

	js := srv.JetStream()
	require.NoError(t, EnsureStream(js, time.Hour))
	require.NoError(t, EnsureStream(js, 2*time.Hour))

	info, err := js.StreamInfo(StreamName)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, info.Config.MaxAge)
	assert.Equal(t, nats.LimitsPolicy, info.Config.Retention)

	_, err = js.Publish(ChunkSubject("abc"), []byte("chunk"))
	require.NoError(t, err)
	_, err = js.Publish(DoneSubject("abc"), []byte("{}"))
	require.NoError(t, err)

	info, err = js.StreamInfo(StreamName, &nats.StreamInfoRequest{SubjectsFilter: DoneFilter})
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{DoneSubject("abc"): 1}, info.State.Subjects)
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "claude.exchange.abc", ChunkSubject("abc"))
	assert.Equal(t, "claude.exchange.abc.done", DoneSubject("abc"))
}
