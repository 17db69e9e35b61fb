package jetstream

import (
	"fmt"
	"os"
	"time"

	server "github.com/nats-io/nats-server/v2/server"
	nats "github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Server is an in-process JetStream server with one client connection.
// It never listens on a network port.
type Server struct {
	ns *server.Server
	nc *nats.Conn
	js nats.JetStreamContext
}

func Start(storeDir string) (*Server, error) {
	if err := os.MkdirAll(storeDir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	ns, err := server.NewServer(&server.Options{
		DontListen: true,
		JetStream:  true,
		StoreDir:   storeDir,
		NoLog:      true,
		NoSigs:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("create nats server: %w", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready")
	}

	nc, err := nats.Connect(ns.ClientURL(), nats.InProcessServer(ns))
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("connect in-process: %w", err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	log.Debug().Str("store_dir", storeDir).Msg("embedded jetstream started")
	return &Server{ns: ns, nc: nc, js: js}, nil
}

func (s *Server) JetStream() nats.JetStreamContext { return s.js }

// Shutdown flushes pending publishes and stops the server.
func (s *Server) Shutdown() {
	if err := s.nc.Drain(); err != nil {
		s.nc.Close()
	}
	s.ns.Shutdown()
	s.ns.WaitForShutdown()
}
