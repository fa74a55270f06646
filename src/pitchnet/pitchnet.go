// Package pitchnet provides a service for other applications to
// consume live pitch estimates over a TCP socket.
package pitchnet

/*------------------------------------------------------------------
 *
 * Purpose:	Provide pitch estimates to other applications via a
 *		newline-delimited JSON stream over a TCP socket.
 *
 * Description:	This provides a TCP socket for communication with
 *		client applications, same shape as the teacher's KISS over
 *		TCP service (kissnet.go): one listener goroutine accepts
 *		connections into a fixed-capacity client table; a fan-out
 *		broadcast pushes every new estimate to all attached
 *		clients, dropping a client whose write blocks rather than
 *		stalling the others. Unlike KISS, there is no reverse
 *		channel — this is a read-only telemetry feed, so there is
 *		no frame parser to mirror from kiss_frame.go.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// MaxClients bounds how many simultaneous TCP clients one Server will
// serve, same fixed-capacity-table shape as the teacher's
// MAX_NET_CLIENTS.
const MaxClients = 8

// Estimate is one pitch reading, serialized as one JSON line per
// message on the wire.
type Estimate struct {
	UnixNano  int64   `json:"t"`
	Algorithm string  `json:"algorithm"`
	Hz        float32 `json:"hz"`
	Clarity   float32 `json:"clarity"`
}

// Server accepts TCP clients and broadcasts Estimate values to all of
// them as they are published.
type Server struct {
	log *log.Logger

	listener net.Listener

	mu      sync.Mutex
	clients [MaxClients]net.Conn
}

// NewServer returns a Server ready to Listen. A nil logger falls back
// to a fresh default logger writing to stderr.
func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	}
	return &Server{log: logger}
}

// Listen binds to the given TCP port and accepts client connections
// until the listener is closed (by Close) or accepting fails. Mirrors the teacher's
// connect_listen_thread: one slot in the client table per connection,
// freed on disconnect.
func (s *Server) Listen(port int) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("pitchnet: listen: %w", err)
	}
	s.listener = listener
	s.log.Info("pitchnet: listening", "port", port)

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.log.Error("pitchnet: accept failed", "error", err)
				continue
			}
			if !s.attach(conn) {
				s.log.Warn("pitchnet: client table full, rejecting connection", "remote", conn.RemoteAddr())
				conn.Close()
			}
		}
	}()
	return nil
}

func (s *Server) attach(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.clients {
		if c == nil {
			s.clients[i] = conn
			s.log.Info("pitchnet: client attached", "slot", i, "remote", conn.RemoteAddr())
			return true
		}
	}
	return false
}

// Publish sends one estimate to every attached client. A client whose
// write does not complete within a short deadline is disconnected and
// its slot freed, rather than blocking the other clients.
func (s *Server) Publish(alg string, hz, clarity float32) {
	line, err := json.Marshal(Estimate{
		UnixNano:  time.Now().UnixNano(),
		Algorithm: alg,
		Hz:        hz,
		Clarity:   clarity,
	})
	if err != nil {
		s.log.Error("pitchnet: marshal failed", "error", err)
		return
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.clients {
		if c == nil {
			continue
		}
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if _, err := c.Write(line); err != nil {
			s.log.Info("pitchnet: client disconnected", "slot", i, "error", err)
			c.Close()
			s.clients[i] = nil
		}
	}
}

// Close stops accepting new connections and disconnects every attached
// client.
func (s *Server) Close() {
	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.clients {
		if c != nil {
			c.Close()
			s.clients[i] = nil
		}
	}
}
