package pitchnet

import (
	"bufio"
	"encoding/json"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestServer_publishesToConnectedClient(t *testing.T) {
	s := NewServer(nil)
	port := freePort(t)
	require.NoError(t, s.Listen(port))
	defer s.Close()

	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	defer conn.Close()

	// Give the accept goroutine a moment to attach the connection.
	time.Sleep(50 * time.Millisecond)

	s.Publish("yin", 220.5, 0.9)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)

	var est Estimate
	require.NoError(t, json.Unmarshal([]byte(line), &est))
	assert.Equal(t, "yin", est.Algorithm)
	assert.InDelta(t, 220.5, est.Hz, 1e-6)
	assert.InDelta(t, 0.9, est.Clarity, 1e-6)
}

func TestServer_rejectsConnectionsPastCapacity(t *testing.T) {
	s := NewServer(nil)
	port := freePort(t)
	require.NoError(t, s.Listen(port))
	defer s.Close()

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	var conns []net.Conn
	for i := 0; i < MaxClients; i++ {
		c, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		conns = append(conns, c)
	}
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()
	time.Sleep(50 * time.Millisecond)

	overflow, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer overflow.Close()

	overflow.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 1)
	_, err = overflow.Read(buf)
	assert.Error(t, err, "server must close connections past MaxClients")
}

func TestServer_disconnectsClientWithoutBlockingPublish(t *testing.T) {
	s := NewServer(nil)
	port := freePort(t)
	require.NoError(t, s.Listen(port))
	defer s.Close()

	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, conn.Close())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			s.Publish("yin", 220, 0.5)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a stale client connection")
	}
}
