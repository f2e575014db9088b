package server_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmdig/llmdig/internal/dns"
	"github.com/llmdig/llmdig/internal/server"
)

// startTestServer binds a loopback socket, serves on it, and returns the
// address to query.
func startTestServer(t *testing.T, h *server.Handler) *net.UDPAddr {
	t.Helper()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := &server.UDPServer{Handler: h}
	go srv.RunOnConn(ctx, conn)

	t.Cleanup(func() {
		cancel()
		_ = conn.Close()
	})
	return conn.LocalAddr().(*net.UDPAddr)
}

// exchange sends a query datagram and waits for one reply.
func exchange(t *testing.T, addr *net.UDPAddr, query []byte, timeout time.Duration) []byte {
	t.Helper()

	c, err := net.DialUDP("udp", nil, addr)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetDeadline(time.Now().Add(timeout)))
	_, err = c.Write(query)
	require.NoError(t, err)

	buf := make([]byte, 8192)
	n, err := c.Read(buf)
	require.NoError(t, err)
	return buf[:n]
}

func TestUDPServer_AnswersOverTheWire(t *testing.T) {
	h := newTestHandler(&echoBackend{}, 100)
	addr := startTestServer(t, h)

	reply := exchange(t, addr, txtQuery(t, 31337, "what.is.the.weather.com", dns.TypeTXT), 2*time.Second)

	p, err := dns.ParsePacket(reply)
	require.NoError(t, err)
	assert.Equal(t, uint16(31337), p.Header.ID)
	assert.Equal(t, dns.RCodeNoError, dns.RCodeFromFlags(p.Header.Flags))
	assert.Equal(t, "what is the weather", answerText(p))
}

func TestUDPServer_ErrorRepliesAreTransmitted(t *testing.T) {
	h := newTestHandler(&echoBackend{}, 100)
	addr := startTestServer(t, h)

	reply := exchange(t, addr, txtQuery(t, 5, "example.com", dns.TypeA), 2*time.Second)

	p, err := dns.ParsePacket(reply)
	require.NoError(t, err)
	assert.Equal(t, dns.RCodeNotImp, dns.RCodeFromFlags(p.Header.Flags))
	assert.Empty(t, p.Answers)
}

func TestUDPServer_MalformedDatagramGetsNoReply(t *testing.T) {
	h := newTestHandler(&echoBackend{}, 100)
	addr := startTestServer(t, h)

	c, err := net.DialUDP("udp", nil, addr)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Write([]byte{0xde, 0xad})
	require.NoError(t, err)

	require.NoError(t, c.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	buf := make([]byte, 512)
	_, err = c.Read(buf)
	assert.Error(t, err, "no reply expected for an undecodable datagram")
}

func TestUDPServer_SlowBackendDoesNotBlockOtherClients(t *testing.T) {
	slow := &echoBackend{delay: 500 * time.Millisecond}
	h := newTestHandler(slow, 100)
	addr := startTestServer(t, h)

	// Kick off a slow query in the background.
	slowQuery := txtQuery(t, 1, "slow.question.com", dns.TypeTXT)
	go func() {
		c, err := net.DialUDP("udp", nil, addr)
		if err != nil {
			return
		}
		defer c.Close()
		_, _ = c.Write(slowQuery)
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		buf := make([]byte, 8192)
		_, _ = c.Read(buf)
	}()
	time.Sleep(50 * time.Millisecond)

	// A fast query (FormErr path, no backend) must answer while the slow
	// one is still in flight.
	start := time.Now()
	reply := exchange(t, addr, txtQuery(t, 2, "com", dns.TypeTXT), 2*time.Second)
	elapsed := time.Since(start)

	p, err := dns.ParsePacket(reply)
	require.NoError(t, err)
	assert.Equal(t, dns.RCodeFormErr, dns.RCodeFromFlags(p.Header.Flags))
	assert.Less(t, elapsed, 400*time.Millisecond, "listener must not serialize behind the backend")
}
