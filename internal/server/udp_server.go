package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/llmdig/llmdig/internal/dns"
	"github.com/llmdig/llmdig/internal/pool"
)

// Socket buffer sizes for burst absorption (4MB each). The kernel UDP queue
// is the only buffer between arrival bursts and the handler.
const (
	socketRecvBufferSize = 4 * 1024 * 1024
	socketSendBufferSize = 4 * 1024 * 1024
)

// bufferPool recycles receive buffers sized to the classic DNS UDP maximum.
var bufferPool = pool.NewBufferPool(dns.MaxMessageSize)

// UDPServer owns the single serving socket.
//
// The receive loop reads one datagram at a time and hands each one to its own
// goroutine, so a slow backend call never blocks the socket. There is no cap
// on in-flight requests; the per-client token bucket is the only explicit
// backpressure. Replies are written back on the same socket, which is safe
// for concurrent writers.
type UDPServer struct {
	Logger  *slog.Logger // optional
	Handler *Handler     // per-datagram processor

	conn *net.UDPConn
	wg   sync.WaitGroup
}

// Run binds addr and serves until ctx is cancelled.
// It blocks until ctx is done, then shuts down gracefully with a five second
// drain. It returns an error when the bind fails or when in-flight requests
// do not finish within the drain.
func (s *UDPServer) Run(ctx context.Context, addr string) error {
	conn, err := listenReusePort(ctx, addr)
	if err != nil {
		return err
	}
	_ = conn.SetReadBuffer(socketRecvBufferSize)
	_ = conn.SetWriteBuffer(socketSendBufferSize)

	if s.Logger != nil {
		s.Logger.Info("dns listening", "addr", conn.LocalAddr().String())
	}

	s.serve(ctx, conn)
	<-ctx.Done()
	return s.Stop(5 * time.Second)
}

// RunOnConn serves on an existing UDP connection until ctx is cancelled.
// Useful for tests and callers that manage the socket themselves; the
// connection is not closed on return, and the receive loop keeps serving
// until the caller closes it.
func (s *UDPServer) RunOnConn(ctx context.Context, conn *net.UDPConn) {
	s.serve(ctx, conn)
	<-ctx.Done()
}

func (s *UDPServer) serve(ctx context.Context, conn *net.UDPConn) {
	s.conn = conn
	s.wg.Go(func() {
		s.recvLoop(ctx, conn)
	})
}

// recvLoop reads datagrams and spawns one goroutine per datagram.
//
// Exits when the socket is closed (shutdown), or when a read fails after the
// context is cancelled. Cancelling the context does not interrupt a read
// that is already blocked.
func (s *UDPServer) recvLoop(ctx context.Context, conn *net.UDPConn) {
	for {
		bufPtr := bufferPool.Get()
		n, peer, err := conn.ReadFromUDPAddrPort(*bufPtr)
		if err != nil {
			bufferPool.Put(bufPtr)
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if s.Logger != nil {
				s.Logger.Error("udp read error", "err", err)
			}
			continue
		}

		s.wg.Go(func() {
			defer bufferPool.Put(bufPtr)
			s.handleDatagram(ctx, conn, (*bufPtr)[:n], peer)
		})
	}
}

// handleDatagram runs one datagram through the handler and writes the reply.
func (s *UDPServer) handleDatagram(ctx context.Context, conn *net.UDPConn, payload []byte, peer netip.AddrPort) {
	if s.Handler == nil {
		return
	}
	resp := s.Handler.Handle(ctx, peer.Addr().Unmap(), payload)
	if len(resp) == 0 {
		return
	}
	if _, err := conn.WriteToUDPAddrPort(resp, peer); err != nil && s.Logger != nil {
		s.Logger.Error("udp write error", "peer", peer.String(), "err", err)
	}
}

// Stop closes the socket and waits up to timeout for in-flight requests.
func (s *UDPServer) Stop(timeout time.Duration) error {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if timeout <= 0 {
		s.wg.Wait()
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("udp server: timeout waiting for in-flight requests")
	}
}

// listenReusePort binds a UDP socket with SO_REUSEPORT set.
//
// The server itself uses one socket, but binding with SO_REUSEPORT lets a
// replacement process bind the same port before this one exits, so restarts
// do not drop the port.
func listenReusePort(ctx context.Context, addr string) (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
		},
	}
	pc, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}
