// Package reqserver implements the ecosystem's request listener: one
// goroutine per accepted request or connection, with no fixed worker
// pool. This trades the teacher's udp_server.go/tcp_server.go
// throughput engineering (SO_REUSEPORT fan-out, fixed worker pools,
// rate limiting, EDNS truncation) for a much simpler model that keeps
// concurrency trivially visible: every request gets its own goroutine,
// and a simulated processing delay makes the cache's effect on latency
// observable in tests.
package reqserver

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/fu-berlin/dnslab/internal/logging"
	"github.com/fu-berlin/dnslab/internal/pool"
)

// maxDatagramSize is the largest UDP datagram this server will read.
const maxDatagramSize = 65535

// tcpChunkSize is the fixed read size used to drain a TCP connection.
// A short read (fewer bytes than requested) signals the end of the
// message; there is no length prefix.
const tcpChunkSize = 1024

// DefaultDelay is the simulated processing latency applied twice per
// request (once before decoding, once after building the reply), so
// that cache hits are measurably faster than misses in tests and demos.
const DefaultDelay = 100 * time.Millisecond

var datagramBufPool = pool.New(func() *[]byte {
	buf := make([]byte, maxDatagramSize)
	return &buf
})

var chunkBufPool = pool.New(func() *[]byte {
	buf := make([]byte, tcpChunkSize)
	return &buf
})

// Handler processes one decoded request and returns the encoded reply.
type Handler func(request []byte) []byte

// Server listens for requests over UDP or TCP and dispatches each one
// to Handler on its own goroutine.
type Server struct {
	Network string // "udp" or "tcp"
	Addr    string
	Handler Handler
	Delay   time.Duration // zero selects DefaultDelay; a negative value means no delay
	Logger  *logging.Logger

	// RecvBufferBytes, if positive, is applied to the socket's
	// SO_RCVBUF option after opening. This server deliberately binds
	// a single socket (no SO_REUSEPORT fan-out), so a larger receive
	// buffer is the only lever against burst datagram loss.
	RecvBufferBytes int

	running atomic.Bool
	pconn   net.PacketConn
	ln      net.Listener
	wg      sync.WaitGroup
}

// OpenSocket binds the configured address. For TCP it also starts
// listening with a backlog of at least 1 (Go's net.Listen always does).
func (s *Server) OpenSocket() error {
	switch s.Network {
	case "udp":
		conn, err := net.ListenPacket("udp", s.Addr)
		if err != nil {
			return err
		}
		s.pconn = conn
		s.setRecvBuffer(conn)
	case "tcp":
		ln, err := net.Listen("tcp", s.Addr)
		if err != nil {
			return err
		}
		s.ln = ln
	default:
		return errors.New("reqserver: unknown network " + s.Network)
	}
	return nil
}

// Run begins accepting requests. When background is true, the accept
// loop runs on its own goroutine and Run returns immediately;
// otherwise Run blocks until StopListening is called and the current
// blocking read returns.
func (s *Server) Run(background bool) {
	if s.Delay == 0 {
		s.Delay = DefaultDelay
	}
	s.running.Store(true)

	loop := s.acceptUDP
	if s.Network == "tcp" {
		loop = s.acceptTCP
	}

	if background {
		go loop()
		return
	}
	loop()
}

// StopListening tells the accept loop to exit after its current
// blocking read. The socket is deliberately left open: callers that
// need to fully release the address must close it themselves.
func (s *Server) StopListening() {
	s.running.Store(false)
}

// Wait blocks until every in-flight request goroutine has returned.
func (s *Server) Wait() {
	s.wg.Wait()
}

// setRecvBuffer applies RecvBufferBytes to conn's SO_RCVBUF option. It
// is a best-effort call: a failure here is not fatal to serving
// requests, just to burst tolerance, so the error is swallowed like
// everything else on the request path.
func (s *Server) setRecvBuffer(conn net.PacketConn) {
	if s.RecvBufferBytes <= 0 {
		return
	}
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return
	}
	_ = raw.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, s.RecvBufferBytes)
	})
}

func (s *Server) acceptUDP() {
	for s.running.Load() {
		bufPtr := datagramBufPool.Get()
		n, peer, err := s.pconn.ReadFrom(*bufPtr)
		if err != nil {
			datagramBufPool.Put(bufPtr)
			if !s.running.Load() {
				return
			}
			continue
		}

		req := make([]byte, n)
		copy(req, (*bufPtr)[:n])
		datagramBufPool.Put(bufPtr)

		s.wg.Add(1)
		go s.handleUDP(req, peer)
	}
}

func (s *Server) handleUDP(req []byte, peer net.Addr) {
	defer s.wg.Done()

	resp, ok := s.process(req)
	if !ok {
		return
	}
	_, _ = s.pconn.WriteTo(resp, peer)
}

func (s *Server) acceptTCP() {
	for s.running.Load() {
		conn, err := s.ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			continue
		}

		s.wg.Add(1)
		go s.handleTCP(conn)
	}
}

func (s *Server) handleTCP(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	req, err := s.readUntilShort(conn)
	if err != nil {
		return
	}

	resp, ok := s.process(req)
	if !ok {
		return
	}
	_, _ = conn.Write(resp)
}

// readUntilShort reads fixed tcpChunkSize chunks until one comes back
// short (or read error/EOF), concatenating everything read so far.
func (s *Server) readUntilShort(conn net.Conn) ([]byte, error) {
	var out []byte
	for {
		bufPtr := chunkBufPool.Get()
		n, err := conn.Read(*bufPtr)
		if n > 0 {
			out = append(out, (*bufPtr)[:n]...)
		}
		chunkBufPool.Put(bufPtr)

		if n < tcpChunkSize || err != nil {
			if len(out) == 0 && err != nil {
				return nil, err
			}
			return out, nil
		}
	}
}

// process applies the simulated delay on both sides of the handler
// call and reports whether a reply was produced. Any panic or nil
// Handler is treated as a swallowed per-request failure: no reply is
// sent and the caller's loop keeps running.
func (s *Server) process(req []byte) (resp []byte, ok bool) {
	if s.Handler == nil {
		return nil, false
	}
	defer func() {
		if r := recover(); r != nil {
			if s.Logger != nil {
				s.Logger.Warn("reqserver: request handling panicked", "recover", r)
			}
			resp, ok = nil, false
		}
	}()

	time.Sleep(s.Delay)
	resp = s.Handler(req)
	time.Sleep(s.Delay)
	return resp, len(resp) > 0
}
