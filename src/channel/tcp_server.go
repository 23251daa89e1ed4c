package channel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"screenshot-plugin/src/messages"
)

const handshakeTimeout = 3 * time.Second

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	opts     Options
	mu       sync.Mutex
	lis      net.Listener
	incoming chan *tcpConn
	done     chan struct{}
	port     int
}

func newTcpServer(opts Options) *tcpServer {
	return &tcpServer{opts: opts, incoming: make(chan *tcpConn, 8), done: make(chan struct{})}
}

func (s *tcpServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		return nil
	}
	start, end := s.opts.portRange()
	var lastErr error
	for port := start; port <= end; port++ {
		addr := fmt.Sprintf("%s:%d", residentHost, port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		s.lis = lis
		s.port = port
		log.Printf("CHANNEL: %s listening on %s", s.opts.name(), addr)
		go s.acceptLoop(ctx, lis)
		return nil
	}
	log.Printf("CHANNEL: no free port in %d-%d: %v", start, end, lastErr)
	return fmt.Errorf("no free port in %d-%d: %w", start, end, lastErr)
}

func (s *tcpServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *tcpServer) acceptLoop(ctx context.Context, lis net.Listener) {
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		go s.handshake(ctx, c)
	}
}

// handshake answers PING probes inline and queues real calls.
func (s *tcpServer) handshake(ctx context.Context, c net.Conn) {
	remote := c.RemoteAddr().String()
	_ = c.SetDeadline(time.Now().Add(handshakeTimeout))
	br := bufio.NewReader(c)
	bw := bufio.NewWriter(c)

	first, err := br.Peek(len(pingVerb))
	if err != nil {
		_ = c.Close()
		return
	}
	if string(first) == pingVerb {
		line, _ := br.ReadString('\n')
		log.Printf("CHANNEL: %s from %s -> %s", strings.TrimSpace(line), remote, strings.TrimSpace(s.opts.pongLine()))
		_, _ = bw.WriteString(s.opts.pongLine())
		_ = bw.Flush()
		_ = c.Close()
		return
	}

	var req messages.Request
	if err := messages.ReadFrame(br, &req); err != nil {
		log.Printf("CHANNEL: malformed frame from %s: %v", remote, err)
		_ = messages.WriteFrame(bw, messages.Response{
			Status: messages.StatusError,
			Error:  &messages.ErrorBody{Code: "invalid_argument", Message: "Malformed frame"},
		})
		_ = bw.Flush()
		_ = c.Close()
		return
	}
	// The call may wait on the user; only the handshake is time-bounded.
	_ = c.SetDeadline(time.Time{})
	log.Printf("CHANNEL: call %s method=%s from %s", req.ID, req.Method, remote)

	select {
	case s.incoming <- &tcpConn{c: c, r: req, w: bw}:
	case <-s.done:
		_ = c.Close()
	case <-ctx.Done():
		_ = c.Close()
	}
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, errors.New("channel server closed")
	case tc := <-s.incoming:
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.done)
	if s.lis != nil {
		_ = s.lis.Close()
		s.lis = nil
	}
	return nil
}

type tcpConn struct {
	c    net.Conn
	r    messages.Request
	w    *bufio.Writer
	once sync.Once
}

func (tc *tcpConn) Request() messages.Request { return tc.r }

func (tc *tcpConn) Respond(resp messages.Response) error {
	if resp.ID == "" {
		resp.ID = tc.r.ID
	}
	if err := messages.WriteFrame(tc.w, resp); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error {
	var err error
	tc.once.Do(func() { err = tc.c.Close() })
	return err
}
