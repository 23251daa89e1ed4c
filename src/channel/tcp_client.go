package channel

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"

	"screenshot-plugin/src/messages"
)

const defaultProbeTimeout = 300 * time.Millisecond

type tcpClient struct {
	opts Options
}

func newTcpClient(opts Options) *tcpClient { return &tcpClient{opts: opts} }

func (c *tcpClient) Detect(ctx context.Context) (int, bool) {
	timeout := probeTimeout(ctx)
	start, end := c.opts.portRange()
	for port := start; port <= end; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		if c.ping(net.JoinHostPort(residentHost, strconv.Itoa(port)), timeout) {
			return port, true
		}
	}
	return 0, false
}

func (c *tcpClient) Invoke(ctx context.Context, method string, arguments any) (messages.Response, bool, error) {
	port, ok := c.Detect(ctx)
	if !ok {
		return messages.Response{}, false, nil
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(residentHost, strconv.Itoa(port)))
	if err != nil {
		return messages.Response{}, false, nil
	}
	defer conn.Close()

	// Unblock the read if the caller gives up while the resident is
	// waiting on the user.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	req := messages.Request{ID: uuid.NewString(), Channel: c.opts.name(), Method: method, Arguments: arguments}
	w := bufio.NewWriter(conn)
	if err := messages.WriteFrame(w, req); err != nil {
		return messages.Response{}, true, err
	}
	if err := w.Flush(); err != nil {
		return messages.Response{}, true, err
	}

	var resp messages.Response
	if err := messages.ReadFrame(bufio.NewReader(conn), &resp); err != nil {
		if ctx.Err() != nil {
			return messages.Response{}, true, ctx.Err()
		}
		return messages.Response{}, true, fmt.Errorf("read response: %w", err)
	}
	if resp.ID != req.ID {
		return messages.Response{}, true, fmt.Errorf("response id %q does not match call %q", resp.ID, req.ID)
	}
	return resp, true, nil
}

func (c *tcpClient) ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(c.opts.pingLine()); err != nil {
		return false
	}
	if err := w.Flush(); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == c.opts.pongLine()
}

func probeTimeout(ctx context.Context) time.Duration {
	timeout := defaultProbeTimeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < timeout {
			timeout = d
		}
	}
	return timeout
}
