package channel

// This file defines the API for the loopback method channel: a resident
// process owns a TCP endpoint, hosts and command-line tools send it calls.

import (
	"context"

	"screenshot-plugin/src/config"
	"screenshot-plugin/src/messages"
)

const (
	residentHost = "127.0.0.1"
	pingVerb     = "PING"
	pongVerb     = "PONG"
	minPort      = 1024
	maxPort      = 65535
)

// Options select the channel name and the TCP port range to use.
type Options struct {
	Name      string
	PortStart int
	PortEnd   int
}

// OptionsFromConfig copies the channel settings out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{Name: cfg.ChannelName, PortStart: cfg.ChannelPortStart, PortEnd: cfg.ChannelPortEnd}
}

func (o Options) name() string {
	if o.Name == "" {
		return config.DefaultChannelName
	}
	return o.Name
}

// portRange falls back to defaults when unset and clamps to [1024, 65535].
func (o Options) portRange() (int, int) {
	start, end := o.PortStart, o.PortEnd
	if start == 0 && end == 0 {
		start, end = config.DefaultPortStart, config.DefaultPortEnd
	}
	if start < minPort {
		start = minPort
	}
	if end > maxPort {
		end = maxPort
	}
	if end < start {
		start, end = end, start
	}
	return start, end
}

func (o Options) pingLine() string { return pingVerb + " " + o.name() + "\n" }

func (o Options) pongLine() string { return pongVerb + " " + o.name() + "\n" }

// Server owns the TCP endpoint and hands out incoming calls.
type Server interface {
	// Start listens on the first free port of the configured range.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted call, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close stops accepting clients.
	Close() error
}

// Conn is one pending call and the connection its response goes back on.
type Conn interface {
	Request() messages.Request
	Respond(resp messages.Response) error
	Close() error
}

// Client sends calls to a resident server.
type Client interface {
	// Detect scans the port range for a resident answering on this channel.
	Detect(ctx context.Context) (port int, ok bool)
	// Invoke delegates one call. If no resident is found it returns
	// delegated=false and a nil error.
	Invoke(ctx context.Context, method string, arguments any) (resp messages.Response, delegated bool, err error)
}

// NewServer returns the TCP implementation.
func NewServer(opts Options) Server { return newTcpServer(opts) }

// NewClient returns the TCP implementation.
func NewClient(opts Options) Client { return newTcpClient(opts) }
