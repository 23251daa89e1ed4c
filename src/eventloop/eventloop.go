package eventloop

import (
	"context"
	"fmt"
	"log"
	"runtime"

	"screenshot-plugin/src/channel"
	"screenshot-plugin/src/config"
	"screenshot-plugin/src/hotkey"
	"screenshot-plugin/src/plugin"
	"screenshot-plugin/src/session"
	"screenshot-plugin/src/tray"
)

// Loop is the single-threaded coordinator for channel calls, hotkey presses
// and tray actions. Every capture runs on the loop goroutine, which is
// locked to its OS thread so overlay windows are pumped where they were
// created.
type Loop struct {
	dispatcher     session.Dispatcher
	srv            channel.Server
	channelName    string
	includeCursor  bool
	local          chan plugin.Mode
	defaultTooltip string
	newTarget      func() session.Target
}

// New creates a loop that dispatches through d and listens on srv.
func New(cfg *config.Config, d session.Dispatcher, srv channel.Server) *Loop {
	if cfg == nil {
		cfg, _ = config.Load()
	}
	return &Loop{
		dispatcher:     d,
		srv:            srv,
		channelName:    cfg.ChannelName,
		includeCursor:  cfg.IncludeCursor,
		local:          make(chan plugin.Mode, 4),
		defaultTooltip: "Screenshot Plugin",
		newTarget:      func() session.Target { return session.ClipboardTarget{Notify: true} },
	}
}

// SetDefaultTooltip optionally sets the tray tooltip base text.
func (l *Loop) SetDefaultTooltip(tt string) { l.defaultTooltip = tt }

func (l *Loop) setBusy(b bool) {
	if b {
		tray.UpdateTooltip("Screenshot Plugin: capturing...")
	} else {
		tray.UpdateTooltip(l.defaultTooltip)
	}
}

// Trigger queues a local capture whose result goes to the clipboard. It
// never blocks; presses arriving while the queue is full are dropped.
func (l *Loop) Trigger(mode plugin.Mode) bool {
	select {
	case l.local <- mode:
		return true
	default:
		log.Printf("EVENTLOOP: %s capture dropped, loop busy", mode)
		return false
	}
}

// StartHotkey registers a global hotkey that triggers a capture in mode.
func (l *Loop) StartHotkey(ctx context.Context, combo string, mode plugin.Mode) error {
	if combo == "" {
		return nil
	}
	return hotkey.Listen(ctx, combo, func() { l.Trigger(mode) })
}

// Run starts the channel server and processes calls until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := l.srv.Start(ctx); err != nil {
		return err
	}
	defer l.srv.Close()
	if p := l.srv.Port(); p > 0 {
		log.Printf("EVENTLOOP: resident listening on 127.0.0.1:%d", p)
		tray.SetAboutExtra(fmt.Sprintf("Channel %s on TCP port %d", l.channelName, p))
	}

	// Accept in the background so local triggers are never starved.
	reqCh := make(chan channel.Conn, 4)
	go func() {
		defer close(reqCh)
		for {
			conn, err := l.srv.Next(ctx)
			if err != nil {
				return
			}
			select {
			case reqCh <- conn:
			case <-ctx.Done():
				_ = conn.Close()
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case mode := <-l.local:
			l.handleLocal(ctx, mode)
		case conn, ok := <-reqCh:
			if !ok {
				return nil
			}
			l.handleConn(ctx, conn)
		}
	}
}

func (l *Loop) handleConn(ctx context.Context, conn channel.Conn) {
	req := conn.Request()
	target := session.ChannelTarget{Conn: conn}
	if req.Channel != "" && req.Channel != l.channelName {
		log.Printf("EVENTLOOP: call %s for unknown channel %q", req.ID, req.Channel)
		_ = target.Deliver(plugin.NotImplemented())
		target.Close()
		return
	}
	l.execute(ctx, plugin.MethodCall{Method: req.Method, Arguments: req.Arguments}, target)
}

func (l *Loop) handleLocal(ctx context.Context, mode plugin.Mode) {
	log.Printf("EVENTLOOP: local %s capture", mode)
	req := plugin.CaptureRequest{Mode: mode, IncludeCursor: l.includeCursor}
	l.execute(ctx, plugin.MethodCall{Method: plugin.MethodCapture, Arguments: req.Arguments()}, l.newTarget())
}

func (l *Loop) execute(ctx context.Context, call plugin.MethodCall, target session.Target) {
	l.setBusy(true)
	defer l.setBusy(false)
	reply, err := session.Execute(ctx, l.dispatcher, call, target)
	if err != nil {
		log.Printf("EVENTLOOP: delivery failed: %v", err)
		return
	}
	log.Printf("EVENTLOOP: %s call answered with %s", call.Method, reply.Kind)
}
