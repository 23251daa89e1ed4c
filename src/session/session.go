package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"screenshot-plugin/src/channel"
	"screenshot-plugin/src/clipboard"
	"screenshot-plugin/src/notification"
	"screenshot-plugin/src/plugin"
)

var ErrNoImage = errors.New("reply carries no image")

// Dispatcher answers one method call. *plugin.Handler satisfies it.
type Dispatcher interface {
	HandleMethodCall(ctx context.Context, call plugin.MethodCall) plugin.Reply
}

// Target receives the reply of one call.
type Target interface {
	Deliver(reply plugin.Reply) error
	Close()
}

// Execute runs call through d and hands the reply to target. The returned
// error is a delivery failure; failures of the call itself are in the reply.
func Execute(ctx context.Context, d Dispatcher, call plugin.MethodCall, target Target) (plugin.Reply, error) {
	if d == nil {
		return plugin.Reply{}, errors.New("dispatcher is required")
	}
	if target == nil {
		return plugin.Reply{}, errors.New("target is required")
	}
	defer target.Close()

	reply := d.HandleMethodCall(ctx, call)
	if err := target.Deliver(reply); err != nil {
		log.Printf("SESSION: delivery of %s reply failed: %v", reply.Kind, err)
		return reply, err
	}
	return reply, nil
}

// Image extracts the PNG and its size from a successful capture reply. ok is
// false for a null success and for any other reply kind.
func Image(reply plugin.Reply) (data []byte, width, height int, ok bool) {
	if reply.Kind != plugin.ReplySuccess {
		return nil, 0, 0, false
	}
	m, isMap := reply.Value.(map[string]any)
	if !isMap {
		return nil, 0, 0, false
	}
	data, _ = m["bytes"].([]byte)
	width, _ = m["width"].(int)
	height, _ = m["height"].(int)
	return data, width, height, len(data) > 0
}

// ClipboardTarget copies a captured image to the clipboard. Cancellations
// are silent; failures are shown to the user when Notify is set.
type ClipboardTarget struct {
	Notify bool
}

func (t ClipboardTarget) Deliver(reply plugin.Reply) error {
	switch reply.Kind {
	case plugin.ReplyError:
		if t.Notify {
			notification.ShowInfo("Screenshot failed", reply.Err.Message)
		}
		return nil
	case plugin.ReplyNotImplemented:
		return nil
	}
	data, w, h, ok := Image(reply)
	if !ok {
		log.Printf("SESSION: capture cancelled, clipboard untouched")
		return nil
	}
	if err := clipboard.WriteImage(data); err != nil {
		if t.Notify {
			notification.ShowInfo("Clipboard error", err.Error())
		}
		return fmt.Errorf("clipboard error: %w", err)
	}
	log.Printf("SESSION: %dx%d screenshot copied to clipboard", w, h)
	return nil
}

func (ClipboardTarget) Close() {}

// ChannelTarget answers a call that arrived over the method channel.
type ChannelTarget struct {
	Conn channel.Conn
}

func (t ChannelTarget) Deliver(reply plugin.Reply) error {
	if t.Conn == nil {
		return errors.New("channel target missing connection")
	}
	return t.Conn.Respond(channel.ResponseFromReply(t.Conn.Request().ID, reply))
}

func (t ChannelTarget) Close() {
	if t.Conn != nil {
		_ = t.Conn.Close()
	}
}

// FileTarget writes the PNG to Path, or to Writer (default stdout) when
// Path is "-" or empty.
type FileTarget struct {
	Path   string
	Writer io.Writer
}

func (t FileTarget) Deliver(reply plugin.Reply) error {
	data, _, _, ok := Image(reply)
	if !ok {
		if reply.Kind == plugin.ReplySuccess {
			return nil
		}
		return ErrNoImage
	}
	if t.Path == "" || t.Path == "-" {
		w := t.Writer
		if w == nil {
			w = os.Stdout
		}
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(t.Path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", t.Path, err)
	}
	return nil
}

func (FileTarget) Close() {}

// Multi delivers to every target in order and reports the first failure.
type Multi []Target

func (m Multi) Deliver(reply plugin.Reply) error {
	var first error
	for _, t := range m {
		if err := t.Deliver(reply); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) Close() {
	for _, t := range m {
		t.Close()
	}
}
