package hotkey

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Windows virtual-key codes for named keys; modifiers list both the left and
// right variants.
var namedKeys = map[string][]uint16{
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

	"space":       {32},
	"enter":       {13},
	"esc":         {27},
	"tab":         {9},
	"backspace":   {8},
	"delete":      {46},
	"insert":      {45},
	"home":        {36},
	"end":         {35},
	"pageup":      {33},
	"pagedown":    {34},
	"left":        {37},
	"up":          {38},
	"right":       {39},
	"down":        {40},
	"printscreen": {44}, // VK_SNAPSHOT
}

var aliases = map[string]string{
	"control": "ctrl",
	"win":     "cmd",
	"super":   "cmd",
	"return":  "enter",
	"escape":  "esc",
	"del":     "delete",
	"ins":     "insert",
	"pgup":    "pageup",
	"pgdn":    "pagedown",
	"prtsc":   "printscreen",
	"print":   "printscreen",
}

// Combo is a parsed key combination such as "Ctrl+Shift+S".
type Combo struct {
	text string
	keys []comboKey
}

type comboKey struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// Parse validates combo and resolves every key to its rawcodes.
func Parse(combo string) (*Combo, error) {
	names := parseHotkey(combo)
	if len(names) == 0 {
		return nil, fmt.Errorf("empty hotkey %q", combo)
	}
	c := &Combo{text: combo}
	for _, name := range names {
		codes := keyNameToRawcodes(name)
		if len(codes) == 0 {
			return nil, fmt.Errorf("hotkey %q: unknown key %q", combo, name)
		}
		c.keys = append(c.keys, comboKey{name: name, rawcodes: codes})
	}
	return c, nil
}

func (c *Combo) String() string { return c.text }

// observe feeds one key event and reports whether it completed the combo.
// Key states reset after every activation.
func (c *Combo) observe(down bool, rawcode uint16) bool {
	for i := range c.keys {
		for _, code := range c.keys[i].rawcodes {
			if code == rawcode {
				c.keys[i].pressed = down
				break
			}
		}
	}
	if !down {
		return false
	}
	for i := range c.keys {
		if !c.keys[i].pressed {
			return false
		}
	}
	for i := range c.keys {
		c.keys[i].pressed = false
	}
	return true
}

var hookMu sync.Mutex

// Listen registers the hotkey and calls callback on every activation until
// ctx is done. The callback runs on the hook goroutine and must not block.
func Listen(ctx context.Context, combo string, callback func()) error {
	c, err := Parse(combo)
	if err != nil {
		return err
	}
	log.Printf("HOTKEY: listening for %s", c)

	hookMu.Lock()
	evChan := gohook.Start()
	hookMu.Unlock()
	if evChan == nil {
		return fmt.Errorf("hotkey %s: gohook.Start returned nil channel", c)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("HOTKEY: PANIC in hook goroutine: %v", r)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				hookMu.Lock()
				gohook.End()
				hookMu.Unlock()
				log.Printf("HOTKEY: listener for %s stopped", c)
				return
			case ev, ok := <-evChan:
				if !ok {
					log.Printf("HOTKEY: event channel closed")
					return
				}
				if ev.Kind != gohook.KeyDown && ev.Kind != gohook.KeyUp {
					continue
				}
				if c.observe(ev.Kind == gohook.KeyDown, ev.Rawcode) {
					log.Printf("HOTKEY: %s activated", c)
					if callback != nil {
						callback()
					}
				}
			}
		}
	}()
	return nil
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if alias, ok := aliases[part]; ok {
			part = alias
		}
		keys = append(keys, part)
	}
	return keys
}

// keyNameToRawcodes maps a key name to its Windows virtual key code rawcodes.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if alias, ok := aliases[keyName]; ok {
		keyName = alias
	}
	if codes, ok := namedKeys[keyName]; ok {
		return codes
	}

	if len(keyName) == 1 {
		switch ch := keyName[0]; {
		case ch >= 'a' && ch <= 'z':
			return []uint16{uint16(ch-'a') + 65} // 0x41-0x5A
		case ch >= '0' && ch <= '9':
			return []uint16{uint16(ch-'0') + 48} // 0x30-0x39
		}
	}

	if strings.HasPrefix(keyName, "f") {
		if n, err := strconv.Atoi(keyName[1:]); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)} // VK_F1 = 112
		}
	}

	log.Printf("HOTKEY: unknown key name '%s', cannot map to rawcode", keyName)
	return nil
}
