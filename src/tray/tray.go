package tray

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/getlantern/systray"

	"screenshot-plugin/src/notification"
)

// Config wires menu items to the resident's actions. Callbacks run on the
// tray goroutine and must hand work off without blocking.
type Config struct {
	Title           string
	Tooltip         string
	OnCaptureRegion func()
	OnCaptureScreen func()
	OnExit          func()
}

// Tray is the notification-area icon of the resident process.
type Tray struct {
	cfg  Config
	quit chan struct{}
	once sync.Once
}

var (
	stateMu     sync.Mutex
	ready       bool
	aboutHotkey string
	aboutExtra  []string
)

func New(cfg Config) (*Tray, error) {
	if cfg.Title == "" {
		return nil, fmt.Errorf("tray title is required")
	}
	return &Tray{cfg: cfg, quit: make(chan struct{})}, nil
}

// Run blocks until the tray exits.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Destroy removes the icon; Run returns afterwards.
func (t *Tray) Destroy() {
	t.once.Do(func() {
		close(t.quit)
		systray.Quit()
	})
}

func (t *Tray) onReady() {
	systray.SetIcon(Icon())
	systray.SetTitle(t.cfg.Title)
	systray.SetTooltip(t.cfg.Tooltip)

	mRegion := systray.AddMenuItem("Capture Region", "Select a region and copy it to the clipboard")
	mScreen := systray.AddMenuItem("Capture Screen", "Copy the whole screen to the clipboard")
	systray.AddSeparator()
	mAbout := systray.AddMenuItem("About", "About this tool")
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	stateMu.Lock()
	ready = true
	stateMu.Unlock()
	log.Printf("TRAY: ready")

	go func() {
		for {
			select {
			case <-mRegion.ClickedCh:
				invoke(t.cfg.OnCaptureRegion)
			case <-mScreen.ClickedCh:
				invoke(t.cfg.OnCaptureScreen)
			case <-mAbout.ClickedCh:
				notification.ShowInfo("About "+t.cfg.Title, aboutText(t.cfg.Title))
			case <-mQuit.ClickedCh:
				t.Destroy()
				return
			case <-t.quit:
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	stateMu.Lock()
	ready = false
	stateMu.Unlock()
	log.Printf("TRAY: exited")
	invoke(t.cfg.OnExit)
}

func invoke(fn func()) {
	if fn != nil {
		fn()
	}
}

// UpdateTooltip changes the tooltip once the tray is up; earlier calls are
// dropped.
func UpdateTooltip(text string) {
	stateMu.Lock()
	defer stateMu.Unlock()
	if ready {
		systray.SetTooltip(text)
	}
}

// SetAboutHotkey records the configured hotkey for the About dialog.
func SetAboutHotkey(hotkey string) {
	stateMu.Lock()
	defer stateMu.Unlock()
	aboutHotkey = hotkey
}

// SetAboutExtra appends a line to the About dialog.
func SetAboutExtra(line string) {
	stateMu.Lock()
	defer stateMu.Unlock()
	aboutExtra = append(aboutExtra, line)
}

func aboutText(title string) string {
	stateMu.Lock()
	defer stateMu.Unlock()
	lines := []string{title, "Captures the screen or a selected region as PNG."}
	if aboutHotkey != "" {
		lines = append(lines, "Hotkey: "+aboutHotkey)
	}
	lines = append(lines, aboutExtra...)
	return strings.Join(lines, "\n")
}
