package runtimeinit

import (
	"fmt"
	"log"

	"screenshot-plugin/src/clipboard"
	"screenshot-plugin/src/config"
	"screenshot-plugin/src/encoder"
	"screenshot-plugin/src/gui"
	"screenshot-plugin/src/notification"
	"screenshot-plugin/src/overlay"
	"screenshot-plugin/src/plugin"
	"screenshot-plugin/src/screenshot"
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// RequireClipboard makes a clipboard init failure fatal.
	RequireClipboard bool
	// ShowBlockingErrors reports fatal startup errors in a dialog.
	ShowBlockingErrors bool
}

// Runtime is everything a process needs to answer capture calls.
type Runtime struct {
	Config  *config.Config
	Handler *plugin.Handler
}

func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	screenshot.EnableDPIAwareness()

	if err := clipboard.Init(); err != nil {
		if opts.RequireClipboard {
			err = fmt.Errorf("failed to initialize clipboard: %w", err)
			if opts.ShowBlockingErrors {
				notification.ShowBlockingError("Clipboard unavailable", err.Error())
			}
			return nil, err
		}
		log.Printf("Clipboard unavailable, continuing: %v", err)
	}

	return &Runtime{Config: cfg, Handler: NewHandler(cfg)}, nil
}

// NewHandler wires the platform capturer, the overlay selector and a PNG
// encoder configured from cfg.
func NewHandler(cfg *config.Config) *plugin.Handler {
	enc := encoder.New(encoder.ParseCompression(cfg.PNGCompression))
	selector := overlay.NewSelector(gui.Options{Opacity: cfg.OverlayOpacity})
	log.Printf("Capture handler ready (overlay opacity %d, compression %q)", cfg.OverlayOpacity, cfg.PNGCompression)
	return plugin.NewHandler(screenshot.New(), selector, enc)
}
