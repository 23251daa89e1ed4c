package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"screenshot-plugin/src/channel"
	"screenshot-plugin/src/config"
	"screenshot-plugin/src/eventloop"
	"screenshot-plugin/src/logutil"
	"screenshot-plugin/src/notification"
	"screenshot-plugin/src/plugin"
	"screenshot-plugin/src/runtimeinit"
	"screenshot-plugin/src/tray"
)

const detectTimeout = 2 * time.Second

type mainOptions struct {
	envFile       string
	hotkeyMode    string
	includeCursor bool
}

// residentDetector finds a resident already serving the channel.
type residentDetector interface {
	Detect(ctx context.Context) (port int, ok bool)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"screenshot-plugin"}
	}

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screenshot-plugin",
		Short:         "Resident screenshot service with tray, hotkey and capture channel",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cursor *bool
			if cmd.Flags().Changed("include-cursor") {
				cursor = &opts.includeCursor
			}
			return runResident(*opts, cursor)
		},
	}

	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "Path to .env file (highest precedence)")
	cmd.Flags().StringVar(&opts.hotkeyMode, "hotkey-mode", "", "Capture mode for the hotkey: region or screen")
	cmd.Flags().BoolVar(&opts.includeCursor, "include-cursor", false, "Draw the cursor into hotkey and tray screen captures")

	return cmd
}

// normalizeLegacyArgs maps single-dash long flags to their cobra form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range []string{"env-file", "hotkey-mode", "include-cursor"} {
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "--" + name + arg[len("-"+name):]
			}
		}
	}

	return normalized
}

func runResident(opts mainOptions, includeCursor *bool) error {
	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			EnvFileOverride:       opts.envFile,
			HotkeyModeOverride:    opts.hotkeyMode,
			IncludeCursorOverride: includeCursor,
		},
		SetupLogging:       logutil.Setup,
		RequireClipboard:   true,
		ShowBlockingErrors: true,
	})
	if err != nil {
		return err
	}
	cfg := rt.Config
	chOpts := channel.OptionsFromConfig(cfg)

	if port, ok := residentAlreadyRunning(channel.NewClient(chOpts)); ok {
		fmt.Printf("one is already running on port %d\n", port)
		return fmt.Errorf("resident already running on port %d", port)
	}

	log.Printf("Screenshot plugin initialized")
	log.Printf("Channel: %s", cfg.ChannelName)
	log.Printf("Hotkey: %s (%s)", cfg.Hotkey, cfg.HotkeyMode)

	tooltip := fmt.Sprintf("Screenshot Plugin - Press %s to capture", cfg.Hotkey)
	tray.SetAboutHotkey(cfg.Hotkey)

	loop := eventloop.New(cfg, rt.Handler, channel.NewServer(chOpts))
	loop.SetDefaultTooltip(tooltip)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trayIcon, err := tray.New(tray.Config{
		Title:           "Screenshot Plugin",
		Tooltip:         tooltip,
		OnCaptureRegion: func() { loop.Trigger(plugin.ModeRegion) },
		OnCaptureScreen: func() { loop.Trigger(plugin.ModeScreen) },
		OnExit:          cancel,
	})
	if err != nil {
		return err
	}
	go trayIcon.Run()
	defer trayIcon.Destroy()

	if err := loop.StartHotkey(ctx, cfg.Hotkey, hotkeyMode(cfg)); err != nil {
		notification.ShowBlockingError("Hotkey unavailable", fmt.Sprintf("Could not register %s: %v", cfg.Hotkey, err))
		return err
	}

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("event loop stopped: %v", err)
		return err
	}
	log.Printf("Screenshot plugin exiting")
	return nil
}

func residentAlreadyRunning(d residentDetector) (int, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), detectTimeout)
	defer cancel()
	port, ok := d.Detect(ctx)
	if ok {
		log.Printf("Pre-flight: resident answering on port %d", port)
	}
	return port, ok
}

func hotkeyMode(cfg *config.Config) plugin.Mode {
	if cfg.HotkeyMode == config.HotkeyModeScreen {
		return plugin.ModeScreen
	}
	return plugin.ModeRegion
}
