package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/kbinani/screenshot"
	"github.com/spf13/cobra"

	"screenshot-plugin/src/channel"
	"screenshot-plugin/src/config"
	"screenshot-plugin/src/logutil"
	"screenshot-plugin/src/plugin"
	"screenshot-plugin/src/runtimeinit"
	"screenshot-plugin/src/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type cliOptions struct {
	mode          string
	includeCursor bool
	outPath       string
	clipboard     bool
	jsonOutput    bool
	withBytes     bool
	verbose       bool
	standalone    bool
	envFile       string
	timeout       time.Duration
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
		args = []string{"screenshot-cli"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts, os.Stdout)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions, stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "screenshot-cli",
		Short:         "Capture the screen or a selected region as PNG",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	capture := &cobra.Command{
		Use:   "capture",
		Short: "Capture through the resident, or in-process when none is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd.Context(), *opts, stdout)
		},
	}
	capture.Flags().StringVar(&opts.mode, "mode", string(plugin.ModeRegion), "Capture mode: region or screen")
	capture.Flags().BoolVar(&opts.includeCursor, "include-cursor", false, "Draw the cursor into screen captures")
	capture.Flags().StringVarP(&opts.outPath, "out", "o", "", "Write the PNG to this path (use '-' for stdout)")
	capture.Flags().BoolVar(&opts.clipboard, "clipboard", false, "Copy the PNG to the clipboard")
	capture.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print a JSON summary of the result")
	capture.Flags().BoolVar(&opts.withBytes, "with-bytes", false, "Include base64 PNG bytes in the JSON summary")
	capture.Flags().BoolVar(&opts.standalone, "standalone", false, "Never delegate to a resident")
	capture.Flags().DurationVar(&opts.timeout, "timeout", 0, "Give up after this long (0 waits for the user)")

	displays := &cobra.Command{
		Use:   "displays",
		Short: "List active displays and their bounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDisplays(stdout, opts.jsonOutput)
		},
	}
	displays.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Path to .env file (highest precedence)")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// Configure logging before any other operation.
		if opts.verbose {
			logutil.SetupVerbose(os.Stderr)
			fmt.Fprintf(os.Stderr, "[verbose] Starting %s\n", cmd.Name())
		} else {
			log.SetOutput(io.Discard)
		}
	}

	root.AddCommand(capture, displays)
	return root
}

// normalizeLegacyArgs maps single-dash long flags to their cobra form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	long := []string{"mode", "include-cursor", "out", "clipboard", "json", "with-bytes", "verbose", "standalone", "env-file", "timeout"}
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		for _, name := range long {
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

func runCapture(ctx context.Context, opts cliOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	req, perr := plugin.ParseCaptureRequest(map[string]any{"mode": opts.mode, "includeCursor": opts.includeCursor})
	if perr != nil {
		return perr
	}

	loadOptions := config.LoadOptions{EnvFileOverride: opts.envFile}
	cfg, err := config.LoadWithOptions(loadOptions)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	target := buildTarget(opts, stdout)

	if !opts.standalone {
		reply, delegated, err := channel.Capture(ctx, channel.NewClient(channel.OptionsFromConfig(cfg)), req)
		switch {
		case err != nil:
			verbosef(opts, "Delegation error: %v; falling back to standalone", err)
		case delegated:
			verbosef(opts, "Delegated to resident")
			defer target.Close()
			return finish(reply, target.Deliver(reply))
		default:
			verbosef(opts, "No resident detected, running standalone")
		}
	}

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:      loadOptions,
		RequireClipboard: opts.clipboard,
	})
	if err != nil {
		return err
	}
	call := plugin.MethodCall{Method: plugin.MethodCapture, Arguments: req.Arguments()}
	reply, err := session.Execute(ctx, rt.Handler, call, target)
	return finish(reply, err)
}

// buildTarget routes the PNG to the requested outputs. With no output flag
// the PNG goes to stdout.
func buildTarget(opts cliOptions, stdout io.Writer) session.Target {
	var targets session.Multi
	if opts.outPath != "" {
		targets = append(targets, session.FileTarget{Path: opts.outPath, Writer: stdout})
	}
	if opts.clipboard {
		targets = append(targets, session.ClipboardTarget{})
	}
	if opts.jsonOutput {
		targets = append(targets, jsonTarget{w: stdout, withBytes: opts.withBytes})
	}
	if len(targets) == 0 {
		targets = append(targets, session.FileTarget{Writer: stdout})
	}
	return targets
}

// finish turns a reply into the command's exit status. A cancelled
// selection is not an error.
func finish(reply plugin.Reply, deliverErr error) error {
	switch reply.Kind {
	case plugin.ReplyError:
		if reply.Err != nil {
			return reply.Err
		}
		return fmt.Errorf("capture failed")
	case plugin.ReplyNotImplemented:
		return fmt.Errorf("capture not implemented by the resident")
	}
	if deliverErr != nil {
		return deliverErr
	}
	if _, _, _, ok := session.Image(reply); !ok {
		fmt.Fprintln(os.Stderr, "Capture cancelled")
	}
	return nil
}

func verbosef(opts cliOptions, format string, args ...any) {
	if opts.verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// CaptureSummary is the --json rendering of a capture reply.
type CaptureSummary struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	X         *int   `json:"x,omitempty"`
	Y         *int   `json:"y,omitempty"`
	ByteCount int    `json:"byte_count"`
	Bytes     []byte `json:"bytes,omitempty"`
	Timestamp string `json:"timestamp"`
}

type jsonTarget struct {
	w         io.Writer
	withBytes bool
}

func (t jsonTarget) Deliver(reply plugin.Reply) error {
	data, w, h, ok := session.Image(reply)
	if !ok {
		if reply.Kind != plugin.ReplySuccess {
			return nil
		}
		_, err := fmt.Fprintln(t.w, "null")
		return err
	}

	summary := CaptureSummary{
		Width:     w,
		Height:    h,
		ByteCount: len(data),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if m, isMap := reply.Value.(map[string]any); isMap {
		if x, has := m["x"].(int); has {
			summary.X = &x
		}
		if y, has := m["y"].(int); has {
			summary.Y = &y
		}
	}
	if t.withBytes {
		summary.Bytes = data
	}

	encoder := json.NewEncoder(t.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

func (jsonTarget) Close() {}

// Display describes one active monitor.
type Display struct {
	Index  int `json:"index"`
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func activeDisplays() []Display {
	n := screenshot.NumActiveDisplays()
	out := make([]Display, 0, n)
	for i := 0; i < n; i++ {
		b := screenshot.GetDisplayBounds(i)
		out = append(out, Display{Index: i, X: b.Min.X, Y: b.Min.Y, Width: b.Dx(), Height: b.Dy()})
	}
	return out
}

func listDisplays(w io.Writer, jsonOutput bool) error {
	return writeDisplays(w, activeDisplays(), jsonOutput)
}

func writeDisplays(w io.Writer, displays []Display, jsonOutput bool) error {
	if jsonOutput {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(displays)
	}
	if len(displays) == 0 {
		_, err := fmt.Fprintln(w, "no active displays")
		return err
	}
	for _, d := range displays {
		if _, err := fmt.Fprintf(w, "#%d %dx%d at (%d,%d)\n", d.Index, d.Width, d.Height, d.X, d.Y); err != nil {
			return err
		}
	}
	return nil
}
