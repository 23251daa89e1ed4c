package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"screenshot-plugin/src/channel"
	"screenshot-plugin/src/config"
	"screenshot-plugin/src/plugin"
	"screenshot-plugin/src/runtimeinit"
	"screenshot-plugin/src/session"
	"screenshot-plugin/src/worker"
)

type stressOptions struct {
	n             int
	concurrency   int
	deadline      time.Duration
	includeCursor bool
	standalone    bool
}

// captureFunc performs one screen capture and returns its reply.
type captureFunc func(ctx context.Context, req plugin.CaptureRequest) (plugin.Reply, error)

type tally struct {
	ok, mismatch, failed, timeout atomic.Int32
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-capture",
		Short:         "Stress test screen capture through the resident",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetOutput(io.Discard)
			capture, err := newCaptureFunc(*opts)
			if err != nil {
				return err
			}
			return runWithOptions(*opts, capture, os.Stdout)
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of captures to run")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "captures in flight at once")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-capture timeout")
	cmd.Flags().BoolVar(&opts.includeCursor, "include-cursor", false, "draw the cursor into every capture")
	cmd.Flags().BoolVar(&opts.standalone, "standalone", false, "capture in-process instead of through the resident")

	return cmd
}

func newCaptureFunc(opts stressOptions) (captureFunc, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if !opts.standalone {
		client := channel.NewClient(channel.OptionsFromConfig(cfg))
		return func(ctx context.Context, req plugin.CaptureRequest) (plugin.Reply, error) {
			reply, delegated, err := channel.Capture(ctx, client, req)
			if err == nil && !delegated {
				err = errors.New("no resident running")
			}
			return reply, err
		}, nil
	}
	handler := runtimeinit.NewHandler(cfg)
	return func(ctx context.Context, req plugin.CaptureRequest) (plugin.Reply, error) {
		return handler.Capture(ctx, req), nil
	}, nil
}

func runWithOptions(opts stressOptions, capture captureFunc, out io.Writer) error {
	pool := worker.New(opts.concurrency, opts.concurrency)
	req := plugin.CaptureRequest{Mode: plugin.ModeScreen, IncludeCursor: opts.includeCursor}

	var t tally
	start := time.Now()
	for i := 0; i < opts.n; i++ {
		job := func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, opts.deadline)
			defer cancel()
			reply, err := capture(ctx, req)
			if err != nil {
				return err
			}
			return verify(reply)
		}
		if err := pool.Submit(context.Background(), job, t.record); err != nil {
			t.record(err)
		}
	}
	pool.Close()
	elapsed := time.Since(start)

	fmt.Fprintf(out, "launched=%d ok=%d mismatch=%d timeout=%d err=%d elapsed=%s\n",
		opts.n, t.ok.Load(), t.mismatch.Load(), t.timeout.Load(), t.failed.Load(), elapsed)
	return nil
}

var errMismatch = errors.New("PNG does not match the reported size")

// verify checks that a capture reply carries a PNG of the size it claims.
func verify(reply plugin.Reply) error {
	if reply.Kind == plugin.ReplyError && reply.Err != nil {
		return reply.Err
	}
	data, w, h, ok := session.Image(reply)
	if !ok {
		return fmt.Errorf("%w: no image in %s reply", errMismatch, reply.Kind)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", errMismatch, err)
	}
	if cfg.Width != w || cfg.Height != h {
		return fmt.Errorf("%w: reported %dx%d, decoded %dx%d", errMismatch, w, h, cfg.Width, cfg.Height)
	}
	return nil
}

func (t *tally) record(err error) {
	switch {
	case err == nil:
		t.ok.Add(1)
	case errors.Is(err, errMismatch):
		t.mismatch.Add(1)
	case errors.Is(err, context.DeadlineExceeded):
		t.timeout.Add(1)
	default:
		t.failed.Add(1)
	}
}
