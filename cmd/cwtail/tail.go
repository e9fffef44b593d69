package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yoskmr/cwtail/internal/client"
	"github.com/yoskmr/cwtail/internal/format"
	"github.com/yoskmr/cwtail/internal/macro"
	"github.com/yoskmr/cwtail/internal/poller"
	"github.com/yoskmr/cwtail/internal/source"
)

// tailFlags are the invocation parameters shared by tail and add. They
// map one-to-one onto a macro.
type tailFlags struct {
	region     string
	stream     string
	intervalMs int
	timeFormat string
	output     string
}

func (f *tailFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.region, "region", os.Getenv("AWS_REGION"),
		"AWS region of the log group (or set AWS_REGION)")
	cmd.Flags().StringVar(&f.stream, "stream", "",
		"log stream name (default: the most recently active stream)")
	cmd.Flags().IntVar(&f.intervalMs, "interval", 2000,
		"poll interval in milliseconds")
	cmd.Flags().StringVar(&f.timeFormat, "time-format", format.DefaultTimePattern,
		"timestamp pattern (tokens: YYYY MM DD HH hh mm ss SSS)")
	cmd.Flags().StringVar(&f.output, "format", string(format.StyleStandard),
		"output format: standard or lambda")
}

func (f *tailFlags) macro(logGroupName string) macro.Macro {
	return macro.Macro{
		LogGroupName:      logGroupName,
		Region:            f.region,
		LogStreamName:     f.stream,
		TimeFormat:        f.timeFormat,
		RefreshIntervalMs: f.intervalMs,
		OutputFormat:      f.output,
	}
}

// pollConfig translates a macro into the poller's configuration. Zero
// fields stay zero; the poller fills its own defaults.
func pollConfig(m macro.Macro) poller.Config {
	return poller.Config{
		LogGroupName:  m.LogGroupName,
		Region:        m.Region,
		LogStreamName: m.LogStreamName,
		Interval:      time.Duration(m.RefreshIntervalMs) * time.Millisecond,
		TimeFormat:    m.TimeFormat,
		Output:        format.Style(m.OutputFormat),
	}
}

func newTailCommand(a *app) *cobra.Command {
	flags := &tailFlags{}
	var save bool

	cmd := &cobra.Command{
		Use:   "tail <log-group>",
		Short: "Poll a log group and print new events until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			m := flags.macro(args[0])
			if save {
				store, err := a.openStore(ctx, flags.region)
				if err != nil {
					return err
				}
				if _, err := store.Put(ctx, m); err != nil {
					return fmt.Errorf("save macro: %w", err)
				}
			}
			return a.startTailing(ctx, pollConfig(m))
		},
	}
	flags.bind(cmd)
	cmd.Flags().BoolVar(&save, "save", false, "also save this invocation as a macro")
	return cmd
}

func newRunCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <macro-name>",
		Short: "Start tailing using a saved macro",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			store, err := a.openStore(ctx, "")
			if err != nil {
				return err
			}
			m, err := findMacro(ctx, store, args[0])
			if err != nil {
				return err
			}
			return a.startTailing(ctx, pollConfig(m))
		},
	}
	return cmd
}

// startTailing wires config -> client -> source -> poller and blocks
// until cancellation or a fatal error. Interruption is a normal exit.
func (a *app) startTailing(ctx context.Context, cfg poller.Config) error {
	cfg, err := cfg.WithDefaults()
	if err != nil {
		return err
	}
	awsCfg, err := client.Load(ctx, client.AuthOptions{Region: cfg.Region, Profile: a.profile})
	if err != nil {
		return fmt.Errorf("load AWS configuration: %w", err)
	}

	src := source.New(client.NewLogs(awsCfg), cfg.LogGroupName)
	p := poller.New(src, consoleSink{w: os.Stdout})

	err = p.Run(ctx, cfg)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
