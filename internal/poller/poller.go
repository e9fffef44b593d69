// Package poller drives the unbounded fetch loop that tails a single
// CloudWatch log group/stream pair and writes every new event to a sink.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yoskmr/cwtail/internal/format"
)

// DefaultInterval is the tick interval used when none is configured.
const DefaultInterval = 2 * time.Second

// Event is a single log line fetched from the source. Events are
// ephemeral: formatted, written, and dropped.
type Event struct {
	TimestampMs int64
	Message     string
}

// LogSource is the remote logging API the poller drives.
type LogSource interface {
	// ResolveStream returns the id of the most recently active stream in
	// the group. A group with no streams yet yields ErrStreamNotFound.
	ResolveStream(ctx context.Context, logGroupName string) (string, error)

	// FetchEvents returns the events recorded after nextToken (nil means
	// from the head) along with the token to resume from. Events arrive
	// in the order the service recorded them.
	FetchEvents(ctx context.Context, streamID string, nextToken *string) ([]Event, *string, error)
}

// Sink receives formatted log lines and diagnostic lines.
type Sink interface {
	Write(line string) error
}

// Config holds the immutable parameters of one polling run.
type Config struct {
	LogGroupName  string
	Region        string
	LogStreamName string // optional; resolved from the group when empty
	Interval      time.Duration
	TimeFormat    string
	Output        format.Style
}

// WithDefaults validates cfg and fills unset optional fields.
func (c Config) WithDefaults() (Config, error) {
	if c.LogGroupName == "" {
		return Config{}, &ConfigError{Field: "log group", Reason: "must not be empty"}
	}
	if c.Region == "" {
		return Config{}, &ConfigError{Field: "region", Reason: "must not be empty"}
	}
	if c.Interval < 0 {
		return Config{}, &ConfigError{Field: "interval", Reason: "must be positive"}
	}
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if c.TimeFormat == "" {
		c.TimeFormat = format.DefaultTimePattern
	}
	style, err := format.ParseStyle(string(c.Output))
	if err != nil {
		return Config{}, &ConfigError{Field: "output format", Reason: err.Error()}
	}
	c.Output = style
	return c, nil
}

// cursor tracks the poller's position in the upstream stream. It is owned
// exclusively by the loop; nextToken is replaced, never merged.
type cursor struct {
	streamID  string
	nextToken *string
}

// Poller tails one log group/stream pair. One goroutine drives the loop;
// there is no internal parallelism and no overlapping fetches.
type Poller struct {
	source LogSource
	sink   Sink
}

// New creates a Poller writing to sink.
func New(source LogSource, sink Sink) *Poller {
	return &Poller{source: source, sink: sink}
}

// Run polls until ctx is cancelled or a fatal error occurs. Recoverable
// conditions (throttling, network blips, stream rotation, a group with no
// streams yet) are absorbed inside the loop and surfaced only as
// diagnostic lines on the sink. Cancellation is observed at tick
// boundaries; a fetch in flight is never interrupted by the loop itself.
func (p *Poller) Run(ctx context.Context, cfg Config) error {
	cfg, err := cfg.WithDefaults()
	if err != nil {
		return err
	}
	f := format.New(cfg.Output, cfg.TimeFormat)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	var cur cursor
	for {
		if err := p.tick(ctx, cfg, f, &cur); err != nil {
			return fmt.Errorf("tail %s (%s): %w", cfg.LogGroupName, cfg.Region, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// tick performs one resolve-if-needed plus fetch cycle. It returns an
// error only for fatal conditions; everything recoverable becomes a
// diagnostic line and a nil return.
func (p *Poller) tick(ctx context.Context, cfg Config, f *format.Formatter, cur *cursor) error {
	if cur.streamID == "" {
		id, err := p.resolve(ctx, cfg)
		switch {
		case err == nil:
			cur.streamID = id
			cur.nextToken = nil
		case errors.Is(err, ErrStreamNotFound):
			// The group may not have produced its first stream yet.
			// Keep waiting rather than aborting.
			p.diag("no log stream in group %q yet, waiting", cfg.LogGroupName)
			return nil
		case IsTransient(err):
			p.diag("resolve log stream: %v (will retry)", err)
			return nil
		default:
			return err
		}
	}

	events, next, err := p.source.FetchEvents(ctx, cur.streamID, cur.nextToken)
	switch {
	case err == nil:
	case errors.Is(err, ErrStreamNotFound):
		// Stream rotated or expired; re-resolve from scratch next tick.
		p.diag("log stream %q is gone, re-resolving", cur.streamID)
		cur.streamID = ""
		cur.nextToken = nil
		return nil
	case IsTransient(err):
		p.diag("fetch events: %v (will retry)", err)
		return nil
	default:
		return err
	}

	if len(events) == 0 {
		return nil
	}
	for _, ev := range events {
		// Trust source ordering; out-of-order batches pass through as-is.
		for _, line := range f.Format(ev.TimestampMs, ev.Message) {
			if err := p.sink.Write(line); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
	}
	cur.nextToken = next
	return nil
}

// resolve picks the stream to tail: the configured name when set,
// otherwise the most recently active stream in the group.
func (p *Poller) resolve(ctx context.Context, cfg Config) (string, error) {
	if cfg.LogStreamName != "" {
		return cfg.LogStreamName, nil
	}
	return p.source.ResolveStream(ctx, cfg.LogGroupName)
}

// DiagPrefix marks diagnostic lines so they are distinguishable from log
// output sharing the same sink.
const DiagPrefix = "cwtail: "

func (p *Poller) diag(msg string, args ...any) {
	_ = p.sink.Write(DiagPrefix + fmt.Sprintf(msg, args...))
}
