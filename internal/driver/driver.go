// Package driver advances a schedule.Session, either as fast as possible or
// paced against the wall clock with runtime control commands.
package driver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/derekprior/courtsim/internal/schedule"
)

// Observer receives the snapshot taken after each tick.
type Observer func(schedule.Snapshot)

// Run ticks the session steps times without pacing. It stops early when
// ctx is done or a tick fails.
func Run(ctx context.Context, s *schedule.Session, steps int, observe Observer) error {
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap, err := s.Tick()
		if err != nil {
			return err
		}
		if observe != nil {
			observe(snap)
		}
	}
	return nil
}

type CommandKind string

const (
	Pause       CommandKind = "pause"
	Resume      CommandKind = "resume"
	SetDuration CommandKind = "duration"
	Reset       CommandKind = "reset"
)

// Command is a runtime control message for a Loop.
type Command struct {
	Kind    CommandKind
	Minutes float64 // SetDuration only
}

// ParseCommand parses the text form of a command: "pause", "resume",
// "reset" or "duration <minutes>".
func ParseCommand(text string) (Command, error) {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	switch kind := CommandKind(fields[0]); kind {
	case Pause, Resume, Reset:
		if len(fields) != 1 {
			return Command{}, fmt.Errorf("%s takes no arguments", kind)
		}
		return Command{Kind: kind}, nil
	case SetDuration:
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("usage: duration <minutes>")
		}
		m, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || m <= 0 {
			return Command{}, fmt.Errorf("invalid duration %q", fields[1])
		}
		return Command{Kind: SetDuration, Minutes: m}, nil
	default:
		return Command{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

type LoopOptions struct {
	// Interval is the wall-clock time per simulated minute.
	Interval time.Duration
	// Ticks, when set, replaces the ticker built from Interval.
	Ticks <-chan time.Time
	// Minutes stops the loop once the session reaches it. Zero runs until
	// the context is done.
	Minutes int
	Logger  zerolog.Logger
	Publish Observer
}

// Loop paces a session. The goroutine running Run is the only one that
// touches the session; everyone else talks to it through Send.
type Loop struct {
	session  *schedule.Session
	opts     LoopOptions
	log      zerolog.Logger
	commands chan Command
	paused   bool
}

func NewLoop(s *schedule.Session, opts LoopOptions) *Loop {
	return &Loop{
		session:  s,
		opts:     opts,
		log:      opts.Logger,
		commands: make(chan Command, 16),
	}
}

// Send queues a command for the loop. It blocks until the loop has room or
// ctx is done.
func (l *Loop) Send(ctx context.Context, cmd Command) error {
	select {
	case l.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the session until ctx is done, the configured minutes have
// elapsed, or a tick fails. Reaching the minute limit returns nil.
func (l *Loop) Run(ctx context.Context) error {
	ticks := l.opts.Ticks
	if ticks == nil {
		if l.opts.Interval <= 0 {
			return fmt.Errorf("loop interval must be positive, got %s", l.opts.Interval)
		}
		ticker := time.NewTicker(l.opts.Interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	l.log.Info().Dur("interval", l.opts.Interval).Int("minutes", l.opts.Minutes).Msg("loop started")
	l.publish(l.session.Snapshot())

	for {
		select {
		case <-ctx.Done():
			l.log.Info().Int("minute", l.session.Now()).Msg("loop stopped")
			return nil
		case cmd := <-l.commands:
			if err := l.apply(cmd); err != nil {
				l.log.Warn().Err(err).Str("command", string(cmd.Kind)).Msg("command rejected")
			}
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			l.drain()
			if l.paused {
				continue
			}
			snap, err := l.session.Tick()
			if err != nil {
				return err
			}
			l.publish(snap)
			if l.opts.Minutes > 0 && snap.Time >= l.opts.Minutes {
				l.log.Info().Int("minute", snap.Time).Msg("run complete")
				return nil
			}
		}
	}
}

// drain applies every queued command so a tick never overtakes a command
// sent before it.
func (l *Loop) drain() {
	for {
		select {
		case cmd := <-l.commands:
			if err := l.apply(cmd); err != nil {
				l.log.Warn().Err(err).Str("command", string(cmd.Kind)).Msg("command rejected")
			}
		default:
			return
		}
	}
}

func (l *Loop) apply(cmd Command) error {
	switch cmd.Kind {
	case Pause:
		l.paused = true
	case Resume:
		l.paused = false
	case SetDuration:
		if err := l.session.SetMatchDuration(cmd.Minutes); err != nil {
			return err
		}
	case Reset:
		if err := l.session.Reset(l.session.Facility()); err != nil {
			return err
		}
		l.publish(l.session.Snapshot())
	default:
		return fmt.Errorf("unknown command %q", cmd.Kind)
	}
	l.log.Info().Str("command", string(cmd.Kind)).Int("minute", l.session.Now()).Msg("command applied")
	return nil
}

func (l *Loop) publish(snap schedule.Snapshot) {
	if l.opts.Publish != nil {
		l.opts.Publish(snap)
	}
}
