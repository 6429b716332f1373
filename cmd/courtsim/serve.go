package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/derekprior/courtsim/internal/driver"
	"github.com/derekprior/courtsim/internal/feed"
)

type serveFlags struct {
	addr     string
	interval time.Duration
}

func runServe(ctx context.Context, flags simFlags, serve serveFlags) error {
	log, err := newLogger(flags.logLevel)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(flags.configFile)
	if err != nil {
		return err
	}
	s, err := newSession(cfg, flags, log)
	if err != nil {
		return err
	}

	// runCtx ends when the loop finishes its minutes, which takes the
	// server and any blocked client commands down with it.
	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	// The loop reports to the hub and the hub sends commands back, so the
	// hub is built first against a forwarding sink.
	var loop *driver.Loop
	hub := feed.NewHub(sinkFunc(func(ctx context.Context, cmd driver.Command) error {
		ctx, stop := context.WithCancel(ctx)
		defer stop()
		defer context.AfterFunc(runCtx, stop)()
		return loop.Send(ctx, cmd)
	}), log.With().Str("component", "feed").Logger())
	loop = driver.NewLoop(s, driver.LoopOptions{
		Interval: serve.interval,
		Minutes:  runMinutes(cfg, flags),
		Logger:   log.With().Str("component", "loop").Logger(),
		Publish:  hub.Publish,
	})

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: serve.addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		defer hub.Close()
		return loop.Run(runCtx)
	})
	g.Go(func() error {
		<-runCtx.Done()
		shutdown, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		return srv.Shutdown(shutdown)
	})

	fmt.Printf("✓ Streaming snapshots on ws://%s/ws (Ctrl-C to stop)\n", serve.addr)
	return g.Wait()
}

type sinkFunc func(ctx context.Context, cmd driver.Command) error

func (f sinkFunc) Send(ctx context.Context, cmd driver.Command) error {
	return f(ctx, cmd)
}
