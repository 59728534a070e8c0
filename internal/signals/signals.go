// Package signals turns process interrupts into context cancellation so the
// streaming loop can stop between messages.
package signals

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// Controller owns the signal subscription installed by Install.
type Controller struct {
	ch     chan os.Signal
	cancel context.CancelFunc
	logger *slog.Logger

	interrupted atomic.Bool
	done        chan struct{}
	once        sync.Once
}

// Install returns a context that is cancelled on the first of sigs
// (SIGINT and SIGTERM when none are given). Later signals are logged and
// otherwise ignored; the process keeps shutting down the normal way.
func Install(parent context.Context, logger *slog.Logger, sigs ...os.Signal) (context.Context, *Controller) {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, cancel := context.WithCancel(parent)
	c := &Controller{
		ch:     make(chan os.Signal, 1),
		cancel: cancel,
		logger: logger,
		done:   make(chan struct{}),
	}
	signal.Notify(c.ch, sigs...)
	go c.watch()
	return ctx, c
}

func (c *Controller) watch() {
	for {
		select {
		case sig := <-c.ch:
			if c.interrupted.CompareAndSwap(false, true) {
				c.logger.Info("Received signal, shutting down", "signal", sig.String())
				c.cancel()
			} else {
				c.logger.Debug("Shutdown already in progress", "signal", sig.String())
			}
		case <-c.done:
			return
		}
	}
}

// Interrupted reports whether a signal has been received.
func (c *Controller) Interrupted() bool {
	return c.interrupted.Load()
}

// Restore stops signal delivery and cancels the context. Safe to call more
// than once.
func (c *Controller) Restore() {
	c.once.Do(func() {
		signal.Stop(c.ch)
		close(c.done)
		c.cancel()
	})
}
