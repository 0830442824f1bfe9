package mcp

import (
	"context"
	"os"
	"time"

	"novellens/internal/logging"
)

// parentPollInterval is how often WatchParent checks the parent pid.
const parentPollInterval = 2 * time.Second

// WatchParent cancels via cancelFn once the parent process goes away, so an
// MCP server whose host exited does not linger. It never reads stdin, which
// belongs to the stdio transport.
//
// The watcher goroutine exits when ctx is canceled or parent death is
// detected.
func WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	watchParent(ctx, cancelFn, parentPollInterval, os.Getppid)
}

// watchParent polls getppid every interval and calls cancelFn when the value
// differs from the one seen at start. The returned channel is closed when
// the goroutine exits.
func watchParent(ctx context.Context, cancelFn context.CancelFunc, interval time.Duration, getppid func() int) <-chan struct{} {
	ppid := getppid()
	logger := logging.New("mcp")
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if getppid() != ppid {
					logger.Warn("parent process exited, shutting down", "ppid", ppid)
					cancelFn()
					return
				}
			}
		}
	}()
	return done
}
