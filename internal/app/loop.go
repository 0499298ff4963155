package app

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/rs/zerolog/log"
)

const defaultLoopBacklog = 1024

// Loop is the single goroutine that owns registry state and issues view
// commands. Every other goroutine hands work over with Post or Do.
type Loop struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func NewLoop(backlog int) *Loop {
	if backlog <= 0 {
		backlog = defaultLoopBacklog
	}
	return &Loop{
		tasks: make(chan func(), backlog),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run executes posted tasks in order until Stop is called.
func (l *Loop) Run() {
	defer close(l.done)
	log.Info().Str("module", "app.loop").Msg("main loop started")
	for {
		select {
		case <-l.quit:
			log.Info().Str("module", "app.loop").Msg("main loop stopped")
			return
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "app.loop").Interface("panic", r).Bytes("stack", debug.Stack()).Msg("task panicked")
		}
	}()
	fn()
}

// Post enqueues fn. It blocks while the backlog is full, so it must not be
// called from inside a task.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.quit:
		return domain.ErrLoopStopped
	default:
	}
	select {
	case <-l.quit:
		return domain.ErrLoopStopped
	case l.tasks <- fn:
		return nil
	}
}

// Do runs fn on the loop and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	res := make(chan error, 1)
	if err := l.Post(func() { res <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.quit:
		return domain.ErrLoopStopped
	}
}

// AfterFunc posts fn onto the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() {
		if err := l.Post(fn); err != nil {
			log.Debug().Str("module", "app.loop").Err(err).Msg("delayed task dropped")
		}
	})
}

func (l *Loop) Stop() {
	l.once.Do(func() { close(l.quit) })
}

// Done is closed when Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }
