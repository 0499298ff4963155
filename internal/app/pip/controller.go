// Package pip drives the host picture-in-picture window and feeds it frames
// from the currently rendered video.
package pip

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/stagebridge/internal/app"
	"github.com/dkeye/stagebridge/internal/core"
	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/rs/zerolog/log"
)

const defaultFPS = 5

// Source picks the preview shown in the PiP window. It is called on the loop.
type Source interface {
	PiPSource() (core.Preview, bool)
}

type StatePayload struct {
	State domain.PiPState `json:"state"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Controller owns the PiP state machine. State is only touched on the loop.
type Controller struct {
	loop     *app.Loop
	host     core.PiPHost
	source   Source
	emitter  core.EventEmitter
	interval time.Duration

	state    domain.PiPState
	stopPump chan struct{}
}

func New(loop *app.Loop, host core.PiPHost, source Source, emitter core.EventEmitter, fps int) *Controller {
	if fps <= 0 {
		fps = defaultFPS
	}
	return &Controller{
		loop:     loop,
		host:     host,
		source:   source,
		emitter:  emitter,
		interval: time.Second / time.Duration(fps),
		state:    domain.PiPStateDisabled,
	}
}

func (c *Controller) Enable(ctx context.Context) error {
	return c.loop.Do(ctx, func() error {
		if c.state != domain.PiPStateDisabled {
			return nil
		}
		if err := c.host.SetPiPEnabled(true); err != nil {
			return c.fail("enable", err)
		}
		c.transition(domain.PiPStateEnabled)
		return nil
	})
}

func (c *Controller) Disable(ctx context.Context) error {
	return c.loop.Do(ctx, func() error {
		if c.state == domain.PiPStateDisabled {
			return nil
		}
		c.haltPump()
		if c.state == domain.PiPStateStarted {
			if err := c.host.StopPiP(); err != nil {
				log.Warn().Str("module", "app.pip").Err(err).Msg("stop before disable")
			}
		}
		if err := c.host.SetPiPEnabled(false); err != nil {
			return c.fail("disable", err)
		}
		c.transition(domain.PiPStateDisabled)
		return nil
	})
}

// Start asks the host to open the window. The state moves to started once
// the host reports it.
func (c *Controller) Start(ctx context.Context) error {
	return c.loop.Do(ctx, func() error {
		switch c.state {
		case domain.PiPStateDisabled:
			return c.fail("start", domain.ErrPiPNotEnabled)
		case domain.PiPStateStarted:
			return nil
		}
		if _, ok := c.source.PiPSource(); !ok {
			return c.fail("start", domain.ErrPiPNoSource)
		}
		if err := c.host.StartPiP(); err != nil {
			return c.fail("start", err)
		}
		return nil
	})
}

func (c *Controller) Stop(ctx context.Context) error {
	return c.loop.Do(ctx, func() error {
		if c.state != domain.PiPStateStarted {
			return nil
		}
		if err := c.host.StopPiP(); err != nil {
			return c.fail("stop", err)
		}
		return nil
	})
}

func (c *Controller) State(ctx context.Context) (domain.PiPState, error) {
	var st domain.PiPState
	err := c.loop.Do(ctx, func() error {
		st = c.state
		return nil
	})
	return st, err
}

func (c *Controller) OnPiPStarted() {
	c.post(func() {
		if c.state == domain.PiPStateDisabled || c.state == domain.PiPStateStarted {
			return
		}
		c.transition(domain.PiPStateStarted)
		c.startPump()
	})
}

func (c *Controller) OnPiPStopped() {
	c.post(func() {
		if c.state != domain.PiPStateStarted {
			return
		}
		c.haltPump()
		c.transition(domain.PiPStateStopped)
	})
}

// OnPiPRestored is reported when the user brings the full app back from the window.
func (c *Controller) OnPiPRestored() {
	c.post(func() {
		if c.state == domain.PiPStateDisabled {
			return
		}
		c.haltPump()
		c.transition(domain.PiPStateRestored)
	})
}

func (c *Controller) post(fn func()) {
	if err := c.loop.Post(fn); err != nil {
		log.Debug().Str("module", "app.pip").Err(err).Msg("pip callback dropped")
	}
}

func (c *Controller) transition(st domain.PiPState) {
	log.Info().Str("module", "app.pip").Str("from", string(c.state)).Str("to", string(st)).Msg("pip state")
	c.state = st
	c.emitter.Emit(core.Event{Name: core.EventPiPStateChanged, Payload: StatePayload{State: st}})
}

func (c *Controller) fail(op string, err error) error {
	err = fmt.Errorf("pip %s: %w", op, err)
	log.Warn().Str("module", "app.pip").Err(err).Msg("pip command failed")
	c.emitter.Emit(core.Event{Name: core.EventPiPError, Payload: ErrorPayload{Message: err.Error()}})
	return err
}

func (c *Controller) startPump() {
	c.haltPump()
	stop := make(chan struct{})
	c.stopPump = stop
	go func() {
		t := time.NewTicker(c.interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-c.loop.Done():
				return
			case <-t.C:
				if err := c.loop.Post(func() { c.pushFrame(stop) }); err != nil {
					return
				}
			}
		}
	}()
}

func (c *Controller) haltPump() {
	if c.stopPump != nil {
		close(c.stopPump)
		c.stopPump = nil
	}
}

func (c *Controller) pushFrame(stop chan struct{}) {
	if c.stopPump != stop {
		return
	}
	preview, ok := c.source.PiPSource()
	if !ok {
		return
	}
	frame, ok := preview.LatestFrame()
	if !ok {
		return
	}
	if err := c.host.PushFrame(frame); err != nil {
		log.Debug().Str("module", "app.pip").Err(err).Msg("frame dropped")
	}
}
