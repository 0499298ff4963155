package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/stagebridge/internal/core"
	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/rs/zerolog/log"
)

// AttachView registers target under a fresh id.
func (o *Orchestrator) AttachView(ctx context.Context, target core.RenderTarget, props domain.ViewProps) (domain.ViewID, error) {
	id := domain.NewViewID()
	if err := o.RegisterView(ctx, id, target, props); err != nil {
		return "", err
	}
	return id, nil
}

// RegisterView registers target under id. Registering the same target again
// keeps whatever it currently renders.
func (o *Orchestrator) RegisterView(ctx context.Context, id domain.ViewID, target core.RenderTarget, props domain.ViewProps) error {
	if props.ScaleMode == "" {
		props.ScaleMode = domain.ScaleModeFill
	}
	return o.loop.Do(ctx, func() error {
		o.props[id] = props
		if pt, ok := target.(core.PropsTarget); ok {
			pt.SetProps(props)
		}
		o.registry.RegisterView(id, target)
		return nil
	})
}

func (o *Orchestrator) DetachView(ctx context.Context, id domain.ViewID) error {
	return o.loop.Do(ctx, func() error {
		o.cancelRetry(id)
		delete(o.props, id)
		if !o.registry.UnregisterView(id) {
			return fmt.Errorf("detach view %s: %w", id, domain.ErrUnknownView)
		}
		return nil
	})
}

func (o *Orchestrator) SetViewProps(ctx context.Context, id domain.ViewID, props domain.ViewProps) error {
	if _, err := domain.ParseScaleMode(string(props.ScaleMode)); err != nil {
		return fmt.Errorf("set view props: %w", err)
	}
	if props.ScaleMode == "" {
		props.ScaleMode = domain.ScaleModeFill
	}
	return o.loop.Do(ctx, func() error {
		target, ok := o.registry.Target(id)
		if !ok {
			return fmt.Errorf("set view props %s: %w", id, domain.ErrUnknownView)
		}
		o.props[id] = props
		if pt, ok := target.(core.PropsTarget); ok {
			pt.SetProps(props)
		}
		return nil
	})
}

func (o *Orchestrator) ViewProps(ctx context.Context, id domain.ViewID) (domain.ViewProps, error) {
	var props domain.ViewProps
	err := o.loop.Do(ctx, func() error {
		p, ok := o.props[id]
		if !ok {
			return fmt.Errorf("view props %s: %w", id, domain.ErrUnknownView)
		}
		props = p
		return nil
	})
	return props, err
}

// SetTargetParticipant prefers id's streams on every following assignment.
func (o *Orchestrator) SetTargetParticipant(ctx context.Context, id domain.ParticipantID) error {
	return o.loop.Do(ctx, func() error {
		o.registry.SetTargetParticipant(id)
		o.registry.Assign()
		return nil
	})
}

// onAssignFailed runs on the loop, inside an assignment pass.
func (o *Orchestrator) onAssignFailed(id domain.ViewID, stream domain.Stream, err error) {
	logger := log.With().Str("module", "orch").Str("view", string(id)).Str("urn", string(stream.DeviceURN)).Logger()
	if !domain.IsTransient(err) {
		logger.Error().Err(err).Msg("assignment failed")
		return
	}
	if _, scheduled := o.pending[id]; scheduled {
		return
	}
	if o.attempts[id] >= o.retry.Attempts {
		logger.Error().Err(err).Int("attempts", o.attempts[id]).Msg("giving up on view")
		return
	}
	o.attempts[id]++
	logger.Debug().Int("attempt", o.attempts[id]).Dur("delay", o.retry.Delay).Msg("retrying assignment")
	o.pending[id] = o.loop.AfterFunc(o.retry.Delay, func() {
		delete(o.pending, id)
		o.registry.Assign()
	})
}

// onAssigned runs on the loop. Any successful render, retried or not,
// restores the view's full retry budget.
func (o *Orchestrator) onAssigned(id domain.ViewID, _ domain.Stream) {
	delete(o.attempts, id)
}

func (o *Orchestrator) cancelRetry(id domain.ViewID) {
	if t, ok := o.pending[id]; ok {
		t.Stop()
		delete(o.pending, id)
	}
	delete(o.attempts, id)
}

func (o *Orchestrator) renderedBy(id domain.ViewID) (domain.DeviceURN, bool) {
	for _, v := range o.registry.Views() {
		if v.ID == id {
			return v.CurrentRenderedDeviceURN, true
		}
	}
	return "", false
}

// PiPSource prefers the target participant's rendered video and falls back
// to the first rendered view.
func (o *Orchestrator) PiPSource() (core.Preview, bool) {
	rendered := o.registry.RenderedStreams()
	if len(rendered) == 0 {
		return nil, false
	}
	if target := o.registry.TargetParticipant(); target != "" {
		for _, s := range rendered {
			if owner, ok := o.registry.OwnerOf(s.DeviceURN); ok && owner == target {
				return o.registry.RenderedPreview(s.DeviceURN)
			}
		}
	}
	return o.registry.RenderedPreview(rendered[0].DeviceURN)
}
