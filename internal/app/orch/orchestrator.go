package orch

import (
	"context"
	"time"

	"github.com/dkeye/stagebridge/internal/app"
	"github.com/dkeye/stagebridge/internal/app/pip"
	"github.com/dkeye/stagebridge/internal/core"
	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/rs/zerolog/log"
)

// RetryPolicy bounds how often a view retries a transient preview failure.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

type Options struct {
	Policy      app.AssignmentPolicy
	Retry       RetryPolicy
	Permissions core.Permissions
	PiPHost     core.PiPHost
	PiPFPS      int
}

// Orchestrator maps stage SDK callbacks and host commands onto the registry.
// Every field below the loop is owned by the loop goroutine.
type Orchestrator struct {
	loop    *app.Loop
	stage   core.StageSDK
	emitter core.EventEmitter
	perms   core.Permissions
	retry   RetryPolicy
	pip     *pip.Controller

	registry *app.Registry
	state    domain.StageState
	props    map[domain.ViewID]domain.ViewProps
	attempts map[domain.ViewID]int
	pending  map[domain.ViewID]*time.Timer
}

func New(loop *app.Loop, stage core.StageSDK, emitter core.EventEmitter, opts Options) *Orchestrator {
	o := &Orchestrator{
		loop:     loop,
		stage:    stage,
		emitter:  emitter,
		perms:    opts.Permissions,
		retry:    opts.Retry,
		props:    make(map[domain.ViewID]domain.ViewProps),
		attempts: make(map[domain.ViewID]int),
		pending:  make(map[domain.ViewID]*time.Timer),
		state: domain.StageState{
			Connection: domain.ConnectionStateDisconnected,
			Publish:    domain.PublishStateNotPublished,
		},
	}
	o.registry = app.NewRegistry(stage, app.WithPolicy(opts.Policy), app.WithFailureHook(o.onAssignFailed), app.WithRenderHook(o.onAssigned))
	if opts.PiPHost != nil {
		o.pip = pip.New(loop, opts.PiPHost, o, emitter, opts.PiPFPS)
	}
	stage.SetListener(stageListener{o: o})
	return o
}

// PiP returns the controller that should receive host PiP callbacks, or nil
// when no host was configured.
func (o *Orchestrator) PiP() *pip.Controller { return o.pip }

func (o *Orchestrator) post(fn func()) {
	if err := o.loop.Post(fn); err != nil {
		log.Debug().Str("module", "orch").Err(err).Msg("callback dropped")
	}
}

func (o *Orchestrator) emit(name string, payload any) {
	o.emitter.Emit(core.Event{Name: name, Payload: payload})
}

func (o *Orchestrator) State(ctx context.Context) (domain.StageState, error) {
	var st domain.StageState
	err := o.loop.Do(ctx, func() error {
		st = o.state
		return nil
	})
	return st, err
}

func (o *Orchestrator) Participants(ctx context.Context) ([]domain.Participant, error) {
	var out []domain.Participant
	err := o.loop.Do(ctx, func() error {
		out = o.registry.Participants()
		return nil
	})
	return out, err
}

func (o *Orchestrator) Views(ctx context.Context) ([]domain.ViewInfo, error) {
	var out []domain.ViewInfo
	err := o.loop.Do(ctx, func() error {
		out = o.registry.Views()
		return nil
	})
	return out, err
}

// Close leaves the stage if needed and releases the SDK.
func (o *Orchestrator) Close(ctx context.Context) error {
	st, err := o.State(ctx)
	if err == nil && st.Connection != domain.ConnectionStateDisconnected {
		if err := o.stage.Leave(ctx); err != nil {
			log.Warn().Str("module", "orch").Err(err).Msg("leave on close")
		}
	}
	return o.stage.Close()
}
