package orch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/stagebridge/internal/core"
	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) JoinStage(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		err := fmt.Errorf("join stage: %w", domain.ErrInvalidToken)
		o.post(func() { o.emitStageError("joinStage", err, true) })
		return err
	}
	err := o.loop.Do(ctx, func() error {
		if o.state.Connection != domain.ConnectionStateDisconnected {
			return domain.ErrAlreadyJoined
		}
		o.state.Connection = domain.ConnectionStateConnecting
		return nil
	})
	if err != nil {
		return fmt.Errorf("join stage: %w", err)
	}

	if err := o.stage.Join(ctx, token); err != nil {
		err = fmt.Errorf("join stage: %w", err)
		o.post(func() {
			if o.state.Connection == domain.ConnectionStateConnecting {
				o.state.Connection = domain.ConnectionStateDisconnected
				o.resetSession()
			}
			o.emitStageError("joinStage", err, true)
		})
		return err
	}
	log.Info().Str("module", "orch").Msg("stage join requested")
	return nil
}

func (o *Orchestrator) LeaveStage(ctx context.Context) error {
	if err := o.requireState(ctx, domain.ConnectionStateConnecting, domain.ConnectionStateConnected); err != nil {
		return fmt.Errorf("leave stage: %w", err)
	}
	if err := o.stage.Leave(ctx); err != nil {
		err = fmt.Errorf("leave stage: %w", err)
		o.post(func() { o.emitStageError("leaveStage", err, false) })
		return err
	}
	o.post(func() {
		if o.state.Connection != domain.ConnectionStateDisconnected {
			o.onConnectionState(domain.ConnectionStateDisconnected, nil)
		}
	})
	return nil
}

// SetStreamsPublished starts or stops publishing the local camera and
// microphone. Publishing requires both permissions.
func (o *Orchestrator) SetStreamsPublished(ctx context.Context, published bool) error {
	if err := o.requireState(ctx, domain.ConnectionStateConnected); err != nil {
		return fmt.Errorf("set streams published: %w", err)
	}
	if published && o.perms != nil {
		res, err := o.perms.Request(ctx, domain.PermissionCamera, domain.PermissionMicrophone)
		if err != nil {
			return fmt.Errorf("set streams published: %w", err)
		}
		if !res.AllGranted() {
			return fmt.Errorf("set streams published: %w", domain.ErrPermissionDenied)
		}
	}
	if err := o.stage.SetStreamsPublished(ctx, published); err != nil {
		err = fmt.Errorf("set streams published: %w", err)
		o.post(func() { o.emitStageError("setStreamsPublished", err, false) })
		return err
	}
	return o.loop.Do(ctx, func() error {
		o.state.Published = published
		return nil
	})
}

func (o *Orchestrator) SwapCamera(ctx context.Context) (domain.DeviceURN, error) {
	urn, err := o.stage.SwapCamera(ctx)
	if err != nil {
		err = fmt.Errorf("swap camera: %w", err)
		o.post(func() { o.emit(core.EventCameraSwapError, ErrorPayload{Message: err.Error()}) })
		return "", err
	}
	o.post(func() {
		o.state.ActiveCamera = urn
		o.emit(core.EventCameraSwapped, CameraSwappedPayload{DeviceURN: urn})
	})
	log.Info().Str("module", "orch").Str("urn", string(urn)).Msg("camera swapped")
	return urn, nil
}

func (o *Orchestrator) SetMicrophoneMuted(ctx context.Context, muted bool) error {
	if err := o.stage.SetMicrophoneMuted(ctx, muted); err != nil {
		return fmt.Errorf("set microphone muted: %w", err)
	}
	o.post(func() {
		o.state.MicrophoneMuted = muted
		o.emit(core.EventMicrophoneMuted, MicrophoneMutedPayload{Muted: muted})
	})
	return nil
}

func (o *Orchestrator) RequestPermissions(ctx context.Context) (domain.PermissionResult, error) {
	res := domain.PermissionResult{domain.PermissionCamera: true, domain.PermissionMicrophone: true}
	if o.perms != nil {
		var err error
		res, err = o.perms.Request(ctx, domain.PermissionCamera, domain.PermissionMicrophone)
		if err != nil {
			return nil, fmt.Errorf("request permissions: %w", err)
		}
	}
	payload := PermissionsPayload{
		Camera:     res[domain.PermissionCamera],
		Microphone: res[domain.PermissionMicrophone],
		Granted:    res.AllGranted(),
	}
	o.post(func() { o.emit(core.EventPermissionsResult, payload) })
	return res, nil
}

func (o *Orchestrator) requireState(ctx context.Context, allowed ...domain.ConnectionState) error {
	return o.loop.Do(ctx, func() error {
		for _, st := range allowed {
			if o.state.Connection == st {
				return nil
			}
		}
		return domain.ErrNotConnected
	})
}

func (o *Orchestrator) emitStageError(source string, err error, fatal bool) {
	se := domain.StageError{Message: err.Error(), Source: source, IsFatal: fatal}
	var sdkErr *domain.StageError
	if errors.As(err, &sdkErr) {
		se = *sdkErr
	}
	o.emit(core.EventStageError, se)
}

func (o *Orchestrator) onConnectionState(state domain.ConnectionState, serr *domain.StageError) {
	log.Info().Str("module", "orch").Str("state", string(state)).Msg("stage connection state")
	o.state.Connection = state
	if state == domain.ConnectionStateDisconnected {
		o.resetSession()
	}
	o.emit(core.EventStageConnectionStateChanged, ConnectionStatePayload{State: state, Error: serr})
}

// resetSession drops everything tied to the stage session.
func (o *Orchestrator) resetSession() {
	for id, t := range o.pending {
		t.Stop()
		delete(o.pending, id)
	}
	clear(o.attempts)
	o.registry.Reset()
	o.state.Published = false
	o.state.Publish = domain.PublishStateNotPublished
}

// stageListener re-posts SDK callbacks onto the loop.
type stageListener struct {
	o *Orchestrator
}

func (l stageListener) OnConnectionStateChanged(state domain.ConnectionState, err *domain.StageError) {
	l.o.post(func() { l.o.onConnectionState(state, err) })
}

func (l stageListener) OnParticipantJoined(p domain.Participant) {
	p = p.Clone()
	l.o.post(func() {
		l.o.registry.OnParticipantJoined(p)
		l.o.emit(core.EventParticipantJoined, ParticipantPayload{ParticipantID: p.ID, IsLocal: p.IsLocal, Streams: p.Streams})
	})
}

func (l stageListener) OnParticipantLeft(p domain.Participant) {
	l.o.post(func() {
		l.o.registry.OnParticipantLeft(p.ID)
		l.o.emit(core.EventParticipantLeft, ParticipantPayload{ParticipantID: p.ID, IsLocal: p.IsLocal})
	})
}

func (l stageListener) OnStreamsAdded(id domain.ParticipantID, streams []domain.Stream) {
	streams = append([]domain.Stream(nil), streams...)
	l.o.post(func() {
		l.o.registry.OnStreamsAdded(id, streams)
		l.o.emit(core.EventParticipantStreamsAdded, StreamsPayload{ParticipantID: id, Streams: streams})
	})
}

func (l stageListener) OnStreamsRemoved(id domain.ParticipantID, streams []domain.Stream) {
	streams = append([]domain.Stream(nil), streams...)
	l.o.post(func() {
		l.o.registry.OnStreamsRemoved(id, streams)
		l.o.emit(core.EventParticipantStreamsRemoved, StreamsPayload{ParticipantID: id, Streams: streams})
	})
}

func (l stageListener) OnPublishStateChanged(state domain.PublishState) {
	l.o.post(func() {
		l.o.state.Publish = state
		l.o.emit(core.EventPublishStateChanged, PublishStatePayload{State: state})
	})
}

func (l stageListener) OnError(err domain.StageError) {
	l.o.post(func() {
		ev := log.Warn()
		if err.IsFatal {
			ev = log.Error()
		}
		ev.Str("module", "orch").Int("code", err.Code).Str("source", err.Source).Msg(err.Message)
		l.o.emit(core.EventStageError, err)
	})
}
