package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/stagebridge/internal/domain"
)

var (
	errRateLimited = errors.New("rate limited")
	errUnknownCall = errors.New("unknown call")
	errBadPayload  = errors.New("bad payload")
)

type handlerFunc func(ctl *Controller, ctx context.Context, c *Client, raw []byte) (any, error)

var handlers = map[string]handlerFunc{
	"ping":                 handlePing,
	"joinStage":            handleJoinStage,
	"leaveStage":           handleLeaveStage,
	"setStreamsPublished":  handleSetStreamsPublished,
	"swapCamera":           handleSwapCamera,
	"setMicrophoneMuted":   handleSetMicrophoneMuted,
	"requestPermissions":   handleRequestPermissions,
	"setTargetParticipant": handleSetTargetParticipant,
	"attachView":           handleAttachView,
	"detachView":           handleDetachView,
	"setViewProps":         handleSetViewProps,
	"enablePip":            handleEnablePiP,
	"disablePip":           handleDisablePiP,
	"startPip":             handleStartPiP,
	"stopPip":              handleStopPiP,
	"pipStarted":           handlePiPReport,
	"pipStopped":           handlePiPReport,
	"pipRestored":          handlePiPReport,
}

func decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return nil
}

func handlePing(_ *Controller, _ context.Context, _ *Client, _ []byte) (any, error) {
	return "pong", nil
}

func handleJoinStage(ctl *Controller, ctx context.Context, _ *Client, raw []byte) (any, error) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return nil, ctl.Module.JoinStage(ctx, req.Token)
}

func handleLeaveStage(ctl *Controller, ctx context.Context, _ *Client, _ []byte) (any, error) {
	return nil, ctl.Module.LeaveStage(ctx)
}

func handleSetStreamsPublished(ctl *Controller, ctx context.Context, _ *Client, raw []byte) (any, error) {
	var req struct {
		Published bool `json:"published"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return nil, ctl.Module.SetStreamsPublished(ctx, req.Published)
}

func handleSwapCamera(ctl *Controller, ctx context.Context, _ *Client, _ []byte) (any, error) {
	urn, err := ctl.Module.SwapCamera(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]domain.DeviceURN{"deviceUrn": urn}, nil
}

func handleSetMicrophoneMuted(ctl *Controller, ctx context.Context, _ *Client, raw []byte) (any, error) {
	var req struct {
		Muted bool `json:"muted"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return nil, ctl.Module.SetMicrophoneMuted(ctx, req.Muted)
}

func handleRequestPermissions(ctl *Controller, ctx context.Context, _ *Client, _ []byte) (any, error) {
	return ctl.Module.RequestPermissions(ctx)
}

func handleSetTargetParticipant(ctl *Controller, ctx context.Context, _ *Client, raw []byte) (any, error) {
	var req struct {
		ParticipantID domain.ParticipantID `json:"participantId"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return nil, ctl.Module.SetTargetParticipant(ctx, req.ParticipantID)
}

func handleEnablePiP(ctl *Controller, ctx context.Context, _ *Client, _ []byte) (any, error) {
	return nil, ctl.Module.EnablePiP(ctx)
}

func handleDisablePiP(ctl *Controller, ctx context.Context, _ *Client, _ []byte) (any, error) {
	return nil, ctl.Module.DisablePiP(ctx)
}

func handleStartPiP(ctl *Controller, ctx context.Context, _ *Client, _ []byte) (any, error) {
	return nil, ctl.Module.StartPiP(ctx)
}

func handleStopPiP(ctl *Controller, ctx context.Context, _ *Client, _ []byte) (any, error) {
	return nil, ctl.Module.StopPiP(ctx)
}

var errorCodes = []struct {
	err  error
	code string
}{
	{errRateLimited, "rate_limited"},
	{errUnknownCall, "unknown_call"},
	{errBadPayload, "bad_payload"},
	{domain.ErrInvalidToken, "invalid_token"},
	{domain.ErrStreamsNotInitialized, "streams_not_initialized"},
	{domain.ErrNotConnected, "not_connected"},
	{domain.ErrAlreadyJoined, "already_joined"},
	{domain.ErrNoAlternateCamera, "no_alternate_camera"},
	{domain.ErrNotVideoDevice, "not_video_device"},
	{domain.ErrDeviceNotReady, "device_not_ready"},
	{domain.ErrPreviewNotReady, "preview_not_ready"},
	{domain.ErrPermissionDenied, "permission_denied"},
	{domain.ErrUnknownView, "unknown_view"},
	{domain.ErrViewTaken, "view_taken"},
	{domain.ErrInvalidScaleMode, "invalid_scale_mode"},
	{domain.ErrPiPNoSource, "pip_no_source"},
	{domain.ErrPiPNotEnabled, "pip_not_enabled"},
	{domain.ErrLoopStopped, "loop_stopped"},
	{context.DeadlineExceeded, "timeout"},
}

// errorCode maps err to the stable code hosts switch on.
func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	var serr *domain.StageError
	if errors.As(err, &serr) {
		return "stage_error"
	}
	return "internal"
}
