package domain

import "errors"

var (
	ErrInvalidToken          = errors.New("stage token invalid")
	ErrStreamsNotInitialized = errors.New("local streams not initialized")
	ErrNotConnected          = errors.New("stage not connected")
	ErrAlreadyJoined         = errors.New("stage already joined")
	ErrNoAlternateCamera     = errors.New("no alternate camera to swap to")
	ErrNotVideoDevice        = errors.New("device is not a video device")
	ErrDeviceNotReady        = errors.New("device not ready")
	ErrPreviewNotReady       = errors.New("preview not ready")
	ErrUnknownDevice         = errors.New("unknown device")
	ErrUnknownParticipant    = errors.New("unknown participant")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrUnknownView           = errors.New("unknown view")
	ErrViewTaken             = errors.New("view id owned by another client")
	ErrPiPNotEnabled         = errors.New("pip not enabled")
	ErrPiPNoSource           = errors.New("pip has no video source")
	ErrLoopStopped           = errors.New("main loop stopped")
)

// IsTransient reports whether err is a resource-not-ready error worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrDeviceNotReady) || errors.Is(err, ErrPreviewNotReady)
}
