package core

//go:generate mockgen -source=stage_iface.go -destination=mocks/mock_stage.go -package=mocks

import (
	"context"

	"github.com/dkeye/stagebridge/internal/domain"
)

// StageListener receives vendor SDK callbacks. Implementations must not
// assume which goroutine calls them.
type StageListener interface {
	OnConnectionStateChanged(state domain.ConnectionState, err *domain.StageError)
	OnParticipantJoined(p domain.Participant)
	OnParticipantLeft(p domain.Participant)
	OnStreamsAdded(id domain.ParticipantID, streams []domain.Stream)
	OnStreamsRemoved(id domain.ParticipantID, streams []domain.Stream)
	OnPublishStateChanged(state domain.PublishState)
	OnError(err domain.StageError)
}

// Preview is a display surface source produced by the SDK for one device.
type Preview interface {
	DeviceURN() domain.DeviceURN
	// LatestFrame returns the most recent sample seen on the device, if any.
	LatestFrame() (domain.Frame, bool)
	Close() error
}

// PreviewProvider produces previews for device URNs.
type PreviewProvider interface {
	Preview(urn domain.DeviceURN) (Preview, error)
}

// StageSDK abstracts the real-time media SDK that owns transport and capture.
type StageSDK interface {
	PreviewProvider

	SetListener(l StageListener)
	Join(ctx context.Context, token string) error
	Leave(ctx context.Context) error
	SetStreamsPublished(ctx context.Context, published bool) error
	// SwapCamera switches the local video device and returns the new URN.
	SwapCamera(ctx context.Context) (domain.DeviceURN, error)
	SetMicrophoneMuted(ctx context.Context, muted bool) error
	Close() error
}
