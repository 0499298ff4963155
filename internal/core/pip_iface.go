package core

import "github.com/dkeye/stagebridge/internal/domain"

// PiPHost is the operating-system picture-in-picture facility.
type PiPHost interface {
	SetPiPEnabled(enabled bool) error
	StartPiP() error
	StopPiP() error
	PushFrame(frame domain.Frame) error
}

// PiPListener receives lifecycle callbacks from the PiP host.
type PiPListener interface {
	OnPiPStarted()
	OnPiPStopped()
	OnPiPRestored()
}
