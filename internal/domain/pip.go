package domain

import "time"

type PiPState string

const (
	PiPStateDisabled PiPState = "disabled"
	PiPStateEnabled  PiPState = "enabled"
	PiPStateStarted  PiPState = "started"
	PiPStateStopped  PiPState = "stopped"
	PiPStateRestored PiPState = "restored"
)

// Frame is one encoded media sample taken from a preview.
type Frame struct {
	DeviceURN DeviceURN
	MimeType  string
	Data      []byte
	Timestamp time.Time
}
