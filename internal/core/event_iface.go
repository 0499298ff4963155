package core

// Event names forwarded to application code.
const (
	EventStageConnectionStateChanged = "onStageConnectionStateChanged"
	EventParticipantJoined           = "onParticipantJoined"
	EventParticipantLeft             = "onParticipantLeft"
	EventParticipantStreamsAdded     = "onParticipantStreamsAdded"
	EventParticipantStreamsRemoved   = "onParticipantStreamsRemoved"
	EventPublishStateChanged         = "onPublishStateChanged"
	EventStageError                  = "onStageError"
	EventCameraSwapped               = "onCameraSwapped"
	EventCameraSwapError             = "onCameraSwapError"
	EventMicrophoneMuted             = "onMicrophoneMuted"
	EventPermissionsResult           = "onPermissionsResult"
	EventPiPStateChanged             = "onPipStateChanged"
	EventPiPError                    = "onPipError"
)

type Event struct {
	Name    string `json:"name"`
	Payload any    `json:"payload,omitempty"`
}

// EventEmitter forwards named events to the application.
type EventEmitter interface {
	Emit(ev Event)
}

// EmitterFunc adapts a function to EventEmitter.
type EmitterFunc func(ev Event)

func (f EmitterFunc) Emit(ev Event) { f(ev) }
