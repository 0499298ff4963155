package orch

import "github.com/dkeye/stagebridge/internal/domain"

type ConnectionStatePayload struct {
	State domain.ConnectionState `json:"state"`
	Error *domain.StageError     `json:"error,omitempty"`
}

type ParticipantPayload struct {
	ParticipantID domain.ParticipantID `json:"participantId"`
	IsLocal       bool                 `json:"isLocal"`
	Streams       []domain.Stream      `json:"streams,omitempty"`
}

type StreamsPayload struct {
	ParticipantID domain.ParticipantID `json:"participantId"`
	Streams       []domain.Stream      `json:"streams"`
}

type PublishStatePayload struct {
	State domain.PublishState `json:"state"`
}

type CameraSwappedPayload struct {
	DeviceURN domain.DeviceURN `json:"deviceUrn"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type MicrophoneMutedPayload struct {
	Muted bool `json:"muted"`
}

type PermissionsPayload struct {
	Camera     bool `json:"camera"`
	Microphone bool `json:"microphone"`
	Granted    bool `json:"granted"`
}
