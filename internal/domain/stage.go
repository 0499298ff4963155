package domain

type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
)

type PublishState string

const (
	PublishStateNotPublished      PublishState = "notPublished"
	PublishStateAttemptingPublish PublishState = "attemptingPublish"
	PublishStatePublished         PublishState = "published"
)

// StageError is reported to the application through onStageError.
type StageError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Source  string `json:"source"`
	IsFatal bool   `json:"isFatal"`
}

func (e *StageError) Error() string { return e.Source + ": " + e.Message }

// StageState is a read-only snapshot of the session as seen by the bridge.
type StageState struct {
	Connection      ConnectionState `json:"connectionState"`
	Publish         PublishState    `json:"publishState"`
	Published       bool            `json:"published"`
	MicrophoneMuted bool            `json:"microphoneMuted"`
	ActiveCamera    DeviceURN       `json:"activeCamera,omitempty"`
}
