package domain

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidScaleMode = errors.New("invalid scale mode")

// ViewID is the stable handle of a registered display surface.
type ViewID string

func NewViewID() ViewID {
	return ViewID(uuid.NewString())
}

type ScaleMode string

const (
	ScaleModeFill ScaleMode = "fill"
	ScaleModeFit  ScaleMode = "fit"
)

func ParseScaleMode(s string) (ScaleMode, error) {
	switch ScaleMode(s) {
	case "":
		return ScaleModeFill, nil
	case ScaleModeFill, ScaleModeFit:
		return ScaleMode(s), nil
	default:
		return "", ErrInvalidScaleMode
	}
}

// ViewProps are the declarative props a host sets on a view.
type ViewProps struct {
	ScaleMode ScaleMode `json:"scaleMode"`
	Mirror    bool      `json:"mirror"`
}

func DefaultViewProps() ViewProps {
	return ViewProps{ScaleMode: ScaleModeFill}
}

// ViewInfo is the read-only snapshot of a registered view.
type ViewInfo struct {
	ID                       ViewID    `json:"viewId"`
	CurrentRenderedDeviceURN DeviceURN `json:"currentRenderedDeviceUrn,omitempty"`
}

func (v ViewInfo) Idle() bool { return v.CurrentRenderedDeviceURN == "" }
