package domain

import "strings"

// DeviceURN uniquely identifies a hardware or software media device.
type DeviceURN string

type MediaType string

const (
	MediaTypeVideo   MediaType = "video"
	MediaTypeAudio   MediaType = "audio"
	MediaTypeUnknown MediaType = "unknown"
)

// ParseMediaType maps any kind string ("video", "VIDEO", "audio"...) onto a MediaType.
func ParseMediaType(s string) MediaType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "video":
		return MediaTypeVideo
	case "audio":
		return MediaTypeAudio
	default:
		return MediaTypeUnknown
	}
}

// Stream is a single audio or video feed belonging to a participant's device.
type Stream struct {
	DeviceURN DeviceURN `json:"deviceUrn"`
	MediaType MediaType `json:"mediaType"`
}

func NewStream(urn DeviceURN, mediaType MediaType) Stream {
	return Stream{DeviceURN: urn, MediaType: mediaType}
}

func (s Stream) IsVideo() bool { return s.MediaType == MediaTypeVideo }

// HasVideo reports whether any of streams is a video stream.
func HasVideo(streams []Stream) bool {
	for _, s := range streams {
		if s.IsVideo() {
			return true
		}
	}
	return false
}
