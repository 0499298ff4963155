package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewParticipant(t *testing.T) {
	_, err := NewParticipant("", false)
	require.ErrorIs(t, err, ErrParticipantIDEmpty)

	p, err := NewParticipant("p1", true,
		NewStream("cam-1", MediaTypeVideo),
		NewStream("cam-1", MediaTypeVideo),
		NewStream("mic-1", MediaTypeAudio),
	)
	require.NoError(t, err)
	require.True(t, p.IsLocal)
	require.Len(t, p.Streams, 2)
}

func TestParticipantStreams(t *testing.T) {
	p, err := NewParticipant("p1", false, NewStream("cam-1", MediaTypeVideo))
	require.NoError(t, err)

	added := p.AddStreams(NewStream("cam-1", MediaTypeVideo), NewStream("mic-1", MediaTypeAudio))
	require.Equal(t, []Stream{NewStream("mic-1", MediaTypeAudio)}, added)

	clone := p.Clone()
	removed := p.RemoveStreams(NewStream("cam-1", MediaTypeVideo), NewStream("missing", MediaTypeVideo))
	require.Equal(t, []Stream{NewStream("cam-1", MediaTypeVideo)}, removed)
	require.False(t, p.HasStream("cam-1"))
	require.True(t, clone.HasStream("cam-1"), "clone must not share storage")
}

func TestParseMediaType(t *testing.T) {
	require.Equal(t, MediaTypeVideo, ParseMediaType("VIDEO"))
	require.Equal(t, MediaTypeAudio, ParseMediaType(" audio "))
	require.Equal(t, MediaTypeUnknown, ParseMediaType("data"))
}

func TestParseScaleMode(t *testing.T) {
	m, err := ParseScaleMode("")
	require.NoError(t, err)
	require.Equal(t, ScaleModeFill, m)

	m, err = ParseScaleMode("fit")
	require.NoError(t, err)
	require.Equal(t, ScaleModeFit, m)

	_, err = ParseScaleMode("stretch")
	require.ErrorIs(t, err, ErrInvalidScaleMode)
}

func TestIsTransient(t *testing.T) {
	require.True(t, IsTransient(fmt.Errorf("camera: %w", ErrDeviceNotReady)))
	require.True(t, IsTransient(ErrPreviewNotReady))
	require.False(t, IsTransient(ErrNotVideoDevice))
}
