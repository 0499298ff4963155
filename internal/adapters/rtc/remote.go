package rtc

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/samplebuilder"
	"github.com/rs/zerolog"
)

const maxLatePackets = 256

// remoteTrack reads a subscribed track and keeps its most recent video sample.
type remoteTrack struct {
	participant domain.ParticipantID
	stream      domain.Stream
	src         *webrtc.TrackRemote

	mu     sync.RWMutex
	latest domain.Frame
	has    bool
}

func newRemoteTrack(src *webrtc.TrackRemote) *remoteTrack {
	return &remoteTrack{
		participant: domain.ParticipantID(src.StreamID()),
		stream:      domain.NewStream(domain.DeviceURN(src.ID()), domain.ParseMediaType(src.Kind().String())),
		src:         src,
	}
}

func (r *remoteTrack) DeviceURN() domain.DeviceURN { return r.stream.DeviceURN }

func (r *remoteTrack) LatestFrame() (domain.Frame, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest, r.has
}

func depacketizerFor(mime string) (rtp.Depacketizer, uint32) {
	switch strings.ToLower(mime) {
	case strings.ToLower(webrtc.MimeTypeH264):
		return &codecs.H264Packet{}, 90000
	case strings.ToLower(webrtc.MimeTypeVP8):
		return &codecs.VP8Packet{}, 90000
	case strings.ToLower(webrtc.MimeTypeVP9):
		return &codecs.VP9Packet{}, 90000
	case strings.ToLower(webrtc.MimeTypeOpus):
		return &codecs.OpusPacket{}, 48000
	default:
		return nil, 0
	}
}

// loop reads RTP until the track ends. Video is depacketized into samples;
// other kinds are drained.
func (r *remoteTrack) loop(ctx context.Context, logger *zerolog.Logger) error {
	mime := r.src.Codec().MimeType
	var builder *samplebuilder.SampleBuilder
	if r.stream.IsVideo() {
		if dp, rate := depacketizerFor(mime); dp != nil {
			builder = samplebuilder.New(maxLatePackets, dp, rate)
		} else {
			logger.Warn().Str("mime", mime).Msg("no depacketizer, preview disabled")
		}
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		pkt, _, err := r.src.ReadRTP()
		if err != nil {
			return err
		}
		if builder == nil {
			continue
		}
		builder.Push(pkt)
		for s := builder.Pop(); s != nil; s = builder.Pop() {
			r.store(s, mime)
		}
	}
}

func (r *remoteTrack) store(s *media.Sample, mime string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ts := s.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	r.latest = domain.Frame{DeviceURN: r.stream.DeviceURN, MimeType: mime, Data: s.Data, Timestamp: ts}
	r.has = true
}

type frameSource interface {
	DeviceURN() domain.DeviceURN
	LatestFrame() (domain.Frame, bool)
}

// preview hands a frame source to a view. Closing it does not stop the
// source, which belongs to the stage.
type preview struct {
	frameSource
}

func (p preview) Close() error { return nil }
