package rtc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/h264reader"
	"github.com/pion/webrtc/v4/pkg/media/oggreader"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	h264FrameDuration = 33 * time.Millisecond
	opusClockRate     = 48000
)

// DeviceConfig binds a device URN to the pre-encoded file that plays as that
// device: H.264 Annex-B for cameras, Ogg/Opus for microphones.
type DeviceConfig struct {
	URN  domain.DeviceURN `mapstructure:"urn"`
	Path string           `mapstructure:"path"`
}

type SourceState int32

const (
	SourceStateLive SourceState = iota
	SourceStatePaused
	SourceStateMuted
)

type sampleReader interface {
	Next() (media.Sample, error)
	io.Closer
}

// source plays a device file in a loop. Samples always refresh the latest
// frame; they only reach the track while the state is live.
type source struct {
	device DeviceConfig
	kind   domain.MediaType
	track  *webrtc.TrackLocalStaticSample
	open   func(path string) (sampleReader, error)

	state   atomic.Int32
	running atomic.Bool

	mu     sync.RWMutex
	latest domain.Frame
	has    bool
}

func newSource(device DeviceConfig, kind domain.MediaType, streamID string) (*source, error) {
	mime, open := webrtc.MimeTypeH264, openH264
	if kind == domain.MediaTypeAudio {
		mime, open = webrtc.MimeTypeOpus, openOgg
	}
	track, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: mime}, string(device.URN), streamID)
	if err != nil {
		return nil, fmt.Errorf("track for %s: %w", device.URN, err)
	}
	s := &source{device: device, kind: kind, track: track, open: open}
	s.state.Store(int32(SourceStatePaused))
	return s, nil
}

func (s *source) State() SourceState { return SourceState(s.state.Load()) }

func (s *source) SetState(st SourceState) { s.state.Store(int32(st)) }

func (s *source) DeviceURN() domain.DeviceURN { return s.device.URN }

func (s *source) LatestFrame() (domain.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.has
}

// run plays the file until ctx is done, reopening it at EOF.
func (s *source) run(ctx context.Context) {
	logger := log.With().Str("module", "rtc.source").Str("urn", string(s.device.URN)).Logger()
	s.running.Store(true)
	defer s.running.Store(false)
	for {
		if err := s.play(ctx, &logger); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error().Err(err).Msg("device source stopped")
			return
		}
	}
}

func (s *source) play(ctx context.Context, logger *zerolog.Logger) error {
	r, err := s.open(s.device.Path)
	if err != nil {
		return err
	}
	defer r.Close()

	var ticker *time.Ticker
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()
	for {
		sample, err := r.Next()
		if errors.Is(err, io.EOF) {
			logger.Debug().Msg("rewinding device file")
			return nil
		}
		if err != nil {
			return err
		}
		if ticker == nil {
			ticker = time.NewTicker(sample.Duration)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		s.remember(sample)
		if s.State() != SourceStateLive {
			continue
		}
		if err := s.track.WriteSample(sample); err != nil && !errors.Is(err, io.ErrClosedPipe) {
			return err
		}
	}
}

func (s *source) remember(sample media.Sample) {
	if s.kind != domain.MediaTypeVideo {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = domain.Frame{
		DeviceURN: s.device.URN,
		MimeType:  webrtc.MimeTypeH264,
		Data:      append([]byte(nil), sample.Data...),
		Timestamp: time.Now(),
	}
	s.has = true
}

type h264File struct {
	f *os.File
	r *h264reader.H264Reader
}

func openH264(path string) (sampleReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, domain.ErrDeviceNotReady)
	}
	r, err := h264reader.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &h264File{f: f, r: r}, nil
}

func (h *h264File) Next() (media.Sample, error) {
	nal, err := h.r.NextNAL()
	if err != nil {
		return media.Sample{}, err
	}
	return media.Sample{Data: nal.Data, Duration: h264FrameDuration}, nil
}

func (h *h264File) Close() error { return h.f.Close() }

type oggFile struct {
	f           *os.File
	r           *oggreader.OggReader
	lastGranule uint64
}

func openOgg(path string) (sampleReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, domain.ErrDeviceNotReady)
	}
	r, _, err := oggreader.NewWith(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &oggFile{f: f, r: r}, nil
}

func (o *oggFile) Next() (media.Sample, error) {
	for {
		page, header, err := o.r.ParseNextPage()
		if err != nil {
			return media.Sample{}, err
		}
		count := header.GranulePosition - o.lastGranule
		o.lastGranule = header.GranulePosition
		if count == 0 {
			continue
		}
		d := time.Duration(float64(count) / opusClockRate * float64(time.Second))
		return media.Sample{Data: page, Duration: d}, nil
	}
}

func (o *oggFile) Close() error { return o.f.Close() }
