// Package memory is an in-process stage used for local development and
// tests. Remote participants are injected through the Sim* methods.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkeye/stagebridge/internal/core"
	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/rs/zerolog/log"
)

type Config struct {
	LocalID    domain.ParticipantID
	Cameras    []domain.DeviceURN
	Microphone domain.DeviceURN
}

type Stage struct {
	mu       sync.Mutex
	cfg      Config
	listener core.StageListener

	connected bool
	published bool
	muted     bool
	camera    int

	remotes  map[domain.ParticipantID]*domain.Participant
	notReady map[domain.DeviceURN]int
}

func New(cfg Config) *Stage {
	if cfg.LocalID == "" {
		cfg.LocalID = "local"
	}
	return &Stage{
		cfg:      cfg,
		remotes:  make(map[domain.ParticipantID]*domain.Participant),
		notReady: make(map[domain.DeviceURN]int),
	}
}

func (s *Stage) SetListener(l core.StageListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

// notify hands callbacks to the listener outside the lock.
func (s *Stage) notify(fns ...func(core.StageListener)) {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	if l == nil {
		return
	}
	for _, fn := range fns {
		fn(l)
	}
}

func (s *Stage) Join(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrInvalidToken
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.connected {
		s.mu.Unlock()
		return domain.ErrAlreadyJoined
	}
	s.connected = true
	local := domain.Participant{ID: s.cfg.LocalID, IsLocal: true}
	s.mu.Unlock()

	log.Info().Str("module", "stage.memory").Msg("joined")
	s.notify(
		func(l core.StageListener) { l.OnConnectionStateChanged(domain.ConnectionStateConnecting, nil) },
		func(l core.StageListener) { l.OnConnectionStateChanged(domain.ConnectionStateConnected, nil) },
		func(l core.StageListener) { l.OnParticipantJoined(local) },
	)
	return nil
}

func (s *Stage) Leave(ctx context.Context) error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return domain.ErrNotConnected
	}
	s.connected = false
	s.published = false
	s.remotes = make(map[domain.ParticipantID]*domain.Participant)
	s.mu.Unlock()

	log.Info().Str("module", "stage.memory").Msg("left")
	s.notify(
		func(l core.StageListener) { l.OnPublishStateChanged(domain.PublishStateNotPublished) },
		func(l core.StageListener) { l.OnConnectionStateChanged(domain.ConnectionStateDisconnected, nil) },
	)
	return nil
}

func (s *Stage) localStreams() []domain.Stream {
	out := make([]domain.Stream, 0, 2)
	if len(s.cfg.Cameras) > 0 {
		out = append(out, domain.NewStream(s.cfg.Cameras[s.camera], domain.MediaTypeVideo))
	}
	if s.cfg.Microphone != "" {
		out = append(out, domain.NewStream(s.cfg.Microphone, domain.MediaTypeAudio))
	}
	return out
}

func (s *Stage) SetStreamsPublished(ctx context.Context, published bool) error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return domain.ErrNotConnected
	}
	streams := s.localStreams()
	if len(streams) == 0 {
		s.mu.Unlock()
		return domain.ErrStreamsNotInitialized
	}
	if s.published == published {
		s.mu.Unlock()
		return nil
	}
	s.published = published
	id := s.cfg.LocalID
	s.mu.Unlock()

	if published {
		s.notify(
			func(l core.StageListener) { l.OnPublishStateChanged(domain.PublishStateAttemptingPublish) },
			func(l core.StageListener) { l.OnStreamsAdded(id, streams) },
			func(l core.StageListener) { l.OnPublishStateChanged(domain.PublishStatePublished) },
		)
		return nil
	}
	s.notify(
		func(l core.StageListener) { l.OnStreamsRemoved(id, streams) },
		func(l core.StageListener) { l.OnPublishStateChanged(domain.PublishStateNotPublished) },
	)
	return nil
}

func (s *Stage) SwapCamera(ctx context.Context) (domain.DeviceURN, error) {
	s.mu.Lock()
	if len(s.cfg.Cameras) < 2 {
		s.mu.Unlock()
		return "", domain.ErrNoAlternateCamera
	}
	prev := domain.NewStream(s.cfg.Cameras[s.camera], domain.MediaTypeVideo)
	s.camera = (s.camera + 1) % len(s.cfg.Cameras)
	next := domain.NewStream(s.cfg.Cameras[s.camera], domain.MediaTypeVideo)
	published, id := s.published, s.cfg.LocalID
	s.mu.Unlock()

	if published {
		s.notify(
			func(l core.StageListener) { l.OnStreamsRemoved(id, []domain.Stream{prev}) },
			func(l core.StageListener) { l.OnStreamsAdded(id, []domain.Stream{next}) },
		)
	}
	return next.DeviceURN, nil
}

func (s *Stage) SetMicrophoneMuted(ctx context.Context, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.Microphone == "" {
		return domain.ErrStreamsNotInitialized
	}
	s.muted = muted
	return nil
}

func (s *Stage) Preview(urn domain.DeviceURN) (core.Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stream, ok := s.lookup(urn)
	if !ok {
		return nil, fmt.Errorf("preview %s: %w", urn, domain.ErrUnknownDevice)
	}
	if !stream.IsVideo() {
		return nil, fmt.Errorf("preview %s: %w", urn, domain.ErrNotVideoDevice)
	}
	if n := s.notReady[urn]; n > 0 {
		s.notReady[urn] = n - 1
		return nil, fmt.Errorf("preview %s: %w", urn, domain.ErrPreviewNotReady)
	}
	return &preview{urn: urn}, nil
}

func (s *Stage) lookup(urn domain.DeviceURN) (domain.Stream, bool) {
	for _, st := range s.localStreams() {
		if st.DeviceURN == urn {
			return st, true
		}
	}
	for _, p := range s.remotes {
		for _, st := range p.Streams {
			if st.DeviceURN == urn {
				return st, true
			}
		}
	}
	return domain.Stream{}, false
}

func (s *Stage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.listener = nil
	return nil
}

type preview struct {
	mu     sync.Mutex
	urn    domain.DeviceURN
	seq    int
	closed bool
}

func (p *preview) DeviceURN() domain.DeviceURN { return p.urn }

// LatestFrame synthesizes a frame that carries the device URN and a sequence
// number.
func (p *preview) LatestFrame() (domain.Frame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return domain.Frame{}, false
	}
	p.seq++
	return domain.Frame{
		DeviceURN: p.urn,
		MimeType:  "text/plain",
		Data:      fmt.Appendf(nil, "%s#%d", p.urn, p.seq),
		Timestamp: time.Now(),
	}, true
}

func (p *preview) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
