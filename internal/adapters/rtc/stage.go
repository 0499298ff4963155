package rtc

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/dkeye/stagebridge/internal/core"
	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

const (
	ErrCodeConnectionFailed = 1000 + iota
	ErrCodeSourceFailed
	ErrCodeConnectionInterrupted
)

const defaultSubscribeSlots = 4

type Config struct {
	WHIPURL        string
	ICEServers     []string
	SubscribeSlots int
	LocalID        domain.ParticipantID
	Cameras        []DeviceConfig
	Microphone     DeviceConfig
	HTTPClient     *http.Client
}

type remoteParticipant struct {
	tracks []*remoteTrack
}

func (p *remoteParticipant) streams() []domain.Stream {
	out := make([]domain.Stream, 0, len(p.tracks))
	for _, t := range p.tracks {
		out = append(out, t.stream)
	}
	return out
}

// Stage implements core.StageSDK on top of a single pion PeerConnection.
type Stage struct {
	cfg  Config
	api  *webrtc.API
	whip *whipClient

	mu          sync.Mutex
	listener    core.StageListener
	conn        *Connection
	cancel      context.CancelFunc
	token       string
	resource    string
	videoSender *webrtc.RTPSender
	cameras     []*source
	mic         *source
	camera      int
	published   bool
	muted       bool
	remotes     map[domain.ParticipantID]*remoteParticipant
}

func New(cfg Config) (*Stage, error) {
	if cfg.LocalID == "" {
		cfg.LocalID = "local"
	}
	if cfg.SubscribeSlots <= 0 {
		cfg.SubscribeSlots = defaultSubscribeSlots
	}
	api, err := NewAPI()
	if err != nil {
		return nil, fmt.Errorf("webrtc api: %w", err)
	}
	return &Stage{
		cfg:     cfg,
		api:     api,
		whip:    newWHIPClient(cfg.WHIPURL, cfg.HTTPClient),
		remotes: make(map[domain.ParticipantID]*remoteParticipant),
	}, nil
}

func (s *Stage) SetListener(l core.StageListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

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
	s.mu.Lock()
	if s.conn != nil {
		s.mu.Unlock()
		return domain.ErrAlreadyJoined
	}
	active := s.camera
	s.mu.Unlock()

	s.notify(func(l core.StageListener) { l.OnConnectionStateChanged(domain.ConnectionStateConnecting, nil) })

	conn, cameras, mic, sender, resource, err := s.negotiate(ctx, token, active)
	if err != nil {
		s.notify(func(l core.StageListener) { l.OnConnectionStateChanged(domain.ConnectionStateDisconnected, nil) })
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.conn, s.cancel = conn, cancel
	s.token, s.resource = token, resource
	s.cameras, s.mic, s.videoSender = cameras, mic, sender
	s.published = false
	s.applySourceStates()
	s.mu.Unlock()

	for _, src := range append(append([]*source(nil), cameras...), mic) {
		if src != nil {
			go s.runSource(runCtx, src)
		}
	}

	local := domain.Participant{ID: s.cfg.LocalID, IsLocal: true}
	s.notify(func(l core.StageListener) { l.OnParticipantJoined(local) })
	// State changes seen before conn became current were dropped by onState.
	if conn.pc.ConnectionState() == webrtc.PeerConnectionStateConnected {
		s.notify(func(l core.StageListener) { l.OnConnectionStateChanged(domain.ConnectionStateConnected, nil) })
	}
	log.Info().Str("module", "rtc").Str("resource", resource).Msg("stage joined")
	return nil
}

func (s *Stage) negotiate(ctx context.Context, token string, active int) (*Connection, []*source, *source, *webrtc.RTPSender, string, error) {
	conn, err := NewConnection(s.api, Configuration(s.cfg.ICEServers))
	if err != nil {
		return nil, nil, nil, nil, "", err
	}
	fail := func(err error) (*Connection, []*source, *source, *webrtc.RTPSender, string, error) {
		conn.Close()
		return nil, nil, nil, nil, "", err
	}

	cameras := make([]*source, 0, len(s.cfg.Cameras))
	for _, dev := range s.cfg.Cameras {
		src, err := newSource(dev, domain.MediaTypeVideo, string(s.cfg.LocalID))
		if err != nil {
			return fail(err)
		}
		cameras = append(cameras, src)
	}
	var sender *webrtc.RTPSender
	if len(cameras) > 0 {
		if sender, err = conn.AddSendTrack(cameras[active].track); err != nil {
			return fail(err)
		}
	}
	var mic *source
	if s.cfg.Microphone.URN != "" {
		if mic, err = newSource(s.cfg.Microphone, domain.MediaTypeAudio, string(s.cfg.LocalID)); err != nil {
			return fail(err)
		}
		if _, err = conn.AddSendTrack(mic.track); err != nil {
			return fail(err)
		}
	}
	if err := conn.AddReceiveSlots(s.cfg.SubscribeSlots); err != nil {
		return fail(err)
	}

	conn.OnTrack(s.onTrack(conn))
	conn.OnStateChange(s.onState(conn))
	conn.OnPLI(func() { log.Debug().Str("module", "rtc").Msg("keyframe requested by ingest") })
	conn.Start(context.Background())

	offer, err := conn.CreateOffer(ctx)
	if err != nil {
		return fail(err)
	}
	answer, resource, err := s.whip.Offer(ctx, offer.SDP, token)
	if err != nil {
		return fail(err)
	}
	if err := conn.ApplyAnswer(answer); err != nil {
		return fail(fmt.Errorf("apply answer: %w", err))
	}
	return conn, cameras, mic, sender, resource, nil
}

func (s *Stage) runSource(ctx context.Context, src *source) {
	src.run(ctx)
	if ctx.Err() != nil {
		return
	}
	serr := domain.StageError{
		Code:    ErrCodeSourceFailed,
		Message: fmt.Sprintf("device %s stopped", src.DeviceURN()),
		Source:  "device",
	}
	s.notify(func(l core.StageListener) { l.OnError(serr) })
}

func mapState(st webrtc.PeerConnectionState) (domain.ConnectionState, bool) {
	switch st {
	case webrtc.PeerConnectionStateNew, webrtc.PeerConnectionStateConnecting:
		return domain.ConnectionStateConnecting, true
	case webrtc.PeerConnectionStateConnected:
		return domain.ConnectionStateConnected, true
	case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
		return domain.ConnectionStateDisconnected, true
	default:
		return "", false
	}
}

// onState ignores callbacks from connections that are no longer current.
// Disconnected is ICE loss that may recover, so the session survives it;
// only failed and closed end the session.
func (s *Stage) onState(conn *Connection) func(webrtc.PeerConnectionState) {
	return func(pcs webrtc.PeerConnectionState) {
		s.mu.Lock()
		current := s.conn == conn
		s.mu.Unlock()
		if !current {
			return
		}
		if pcs == webrtc.PeerConnectionStateDisconnected {
			serr := domain.StageError{
				Code:    ErrCodeConnectionInterrupted,
				Message: "peer connection interrupted",
				Source:  "webrtc",
			}
			log.Warn().Str("module", "rtc").Msg("peer connection interrupted, waiting for ICE to recover")
			s.notify(func(l core.StageListener) { l.OnError(serr) })
			return
		}
		st, ok := mapState(pcs)
		if !ok {
			return
		}
		if st != domain.ConnectionStateDisconnected {
			s.notify(func(l core.StageListener) { l.OnConnectionStateChanged(st, nil) })
			return
		}

		serr := &domain.StageError{
			Code:    ErrCodeConnectionFailed,
			Message: "peer connection " + pcs.String(),
			Source:  "webrtc",
			IsFatal: pcs == webrtc.PeerConnectionStateFailed,
		}
		if !s.teardown(conn) {
			return
		}
		go conn.Close()
		s.notify(
			func(l core.StageListener) { l.OnError(*serr) },
			func(l core.StageListener) { l.OnConnectionStateChanged(domain.ConnectionStateDisconnected, serr) },
		)
	}
}

func (s *Stage) onTrack(conn *Connection) func(context.Context, *webrtc.TrackRemote, *webrtc.RTPReceiver) {
	return func(ctx context.Context, track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		rt := newRemoteTrack(track)
		logger := log.With().Str("module", "rtc").Str("participant", string(rt.participant)).Str("urn", string(rt.stream.DeviceURN)).Logger()

		s.mu.Lock()
		p, known := s.remotes[rt.participant]
		if !known {
			p = &remoteParticipant{}
			s.remotes[rt.participant] = p
		}
		p.tracks = append(p.tracks, rt)
		s.mu.Unlock()

		if known {
			s.notify(func(l core.StageListener) { l.OnStreamsAdded(rt.participant, []domain.Stream{rt.stream}) })
		} else {
			joined := domain.Participant{ID: rt.participant, Streams: []domain.Stream{rt.stream}}
			s.notify(func(l core.StageListener) { l.OnParticipantJoined(joined) })
		}
		if rt.stream.IsVideo() {
			if err := conn.RequestKeyframe(track.SSRC()); err != nil {
				logger.Debug().Err(err).Msg("keyframe request")
			}
		}

		go func() {
			err := rt.loop(ctx, &logger)
			logger.Info().Err(err).Msg("remote track ended")
			s.dropRemote(rt)
		}()
	}
}

// dropRemote removes a finished track; the participant leaves with its last track.
func (s *Stage) dropRemote(rt *remoteTrack) {
	s.mu.Lock()
	p, ok := s.remotes[rt.participant]
	if !ok {
		s.mu.Unlock()
		return
	}
	for i, t := range p.tracks {
		if t == rt {
			p.tracks = append(p.tracks[:i], p.tracks[i+1:]...)
			break
		}
	}
	last := len(p.tracks) == 0
	if last {
		delete(s.remotes, rt.participant)
	}
	s.mu.Unlock()

	s.notify(func(l core.StageListener) { l.OnStreamsRemoved(rt.participant, []domain.Stream{rt.stream}) })
	if last {
		s.notify(func(l core.StageListener) { l.OnParticipantLeft(domain.Participant{ID: rt.participant}) })
	}
}

// teardown forgets conn if it is current and reports whether it was.
func (s *Stage) teardown(conn *Connection) bool {
	s.mu.Lock()
	if s.conn != conn || conn == nil {
		s.mu.Unlock()
		return false
	}
	cancel := s.cancel
	s.conn, s.cancel, s.videoSender = nil, nil, nil
	s.cameras, s.mic = nil, nil
	s.published = false
	s.remotes = make(map[domain.ParticipantID]*remoteParticipant)
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return true
}

func (s *Stage) Leave(ctx context.Context) error {
	s.mu.Lock()
	conn, resource, token, published := s.conn, s.resource, s.token, s.published
	s.mu.Unlock()
	if conn == nil || !s.teardown(conn) {
		return domain.ErrNotConnected
	}

	if err := s.whip.Delete(ctx, resource, token); err != nil {
		log.Warn().Str("module", "rtc").Err(err).Msg("whip delete")
	}
	conn.Close()

	if published {
		s.notify(func(l core.StageListener) { l.OnPublishStateChanged(domain.PublishStateNotPublished) })
	}
	s.notify(func(l core.StageListener) { l.OnConnectionStateChanged(domain.ConnectionStateDisconnected, nil) })
	log.Info().Str("module", "rtc").Msg("stage left")
	return nil
}

// localStreams must be called with s.mu held.
func (s *Stage) localStreams() []domain.Stream {
	out := make([]domain.Stream, 0, 2)
	if len(s.cameras) > 0 {
		out = append(out, domain.NewStream(s.cameras[s.camera].DeviceURN(), domain.MediaTypeVideo))
	}
	if s.mic != nil {
		out = append(out, domain.NewStream(s.mic.DeviceURN(), domain.MediaTypeAudio))
	}
	return out
}

// applySourceStates must be called with s.mu held.
func (s *Stage) applySourceStates() {
	for i, cam := range s.cameras {
		if s.published && i == s.camera {
			cam.SetState(SourceStateLive)
		} else {
			cam.SetState(SourceStatePaused)
		}
	}
	if s.mic != nil {
		switch {
		case !s.published:
			s.mic.SetState(SourceStatePaused)
		case s.muted:
			s.mic.SetState(SourceStateMuted)
		default:
			s.mic.SetState(SourceStateLive)
		}
	}
}

func (s *Stage) SetStreamsPublished(ctx context.Context, published bool) error {
	s.mu.Lock()
	if s.conn == nil {
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
	s.applySourceStates()
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

// SwapCamera moves to the next configured camera. While joined, the video
// sender switches tracks without renegotiation.
func (s *Stage) SwapCamera(ctx context.Context) (domain.DeviceURN, error) {
	s.mu.Lock()
	if len(s.cfg.Cameras) < 2 {
		s.mu.Unlock()
		return "", domain.ErrNoAlternateCamera
	}
	next := (s.camera + 1) % len(s.cfg.Cameras)
	if s.conn == nil {
		s.camera = next
		urn := s.cfg.Cameras[next].URN
		s.mu.Unlock()
		return urn, nil
	}

	prev := domain.NewStream(s.cameras[s.camera].DeviceURN(), domain.MediaTypeVideo)
	if err := s.videoSender.ReplaceTrack(s.cameras[next].track); err != nil {
		s.mu.Unlock()
		return "", fmt.Errorf("replace track: %w", err)
	}
	s.camera = next
	s.applySourceStates()
	cur := domain.NewStream(s.cameras[next].DeviceURN(), domain.MediaTypeVideo)
	published, id := s.published, s.cfg.LocalID
	s.mu.Unlock()

	if published {
		s.notify(
			func(l core.StageListener) { l.OnStreamsRemoved(id, []domain.Stream{prev}) },
			func(l core.StageListener) { l.OnStreamsAdded(id, []domain.Stream{cur}) },
		)
	}
	return cur.DeviceURN, nil
}

func (s *Stage) SetMicrophoneMuted(ctx context.Context, muted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.Microphone.URN == "" {
		return domain.ErrStreamsNotInitialized
	}
	s.muted = muted
	s.applySourceStates()
	return nil
}

func (s *Stage) Preview(urn domain.DeviceURN) (core.Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, dev := range s.cfg.Cameras {
		if dev.URN != urn {
			continue
		}
		for _, cam := range s.cameras {
			if cam.DeviceURN() == urn && cam.running.Load() {
				return preview{cam}, nil
			}
		}
		return nil, fmt.Errorf("preview %s: %w", urn, domain.ErrDeviceNotReady)
	}
	if s.cfg.Microphone.URN == urn {
		return nil, fmt.Errorf("preview %s: %w", urn, domain.ErrNotVideoDevice)
	}

	for _, p := range s.remotes {
		for _, t := range p.tracks {
			if t.stream.DeviceURN != urn {
				continue
			}
			if !t.stream.IsVideo() {
				return nil, fmt.Errorf("preview %s: %w", urn, domain.ErrNotVideoDevice)
			}
			if _, ok := t.LatestFrame(); !ok {
				if s.conn != nil {
					_ = s.conn.RequestKeyframe(t.src.SSRC())
				}
				return nil, fmt.Errorf("preview %s: %w", urn, domain.ErrPreviewNotReady)
			}
			return preview{t}, nil
		}
	}
	return nil, fmt.Errorf("preview %s: %w", urn, domain.ErrUnknownDevice)
}

func (s *Stage) Close() error {
	s.mu.Lock()
	joined := s.conn != nil
	s.mu.Unlock()
	if joined {
		if err := s.Leave(context.Background()); err != nil {
			return err
		}
	}
	s.SetListener(nil)
	return nil
}
