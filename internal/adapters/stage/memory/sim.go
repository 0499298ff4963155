package memory

import (
	"fmt"
	"sort"

	"github.com/dkeye/stagebridge/internal/core"
	"github.com/dkeye/stagebridge/internal/domain"
)

// SimJoin adds a remote participant with its initial streams.
func (s *Stage) SimJoin(id domain.ParticipantID, streams ...domain.Stream) error {
	p, err := domain.NewParticipant(id, false, streams...)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return domain.ErrNotConnected
	}
	if _, ok := s.remotes[id]; ok || id == s.cfg.LocalID {
		s.mu.Unlock()
		return fmt.Errorf("participant %s already joined", id)
	}
	for _, st := range p.Streams {
		if _, taken := s.lookup(st.DeviceURN); taken {
			s.mu.Unlock()
			return fmt.Errorf("device %s already owned", st.DeviceURN)
		}
	}
	s.remotes[id] = p
	joined := p.Clone()
	s.mu.Unlock()

	s.notify(func(l core.StageListener) { l.OnParticipantJoined(joined) })
	return nil
}

func (s *Stage) SimLeave(id domain.ParticipantID) error {
	s.mu.Lock()
	p, ok := s.remotes[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("participant %s: %w", id, domain.ErrUnknownParticipant)
	}
	delete(s.remotes, id)
	left := p.Clone()
	s.mu.Unlock()

	s.notify(func(l core.StageListener) { l.OnParticipantLeft(left) })
	return nil
}

func (s *Stage) SimAddStreams(id domain.ParticipantID, streams ...domain.Stream) error {
	s.mu.Lock()
	p, ok := s.remotes[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("participant %s: %w", id, domain.ErrUnknownParticipant)
	}
	fresh := make([]domain.Stream, 0, len(streams))
	for _, st := range streams {
		if _, taken := s.lookup(st.DeviceURN); !taken {
			fresh = append(fresh, st)
		}
	}
	added := p.AddStreams(fresh...)
	s.mu.Unlock()

	if len(added) > 0 {
		s.notify(func(l core.StageListener) { l.OnStreamsAdded(id, added) })
	}
	return nil
}

func (s *Stage) SimRemoveStreams(id domain.ParticipantID, urns ...domain.DeviceURN) error {
	s.mu.Lock()
	p, ok := s.remotes[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("participant %s: %w", id, domain.ErrUnknownParticipant)
	}
	drop := make([]domain.Stream, 0, len(urns))
	for _, urn := range urns {
		drop = append(drop, domain.Stream{DeviceURN: urn})
	}
	removed := p.RemoveStreams(drop...)
	s.mu.Unlock()

	if len(removed) > 0 {
		s.notify(func(l core.StageListener) { l.OnStreamsRemoved(id, removed) })
	}
	return nil
}

// SimNotReady makes the next n preview requests for urn fail as not ready.
func (s *Stage) SimNotReady(urn domain.DeviceURN, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notReady[urn] = n
}

func (s *Stage) SimError(err domain.StageError) {
	s.notify(func(l core.StageListener) { l.OnError(err) })
}

// SimParticipants lists remote participants sorted by id.
func (s *Stage) SimParticipants() []domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Participant, 0, len(s.remotes))
	for _, p := range s.remotes {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Stage) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}
