// Package domain contains stage entities without logic, just meta-data
package domain

import "errors"

const MaxParticipantIDLen = 128

var (
	ErrParticipantIDEmpty   = errors.New("participant id empty")
	ErrParticipantIDTooLong = errors.New("participant id too long")
)

type ParticipantID string

// Participant is a joined member of a stage, local or remote.
type Participant struct {
	ID      ParticipantID `json:"participantId"`
	IsLocal bool          `json:"isLocal"`
	Streams []Stream      `json:"streams"`
}

func NewParticipant(id ParticipantID, isLocal bool, streams ...Stream) (*Participant, error) {
	if len(id) == 0 {
		return nil, ErrParticipantIDEmpty
	}
	if len(id) > MaxParticipantIDLen {
		return nil, ErrParticipantIDTooLong
	}
	p := &Participant{ID: id, IsLocal: isLocal}
	p.AddStreams(streams...)
	return p, nil
}

// Clone returns a copy that shares no slice with p.
func (p *Participant) Clone() Participant {
	out := Participant{ID: p.ID, IsLocal: p.IsLocal}
	out.Streams = append([]Stream(nil), p.Streams...)
	return out
}

// AddStreams appends streams whose URN is not already owned by p and returns the ones added.
func (p *Participant) AddStreams(streams ...Stream) []Stream {
	added := make([]Stream, 0, len(streams))
	for _, s := range streams {
		if s.DeviceURN == "" || p.HasStream(s.DeviceURN) {
			continue
		}
		p.Streams = append(p.Streams, s)
		added = append(added, s)
	}
	return added
}

// RemoveStreams drops streams by URN and returns the ones actually removed.
func (p *Participant) RemoveStreams(streams ...Stream) []Stream {
	drop := make(map[DeviceURN]struct{}, len(streams))
	for _, s := range streams {
		drop[s.DeviceURN] = struct{}{}
	}
	removed := make([]Stream, 0, len(streams))
	kept := p.Streams[:0]
	for _, s := range p.Streams {
		if _, ok := drop[s.DeviceURN]; ok {
			removed = append(removed, s)
			continue
		}
		kept = append(kept, s)
	}
	p.Streams = kept
	return removed
}

func (p *Participant) HasStream(urn DeviceURN) bool {
	for _, s := range p.Streams {
		if s.DeviceURN == urn {
			return true
		}
	}
	return false
}
