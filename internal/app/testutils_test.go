package app

import (
	"github.com/dkeye/stagebridge/internal/core"
	"github.com/dkeye/stagebridge/internal/domain"
)

type fakeTarget struct {
	dead      bool
	current   domain.DeviceURN
	renders   []domain.DeviceURN
	clears    int
	renderErr error
}

func (f *fakeTarget) Render(s domain.Stream, _ core.Preview) error {
	if f.renderErr != nil {
		return f.renderErr
	}
	f.current = s.DeviceURN
	f.renders = append(f.renders, s.DeviceURN)
	return nil
}

func (f *fakeTarget) Clear() {
	f.clears++
	f.current = ""
}

func (f *fakeTarget) Alive() bool { return !f.dead }

type fakePreview struct {
	urn    domain.DeviceURN
	closed bool
}

func (p *fakePreview) DeviceURN() domain.DeviceURN { return p.urn }

func (p *fakePreview) LatestFrame() (domain.Frame, bool) {
	return domain.Frame{DeviceURN: p.urn, Data: []byte(p.urn)}, true
}

func (p *fakePreview) Close() error {
	p.closed = true
	return nil
}

type fakePreviews struct {
	failing map[domain.DeviceURN]error
	opened  []*fakePreview
}

func newFakePreviews() *fakePreviews {
	return &fakePreviews{failing: make(map[domain.DeviceURN]error)}
}

func (f *fakePreviews) Preview(urn domain.DeviceURN) (core.Preview, error) {
	if err, ok := f.failing[urn]; ok {
		return nil, err
	}
	p := &fakePreview{urn: urn}
	f.opened = append(f.opened, p)
	return p, nil
}

func video(urn string) domain.Stream { return domain.NewStream(domain.DeviceURN(urn), domain.MediaTypeVideo) }

func audio(urn string) domain.Stream { return domain.NewStream(domain.DeviceURN(urn), domain.MediaTypeAudio) }

func participant(id string, streams ...domain.Stream) domain.Participant {
	return domain.Participant{ID: domain.ParticipantID(id), Streams: streams}
}

func renderedBy(r *Registry, id domain.ViewID) domain.DeviceURN {
	for _, v := range r.Views() {
		if v.ID == id {
			return v.CurrentRenderedDeviceURN
		}
	}
	return ""
}
