package app

import (
	"github.com/dkeye/stagebridge/internal/core"
	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/rs/zerolog/log"
)

// FailureHook is told about every assignment that was rolled back.
type FailureHook func(id domain.ViewID, stream domain.Stream, err error)

// RenderHook is told about every assignment that reached its target.
type RenderHook func(id domain.ViewID, stream domain.Stream)

type viewEntry struct {
	id       domain.ViewID
	target   core.RenderTarget
	rendered domain.Stream
	preview  core.Preview
}

func (e *viewEntry) idle() bool { return e.rendered.DeviceURN == "" }

// Registry pairs available video streams with idle render targets.
//
// It is owned by the main loop: no method may be called concurrently and
// there is no locking inside.
type Registry struct {
	previews  core.PreviewProvider
	policy    AssignmentPolicy
	target    domain.ParticipantID
	onFailure FailureHook
	onRender  RenderHook

	views     map[domain.ViewID]*viewEntry
	viewOrder []domain.ViewID

	participants map[domain.ParticipantID]*domain.Participant
	joinOrder    []domain.ParticipantID
}

type RegistryOption func(*Registry)

func WithPolicy(p AssignmentPolicy) RegistryOption {
	return func(r *Registry) {
		if p != nil {
			r.policy = p
		}
	}
}

func WithFailureHook(h FailureHook) RegistryOption {
	return func(r *Registry) { r.onFailure = h }
}

func WithRenderHook(h RenderHook) RegistryOption {
	return func(r *Registry) { r.onRender = h }
}

func NewRegistry(previews core.PreviewProvider, opts ...RegistryOption) *Registry {
	r := &Registry{
		previews:     previews,
		policy:       SortToFront{},
		views:        make(map[domain.ViewID]*viewEntry),
		participants: make(map[domain.ParticipantID]*domain.Participant),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterView adds a target to the pool and runs an assignment pass.
// Registering an id that is already present with the same target keeps
// whatever it renders.
func (r *Registry) RegisterView(id domain.ViewID, target core.RenderTarget) {
	if e, ok := r.views[id]; ok {
		if e.target == target {
			log.Debug().Str("module", "app.registry").Str("view", string(id)).Msg("view already registered")
			r.Assign()
			return
		}
		r.release(e)
		e.target = target
	} else {
		r.views[id] = &viewEntry{id: id, target: target}
		r.viewOrder = append(r.viewOrder, id)
	}
	log.Info().Str("module", "app.registry").Str("view", string(id)).Msg("view registered")
	r.Assign()
}

// UnregisterView drops a target. The stream it was rendering becomes
// available on the next assignment pass.
func (r *Registry) UnregisterView(id domain.ViewID) bool {
	e, ok := r.views[id]
	if !ok {
		return false
	}
	r.clearView(e)
	r.removeView(id)
	log.Info().Str("module", "app.registry").Str("view", string(id)).Msg("view unregistered")
	return true
}

func (r *Registry) OnParticipantJoined(p domain.Participant) {
	existing, ok := r.participants[p.ID]
	if ok {
		existing.IsLocal = p.IsLocal
		if added := existing.AddStreams(p.Streams...); domain.HasVideo(added) {
			r.Assign()
		}
		return
	}
	clone := p.Clone()
	r.participants[p.ID] = &clone
	r.joinOrder = append(r.joinOrder, p.ID)
	log.Info().Str("module", "app.registry").Str("participant", string(p.ID)).Bool("local", p.IsLocal).Int("streams", len(p.Streams)).Msg("participant joined")
	if domain.HasVideo(p.Streams) {
		r.Assign()
	}
}

func (r *Registry) OnParticipantLeft(id domain.ParticipantID) {
	p, ok := r.participants[id]
	if !ok {
		return
	}
	r.clearRendering(p.Streams)
	delete(r.participants, id)
	for i, pid := range r.joinOrder {
		if pid == id {
			r.joinOrder = append(r.joinOrder[:i], r.joinOrder[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "app.registry").Str("participant", string(id)).Msg("participant left")
	r.Assign()
}

func (r *Registry) OnStreamsAdded(id domain.ParticipantID, streams []domain.Stream) {
	p, ok := r.participants[id]
	if !ok {
		log.Debug().Str("module", "app.registry").Str("participant", string(id)).Msg("streams for unknown participant, adding it")
		p = &domain.Participant{ID: id}
		r.participants[id] = p
		r.joinOrder = append(r.joinOrder, id)
	}
	added := p.AddStreams(streams...)
	if domain.HasVideo(added) {
		r.Assign()
	}
}

func (r *Registry) OnStreamsRemoved(id domain.ParticipantID, streams []domain.Stream) {
	p, ok := r.participants[id]
	if !ok {
		return
	}
	removed := p.RemoveStreams(streams...)
	r.clearRendering(removed)
	if domain.HasVideo(removed) {
		r.Assign()
	}
}

// Reset clears every view and forgets every participant.
func (r *Registry) Reset() {
	for _, id := range r.viewOrder {
		if e := r.views[id]; !e.idle() {
			r.clearView(e)
		}
	}
	r.participants = make(map[domain.ParticipantID]*domain.Participant)
	r.joinOrder = nil
	log.Info().Str("module", "app.registry").Msg("registry reset")
}

func (r *Registry) SetTargetParticipant(id domain.ParticipantID) {
	r.target = id
}

func (r *Registry) TargetParticipant() domain.ParticipantID { return r.target }

// Assign pairs idle views with unrendered remote video streams and returns
// how many pairs were rendered. Local streams are never assigned.
func (r *Registry) Assign() int {
	r.prune()

	rendered := make(map[domain.DeviceURN]struct{}, len(r.views))
	idle := make([]*viewEntry, 0, len(r.views))
	for _, id := range r.viewOrder {
		e := r.views[id]
		if e.idle() {
			idle = append(idle, e)
			continue
		}
		rendered[e.rendered.DeviceURN] = struct{}{}
	}
	if len(idle) == 0 {
		return 0
	}

	available := r.policy.Order(r.target, r.available(rendered))
	n := min(len(idle), len(available))
	formed := 0
	for i := 0; i < n; i++ {
		if r.render(idle[i], available[i].Stream) {
			formed++
		}
	}
	return formed
}

func (r *Registry) available(rendered map[domain.DeviceURN]struct{}) []Candidate {
	out := make([]Candidate, 0)
	for _, pid := range r.joinOrder {
		p := r.participants[pid]
		if p.IsLocal {
			continue
		}
		for _, s := range p.Streams {
			if !s.IsVideo() {
				continue
			}
			if _, ok := rendered[s.DeviceURN]; ok {
				continue
			}
			out = append(out, Candidate{Participant: pid, Stream: s})
		}
	}
	return out
}

func (r *Registry) render(e *viewEntry, stream domain.Stream) bool {
	logger := log.With().Str("module", "app.registry").Str("view", string(e.id)).Str("urn", string(stream.DeviceURN)).Logger()

	preview, err := r.previews.Preview(stream.DeviceURN)
	if err != nil {
		logger.Warn().Err(err).Msg("preview unavailable, assignment rolled back")
		r.clearView(e)
		r.fail(e.id, stream, err)
		return false
	}
	e.rendered = stream
	e.preview = preview
	if err := e.target.Render(stream, preview); err != nil {
		logger.Warn().Err(err).Msg("render failed, assignment rolled back")
		r.clearView(e)
		r.fail(e.id, stream, err)
		return false
	}
	logger.Info().Msg("view assigned")
	if r.onRender != nil {
		r.onRender(e.id, stream)
	}
	return true
}

func (r *Registry) fail(id domain.ViewID, stream domain.Stream, err error) {
	if r.onFailure != nil {
		r.onFailure(id, stream, err)
	}
}

func (r *Registry) clearRendering(streams []domain.Stream) {
	if len(streams) == 0 {
		return
	}
	gone := make(map[domain.DeviceURN]struct{}, len(streams))
	for _, s := range streams {
		gone[s.DeviceURN] = struct{}{}
	}
	for _, id := range r.viewOrder {
		e := r.views[id]
		if _, ok := gone[e.rendered.DeviceURN]; ok && !e.idle() {
			r.clearView(e)
		}
	}
}

// clearView releases the preview and commands a live target to clear.
func (r *Registry) clearView(e *viewEntry) {
	r.release(e)
	if e.target.Alive() {
		e.target.Clear()
	}
}

func (r *Registry) release(e *viewEntry) {
	if e.preview != nil {
		if err := e.preview.Close(); err != nil {
			log.Debug().Str("module", "app.registry").Str("view", string(e.id)).Err(err).Msg("preview close")
		}
	}
	e.preview = nil
	e.rendered = domain.Stream{}
}

// prune drops targets that no longer exist.
func (r *Registry) prune() {
	for _, id := range append([]domain.ViewID(nil), r.viewOrder...) {
		e := r.views[id]
		if e.target.Alive() {
			continue
		}
		r.release(e)
		r.removeView(id)
		log.Info().Str("module", "app.registry").Str("view", string(id)).Msg("dead view pruned")
	}
}

func (r *Registry) removeView(id domain.ViewID) {
	delete(r.views, id)
	for i, vid := range r.viewOrder {
		if vid == id {
			r.viewOrder = append(r.viewOrder[:i], r.viewOrder[i+1:]...)
			return
		}
	}
}

// Views returns the registered views in registration order.
func (r *Registry) Views() []domain.ViewInfo {
	out := make([]domain.ViewInfo, 0, len(r.viewOrder))
	for _, id := range r.viewOrder {
		out = append(out, domain.ViewInfo{ID: id, CurrentRenderedDeviceURN: r.views[id].rendered.DeviceURN})
	}
	return out
}

// Participants returns copies of the known participants in join order.
func (r *Registry) Participants() []domain.Participant {
	out := make([]domain.Participant, 0, len(r.joinOrder))
	for _, id := range r.joinOrder {
		out = append(out, r.participants[id].Clone())
	}
	return out
}

func (r *Registry) Participant(id domain.ParticipantID) (domain.Participant, bool) {
	p, ok := r.participants[id]
	if !ok {
		return domain.Participant{}, false
	}
	return p.Clone(), true
}

func (r *Registry) Target(id domain.ViewID) (core.RenderTarget, bool) {
	e, ok := r.views[id]
	if !ok {
		return nil, false
	}
	return e.target, true
}

// RenderedPreview returns the preview of the view rendering urn.
func (r *Registry) RenderedPreview(urn domain.DeviceURN) (core.Preview, bool) {
	for _, id := range r.viewOrder {
		e := r.views[id]
		if e.rendered.DeviceURN == urn && e.preview != nil {
			return e.preview, true
		}
	}
	return nil, false
}

// RenderedStreams lists what live views render, in registration order.
func (r *Registry) RenderedStreams() []domain.Stream {
	out := make([]domain.Stream, 0, len(r.viewOrder))
	for _, id := range r.viewOrder {
		if e := r.views[id]; !e.idle() {
			out = append(out, e.rendered)
		}
	}
	return out
}

// OwnerOf returns the participant that owns urn.
func (r *Registry) OwnerOf(urn domain.DeviceURN) (domain.ParticipantID, bool) {
	for _, id := range r.joinOrder {
		if r.participants[id].HasStream(urn) {
			return id, true
		}
	}
	return "", false
}
