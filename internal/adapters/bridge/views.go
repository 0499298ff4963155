package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/dkeye/stagebridge/internal/core"
	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// remoteView is a render target living in a host client. Commands are
// queued to the owning client; it dies with the client.
type remoteView struct {
	id     domain.ViewID
	client *Client

	mu    sync.Mutex
	props domain.ViewProps
}

type viewCommand struct {
	Type   string            `json:"type"`
	ViewID domain.ViewID     `json:"viewId"`
	Stream *domain.Stream    `json:"stream,omitempty"`
	Props  *domain.ViewProps `json:"props,omitempty"`
}

func (v *remoteView) send(cmd viewCommand) error {
	b, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return v.client.TrySend(websocket.TextMessage, b)
}

func (v *remoteView) Render(stream domain.Stream, _ core.Preview) error {
	v.mu.Lock()
	props := v.props
	v.mu.Unlock()
	return v.send(viewCommand{Type: "render", ViewID: v.id, Stream: &stream, Props: &props})
}

// Clear closes a client that cannot take the command: a host still showing
// the old stream would render a URN the registry already handed elsewhere.
func (v *remoteView) Clear() {
	err := v.send(viewCommand{Type: "clear", ViewID: v.id})
	if err == nil {
		return
	}
	log.Warn().Str("module", "bridge").Str("client", v.client.id).Str("view", string(v.id)).Err(err).Msg("clear dropped")
	if errors.Is(err, ErrBackpressure) {
		log.Warn().Str("module", "bridge").Str("client", v.client.id).Msg("kicking slow client")
		v.client.Close()
	}
}

func (v *remoteView) Alive() bool { return v.client.Alive() }

func (v *remoteView) SetProps(props domain.ViewProps) {
	v.mu.Lock()
	v.props = props
	v.mu.Unlock()
	if err := v.send(viewCommand{Type: "props", ViewID: v.id, Props: &props}); err != nil {
		log.Warn().Str("module", "bridge").Str("client", v.client.id).Str("view", string(v.id)).Err(err).Msg("props dropped")
	}
}

type viewPropsReq struct {
	ScaleMode string `json:"scaleMode"`
	Mirror    bool   `json:"mirror"`
}

func (p *viewPropsReq) parse() (domain.ViewProps, error) {
	if p == nil {
		return domain.DefaultViewProps(), nil
	}
	mode, err := domain.ParseScaleMode(p.ScaleMode)
	if err != nil {
		return domain.ViewProps{}, err
	}
	return domain.ViewProps{ScaleMode: mode, Mirror: p.Mirror}, nil
}

func handleAttachView(ctl *Controller, ctx context.Context, c *Client, raw []byte) (any, error) {
	var req struct {
		ViewID domain.ViewID `json:"viewId"`
		Props  *viewPropsReq `json:"props"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	props, err := req.Props.parse()
	if err != nil {
		return nil, err
	}
	id := req.ViewID
	if id == "" {
		id = domain.NewViewID()
	}
	fresh, err := ctl.claimView(id, c)
	if err != nil {
		return nil, err
	}
	if err := ctl.Module.RegisterView(ctx, id, c.view(id), props); err != nil {
		if fresh {
			c.untrackView(id)
			ctl.releaseView(id, c)
		}
		return nil, err
	}
	return map[string]domain.ViewID{"viewId": id}, nil
}

func handleDetachView(ctl *Controller, ctx context.Context, c *Client, raw []byte) (any, error) {
	var req struct {
		ViewID domain.ViewID `json:"viewId"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if !c.ownsView(req.ViewID) {
		return nil, domain.ErrUnknownView
	}
	c.untrackView(req.ViewID)
	defer ctl.releaseView(req.ViewID, c)
	return nil, ctl.Module.DetachView(ctx, req.ViewID)
}

func handleSetViewProps(ctl *Controller, ctx context.Context, c *Client, raw []byte) (any, error) {
	var req struct {
		ViewID domain.ViewID `json:"viewId"`
		Props  *viewPropsReq `json:"props"`
	}
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if !c.ownsView(req.ViewID) {
		return nil, domain.ErrUnknownView
	}
	props, err := req.Props.parse()
	if err != nil {
		return nil, err
	}
	return nil, ctl.Module.SetViewProps(ctx, req.ViewID, props)
}

// claimView binds id to c. It reports whether the claim is new and fails
// when another client holds the id.
func (ctl *Controller) claimView(id domain.ViewID, c *Client) (bool, error) {
	ctl.viewsMu.Lock()
	defer ctl.viewsMu.Unlock()
	owner, ok := ctl.owners[id]
	if ok && owner != c {
		return false, domain.ErrViewTaken
	}
	ctl.owners[id] = c
	return !ok, nil
}

func (ctl *Controller) releaseView(id domain.ViewID, c *Client) {
	ctl.viewsMu.Lock()
	defer ctl.viewsMu.Unlock()
	if ctl.owners[id] == c {
		delete(ctl.owners, id)
	}
}
