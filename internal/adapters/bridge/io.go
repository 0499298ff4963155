package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *Client) {
	ping := time.NewTicker(ctl.opts.PingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "bridge").Str("client", c.id).Msg("writePump ctx done")
			return
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "bridge").Msg("writePump ping")
				return
			}
		case msg, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "bridge").Str("client", c.id).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "bridge").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(msg.kind, msg.data); err != nil {
				log.Error().Err(err).Str("module", "bridge").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, c *Client) {
	defer func() {
		log.Info().Str("module", "bridge").Str("client", c.id).Msg("readPump closing")
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	deadline := func() time.Time { return time.Now().Add(ctl.opts.PingPeriod * 2) }
	_ = c.conn.SetReadDeadline(deadline())
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(deadline()) })

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error().Err(err).Str("module", "bridge").Str("client", c.id).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(deadline())
		ctl.handleMessage(ctx, c, data)
	}
}

type envelope struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

type resultFrame struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Call  string `json:"call"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

func (ctl *Controller) handleMessage(ctx context.Context, c *Client, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "bridge").Msg("bad json")
		ctl.sendJSON(c, map[string]any{"type": "error", "error": "bad_json"})
		return
	}
	if !ctl.limiter.Allow(c.id) {
		ctl.reply(c, env, nil, errRateLimited)
		return
	}

	h, ok := handlers[env.Type]
	if !ok {
		log.Warn().Str("module", "bridge").Str("type", env.Type).Msg("unknown call")
		ctl.reply(c, env, nil, errUnknownCall)
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, ctl.opts.CallTimeout)
	defer cancel()
	res, err := h(ctl, callCtx, c, data)
	ctl.reply(c, env, res, err)
}

func (ctl *Controller) reply(c *Client, env envelope, data any, err error) {
	frame := resultFrame{Type: "result", ID: env.ID, Call: env.Type, Data: data}
	if err != nil {
		frame.Error = err.Error()
		frame.Code = errorCode(err)
		log.Debug().Str("module", "bridge").Str("call", env.Type).Err(err).Msg("call failed")
	}
	ctl.sendJSON(c, frame)
}

func (ctl *Controller) sendJSON(c *Client, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "bridge").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(websocket.TextMessage, b); err != nil {
		log.Warn().Err(err).Str("module", "bridge").Str("client", c.id).Msg("sendJSON dropped")
	}
}
