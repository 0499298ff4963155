// Package bridge exposes the stage module to host applications over a
// websocket: module functions in, named events and view commands out.
package bridge

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/stagebridge/internal/core"
	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// Module is the command surface the bridge forwards to.
type Module interface {
	JoinStage(ctx context.Context, token string) error
	LeaveStage(ctx context.Context) error
	SetStreamsPublished(ctx context.Context, published bool) error
	SwapCamera(ctx context.Context) (domain.DeviceURN, error)
	SetMicrophoneMuted(ctx context.Context, muted bool) error
	RequestPermissions(ctx context.Context) (domain.PermissionResult, error)
	SetTargetParticipant(ctx context.Context, id domain.ParticipantID) error

	RegisterView(ctx context.Context, id domain.ViewID, target core.RenderTarget, props domain.ViewProps) error
	DetachView(ctx context.Context, id domain.ViewID) error
	SetViewProps(ctx context.Context, id domain.ViewID, props domain.ViewProps) error

	EnablePiP(ctx context.Context) error
	DisablePiP(ctx context.Context) error
	StartPiP(ctx context.Context) error
	StopPiP(ctx context.Context) error
}

type outMsg struct {
	kind int
	data []byte
}

// Client is one connected host.
type Client struct {
	id    string
	token string
	conn  *websocket.Conn
	send  chan outMsg

	mu     sync.RWMutex
	closed bool
	views  map[domain.ViewID]*remoteView
}

func (c *Client) TrySend(kind int, data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- outMsg{kind: kind, data: data}:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

func (c *Client) Alive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// view returns the client's target for id, creating it on first use.
func (c *Client) view(id domain.ViewID) *remoteView {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.views[id]
	if !ok {
		v = &remoteView{id: id, client: c}
		c.views[id] = v
	}
	return v
}

func (c *Client) ownsView(id domain.ViewID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.views[id]
	return ok
}

func (c *Client) untrackView(id domain.ViewID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, id)
}

func (c *Client) ownedViews() []domain.ViewID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.ViewID, 0, len(c.views))
	for id := range c.views {
		out = append(out, id)
	}
	return out
}

type Options struct {
	ReadLimit    int64
	PingPeriod   time.Duration
	CallTimeout  time.Duration
	RateLimit    int
	RateInterval time.Duration
}

type Controller struct {
	Module Module
	Hub    *Hub
	PiP    *PiPHost

	limiter *RateLimiter
	opts    Options

	viewsMu sync.Mutex
	owners  map[domain.ViewID]*Client
}

func NewController(m Module, hub *Hub, pip *PiPHost, opts Options) *Controller {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 32768
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 15 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 50
	}
	if opts.RateInterval <= 0 {
		opts.RateInterval = time.Second
	}
	return &Controller{
		Module:  m,
		Hub:     hub,
		PiP:     pip,
		limiter: NewRateLimiter(opts.RateLimit, opts.RateInterval),
		opts:    opts,
		owners:  make(map[domain.ViewID]*Client),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *Controller) HandleBridge(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "bridge").Msg("ws upgrade")
		return
	}

	client := &Client{
		id:    uuid.NewString(),
		token: token,
		conn:  ws,
		send:  make(chan outMsg, 64),
		views: make(map[domain.ViewID]*remoteView),
	}
	log.Info().Str("module", "bridge").Str("client", client.id).Str("token", token).Msg("new WS connection")

	ctl.Hub.add(client)
	ctx, cancel := context.WithCancel(ctx)

	go ctl.writePump(ctx, client)
	go func() {
		ctl.readPump(ctx, client)
		cancel()
		ctl.disconnect(client)
	}()
}

// disconnect drops the client and every view it owned.
func (ctl *Controller) disconnect(client *Client) {
	ctl.Hub.remove(client)
	ctl.limiter.Forget(client.id)
	ctx, cancel := context.WithTimeout(context.Background(), ctl.opts.CallTimeout)
	defer cancel()
	for _, id := range client.ownedViews() {
		if err := ctl.Module.DetachView(ctx, id); err != nil && !errors.Is(err, domain.ErrUnknownView) {
			log.Warn().Str("module", "bridge").Str("view", string(id)).Err(err).Msg("detach on disconnect")
		}
		ctl.releaseView(id, client)
	}
	log.Info().Str("module", "bridge").Str("client", client.id).Msg("client gone")
}
