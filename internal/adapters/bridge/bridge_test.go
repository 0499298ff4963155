package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/stagebridge/internal/adapters/stage/memory"
	"github.com/dkeye/stagebridge/internal/app"
	"github.com/dkeye/stagebridge/internal/app/orch"
	"github.com/dkeye/stagebridge/internal/core"
	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Call    string          `json:"call"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
	ViewID  domain.ViewID   `json:"viewId"`
	Stream  *domain.Stream  `json:"stream"`
	Command string          `json:"command"`
}

type env struct {
	stage *memory.Stage
	orch  *orch.Orchestrator
	hub   *Hub
	srv   *httptest.Server
}

func newEnv(t *testing.T, opts Options) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	loop := app.NewLoop(0)
	go loop.Run()
	t.Cleanup(loop.Stop)

	stage := memory.New(memory.Config{
		LocalID:    "me",
		Cameras:    []domain.DeviceURN{"cam-front", "cam-back"},
		Microphone: "mic",
	})
	hub := NewHub()
	host := NewPiPHost(hub)
	o := orch.New(loop, stage, hub, orch.Options{PiPHost: host, PiPFPS: 20})
	host.SetListener(o.PiP())
	ctl := NewController(o, hub, host, opts)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleBridge(ctx, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &env{stage: stage, orch: o, hub: hub, srv: srv}
}

func (e *env) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return e.hub.Count() > 0 }, time.Second, 5*time.Millisecond)
	return conn
}

func call(t *testing.T, conn *websocket.Conn, id, kind string, fields map[string]any) {
	t.Helper()
	msg := map[string]any{"type": kind, "id": id}
	for k, v := range fields {
		msg[k] = v
	}
	require.NoError(t, conn.WriteJSON(msg))
}

// await reads text frames until match accepts one.
func await(t *testing.T, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if kind != websocket.TextMessage {
			continue
		}
		var f frame
		require.NoError(t, json.Unmarshal(data, &f))
		if match(f) {
			return f
		}
	}
}

// awaitAll reads until every matcher accepted a frame, in any order, and
// returns the first frame each one accepted.
func awaitAll(t *testing.T, conn *websocket.Conn, matchers ...func(frame) bool) []frame {
	t.Helper()
	out := make([]frame, len(matchers))
	seen := make([]bool, len(matchers))
	left := len(matchers)
	for left > 0 {
		f := await(t, conn, func(frame) bool { return true })
		for i, m := range matchers {
			if !seen[i] && m(f) {
				out[i], seen[i] = f, true
				left--
			}
		}
	}
	return out
}

func result(id string) func(frame) bool {
	return func(f frame) bool { return f.Type == "result" && f.ID == id }
}

func event(name string) func(frame) bool {
	return func(f frame) bool { return f.Type == "event" && f.Name == name }
}

func TestBridge_JoinEmitsEvents(t *testing.T) {
	e := newEnv(t, Options{})
	conn := e.dial(t)

	call(t, conn, "1", "joinStage", map[string]any{"token": "tok"})
	got := awaitAll(t, conn, result("1"), event(core.EventStageConnectionStateChanged))
	require.Empty(t, got[0].Error)
	require.Equal(t, "joinStage", got[0].Call)
	require.Contains(t, string(got[1].Payload), "connecting")

	state, err := e.orch.State(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.ConnectionStateConnected, state.Connection)
}

func TestBridge_ErrorCodes(t *testing.T) {
	e := newEnv(t, Options{})
	conn := e.dial(t)

	call(t, conn, "1", "joinStage", map[string]any{"token": "  "})
	res := await(t, conn, result("1"))
	require.Equal(t, "invalid_token", res.Code)

	call(t, conn, "2", "leaveStage", nil)
	res = await(t, conn, result("2"))
	require.Equal(t, "not_connected", res.Code)

	call(t, conn, "3", "teleport", nil)
	res = await(t, conn, result("3"))
	require.Equal(t, "unknown_call", res.Code)

	call(t, conn, "4", "attachView", map[string]any{"props": map[string]any{"scaleMode": "stretch"}})
	res = await(t, conn, result("4"))
	require.Equal(t, "invalid_scale_mode", res.Code)

	call(t, conn, "5", "detachView", map[string]any{"viewId": "nope"})
	res = await(t, conn, result("5"))
	require.Equal(t, "unknown_view", res.Code)
}

func TestBridge_ViewRendersRemoteStream(t *testing.T) {
	e := newEnv(t, Options{})
	conn := e.dial(t)

	call(t, conn, "1", "joinStage", map[string]any{"token": "tok"})
	await(t, conn, result("1"))

	call(t, conn, "2", "attachView", map[string]any{"props": map[string]any{"scaleMode": "fit", "mirror": true}})
	res := await(t, conn, result("2"))
	require.Empty(t, res.Error)
	var attached struct {
		ViewID domain.ViewID `json:"viewId"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &attached))
	require.NotEmpty(t, attached.ViewID)

	require.NoError(t, e.stage.SimJoin("guest", domain.Stream{DeviceURN: "guest-cam", MediaType: domain.MediaTypeVideo}))
	render := await(t, conn, func(f frame) bool { return f.Type == "render" })
	require.Equal(t, attached.ViewID, render.ViewID)
	require.Equal(t, domain.DeviceURN("guest-cam"), render.Stream.DeviceURN)

	require.NoError(t, e.stage.SimLeave("guest"))
	cleared := await(t, conn, func(f frame) bool { return f.Type == "clear" })
	require.Equal(t, attached.ViewID, cleared.ViewID)
}

func TestBridge_ViewsDieWithClient(t *testing.T) {
	e := newEnv(t, Options{})
	conn := e.dial(t)

	call(t, conn, "1", "attachView", map[string]any{"viewId": "host-view"})
	await(t, conn, result("1"))
	views, err := e.orch.Views(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool {
		views, err := e.orch.Views(context.Background())
		return err == nil && len(views) == 0
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return e.hub.Count() == 0 }, time.Second, 5*time.Millisecond)
}

func TestBridge_RateLimited(t *testing.T) {
	e := newEnv(t, Options{RateLimit: 2, RateInterval: time.Minute})
	conn := e.dial(t)

	for _, id := range []string{"1", "2", "3"} {
		call(t, conn, id, "ping", nil)
	}
	require.Empty(t, await(t, conn, result("1")).Code)
	require.Empty(t, await(t, conn, result("2")).Code)
	require.Equal(t, "rate_limited", await(t, conn, result("3")).Code)
}

func TestBridge_PiPLifecycle(t *testing.T) {
	e := newEnv(t, Options{})
	conn := e.dial(t)

	call(t, conn, "1", "joinStage", map[string]any{"token": "tok"})
	await(t, conn, result("1"))
	call(t, conn, "2", "attachView", nil)
	await(t, conn, result("2"))
	require.NoError(t, e.stage.SimJoin("guest", domain.Stream{DeviceURN: "guest-cam", MediaType: domain.MediaTypeVideo}))
	await(t, conn, func(f frame) bool { return f.Type == "render" })

	call(t, conn, "3", "startPip", nil)
	require.Equal(t, "pip_not_enabled", await(t, conn, result("3")).Code)

	call(t, conn, "4", "enablePip", nil)
	require.Equal(t, "enable", await(t, conn, func(f frame) bool { return f.Type == "pip" }).Command)
	await(t, conn, result("4"))

	call(t, conn, "5", "startPip", nil)
	require.Equal(t, "start", await(t, conn, func(f frame) bool { return f.Type == "pip" }).Command)
	await(t, conn, result("5"))

	call(t, conn, "6", "pipStarted", nil)
	ev := await(t, conn, event(core.EventPiPStateChanged))
	require.Contains(t, string(ev.Payload), "started")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if kind != websocket.BinaryMessage {
			continue
		}
		f, err := DecodeFrame(data)
		require.NoError(t, err)
		require.Equal(t, domain.DeviceURN("guest-cam"), f.DeviceURN)
		require.NotEmpty(t, f.Data)
		break
	}
}

func TestPiPHost_StartWithoutClients(t *testing.T) {
	host := NewPiPHost(NewHub())
	require.ErrorIs(t, host.StartPiP(), ErrNoPiPClient)
	require.NoError(t, host.SetPiPEnabled(true))
}

func TestFrameCodec(t *testing.T) {
	in := domain.Frame{
		DeviceURN: "cam-1",
		MimeType:  "video/H264",
		Data:      []byte{0, 0, 0, 1, 0x65},
		Timestamp: time.Unix(1700000000, 42),
	}
	b, err := EncodeFrame(in)
	require.NoError(t, err)
	out, err := DecodeFrame(b)
	require.NoError(t, err)
	require.Equal(t, in.DeviceURN, out.DeviceURN)
	require.Equal(t, in.MimeType, out.MimeType)
	require.Equal(t, in.Data, out.Data)
	require.True(t, in.Timestamp.Equal(out.Timestamp))

	_, err = DecodeFrame(b[:5])
	require.ErrorIs(t, err, errShortFrame)
}

func TestErrorCode_Wrapped(t *testing.T) {
	require.Equal(t, "not_connected", errorCode(errWrap(domain.ErrNotConnected)))
	require.Equal(t, "stage_error", errorCode(&domain.StageError{Code: 1, Message: "x"}))
	require.Equal(t, "internal", errorCode(context.Canceled))
}

func errWrap(err error) error { return &wrapped{err} }

type wrapped struct{ err error }

func (w *wrapped) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }

func TestBridge_ViewIDBelongsToOneClient(t *testing.T) {
	e := newEnv(t, Options{})
	a := e.dial(t)
	b := e.dial(t)

	call(t, a, "1", "attachView", map[string]any{"viewId": "v1"})
	require.Empty(t, await(t, a, result("1")).Error)

	call(t, b, "1", "attachView", map[string]any{"viewId": "v1"})
	require.Equal(t, "view_taken", await(t, b, result("1")).Code)
	call(t, b, "2", "attachView", map[string]any{"viewId": "v2"})
	require.Empty(t, await(t, b, result("2")).Error)

	require.NoError(t, a.Close())
	require.Eventually(t, func() bool {
		views, err := e.orch.Views(context.Background())
		return err == nil && len(views) == 1 && views[0].ID == "v2"
	}, 2*time.Second, 10*time.Millisecond)

	call(t, b, "3", "attachView", map[string]any{"viewId": "v1"})
	require.Empty(t, await(t, b, result("3")).Error)
}

// serverClient returns a bridge client over a live connection with no
// pumps, so nothing drains its send queue.
func serverClient(t *testing.T, queue int) *Client {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- ws
	}))
	t.Cleanup(srv.Close)

	peer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = peer.Close() })

	c := &Client{
		id:    "slow",
		conn:  <-conns,
		send:  make(chan outMsg, queue),
		views: make(map[domain.ViewID]*remoteView),
	}
	t.Cleanup(c.Close)
	return c
}

func TestRemoteView_DroppedClearKicksClient(t *testing.T) {
	c := serverClient(t, 1)
	v := c.view("v1")

	v.Clear()
	require.True(t, c.Alive(), "queued clear keeps the client")

	v.Clear()
	require.False(t, c.Alive())
	require.ErrorIs(t, c.TrySend(websocket.TextMessage, []byte("{}")), ErrClosed)
}

func TestRemoteView_DroppedPropsKeepsClient(t *testing.T) {
	c := serverClient(t, 0)
	v := c.view("v1")

	v.SetProps(domain.ViewProps{ScaleMode: domain.ScaleModeFit})
	require.True(t, c.Alive())
}
