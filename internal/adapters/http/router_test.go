package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/stagebridge/internal/adapters/bridge"
	"github.com/dkeye/stagebridge/internal/adapters/stage/memory"
	"github.com/dkeye/stagebridge/internal/app"
	"github.com/dkeye/stagebridge/internal/app/orch"
	"github.com/dkeye/stagebridge/internal/config"
	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router *gin.Engine
	orch   *orch.Orchestrator
}

func newFixture(t *testing.T, sim bool) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	loop := app.NewLoop(0)
	go loop.Run()
	t.Cleanup(loop.Stop)

	stage := memory.New(memory.Config{LocalID: "me", Cameras: []domain.DeviceURN{"cam"}, Microphone: "mic"})
	hub := bridge.NewHub()
	o := orch.New(loop, stage, hub, orch.Options{})
	deps := Deps{Snapshots: o, Bridge: bridge.NewController(o, hub, nil, bridge.Options{})}
	if sim {
		deps.Sim = stage
	}
	cfg := &config.Config{Mode: "test", Secret: "secret"}
	return &fixture{router: SetupRouter(context.Background(), cfg, deps), orch: o}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRouter_StateSetsClientToken(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)

	var state domain.StageState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	require.Equal(t, domain.ConnectionStateDisconnected, state.Connection)
	require.Contains(t, w.Header().Get("Set-Cookie"), "ct=")
}

func TestRouter_SimRoutesOnlyWithSimulator(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(http.MethodPost, "/api/sim/participants", `{"participantId":"p1"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SimDrivesSnapshots(t *testing.T) {
	f := newFixture(t, true)

	w := f.do(http.MethodPost, "/api/sim/participants", `{"participantId":"p1"}`)
	require.Equal(t, http.StatusConflict, w.Code, "stage not joined yet")

	require.NoError(t, f.orch.JoinStage(context.Background(), "tok"))

	w = f.do(http.MethodPost, "/api/sim/participants", `{"participantId":"p1","streams":[{"deviceUrn":"p1-cam","mediaType":"video"}]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodPost, "/api/sim/participants/p1/streams", `{"streams":[{"deviceUrn":"p1-mic","mediaType":"audio"}]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	require.Eventually(t, func() bool {
		w := f.do(http.MethodGet, "/api/participants", "")
		var body struct {
			Participants []domain.Participant `json:"participants"`
		}
		if json.Unmarshal(w.Body.Bytes(), &body) != nil {
			return false
		}
		for _, p := range body.Participants {
			if p.ID == "p1" {
				return len(p.Streams) == 2
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	w = f.do(http.MethodDelete, "/api/sim/participants/p1/streams/p1-mic", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(http.MethodDelete, "/api/sim/participants/p1", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(http.MethodDelete, "/api/sim/participants/p1", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPost, "/api/sim/participants", `{"streams":[]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Views(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(http.MethodGet, "/api/views", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"views":[]}`, w.Body.String())
}

func TestRouter_Healthz(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok","clients":0}`, w.Body.String())
}
