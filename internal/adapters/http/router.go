package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/dkeye/stagebridge/internal/adapters/bridge"
	"github.com/dkeye/stagebridge/internal/config"
	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Snapshots is the read side of the orchestrator.
type Snapshots interface {
	State(ctx context.Context) (domain.StageState, error)
	Participants(ctx context.Context) ([]domain.Participant, error)
	Views(ctx context.Context) ([]domain.ViewInfo, error)
}

// Simulator injects remote activity into an in-process stage.
type Simulator interface {
	SimJoin(id domain.ParticipantID, streams ...domain.Stream) error
	SimLeave(id domain.ParticipantID) error
	SimAddStreams(id domain.ParticipantID, streams ...domain.Stream) error
	SimRemoveStreams(id domain.ParticipantID, urns ...domain.DeviceURN) error
	SimNotReady(urn domain.DeviceURN, n int)
}

type Deps struct {
	Snapshots Snapshots
	Bridge    *bridge.Controller
	// Sim is nil unless the stage backend is simulated.
	Sim Simulator
}

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("StageBridgeSessions", store))
	r.Use(ClientTokenMiddleware())

	log.Info().Str("module", "adapters.http").Bool("sim", deps.Sim != nil).Msg("router setup")

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": deps.Bridge.Hub.Count()})
	})

	api := r.Group("/api")

	api.GET("/state", func(c *gin.Context) {
		state, err := deps.Snapshots.State(c.Request.Context())
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, state)
	})
	api.GET("/participants", func(c *gin.Context) {
		ps, err := deps.Snapshots.Participants(c.Request.Context())
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"participants": ps})
	})
	api.GET("/views", func(c *gin.Context) {
		vs, err := deps.Snapshots.Views(c.Request.Context())
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"views": vs})
	})

	api.GET("/ws/bridge", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws bridge endpoint hit")
		deps.Bridge.HandleBridge(ctx, c)
	})

	if deps.Sim != nil {
		registerSim(api.Group("/sim"), deps.Sim)
	}

	return r
}

type streamReq struct {
	DeviceURN string `json:"deviceUrn" binding:"required"`
	MediaType string `json:"mediaType"`
}

func (s streamReq) stream() domain.Stream {
	return domain.NewStream(domain.DeviceURN(s.DeviceURN), domain.ParseMediaType(s.MediaType))
}

func streamsOf(reqs []streamReq) []domain.Stream {
	out := make([]domain.Stream, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.stream())
	}
	return out
}

func registerSim(g *gin.RouterGroup, sim Simulator) {
	g.POST("/participants", func(c *gin.Context) {
		var req struct {
			ID      string      `json:"participantId" binding:"required"`
			Streams []streamReq `json:"streams"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := sim.SimJoin(domain.ParticipantID(req.ID), streamsOf(req.Streams)...); err != nil {
			abort(c, err)
			return
		}
		c.Status(http.StatusCreated)
	})
	g.DELETE("/participants/:id", func(c *gin.Context) {
		if err := sim.SimLeave(domain.ParticipantID(c.Param("id"))); err != nil {
			abort(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
	g.POST("/participants/:id/streams", func(c *gin.Context) {
		var req struct {
			Streams []streamReq `json:"streams" binding:"required,dive"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := sim.SimAddStreams(domain.ParticipantID(c.Param("id")), streamsOf(req.Streams)...); err != nil {
			abort(c, err)
			return
		}
		c.Status(http.StatusCreated)
	})
	g.DELETE("/participants/:id/streams/:urn", func(c *gin.Context) {
		err := sim.SimRemoveStreams(domain.ParticipantID(c.Param("id")), domain.DeviceURN(c.Param("urn")))
		if err != nil {
			abort(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
	g.POST("/devices/:urn/not-ready", func(c *gin.Context) {
		var req struct {
			Count int `json:"count" binding:"min=0"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sim.SimNotReady(domain.DeviceURN(c.Param("urn")), req.Count)
		c.Status(http.StatusNoContent)
	})
}

func abort(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domain.ErrUnknownParticipant):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotConnected):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrLoopStopped), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	log.Warn().Str("module", "adapters.http").Str("path", c.FullPath()).Err(err).Msg("request failed")
	c.JSON(status, gin.H{"error": err.Error()})
}
