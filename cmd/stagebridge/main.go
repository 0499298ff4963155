package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/stagebridge/internal/adapters/bridge"
	router "github.com/dkeye/stagebridge/internal/adapters/http"
	"github.com/dkeye/stagebridge/internal/adapters/permissions"
	"github.com/dkeye/stagebridge/internal/adapters/rtc"
	"github.com/dkeye/stagebridge/internal/adapters/stage/memory"
	"github.com/dkeye/stagebridge/internal/app"
	"github.com/dkeye/stagebridge/internal/app/orch"
	"github.com/dkeye/stagebridge/internal/config"
	"github.com/dkeye/stagebridge/internal/core"
	"github.com/dkeye/stagebridge/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	stage, sim, err := newStage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create stage backend")
	}
	policy, err := app.PolicyByName(cfg.Assignment.Policy)
	if err != nil {
		log.Fatal().Err(err).Msg("bad assignment policy")
	}

	perms := permissions.New(permissions.Static(map[domain.PermissionKind]bool{
		domain.PermissionCamera:     cfg.Permissions.Camera,
		domain.PermissionMicrophone: cfg.Permissions.Microphone,
	}), cfg.Permissions.TTL)
	defer perms.Stop()

	loop := app.NewLoop(0)
	go loop.Run()

	hub := bridge.NewHub()
	pipHost := bridge.NewPiPHost(hub)
	o := orch.New(loop, stage, hub, orch.Options{
		Policy:      policy,
		Retry:       orch.RetryPolicy{Attempts: cfg.Retry.Attempts, Delay: cfg.Retry.Delay},
		Permissions: perms,
		PiPHost:     pipHost,
		PiPFPS:      cfg.PiP.FPS,
	})
	pipHost.SetListener(o.PiP())

	ctl := bridge.NewController(o, hub, pipHost, bridge.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
	})
	deps := router.Deps{Snapshots: o, Bridge: ctl}
	if sim != nil {
		deps.Sim = sim
	}

	r := router.SetupRouter(ctx, cfg, deps)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Str("backend", cfg.Stage.Backend).Msg("stagebridge started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := o.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("stage close")
	}
	loop.Stop()
	log.Info().Msg("Server exited gracefully")
}

// newStage builds the configured backend. sim is set only for the memory
// backend.
func newStage(cfg *config.Config) (core.StageSDK, *memory.Stage, error) {
	switch cfg.Stage.Backend {
	case "memory":
		mcfg := memory.Config{
			LocalID:    domain.ParticipantID(cfg.Stage.LocalID),
			Microphone: domain.DeviceURN(cfg.Devices.Microphone.URN),
		}
		for _, cam := range cfg.Devices.Cameras {
			mcfg.Cameras = append(mcfg.Cameras, domain.DeviceURN(cam.URN))
		}
		st := memory.New(mcfg)
		return st, st, nil
	case "webrtc":
		rcfg := rtc.Config{
			WHIPURL:        cfg.Stage.WHIPURL,
			ICEServers:     cfg.Stage.ICEServers,
			SubscribeSlots: cfg.Stage.SubscribeSlots,
			LocalID:        domain.ParticipantID(cfg.Stage.LocalID),
			Microphone:     rtc.DeviceConfig{URN: domain.DeviceURN(cfg.Devices.Microphone.URN), Path: cfg.Devices.Microphone.Path},
		}
		for _, cam := range cfg.Devices.Cameras {
			rcfg.Cameras = append(rcfg.Cameras, rtc.DeviceConfig{URN: domain.DeviceURN(cam.URN), Path: cam.Path})
		}
		st, err := rtc.New(rcfg)
		return st, nil, err
	default:
		return nil, nil, fmt.Errorf("unknown stage backend %q", cfg.Stage.Backend)
	}
}
