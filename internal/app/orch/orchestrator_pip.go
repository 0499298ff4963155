package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/stagebridge/internal/domain"
)

var errNoPiPHost = fmt.Errorf("no pip host: %w", domain.ErrPiPNotEnabled)

func (o *Orchestrator) EnablePiP(ctx context.Context) error {
	if o.pip == nil {
		return errNoPiPHost
	}
	return o.pip.Enable(ctx)
}

func (o *Orchestrator) DisablePiP(ctx context.Context) error {
	if o.pip == nil {
		return errNoPiPHost
	}
	return o.pip.Disable(ctx)
}

func (o *Orchestrator) StartPiP(ctx context.Context) error {
	if o.pip == nil {
		return errNoPiPHost
	}
	return o.pip.Start(ctx)
}

func (o *Orchestrator) StopPiP(ctx context.Context) error {
	if o.pip == nil {
		return errNoPiPHost
	}
	return o.pip.Stop(ctx)
}
