package core

import (
	"context"

	"github.com/dkeye/stagebridge/internal/domain"
)

type Permissions interface {
	Request(ctx context.Context, kinds ...domain.PermissionKind) (domain.PermissionResult, error)
}
