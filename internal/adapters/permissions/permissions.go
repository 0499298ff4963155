// Package permissions answers camera and microphone permission requests and
// remembers each answer for a while.
package permissions

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog/log"
)

const grantTTLMin = time.Second

// Decider produces a fresh answer for kind.
type Decider func(ctx context.Context, kind domain.PermissionKind) (bool, error)

// Static answers from a fixed table; unknown kinds are denied.
func Static(grants map[domain.PermissionKind]bool) Decider {
	return func(_ context.Context, kind domain.PermissionKind) (bool, error) {
		return grants[kind], nil
	}
}

type Cache struct {
	decide Decider
	c      *ttlcache.Cache[domain.PermissionKind, bool]
}

func New(decide Decider, ttl time.Duration) *Cache {
	cache := ttlcache.New(
		ttlcache.WithTTL[domain.PermissionKind, bool](max(ttl, grantTTLMin)),
		ttlcache.WithDisableTouchOnHit[domain.PermissionKind, bool](),
	)
	go cache.Start()

	return &Cache{decide: decide, c: cache}
}

func (p *Cache) Stop() {
	p.c.Stop()
}

func (p *Cache) Request(ctx context.Context, kinds ...domain.PermissionKind) (domain.PermissionResult, error) {
	res := make(domain.PermissionResult, len(kinds))
	for _, kind := range kinds {
		if it := p.c.Get(kind); it != nil {
			res[kind] = it.Value()
			continue
		}
		granted, err := p.decide(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("permission %s: %w", kind, err)
		}
		p.c.Set(kind, granted, ttlcache.DefaultTTL)
		log.Info().Str("module", "permissions").Str("kind", string(kind)).Bool("granted", granted).Msg("permission decided")
		res[kind] = granted
	}
	return res, nil
}

// Revoke forgets kind so the next request asks again.
func (p *Cache) Revoke(kind domain.PermissionKind) {
	p.c.Delete(kind)
}
