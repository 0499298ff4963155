package permissions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestRequestCachesAnswers(t *testing.T) {
	calls := 0
	decide := func(_ context.Context, kind domain.PermissionKind) (bool, error) {
		calls++
		return kind == domain.PermissionCamera, nil
	}
	p := New(decide, time.Minute)
	defer p.Stop()
	ctx := context.Background()

	res, err := p.Request(ctx, domain.PermissionCamera, domain.PermissionMicrophone)
	require.NoError(t, err)
	require.Equal(t, domain.PermissionResult{domain.PermissionCamera: true, domain.PermissionMicrophone: false}, res)
	require.False(t, res.AllGranted())
	require.Equal(t, 2, calls)

	_, err = p.Request(ctx, domain.PermissionCamera, domain.PermissionMicrophone)
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	p.Revoke(domain.PermissionCamera)
	_, err = p.Request(ctx, domain.PermissionCamera)
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRequestExpires(t *testing.T) {
	calls := 0
	p := New(func(context.Context, domain.PermissionKind) (bool, error) {
		calls++
		return true, nil
	}, time.Second)
	defer p.Stop()

	_, err := p.Request(context.Background(), domain.PermissionCamera)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	_, err = p.Request(context.Background(), domain.PermissionCamera)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestDeciderError(t *testing.T) {
	boom := errors.New("prompt dismissed")
	p := New(func(context.Context, domain.PermissionKind) (bool, error) { return false, boom }, time.Minute)
	defer p.Stop()

	_, err := p.Request(context.Background(), domain.PermissionMicrophone)
	require.ErrorIs(t, err, boom)
}

func TestStatic(t *testing.T) {
	p := New(Static(map[domain.PermissionKind]bool{domain.PermissionCamera: true, domain.PermissionMicrophone: true}), time.Minute)
	defer p.Stop()

	res, err := p.Request(context.Background(), domain.PermissionCamera, domain.PermissionMicrophone)
	require.NoError(t, err)
	require.True(t, res.AllGranted())
}
