package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsTasksInOrder(t *testing.T) {
	l := NewLoop(0)
	go l.Run()
	t.Cleanup(l.Stop)

	var got []int
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Post(func() { got = append(got, i) }))
	}
	require.NoError(t, l.Do(context.Background(), func() error { return nil }))
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestLoopDoReturnsTaskError(t *testing.T) {
	l := NewLoop(4)
	go l.Run()
	t.Cleanup(l.Stop)

	boom := errors.New("boom")
	require.ErrorIs(t, l.Do(context.Background(), func() error { return boom }), boom)
}

func TestLoopSurvivesPanics(t *testing.T) {
	l := NewLoop(4)
	go l.Run()
	t.Cleanup(l.Stop)

	require.NoError(t, l.Post(func() { panic("view exploded") }))
	require.NoError(t, l.Do(context.Background(), func() error { return nil }))
}

func TestLoopAfterFunc(t *testing.T) {
	l := NewLoop(4)
	go l.Run()
	t.Cleanup(l.Stop)

	fired := make(chan struct{})
	l.AfterFunc(10*time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("delayed task never ran")
	}
}

func TestLoopStop(t *testing.T) {
	l := NewLoop(4)
	go l.Run()
	l.Stop()
	l.Stop()

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	require.ErrorIs(t, l.Post(func() {}), domain.ErrLoopStopped)
	require.ErrorIs(t, l.Do(context.Background(), func() error { return nil }), domain.ErrLoopStopped)
}
