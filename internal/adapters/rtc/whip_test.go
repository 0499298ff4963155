package rtc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestWHIPOffer(t *testing.T) {
	var deleted bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodPost:
			require.Equal(t, "application/sdp", r.Header.Get("Content-Type"))
			body, _ := io.ReadAll(r.Body)
			require.Equal(t, "v=0 offer", string(body))
			w.Header().Set("Location", "/whip/resource/42")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte("v=0 answer"))
		case http.MethodDelete:
			require.Equal(t, "/whip/resource/42", r.URL.Path)
			deleted = true
		}
	}))
	defer srv.Close()

	c := newWHIPClient(srv.URL+"/whip/endpoint", srv.Client())
	ctx := context.Background()

	answer, resource, err := c.Offer(ctx, "v=0 offer", "good")
	require.NoError(t, err)
	require.Equal(t, "v=0 answer", answer)
	require.Equal(t, srv.URL+"/whip/resource/42", resource)

	require.NoError(t, c.Delete(ctx, resource, "good"))
	require.True(t, deleted)

	_, _, err = c.Offer(ctx, "v=0 offer", "bad")
	require.ErrorIs(t, err, domain.ErrInvalidToken)
	require.Error(t, c.Delete(ctx, resource, "bad"))
	require.NoError(t, c.Delete(ctx, "", "good"))
}

func TestWHIPServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "stage full", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, _, err := newWHIPClient(srv.URL, nil).Offer(context.Background(), "v=0", "t")
	require.ErrorContains(t, err, "503")
	require.NotErrorIs(t, err, domain.ErrInvalidToken)
}
