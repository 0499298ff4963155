package rtc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/rs/zerolog/log"
)

// whipClient speaks the WHIP ingest protocol: POST an SDP offer, get an SDP
// answer and a resource URL to DELETE on leave.
type whipClient struct {
	endpoint string
	http     *http.Client
}

func newWHIPClient(endpoint string, hc *http.Client) *whipClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &whipClient{endpoint: endpoint, http: hc}
}

func (w *whipClient) Offer(ctx context.Context, sdp, token string) (answer, resource string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader([]byte(sdp)))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/sdp")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := w.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("whip offer: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", "", fmt.Errorf("whip offer: HTTP %d: %w", resp.StatusCode, domain.ErrInvalidToken)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", "", fmt.Errorf("whip offer: HTTP %d: %s", resp.StatusCode, string(body))
	}

	if location := resp.Header.Get("Location"); location != "" {
		resource = w.resolve(location)
		log.Debug().Str("module", "rtc.whip").Str("resource", resource).Msg("whip resource")
	}
	return string(body), resource, nil
}

func (w *whipClient) resolve(location string) string {
	base, err := url.Parse(w.endpoint)
	if err != nil {
		return location
	}
	ref, err := url.Parse(location)
	if err != nil {
		return location
	}
	return base.ResolveReference(ref).String()
}

func (w *whipClient) Delete(ctx context.Context, resource, token string) error {
	if resource == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, resource, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("whip delete: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("whip delete: HTTP %d", resp.StatusCode)
	}
	return nil
}
