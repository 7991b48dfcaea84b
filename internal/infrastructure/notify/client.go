// Package notify implements the outbound notification channels of the waitlist.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// maxResponseBody limits how much of a provider reply is kept.
const maxResponseBody = 1 << 16

// postJSON sends payload to endpoint and returns the response body when the
// provider answers 2xx. label prefixes status errors ("Telegram API error: 500").
func postJSON(ctx context.Context, client *http.Client, logger zerolog.Logger, endpoint, label string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode payload: %w", label, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", label, err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Debug().Str("method", req.Method).Str("host", req.URL.Host).Msg("request")
	start := time.Now()
	res, err := client.Do(req)
	duration := time.Since(start)
	if err != nil {
		logger.Error().Err(err).Str("duration", duration.String()).Msg("request error")
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	defer res.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	logger.Debug().Int("code", res.StatusCode).Int("content-length", len(raw)).
		Str("duration", duration.String()).Msg("response")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %d", label, res.StatusCode)
	}
	if readErr != nil {
		return nil, fmt.Errorf("%s: read response: %w", label, readErr)
	}
	if len(bytes.TrimSpace(raw)) == 0 || !json.Valid(raw) {
		return nil, fmt.Errorf("%s: response is not JSON", label)
	}
	return json.RawMessage(raw), nil
}

func defaultClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{}
}
