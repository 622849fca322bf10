// Package clients holds the HTTP clients for the downstream collaborators:
// the code-generation service, the project-provisioning service, and the
// report mailer. All three are consumed as black boxes; retry and backoff
// policy belongs to the host, not here.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrRequestFailed marks any non-2xx or transport-level failure from a
// downstream service. Callers distinguish it from validation errors so a
// failed call never clears or corrupts the session draft.
var ErrRequestFailed = errors.New("downstream request failed")

const defaultTimeout = 30 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// postJSON encodes in, POSTs it, and decodes the response into out.
func postJSON(ctx context.Context, client *http.Client, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s returned status %d", ErrRequestFailed, url, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: undecodable response from %s: %w", ErrRequestFailed, url, err)
	}

	return nil
}
