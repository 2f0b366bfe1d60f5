package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GetJSON fetches rawURL through the fetcher's limiter and decodes the JSON
// response into v. It is used by adapters that read public APIs directly.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, v any) error {
	if f.opts.Limiter != nil {
		if err := f.opts.Limiter.Wait(ctx, rawURL); err != nil {
			return err
		}
	}

	body, status, err := f.get(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("HTTP error: %d for %s", status, rawURL)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", rawURL, err)
	}
	return nil
}
