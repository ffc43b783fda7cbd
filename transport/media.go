package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
)

const maxMediaBytes = 8 << 20

// MediaFetcher downloads webhook media (customer photos) from the Graph API.
// Resolving a media ID is a two-step dance: look up the short-lived download
// URL, then fetch the bytes with the same bearer token.
type MediaFetcher struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewMediaFetcher(cfg Config) *MediaFetcher {
	return &MediaFetcher{
		baseURL:     cfg.GraphBaseURL,
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (f *MediaFetcher) Fetch(ctx context.Context, mediaID string) ([]byte, error) {
	url, err := f.resolveURL(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: media download status=%d", contractx.ErrUpstream, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: media download: %v", contractx.ErrUpstream, err)
	}
	return data, nil
}

func (f *MediaFetcher) resolveURL(ctx context.Context, mediaID string) (string, error) {
	resp, err := f.get(ctx, fmt.Sprintf("%s/%s", f.baseURL, mediaID))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: media lookup status=%d", contractx.ErrUpstream, resp.StatusCode)
	}

	var meta struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return "", fmt.Errorf("%w: media lookup: %v", contractx.ErrUpstream, err)
	}
	if meta.URL == "" {
		return "", fmt.Errorf("%w: media %s has no download url", contractx.ErrUpstream, mediaID)
	}
	return meta.URL, nil
}

func (f *MediaFetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build media request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.accessToken)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: media fetch: %v", contractx.ErrUpstream, err)
	}
	return resp, nil
}
