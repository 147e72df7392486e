package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"woosync/internal/core/domain"
	"woosync/pkg/apperror"

	"github.com/rs/zerolog"
)

// MediaClient uploads raw image bytes to the WordPress media library. It
// authenticates with the connection's secondary media credentials, which are
// distinct from the catalog API keys.
type MediaClient struct {
	httpClient HTTPDoer
	log        zerolog.Logger
}

func NewMediaClient(log zerolog.Logger) *MediaClient {
	return &MediaClient{httpClient: &http.Client{}, log: log}
}

func NewMediaClientWithDoer(doer HTTPDoer, log zerolog.Logger) *MediaClient {
	return &MediaClient{httpClient: doer, log: log}
}

// mediaResponse is the subset of the media-library response we use.
type mediaResponse struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
}

// UploadMedia posts the image to <store>/wp-json/wp/v2/media and returns the
// hosted media ID and public URL. Application passwords are accepted with or
// without the display spaces the admin UI inserts.
func (c *MediaClient) UploadMedia(ctx context.Context, conn *domain.Connection, filename string, data []byte) (int64, string, error) {
	if !conn.HasMediaCredentials() {
		return 0, "", apperror.Validation("connection has no media credentials")
	}

	ctx, cancel := context.WithTimeout(ctx, payloadTimeout)
	defer cancel()

	endpoint := strings.TrimRight(conn.StoreURL, "/") + "/wp-json/wp/v2/media"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return 0, "", apperror.InternalError(fmt.Errorf("build media request: %w", err))
	}
	req.SetBasicAuth(conn.WPUsername, strings.ReplaceAll(conn.WPAppPassword, " ", ""))
	req.Header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	req.Header.Set("Content-Type", contentTypeFor(filename))
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", apperror.Transport(err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		c.log.Warn().
			Str("filename", filename).
			Int("status", resp.StatusCode).
			Msg("media upload failed")
		return 0, "", err
	}

	var media mediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return 0, "", apperror.ValidationWrap("malformed media response", err)
	}
	if media.ID == 0 || media.SourceURL == "" {
		return 0, "", apperror.Validation("media response missing id or source_url")
	}
	return media.ID, media.SourceURL, nil
}

func contentTypeFor(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".png"):
		return "image/png"
	case strings.HasSuffix(filename, ".gif"):
		return "image/gif"
	case strings.HasSuffix(filename, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// Fetcher downloads remote images. It caps the read at maxBytes so an
// oversize image is rejected mid-download rather than after buffering it all.
type Fetcher struct {
	httpClient HTTPDoer
	maxBytes   int64
	timeout    time.Duration
}

func NewFetcher(maxBytes int64) *Fetcher {
	return &Fetcher{httpClient: &http.Client{}, maxBytes: maxBytes, timeout: payloadTimeout}
}

func NewFetcherWithDoer(doer HTTPDoer, maxBytes int64) *Fetcher {
	return &Fetcher{httpClient: doer, maxBytes: maxBytes, timeout: payloadTimeout}
}

// FetchImage downloads one image. No retries inside; the image pipeline owns
// the retry budget.
func (f *Fetcher) FetchImage(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("build image request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, apperror.Transport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperror.Transport(fmt.Errorf("image fetch status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, apperror.Transport(err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, apperror.PayloadTooLarge(int64(len(data)), f.maxBytes)
	}
	return data, nil
}
