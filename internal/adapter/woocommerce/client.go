package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"woosync/internal/core/domain"
	"woosync/pkg/apperror"

	"github.com/rs/zerolog"
)

const (
	// payloadTimeout bounds calls that move product payloads.
	payloadTimeout = 60 * time.Second
	// metadataTimeout bounds cheap metadata calls (counts, single reads).
	metadataTimeout = 15 * time.Second

	userAgent = "woosync/1.0"
)

// HTTPDoer is the transport seam, satisfied by *http.Client and by fakes.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.CatalogClient against the WooCommerce REST API.
// It holds no credentials: every call receives the Connection explicitly.
// No retries happen here — retry policy is a caller decision.
type Client struct {
	httpClient HTTPDoer
	log        zerolog.Logger
}

// NewClient creates a catalog client. The underlying http.Client carries no
// global timeout; each request gets its own deadline.
func NewClient(log zerolog.Logger) *Client {
	return &Client{httpClient: &http.Client{}, log: log}
}

// NewClientWithDoer creates a client over a custom transport (tests).
func NewClientWithDoer(doer HTTPDoer, log zerolog.Logger) *Client {
	return &Client{httpClient: doer, log: log}
}

// ListProducts fetches one page of the remote catalog.
func (c *Client) ListProducts(ctx context.Context, conn *domain.Connection, page, perPage int) ([]domain.RemoteProduct, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var products []domain.RemoteProduct
	if err := c.do(ctx, conn, http.MethodGet, "products?"+q.Encode(), nil, &products, payloadTimeout, nil); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct fetches a single remote product.
func (c *Client) GetProduct(ctx context.Context, conn *domain.Connection, remoteID int64) (*domain.RemoteProduct, error) {
	var product domain.RemoteProduct
	if err := c.do(ctx, conn, http.MethodGet, fmt.Sprintf("products/%d", remoteID), nil, &product, metadataTimeout, nil); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct creates a remote product and returns the stored entry.
func (c *Client) CreateProduct(ctx context.Context, conn *domain.Connection, upd *domain.RemoteProductUpdate) (*domain.RemoteProduct, error) {
	var product domain.RemoteProduct
	if err := c.do(ctx, conn, http.MethodPost, "products", upd, &product, payloadTimeout, nil); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct applies a partial update to a remote product.
func (c *Client) UpdateProduct(ctx context.Context, conn *domain.Connection, remoteID int64, upd *domain.RemoteProductUpdate) (*domain.RemoteProduct, error) {
	var product domain.RemoteProduct
	if err := c.do(ctx, conn, http.MethodPut, fmt.Sprintf("products/%d", remoteID), upd, &product, payloadTimeout, nil); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct deletes a remote product permanently.
func (c *Client) DeleteProduct(ctx context.Context, conn *domain.Connection, remoteID int64) error {
	return c.do(ctx, conn, http.MethodDelete, fmt.Sprintf("products/%d?force=true", remoteID), nil, nil, payloadTimeout, nil)
}

// CountProducts probes connectivity and reads the catalog size from the
// X-WP-Total header of a one-item page.
func (c *Client) CountProducts(ctx context.Context, conn *domain.Connection) (int, error) {
	var ignored []domain.RemoteProduct
	var header http.Header
	if err := c.do(ctx, conn, http.MethodGet, "products?page=1&per_page=1", nil, &ignored, metadataTimeout, &header); err != nil {
		return 0, err
	}
	total, err := strconv.Atoi(header.Get("X-WP-Total"))
	if err != nil {
		return 0, apperror.ValidationWrap("missing X-WP-Total header", err)
	}
	return total, nil
}

// apiURL builds <store>/wp-json/wc/<version>/<endpoint>.
func apiURL(conn *domain.Connection, endpoint string) string {
	version := conn.APIVersion
	if version == "" {
		version = "v3"
	}
	return fmt.Sprintf("%s/wp-json/wc/%s/%s",
		strings.TrimRight(conn.StoreURL, "/"), version, strings.TrimLeft(endpoint, "/"))
}

// do executes one authenticated request and decodes the JSON response into
// out (when non-nil). respHeader, when non-nil, receives the response
// headers. Failures map onto the error taxonomy; nothing is retried.
func (c *Client) do(ctx context.Context, conn *domain.Connection, method, endpoint string, body, out any, timeout time.Duration, respHeader *http.Header) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("marshal request body: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL(conn, endpoint), reader)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("build request: %w", err))
	}
	req.SetBasicAuth(conn.ConsumerKey, conn.ConsumerSecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.Transport(err)
	}
	defer resp.Body.Close()

	if respHeader != nil {
		*respHeader = resp.Header
	}

	if err := mapStatus(resp); err != nil {
		c.log.Warn().
			Str("method", method).
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("remote API call failed")
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.ValidationWrap("malformed JSON response", err)
	}
	return nil
}

// mapStatus translates a non-2xx response into the error taxonomy:
// 401/403 are credential rejections, other 4xx are data problems, 5xx are
// transient server failures callers may retry.
func mapStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperror.Auth(fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return apperror.NotFound("remote product")
	case resp.StatusCode >= 500:
		return apperror.Transport(fmt.Errorf("status %d", resp.StatusCode))
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperror.Validation(fmt.Sprintf("remote API error (%d): %s", resp.StatusCode, string(snippet)))
	}
}
