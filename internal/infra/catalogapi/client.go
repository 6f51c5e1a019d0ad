package catalogapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	domcatalog "example.com/framed-prints/internal/domain/catalog"
	"example.com/framed-prints/pkg/logger"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 16 << 20
)

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Transport defaults to http.DefaultTransport; it is always wrapped
	// with otelhttp.
	Transport http.RoundTripper
	Logger    *zap.Logger
}

// Client talks to the JSON catalog API (/photos, /users, /albums).
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *zap.Logger
}

var _ domcatalog.Client = (*Client)(nil)

func NewClient(opts Options) *Client {
	log := logger.OrNop(opts.Logger).Named("catalogapi")

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing photo is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domcatalog.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(base),
		},
		breaker: breaker,
		log:     log,
	}
}

func (c *Client) FetchPhotos(ctx context.Context) ([]domcatalog.Photo, error) {
	var photos []domcatalog.Photo
	if err := c.getJSON(ctx, "fetch photos", "/photos", &photos); err != nil {
		return nil, err
	}
	return photos, nil
}

func (c *Client) FetchPhoto(ctx context.Context, id int64) (domcatalog.Photo, error) {
	var photo domcatalog.Photo
	if err := c.getJSON(ctx, "fetch photo", fmt.Sprintf("/photos/%d", id), &photo); err != nil {
		if errors.Is(err, domcatalog.ErrNotFound) {
			return domcatalog.Photo{}, fmt.Errorf("photo %d: %w", id, domcatalog.ErrNotFound)
		}
		return domcatalog.Photo{}, err
	}
	return photo, nil
}

func (c *Client) FetchArtists(ctx context.Context) ([]domcatalog.Artist, error) {
	var artists []domcatalog.Artist
	if err := c.getJSON(ctx, "fetch artists", "/users", &artists); err != nil {
		return nil, err
	}
	return artists, nil
}

func (c *Client) FetchAlbums(ctx context.Context) ([]domcatalog.Album, error) {
	var albums []domcatalog.Album
	if err := c.getJSON(ctx, "fetch albums", "/albums", &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, path)
	})
	if err != nil {
		if errors.Is(err, domcatalog.ErrNotFound) {
			return err
		}
		c.log.Warn("catalog request failed", zap.String("path", path), zap.Error(err))
		return domcatalog.NewNetworkError(op, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return domcatalog.NewNetworkError(op, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domcatalog.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
