package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/totegamma/carelog"
)

const (
	defaultTimeout = 3 * time.Second
	userAgent      = "carelog-fieldsync/1.0"
)

var defaultEndpoints = map[string]string{
	carelog.EndpointExecute:  "/execute",
	carelog.EndpointQuery:    "/query",
	carelog.EndpointHealth:   "/health",
	carelog.EndpointRealtime: "/realtime",
}

// StatusError is a non-200 answer from the docustore.
type StatusError struct {
	Code    int
	Message string
}

func (e StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Message)
}

type Client struct {
	client   *http.Client
	cache    *cache.Cache
	endpoint string
}

// New creates a client for the docustore at endpoint (scheme and host, e.g. https://store.example).
func New(endpoint string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	slog.Info(
		"initialize docustore client",
		slog.String("module", "client"),
		slog.String("endpoint", endpoint),
	)
	c := &Client{
		client:   &httpClient,
		cache:    cache.New(10*time.Minute, 15*time.Minute),
		endpoint: strings.TrimSuffix(endpoint, "/"),
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// WellKnown fetches the store's self description. Answers are cached.
func (c *Client) WellKnown(ctx context.Context) (carelog.WellKnown, error) {
	cacheKey := "wellknown:" + c.endpoint
	if x, found := c.cache.Get(cacheKey); found {
		return x.(carelog.WellKnown), nil
	}

	var wk carelog.WellKnown
	err := c.do(ctx, http.MethodGet, c.endpoint+"/.well-known/carelog", "", nil, &wk)
	if err != nil {
		return carelog.WellKnown{}, fmt.Errorf("failed to get well-known: %w", err)
	}

	c.cache.Set(cacheKey, wk, cache.DefaultExpiration)
	return wk, nil
}

// URL resolves a named endpoint. When the well-known document is unavailable the
// default path is used.
func (c *Client) URL(ctx context.Context, name string) string {
	path := defaultEndpoints[name]
	wk, err := c.WellKnown(ctx)
	if err != nil {
		slog.DebugContext(
			ctx, "falling back to default endpoint",
			slog.String("module", "client"),
			slog.String("endpoint", name),
			slog.String("error", err.Error()),
		)
	} else if p, ok := wk.Endpoints[name]; ok {
		path = p
	}
	return c.endpoint + path
}

// Execute submits a Set. token is a bearer jwt issued by the sender.
func (c *Client) Execute(ctx context.Context, token string, req carelog.ExecuteRequest) (carelog.Receipt, error) {
	var receipt carelog.Receipt
	err := c.do(ctx, http.MethodPost, c.URL(ctx, carelog.EndpointExecute), token, req, &receipt)
	if err != nil {
		return carelog.Receipt{}, err
	}
	return receipt, nil
}

func (c *Client) Query(ctx context.Context, req carelog.QueryRequest) (carelog.QueryResponse, error) {
	var resp carelog.QueryResponse
	err := c.do(ctx, http.MethodPost, c.URL(ctx, carelog.EndpointQuery), "", req, &resp)
	if err != nil {
		return carelog.QueryResponse{}, err
	}
	return resp, nil
}

// Health reports whether the store answered its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.endpoint+defaultEndpoints[carelog.EndpointHealth], "", nil, nil)
}

// RealtimeURL is the websocket url of the event stream.
func (c *Client) RealtimeURL(ctx context.Context) string {
	u := c.URL(ctx, carelog.EndpointRealtime)
	if strings.HasPrefix(u, "https://") {
		return "wss://" + strings.TrimPrefix(u, "https://")
	}
	return "ws://" + strings.TrimPrefix(u, "http://")
}

func (c *Client) do(ctx context.Context, method, url, token string, body, response any) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	var req *http.Request
	var err error
	if reader != nil {
		req, err = http.NewRequestWithContext(ctx, method, url, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var er carelog.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		return StatusError{Code: resp.StatusCode, Message: er.Error}
	}

	if response == nil {
		return nil
	}

	err = json.NewDecoder(resp.Body).Decode(response)
	if err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}

	return nil
}
