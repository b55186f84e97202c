package liege

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Version is reported in the default User-Agent header.
const Version = "0.3.0"

const (
	// DefaultBaseURL is the records API root of the Open Data Platform of Liège
	DefaultBaseURL = "https://opendata.liege.be/api/records/1.0/"
	// DefaultRequestTimeout bounds a single request
	DefaultRequestTimeout = 10 * time.Second
	// DefaultLimit is used when a query is made with a non-positive limit
	DefaultLimit = 10

	defaultUserAgent = "GoODPLiege/" + Version
)

// Dataset identifiers understood by the search endpoint.
const (
	DatasetGarages          = "parkings-voitures-hors-voirie"
	DatasetDisabledParkings = "stationnement-pmr"
)

// Client talks to the Open Data Platform of Liège.
type Client struct {
	rawBaseURL     string
	baseURL        *url.URL
	requestTimeout time.Duration
	userAgent      string
	logger         zerolog.Logger

	mu          sync.Mutex
	httpClient  *http.Client
	ownsSession bool
	closed      bool
	newSession  func() *http.Client
}

// NewClient creates a new client. Without WithHTTPClient the client creates its
// own session on first use and releases it on Close.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		rawBaseURL:     DefaultBaseURL,
		requestTimeout: DefaultRequestTimeout,
		userAgent:      defaultUserAgent,
		logger:         zerolog.Nop(),
		newSession:     newOwnedSession,
	}

	for _, opt := range opts {
		opt(c)
	}

	base, err := parseBaseURL(c.rawBaseURL)
	if err != nil {
		return nil, err
	}
	c.baseURL = base

	return c, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", raw)
	}
	// Relative references only append to a path ending in a slash
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func newOwnedSession() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &http.Client{Transport: transport}
}

// session returns the HTTP client, creating the owned one on first use.
func (c *Client) session() (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}
	if c.httpClient == nil {
		c.httpClient = c.newSession()
		c.ownsSession = true
	}
	return c.httpClient, nil
}

// Close releases the session if the client created it. It is safe to call
// more than once, and a no-op for a session supplied through WithHTTPClient.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	if c.httpClient != nil && !c.ownsSession {
		return nil
	}

	c.closed = true
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
		c.httpClient = nil
	}
	return nil
}

// Run creates a client, hands it to fn and closes it on every exit path.
func Run(ctx context.Context, fn func(context.Context, *Client) error, opts ...Option) (err error) {
	client, err := NewClient(opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, client.Close())
	}()

	return fn(ctx, client)
}

// Garages retrieves parking garages, in server order.
func (c *Client) Garages(ctx context.Context, limit int) ([]Garage, error) {
	records, err := c.search(ctx, DatasetGarages, limit)
	if err != nil {
		return nil, err
	}

	garages := make([]Garage, 0, len(records))
	for i, rec := range records {
		garage, err := NewGarage(rec)
		if err != nil {
			return nil, fmt.Errorf("garage record %d: %w", i, err)
		}
		garages = append(garages, garage)
	}

	c.logger.Debug().Int("count", len(garages)).Msg("Retrieved garages")
	return garages, nil
}

// DisabledParkings retrieves disabled parking spots, in server order.
func (c *Client) DisabledParkings(ctx context.Context, limit int) ([]DisabledParking, error) {
	records, err := c.search(ctx, DatasetDisabledParkings, limit)
	if err != nil {
		return nil, err
	}

	spots := make([]DisabledParking, 0, len(records))
	for i, rec := range records {
		spot, err := NewDisabledParking(rec)
		if err != nil {
			return nil, fmt.Errorf("disabled parking record %d: %w", i, err)
		}
		spots = append(spots, spot)
	}

	c.logger.Debug().Int("count", len(spots)).Msg("Retrieved disabled parkings")
	return spots, nil
}

func (c *Client) search(ctx context.Context, dataset string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	params := url.Values{}
	params.Set("dataset", dataset)
	params.Set("rows", strconv.Itoa(limit))

	var response SearchResponse
	if err := c.request(ctx, http.MethodGet, "search/", params, &response); err != nil {
		return nil, err
	}
	if response.Records == nil {
		return nil, fieldError("records", "search response is missing records", nil)
	}
	return response.Records, nil
}

// request performs one HTTP exchange against the API and decodes the JSON body into out.
func (c *Client) request(ctx context.Context, method, uri string, params url.Values, out any) error {
	ref, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("invalid request URI %q: %w", uri, err)
	}
	target := c.baseURL.ResolveReference(ref)
	if len(params) > 0 {
		target.RawQuery = params.Encode()
	}

	httpClient, err := c.session()
	if err != nil {
		return &ConnectionError{Message: msgCommunication, Err: err}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, target.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		return transportError(ctx, reqCtx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(ctx, reqCtx, err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", target.String()).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Open Data Platform API request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ConnectionError{
			Message:    msgCommunication,
			StatusCode: resp.StatusCode,
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return &DataError{
			Message:     msgContentType,
			ContentType: contentType,
			Response:    string(body),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &DataError{
			Message:     "failed to decode response",
			ContentType: contentType,
			Response:    string(body),
			Err:         err,
		}
	}
	return nil
}

// transportError classifies a failed exchange. A fired request deadline is a
// timeout; a cancelled caller context is reported with its own cause.
func transportError(parent, reqCtx context.Context, err error) error {
	if parent.Err() != nil {
		return &ConnectionError{Message: msgCommunication, Err: parent.Err()}
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return &ConnectionError{Message: msgTimeout, Timeout: true, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ConnectionError{Message: msgTimeout, Timeout: true, Err: err}
	}
	return &ConnectionError{Message: msgCommunication, Err: err}
}
