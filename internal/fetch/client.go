package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/nao1215/passkeydir/internal/config"
)

const (
	// maxAssetRedirects is the number of redirects followed for assets.
	maxAssetRedirects = 5

	// acceptPage is the Accept header of page requests.
	acceptPage = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"

	// acceptAsset is the Accept header of icon and manifest requests.
	acceptAsset = "image/avif,image/webp,image/png,image/svg+xml,image/*,application/manifest+json,*/*;q=0.8"
)

// Result is the outcome of a successful request. It lives only until the
// caller has parsed it.
type Result struct {
	// StatusCode is the final response status.
	StatusCode int

	// EffectiveURL is the URL of the final request after redirects.
	EffectiveURL string

	// Body is the response body, truncated to the client's size limit.
	Body []byte

	// ContentType is the declared Content-Type header.
	ContentType string

	// Header holds all response headers.
	Header http.Header
}

// Client performs the crawler's HTTP requests.
// A Client is safe for concurrent use.
type Client struct {
	// page never follows redirects automatically.
	page *http.Client

	// asset follows up to maxAssetRedirects redirects.
	asset *http.Client

	// limiter spaces out requests; nil means unlimited.
	limiter *rate.Limiter

	userAgent   string
	maxBodySize int64

	// cookie and headers are per-site extras added to every request.
	cookie  string
	headers map[string]string

	logger *slog.Logger
}

// options collects Option values before the Client is assembled.
type options struct {
	pageTimeout       time.Duration
	assetTimeout      time.Duration
	userAgent         string
	maxBodySize       int64
	requestsPerSecond float64
	proxyAddress      string
	transport         http.RoundTripper
	logger            *slog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithPageTimeout sets the timeout of page and well-known requests.
func WithPageTimeout(d time.Duration) Option {
	return func(o *options) {
		o.pageTimeout = d
	}
}

// WithAssetTimeout sets the timeout of icon and manifest requests.
func WithAssetTimeout(d time.Duration) Option {
	return func(o *options) {
		o.assetTimeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum number of body bytes read per response.
func WithMaxBodySize(n int64) Option {
	return func(o *options) {
		o.maxBodySize = n
	}
}

// WithRateLimit limits the client to rps requests per second.
// Zero or a negative value disables the limit.
func WithRateLimit(rps float64) Option {
	return func(o *options) {
		o.requestsPerSecond = rps
	}
}

// WithProxy routes all connections through a SOCKS5 proxy at "host:port".
// It is ignored when WithTransport is also given.
func WithProxy(address string) Option {
	return func(o *options) {
		o.proxyAddress = address
	}
}

// WithTransport replaces the network transport, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithLogger sets the logger used for redirect diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a Client. It fails only when the proxy address is unusable.
func New(opts ...Option) (*Client, error) {
	o := &options{
		pageTimeout:  config.DefaultPageTimeout,
		assetTimeout: config.DefaultAssetTimeout,
		userAgent:    config.DefaultUserAgent,
		maxBodySize:  config.DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	transport := o.transport
	if transport == nil {
		var err error
		transport, err = newTransport(o.proxyAddress, o.pageTimeout)
		if err != nil {
			return nil, err
		}
	}

	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint:errcheck // cookiejar.New never fails

	c := &Client{
		page: &http.Client{
			Transport: transport,
			Timeout:   o.pageTimeout,
			Jar:       jar,
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		asset: &http.Client{
			Transport: transport,
			Timeout:   o.assetTimeout,
			Jar:       jar,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) > maxAssetRedirects {
					return ErrTooManyRedirects
				}
				return nil
			},
		},
		userAgent:   o.userAgent,
		maxBodySize: o.maxBodySize,
		logger:      o.logger,
	}
	if o.requestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(o.requestsPerSecond), 1)
	}

	return c, nil
}

// newTransport builds the default transport, optionally dialing through a
// SOCKS5 proxy.
func newTransport(proxyAddress string, dialTimeout time.Duration) (http.RoundTripper, error) {
	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   dialTimeout,
		ExpectContinueTimeout: time.Second,
	}

	if proxyAddress != "" {
		socks, err := proxy.SOCKS5("tcp", proxyAddress, nil, dialer)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		contextDialer, ok := socks.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("SOCKS5 dialer for %s does not support contexts", proxyAddress)
		}
		transport.Proxy = nil
		transport.DialContext = contextDialer.DialContext
	}

	return transport, nil
}

// WithSite returns a Client that adds the given cookie and headers to every
// request. The returned Client shares connections, cookies, and the rate
// limiter with c.
func (c *Client) WithSite(cookie string, headers map[string]string) *Client {
	if cookie == "" && len(headers) == 0 {
		return c
	}
	clone := *c
	clone.cookie = cookie
	clone.headers = headers
	return &clone
}

// FetchPage GETs a page without following redirects automatically. A 301 or
// 302 response is resolved against rawURL and re-issued exactly once; the
// re-issued request must answer 2xx. Any other non-2xx status fails.
func (c *Client) FetchPage(ctx context.Context, rawURL string) (*Result, error) {
	resp, err := c.do(ctx, c.page, http.MethodGet, rawURL, acceptPage)
	if err != nil {
		return nil, err
	}

	if isFollowedRedirect(resp.StatusCode) {
		location := resp.Header.Get("Location")
		status := resp.StatusCode
		discard(resp)

		if location == "" {
			return nil, &TransportError{Method: http.MethodGet, URL: rawURL, StatusCode: status, Err: ErrMissingLocation}
		}
		target, err := resolveLocation(rawURL, location)
		if err != nil {
			return nil, &TransportError{Method: http.MethodGet, URL: rawURL, StatusCode: status, Err: err}
		}

		c.logger.Debug("following redirect", "from", rawURL, "to", target, "status", status)

		resp, err = c.do(ctx, c.page, http.MethodGet, target, acceptPage)
		if err != nil {
			return nil, err
		}
		if isRedirect(resp.StatusCode) {
			status := resp.StatusCode
			discard(resp)
			return nil, &TransportError{Method: http.MethodGet, URL: target, StatusCode: status, Err: ErrTooManyRedirects}
		}
	}

	if !isSuccess(resp.StatusCode) {
		return nil, c.statusError(resp)
	}
	return c.read(resp, false)
}

// FetchAsset GETs an icon or manifest, following up to five redirects.
// Both 2xx and 403 responses are accepted.
func (c *Client) FetchAsset(ctx context.Context, rawURL string) (*Result, error) {
	resp, err := c.do(ctx, c.asset, http.MethodGet, rawURL, acceptAsset)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) && resp.StatusCode != http.StatusForbidden {
		return nil, c.statusError(resp)
	}
	return c.read(resp, true)
}

// Probe sends a HEAD request and succeeds only on a 200 response.
func (c *Client) Probe(ctx context.Context, rawURL string) error {
	resp, err := c.do(ctx, c.asset, http.MethodHead, rawURL, acceptAsset)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}
	discard(resp)
	return nil
}

// do waits on the limiter, sends one request, and wraps any failure.
func (c *Client) do(ctx context.Context, hc *http.Client, method, rawURL, accept string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: method, URL: rawURL, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, &TransportError{Method: method, URL: rawURL, Err: err}
	}
	c.setHeaders(req, accept)

	resp, err := hc.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) && uerr.Err != nil {
			err = uerr.Err
		}
		return nil, &TransportError{Method: method, URL: rawURL, Err: err}
	}
	return resp, nil
}

// setHeaders applies the browser header set and any per-site extras.
// Accept-Encoding is left to the transport so bodies are decompressed
// transparently.
func (c *Client) setHeaders(req *http.Request, accept string) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=1")
	req.Header.Set("Cache-Control", "no-cache")

	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}

// read consumes a response body up to the size limit. Pages are truncated
// at the limit; with strict set a longer body fails with ErrBodyTooLarge,
// since assets are stored byte for byte.
func (c *Client) read(resp *http.Response, strict bool) (*Result, error) {
	defer resp.Body.Close()

	effective := resp.Request.URL.String()
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, &TransportError{Method: resp.Request.Method, URL: effective, StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > c.maxBodySize {
		if strict {
			return nil, &TransportError{Method: resp.Request.Method, URL: effective, StatusCode: resp.StatusCode, Err: ErrBodyTooLarge}
		}
		body = body[:c.maxBodySize]
	}

	return &Result{
		StatusCode:   resp.StatusCode,
		EffectiveURL: effective,
		Body:         body,
		ContentType:  resp.Header.Get("Content-Type"),
		Header:       resp.Header,
	}, nil
}

// statusError closes resp and reports its status as a TransportError.
func (c *Client) statusError(resp *http.Response) error {
	discard(resp)
	return &TransportError{
		Method:     resp.Request.Method,
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Err:        ErrUnexpectedStatus,
	}
}

// resolveLocation turns a Location header into an absolute URL relative to
// the request URL.
func resolveLocation(requestURL, location string) (string, error) {
	base, err := url.Parse(requestURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid Location %q: %w", location, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// discard drains a little of the body so the connection can be reused, then closes it.
func discard(resp *http.Response) {
	_, _ = io.CopyN(io.Discard, resp.Body, 4096) //nolint:errcheck // Best effort drain
	_ = resp.Body.Close()
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func isRedirect(status int) bool {
	return status >= 300 && status < 400
}

// isFollowedRedirect reports whether the page path re-issues the request.
func isFollowedRedirect(status int) bool {
	return status == http.StatusMovedPermanently || status == http.StatusFound
}
