package meili

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kailas-cloud/meili/internal/metrics"
	"github.com/kailas-cloud/meili/internal/transport/rest"
	"github.com/kailas-cloud/meili/internal/version"
)

// Client is the entry point of the API. It is safe for concurrent use.
type Client struct {
	config Config
	caller *caller
}

// New creates a Client bound to cfg.Host. No network call is made.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cc := &clientConfig{userAgent: version.UserAgent()}
	for _, o := range opts {
		o.apply(cc)
	}

	obs, err := newObserver(cc.logger, cc.metricsReg, cc.tracerProvider)
	if err != nil {
		return nil, fmt.Errorf("meili: %w", err)
	}

	hc, err := httpClient(cfg, cc)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if cfg.APIKey != "" {
		header.Set(APIKeyHeader, cfg.APIKey)
	}

	tr, err := rest.New(rest.Config{
		BaseURL:      cfg.Host,
		Header:       header,
		HTTPClient:   hc,
		RequestHook:  rest.EncodeJSON,
		ResponseHook: rest.DecodeJSON,
		UserAgent:    cc.userAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("meili: %w", err)
	}

	return &Client{
		config: cfg,
		caller: &caller{transport: tr, obs: obs, timeout: cc.timeout},
	}, nil
}

func httpClient(cfg Config, cc *clientConfig) (*http.Client, error) {
	hc := &http.Client{}
	if cc.httpClient != nil {
		clone := *cc.httpClient
		hc = &clone
	}
	if cc.metricsReg == nil {
		return hc, nil
	}

	m, err := metrics.NewHTTP(cc.metricsReg)
	if err != nil {
		return nil, fmt.Errorf("meili: %w", err)
	}
	u, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("meili: parse host: %w", err)
	}
	hc.Transport = m.RoundTripper(hc.Transport, u.Path)
	return hc, nil
}

// Config returns the connection configuration the client was built with.
func (c *Client) Config() Config { return c.config }

// Index returns a handle on index uid. The index need not exist.
func (c *Client) Index(uid string) *Index {
	return newIndex(uid, c.caller)
}

// GetIndex is an alias of Index.
func (c *Client) GetIndex(uid string) *Index { return c.Index(uid) }

// ListIndexes returns every index.
func (c *Client) ListIndexes(ctx context.Context) ([]IndexInfo, error) {
	var out []IndexInfo
	err := c.caller.do(ctx, "list_indexes", rest.Request{
		Method: http.MethodGet,
		Path:   "/indexes",
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("list indexes: %w", err)
	}
	return out, nil
}

// CreateIndex creates an index and returns its description.
func (c *Client) CreateIndex(ctx context.Context, req CreateIndexRequest) (IndexInfo, error) {
	var out IndexInfo
	err := c.caller.do(ctx, "create_index", rest.Request{
		Method: http.MethodPost,
		Path:   "/indexes",
		Body:   req,
	}, &out)
	if err != nil {
		return IndexInfo{}, fmt.Errorf("create index %q: %w", req.UID, err)
	}
	return out, nil
}
