package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/relevex/internal/domain"
	"github.com/kailas-cloud/relevex/internal/domain/search/query"
	"github.com/kailas-cloud/relevex/internal/index"
	"github.com/kailas-cloud/relevex/internal/version"
)

// opaqueIDHeader tags index requests so slow logs and tasks trace back here.
const opaqueIDHeader = "X-Opaque-Id"

// Compile-time check: Client implements index.Client.
var _ index.Client = (*Client)(nil)

// Config holds connection parameters for an Elasticsearch cluster.
type Config struct {
	Addresses      []string
	Username       string
	Password       string
	RequestTimeout time.Duration
	Transport      http.RoundTripper
}

// Client implements index.Client via go-elasticsearch.
type Client struct {
	es      *elasticsearch.Client
	timeout time.Duration
}

// NewClient creates an Elasticsearch client. Retries are disabled; the
// search pipeline surfaces index failures to its caller.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("addresses is required")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		Transport:    cfg.Transport,
		DisableRetry: true,
		Header:       http.Header{opaqueIDHeader: []string{version.UserAgent()}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Client{es: es, timeout: cfg.RequestTimeout}, nil
}

// Ping checks cluster connectivity.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping: %w: %w", domain.ErrIndexUnavailable, err)
	}
	defer closeBody(res)
	if res.IsError() {
		return fmt.Errorf("ping: %w", &index.Error{Status: res.StatusCode, Type: "ping", Reason: res.Status()})
	}
	return nil
}

// Search runs body against the named index.
func (c *Client) Search(ctx context.Context, indexName string, body query.Body) (*index.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(indexName),
		c.es.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w: %w", indexName, domain.ErrIndexUnavailable, err)
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, fmt.Errorf("search %s: %w", indexName, decodeError(res))
	}

	resp, err := decodeSearch(res.Body)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w: %w", indexName, domain.ErrQueryFailed, err)
	}
	return resp, nil
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}
