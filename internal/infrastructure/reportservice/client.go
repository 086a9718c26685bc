package reportservice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/artefactual/fixity/internal/bootstrap/logging"
	"github.com/artefactual/fixity/internal/domain/fixity"
	"github.com/artefactual/fixity/internal/errs"
	"github.com/artefactual/fixity/internal/ports"
)

type Config struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// Client posts scan notices and reports to {url}api/fixity/{uuid}. Basic
// auth is sent when a username is configured.
type Client struct {
	endpoint   string
	username   string
	password   string
	httpClient *http.Client
}

var _ ports.ReportService = (*Client)(nil)

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		return nil, errors.New("report url is required")
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	c := &Client{
		endpoint: endpoint,
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) PostPreScan(ctx context.Context, aip string, body []byte) error {
	return c.post(ctx, aip, body, "pre-scan")
}

func (c *Client) PostReport(ctx context.Context, aip string, body []byte) error {
	return c.post(ctx, aip, body, "report")
}

func (c *Client) post(ctx context.Context, aip string, body []byte, kind string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "infrastructure.reportservice"),
		slog.String("aip_uuid", aip),
		slog.String("kind", kind),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"api/fixity/"+aip, bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(err, "build report request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fixity.NewReportServiceError(c.endpoint, aip, 0, errs.WithStack(err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusCreated {
		logging.Debug(logCtx, "report service refused post", slog.Int("status", resp.StatusCode))
		return fixity.NewReportServiceError(c.endpoint, aip, resp.StatusCode, nil)
	}

	logging.Debug(logCtx, "report service accepted post")
	return nil
}
