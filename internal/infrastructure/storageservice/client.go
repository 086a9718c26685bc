package storageservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/artefactual/fixity/internal/bootstrap/logging"
	"github.com/artefactual/fixity/internal/domain/fixity"
	"github.com/artefactual/fixity/internal/errs"
	"github.com/artefactual/fixity/internal/ports"
)

const filePath = "api/v2/file/"

type Config struct {
	BaseURL string
	User    string
	Key     string
	Timeout time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLimiter makes every request wait on limiter first.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// Client talks to the storage service REST API. Credentials travel as the
// username and api_key query parameters on every request.
type Client struct {
	rawBase    string
	base       *url.URL
	user       string
	key        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ ports.StorageService = (*Client)(nil)

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	rawBase := strings.TrimSpace(cfg.BaseURL)
	if rawBase == "" {
		return nil, errors.New("storage service url is required")
	}
	if !strings.HasSuffix(rawBase, "/") {
		rawBase += "/"
	}
	base, err := url.Parse(rawBase)
	if err != nil {
		return nil, errs.Wrap(err, "parse storage service url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errs.Wrapf(errors.New("missing scheme or host"), "parse storage service url %q", rawBase)
	}

	c := &Client{
		rawBase: rawBase,
		base:    base,
		user:    cfg.User,
		key:     cfg.Key,
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

func (c *Client) BaseURL() string {
	return c.rawBase
}

type listResponse struct {
	Meta struct {
		Next       *string `json:"next"`
		Previous   *string `json:"previous"`
		TotalCount int     `json:"total_count"`
		Limit      int     `json:"limit"`
		Offset     int     `json:"offset"`
	} `json:"meta"`
	Objects []struct {
		UUID        string `json:"uuid"`
		PackageType string `json:"package_type"`
		Status      string `json:"status"`
	} `json:"objects"`
}

func (c *Client) ListPackages(ctx context.Context, req ports.PageRequest) (ports.CatalogPage, error) {
	op := fixity.OpList()

	target, err := c.listURL(req)
	if err != nil {
		return ports.CatalogPage{}, err
	}

	body, err := c.get(ctx, target, op)
	if err != nil {
		return ports.CatalogPage{}, err
	}

	var decoded listResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ports.CatalogPage{}, fixity.NewStorageDecodeError(c.rawBase, op, err)
	}

	page := ports.CatalogPage{
		Meta: ports.PageMeta{
			TotalCount: decoded.Meta.TotalCount,
			Limit:      decoded.Meta.Limit,
			Offset:     decoded.Meta.Offset,
		},
		Objects: make([]ports.CatalogEntry, 0, len(decoded.Objects)),
	}
	if decoded.Meta.Next != nil {
		page.Meta.Next = *decoded.Meta.Next
	}
	if decoded.Meta.Previous != nil {
		page.Meta.Previous = *decoded.Meta.Previous
	}
	for _, obj := range decoded.Objects {
		page.Objects = append(page.Objects, ports.CatalogEntry{
			UUID:        obj.UUID,
			PackageType: obj.PackageType,
			Status:      obj.Status,
		})
	}
	return page, nil
}

func (c *Client) GetPackage(ctx context.Context, aip string) error {
	target := c.resolve(filePath + aip + "/")
	_, err := c.get(ctx, target, fixity.OpLookup(aip))
	return err
}

func (c *Client) CheckFixity(ctx context.Context, aip string, forceLocal bool) ([]byte, error) {
	target := c.resolve(filePath + aip + "/check_fixity/")
	if forceLocal {
		query := target.Query()
		query.Set("force_local", "true")
		target.RawQuery = query.Encode()
	}
	return c.get(ctx, target, fixity.OpVerify(aip))
}

func (c *Client) listURL(req ports.PageRequest) (*url.URL, error) {
	if req.Cursor != "" {
		ref, err := url.Parse(req.Cursor)
		if err != nil {
			return nil, fixity.NewStorageDecodeError(c.rawBase, fixity.OpList(), errs.Wrap(err, "parse continuation"))
		}
		next := c.base.ResolveReference(ref)
		// Credentials go out as query parameters, so never follow a
		// continuation to another host.
		if next.Host != c.base.Host {
			return nil, fixity.NewStorageDecodeError(c.rawBase, fixity.OpList(), fmt.Errorf("continuation points to foreign host %q", next.Host))
		}
		return next, nil
	}

	target := c.resolve(filePath)
	query := target.Query()
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Offset > 0 {
		query.Set("offset", strconv.Itoa(req.Offset))
	}
	target.RawQuery = query.Encode()
	return target, nil
}

func (c *Client) resolve(path string) *url.URL {
	return c.base.ResolveReference(&url.URL{Path: path})
}

// get performs one authenticated GET and returns the body of a 200.
func (c *Client) get(ctx context.Context, target *url.URL, op fixity.StorageOp) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "infrastructure.storageservice"))

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errs.Wrap(err, "wait for storage service rate limiter")
		}
	}

	signed := *target
	query := signed.Query()
	query.Set("username", c.user)
	query.Set("api_key", c.key)
	signed.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signed.String(), nil)
	if err != nil {
		return nil, errs.Wrap(err, "build storage service request")
	}
	req.Header.Set("Accept", "application/json")

	logging.Debug(logCtx, "storage service request", slog.String("op", op.String()), slog.String("path", target.Path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fixity.NewStorageTransportError(c.rawBase, op, errs.WithStack(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		logging.Debug(logCtx, "storage service refused request", slog.String("op", op.String()), slog.Int("status", resp.StatusCode))
		return nil, fixity.NewStorageStatusError(c.rawBase, op, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fixity.NewStorageTransportError(c.rawBase, op, errs.WithStack(err))
	}
	return body, nil
}
