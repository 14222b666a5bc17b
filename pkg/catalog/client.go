// Package catalog is a client for the product catalog REST API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/samvad-hq/catalog-harvester/internal/domain"
	"github.com/samvad-hq/catalog-harvester/pkg/httpclient"
)

const (
	// DefaultPage is used by ListProducts when page is 0.
	DefaultPage = 1

	productsPath = "/products"
	searchPath   = "/products/search"
)

// ProductResponse is the envelope returned by both listing and search endpoints.
type ProductResponse struct {
	Data       []domain.Product  `json:"data"`
	Pagination domain.Pagination `json:"pagination"`
}

// Client issues read-only requests against a catalog API base URL.
// It keeps no per-call state and is safe for concurrent use.
type Client struct {
	baseURL string
	http    httpclient.Client
	headers map[string]string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default resty transport.
func WithHTTPClient(c httpclient.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithHeaders adds headers sent on every request.
func WithHeaders(headers map[string]string) Option {
	return func(cl *Client) {
		for k, v := range headers {
			cl.headers[k] = v
		}
	}
}

// New builds a Client for baseURL, e.g. http://localhost:5000.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: base,
		headers: map[string]string{"Accept": "application/json"},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(httpclient.DefaultTimeout)
	}
	return c, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("catalog base url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse catalog base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("catalog base url %q must use http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("catalog base url %q has no host", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}

// BaseURL returns the normalized base URL requests are resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// ListProducts returns the products on the given 1-based page. A page of 0 means page 1.
func (c *Client) ListProducts(ctx context.Context, page int) ([]domain.Product, error) {
	resp, err := c.ListProductsPage(ctx, page)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ListProductsPage is ListProducts with the pagination metadata kept.
func (c *Client) ListProductsPage(ctx context.Context, page int) (ProductResponse, error) {
	if page == 0 {
		page = DefaultPage
	}
	return c.get(ctx, productsPath, "page="+strconv.Itoa(page))
}

// SearchProducts returns the products matching every defined filter in params.
func (c *Client) SearchProducts(ctx context.Context, params SearchParams) ([]domain.Product, error) {
	resp, err := c.SearchProductsPage(ctx, params)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SearchProductsPage is SearchProducts with the pagination metadata kept.
func (c *Client) SearchProductsPage(ctx context.Context, params SearchParams) (ProductResponse, error) {
	return c.get(ctx, searchPath, params.Encode())
}

func (c *Client) endpoint(path, rawQuery string) string {
	if rawQuery == "" {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + rawQuery
}

func (c *Client) get(ctx context.Context, path, rawQuery string) (ProductResponse, error) {
	target := c.endpoint(path, rawQuery)

	resp, err := c.http.Get(ctx, target, c.headers)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("get %s: %w", target, err)
	}

	body := resp.Body()
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return ProductResponse{}, &StatusError{
			Method:     http.MethodGet,
			URL:        target,
			StatusCode: code,
			Body:       bodySnippet(body),
		}
	}

	var out ProductResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return ProductResponse{}, fmt.Errorf("decode %s response: %w", target, err)
	}
	return out, nil
}
