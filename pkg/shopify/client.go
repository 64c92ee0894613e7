package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/shipfeedhq/shipfeed-backend/pkg/config"
	pkgerrors "github.com/shipfeedhq/shipfeed-backend/pkg/errors"
	"github.com/shipfeedhq/shipfeed-backend/pkg/logger"
)

const retryBase = 250 * time.Millisecond

// Client talks to the Shopify Admin REST API for catalog lookups. Every call
// is bounded by the configured HTTP timeout and retry budget; callers treat
// failures as missing enrichment, never as fatal.
type Client struct {
	shopDomain  string
	accessToken string
	apiVersion  string
	attempts    uint64
	httpClient  *http.Client
	logg        *logger.Logger
}

// New builds a catalog client from config. The shop domain may be passed with
// or without a scheme.
func New(cfg config.ShopifyConfig, logg *logger.Logger) (*Client, error) {
	if !cfg.CatalogEnabled() {
		return nil, fmt.Errorf("shopify shop and admin token are required")
	}

	shopDomain := cfg.Shop
	shopDomain = strings.TrimPrefix(shopDomain, "https://")
	shopDomain = strings.TrimPrefix(shopDomain, "http://")
	shopDomain = strings.TrimSuffix(shopDomain, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		shopDomain:  shopDomain,
		accessToken: cfg.AdminToken,
		apiVersion:  cfg.APIVersion,
		attempts:    cfg.RetryAttempts,
		httpClient:  &http.Client{Timeout: timeout},
		logg:        logg,
	}, nil
}

// GetVariant fetches a single variant by id.
func (c *Client) GetVariant(ctx context.Context, id int64) (*Variant, error) {
	var envelope variantEnvelope
	if err := c.getJSON(ctx, fmt.Sprintf("variants/%d.json", id), &envelope); err != nil {
		return nil, err
	}
	return &envelope.Variant, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var envelope productEnvelope
	if err := c.getJSON(ctx, fmt.Sprintf("products/%d.json", id), &envelope); err != nil {
		return nil, err
	}
	return &envelope.Product, nil
}

// GetProductMetafields lists the metafields attached to a product.
func (c *Client) GetProductMetafields(ctx context.Context, id int64) ([]Metafield, error) {
	var envelope metafieldsEnvelope
	if err := c.getJSON(ctx, fmt.Sprintf("products/%d/metafields.json", id), &envelope); err != nil {
		return nil, err
	}
	return envelope.Metafields, nil
}

// GetVariantMetafields lists the metafields attached to a variant.
func (c *Client) GetVariantMetafields(ctx context.Context, id int64) ([]Metafield, error) {
	var envelope metafieldsEnvelope
	if err := c.getJSON(ctx, fmt.Sprintf("variants/%d/metafields.json", id), &envelope); err != nil {
		return nil, err
	}
	return envelope.Metafields, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	url := fmt.Sprintf("https://%s/admin/api/%s/%s", c.shopDomain, c.apiVersion, path)

	backoff := retry.WithMaxRetries(c.attempts, retry.NewFibonacci(retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build catalog request")
		}
		req.Header.Set("X-Shopify-Access-Token", c.accessToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog request"))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("catalog resource missing: %s", path))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return retry.RetryableError(pkgerrors.New(
				pkgerrors.CodeDependency,
				fmt.Sprintf("catalog responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			))
		case resp.StatusCode != http.StatusOK:
			return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("catalog responded %d", resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode catalog response")
		}
		return nil
	})
}

// IsNotFound reports whether the error marks a missing catalog resource.
func IsNotFound(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Code() == pkgerrors.CodeNotFound
}
