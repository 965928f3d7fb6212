package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"catalog/storefront/internal/config"
	"catalog/storefront/internal/domain"
	"catalog/storefront/internal/proxy"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

type CatalogClient interface {
	// FetchCatalog performs the single catalog GET. Every failure is a *domain.LoadError.
	FetchCatalog(ctx context.Context) (*domain.Catalog, error)
	Close() error
}

type catalogClient struct {
	mutex      sync.Mutex
	apiURL     string
	httpClient *resty.Client
	proxies    proxy.Supplier
}

func NewCatalogClient(cfg config.CatalogConfig, proxySupplier proxy.Supplier) CatalogClient {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &catalogClient{
		apiURL:     cfg.APIURL,
		httpClient: client,
		proxies:    proxySupplier,
	}
}

func (c *catalogClient) FetchCatalog(ctx context.Context) (*domain.Catalog, error) {
	// the proxy is client-wide, one fetch at a time
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.proxies != nil {
		if proxyURL := c.proxies.Next(); proxyURL != "" {
			c.httpClient.SetProxy(proxyURL)
			log.Infof("🔗 Using catalog proxy: %s", proxyURL)
		}
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(c.apiURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.NewLoadError("", fmt.Errorf("request cancelled: %w", ctx.Err()))
		}
		return nil, domain.NewLoadError("", fmt.Errorf("failed to fetch catalog: %w", err))
	}

	if resp.IsError() {
		// error pages may still carry the API envelope with a message
		var envelope domain.CatalogResponse
		_ = json.Unmarshal([]byte(resp.String()), &envelope)
		return nil, domain.NewLoadError(envelope.Msg, fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status()))
	}

	var envelope domain.CatalogResponse
	if err := json.Unmarshal([]byte(resp.String()), &envelope); err != nil {
		return nil, domain.NewLoadError("", fmt.Errorf("failed to decode catalog response: %w", err))
	}

	if envelope.Status != http.StatusOK {
		return nil, domain.NewLoadError(envelope.Msg, fmt.Errorf("catalog API status %d", envelope.Status))
	}

	catalog := envelope.Data
	if catalog == nil {
		catalog = &domain.Catalog{}
	}

	log.Debugf("Fetched catalog with %d product types", len(catalog.FirstGroups))
	return catalog, nil
}

func (c *catalogClient) Close() error {
	return c.httpClient.Close()
}
