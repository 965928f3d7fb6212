package proxy

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

const (
	checkTimeout     = 5 * time.Second
	maxParallelCheck = 16
)

// Supplier hands out outbound proxies for catalog requests
type Supplier interface {
	// Next returns the next proxy URL, or "" when no proxy is configured
	Next() string
	Len() int
}

type roundRobin struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewSupplier checks every configured proxy against checkURL and keeps the
// ones that answer, in their configured order. Checks start at most
// checksPerSecond times per second.
func NewSupplier(ctx context.Context, proxies []string, checkURL string, checksPerSecond int) Supplier {
	if len(proxies) == 0 {
		return &roundRobin{}
	}

	log.Infof("🔄 Checking %d catalog proxies...", len(proxies))

	rl := ratelimit.New(max(1, checksPerSecond), ratelimit.WithoutSlack)
	healthy := make([]bool, len(proxies))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelCheck)

	for i, proxyURL := range proxies {
		i, proxyURL := i, proxyURL
		g.Go(func() error {
			rl.Take()
			healthy[i] = check(ctx, proxyURL, checkURL)
			return nil
		})
	}
	_ = g.Wait()

	usable := make([]string, 0, len(proxies))
	for i, ok := range healthy {
		if ok {
			usable = append(usable, proxies[i])
		}
	}

	log.Infof("✅ Using %d of %d catalog proxies", len(usable), len(proxies))

	return &roundRobin{proxies: usable}
}

func (p *roundRobin) Next() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxyURL := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)
	return proxyURL
}

func (p *roundRobin) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.proxies)
}

func check(ctx context.Context, proxyURL, checkURL string) bool {
	client := resty.New().
		SetTimeout(checkTimeout).
		SetRetryCount(0).
		SetProxy(proxyURL)
	defer client.Close()

	resp, err := client.R().
		SetContext(ctx).
		Get(checkURL)
	if err != nil {
		log.Warnf("❌ Proxy %s failed: %v", proxyURL, err)
		return false
	}
	if resp.IsError() {
		log.Warnf("❌ Proxy %s answered %s", proxyURL, resp.Status())
		return false
	}

	log.Debugf("✅ Proxy %s is usable", proxyURL)
	return true
}
