package scrape

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyConfig controls the collector used by listing routines.
type CollyConfig struct {
	AllowedDomains []string
	RequestTimeout time.Duration
	DomainDelay    time.Duration
}

// newCollector builds a colly collector for one listing source. Listing
// routines visit exactly one index page per source (no link frontier); the
// collector exists for its rate limiting, charset detection and per-domain
// scoping rather than for crawling.
func newCollector(cfg CollyConfig) *colly.Collector {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.DomainDelay == 0 {
		cfg.DomainDelay = 1 * time.Second
	}

	opts := []colly.CollectorOption{
		colly.UserAgent(browserUserAgent),
		colly.DetectCharset(),
		colly.IgnoreRobotsTxt(),
	}
	if len(cfg.AllowedDomains) > 0 {
		opts = append(opts, colly.AllowedDomains(cfg.AllowedDomains...))
	}

	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(cfg.RequestTimeout)
	c.WithTransport(&http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
		TLSHandshakeTimeout: 10 * time.Second,
	})

	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       cfg.DomainDelay,
		RandomDelay: cfg.DomainDelay / 2,
	})

	return c
}
