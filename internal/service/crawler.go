package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"

	"github.com/doculens-ai/doculens/internal/domain"
)

const (
	// DefaultMaxPages caps a single crawl.
	DefaultMaxPages = 500
	// defaultCrawlTimeout bounds one page fetch.
	defaultCrawlTimeout = 30 * time.Second

	crawlerUserAgent = "doculens-crawler/1.0"
)

// Crawler fetches documentation pages for a site, discovering them through
// the site's sitemap. Per-page failures are recorded on the returned pages
// rather than aborting the crawl.
type Crawler struct {
	MaxPages int
	Timeout  time.Duration
}

func NewCrawler() *Crawler {
	return &Crawler{
		MaxPages: DefaultMaxPages,
		Timeout:  defaultCrawlTimeout,
	}
}

// CrawlSite expands siteURL's /sitemap.xml (following nested sitemap
// indexes) and fetches every listed page. A site with no sitemap degrades to
// fetching siteURL itself.
func (c *Crawler) CrawlSite(ctx context.Context, siteURL string) ([]domain.CrawledPage, error) {
	if siteURL == "" {
		return nil, domain.ErrEmptySourceURL
	}

	parsed, err := url.Parse(siteURL)
	if err != nil || parsed.Host == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, fmt.Sprintf("invalid site URL %q", siteURL))
	}

	pageURLs, err := c.expandSitemap(parsed)
	if err != nil {
		return nil, err
	}
	if len(pageURLs) == 0 {
		pageURLs = []string{siteURL}
	}
	if c.MaxPages > 0 && len(pageURLs) > c.MaxPages {
		pageURLs = pageURLs[:c.MaxPages]
	}

	return c.fetchPages(ctx, parsed, pageURLs), nil
}

// expandSitemap collects page URLs from the sitemap, descending into nested
// sitemap indexes. A missing sitemap is not an error.
func (c *Crawler) expandSitemap(site *url.URL) ([]string, error) {
	collector := colly.NewCollector(
		colly.UserAgent(crawlerUserAgent),
		colly.AllowedDomains(site.Hostname(), site.Host),
	)
	collector.SetRequestTimeout(c.Timeout)

	var pageURLs []string
	seen := make(map[string]bool)

	collector.OnXML("//urlset/url/loc", func(e *colly.XMLElement) {
		loc := strings.TrimSpace(e.Text)
		if loc != "" && !seen[loc] {
			seen[loc] = true
			pageURLs = append(pageURLs, loc)
		}
	})
	collector.OnXML("//sitemapindex/sitemap/loc", func(e *colly.XMLElement) {
		// nested sitemap, follow it
		_ = e.Request.Visit(strings.TrimSpace(e.Text))
	})

	sitemapURL := site.Scheme + "://" + site.Host + "/sitemap.xml"
	if err := collector.Visit(sitemapURL); err != nil {
		// no sitemap; caller falls back to the site root
		return nil, nil
	}
	collector.Wait()

	return pageURLs, nil
}

// fetchPages downloads each page, producing one CrawledPage per URL whether
// the fetch succeeded or not.
func (c *Crawler) fetchPages(ctx context.Context, site *url.URL, pageURLs []string) []domain.CrawledPage {
	pages := make([]domain.CrawledPage, 0, len(pageURLs))
	byURL := make(map[string]int, len(pageURLs))

	collector := colly.NewCollector(
		colly.UserAgent(crawlerUserAgent),
		colly.AllowedDomains(site.Hostname(), site.Host),
	)
	collector.SetRequestTimeout(c.Timeout)

	collector.OnResponse(func(r *colly.Response) {
		idx, ok := byURL[r.Request.URL.String()]
		if !ok {
			return
		}
		pages[idx].RawContent = string(r.Body)
		pages[idx].StatusCode = r.StatusCode
	})
	collector.OnError(func(r *colly.Response, err error) {
		idx, ok := byURL[r.Request.URL.String()]
		if !ok {
			return
		}
		pages[idx].StatusCode = r.StatusCode
		pages[idx].Error = err.Error()
	})

	for _, pageURL := range pageURLs {
		if ctx.Err() != nil {
			break
		}

		byURL[pageURL] = len(pages)
		pages = append(pages, domain.CrawledPage{
			ID:        uuid.New().String(),
			URL:       pageURL,
			CrawledAt: time.Now().UTC(),
		})

		if err := collector.Visit(pageURL); err != nil {
			pages[byURL[pageURL]].Error = err.Error()
		}
	}
	collector.Wait()

	return pages
}
