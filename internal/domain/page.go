package domain

import "time"

// CrawledPage is the raw result of fetching a single documentation URL.
// A failed fetch is recorded with Error set and empty content; one failing
// URL never aborts a crawl batch.
type CrawledPage struct {
	ID           string
	URL          string
	RawContent   string
	CleanContent string
	Title        string
	StatusCode   int
	Error        string
	CrawledAt    time.Time
}

// Failed reports whether the page fetch produced an error record.
func (p *CrawledPage) Failed() bool {
	return p.Error != ""
}
