package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	scraperEndpoint = "https://www.google.com/search"
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// scraperMaxResults caps scraping at the top organic entries.
	scraperMaxResults = 5
)

// GoogleScraperProvider is the last-resort provider: it scrapes the
// public Google result page. No API key, no quota; treated as always
// available so a search can never fail for lack of configuration.
type GoogleScraperProvider struct {
	client   *http.Client
	endpoint string
}

// NewGoogleScraperProvider creates the scraping fallback.
func NewGoogleScraperProvider(timeout time.Duration) *GoogleScraperProvider {
	return &GoogleScraperProvider{
		client:   &http.Client{Timeout: timeout},
		endpoint: scraperEndpoint,
	}
}

func (p *GoogleScraperProvider) Name() string { return "google_scraper" }

// IsAvailable always reports true; the scraper is the floor of the chain.
func (p *GoogleScraperProvider) IsAvailable() bool { return true }

// Search fetches the result page and extracts the top organic entries.
func (p *GoogleScraperProvider) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	endpoint := fmt.Sprintf("%s?q=%s&hl=en", p.endpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return p.extractResults(string(body)), nil
}

var (
	// Organic entries: a /url?q= redirect link wrapping an <h3> title.
	scraperLinkRe = regexp.MustCompile(`<a[^>]+href="/url\?q=([^"&]+)[^"]*"[^>]*>[\s\S]*?<h3[^>]*>([\s\S]*?)</h3>`)
	// Direct links, seen on some result variants.
	scraperDirectLinkRe = regexp.MustCompile(`<a[^>]+href="(https?://[^"]+)"[^>]*>[\s\S]*?<h3[^>]*>([\s\S]*?)</h3>`)
	// Snippet spans; class names churn, so match the long-lived one.
	scraperSnippetRe = regexp.MustCompile(`<span[^>]*class="[^"]*aCOpRe[^"]*"[^>]*>([\s\S]*?)</span>`)
)

// extractResults pulls title/link/snippet triples out of the result
// page HTML. Snippets are paired index-wise with links and default to
// empty when absent.
func (p *GoogleScraperProvider) extractResults(html string) []Result {
	links := scraperLinkRe.FindAllStringSubmatch(html, scraperMaxResults+5)
	if len(links) == 0 {
		links = scraperDirectLinkRe.FindAllStringSubmatch(html, scraperMaxResults+5)
	}
	snippets := scraperSnippetRe.FindAllStringSubmatch(html, scraperMaxResults+5)

	var results []Result
	seen := make(map[string]bool)
	for i, match := range links {
		link := decodeRedirectURL(match[1])
		title := cleanHTMLText(match[2])
		if link == "" || title == "" {
			continue
		}
		if strings.Contains(link, "google.com") || seen[link] {
			continue
		}
		seen[link] = true

		snippet := ""
		if i < len(snippets) {
			snippet = cleanHTMLText(snippets[i][1])
		}

		results = append(results, Result{
			Title:   title,
			Snippet: snippet,
			Link:    link,
			Source:  p.Name(),
		})
		if len(results) >= scraperMaxResults {
			break
		}
	}
	return results
}

// decodeRedirectURL unescapes the target inside a /url?q= redirect.
func decodeRedirectURL(raw string) string {
	if u, err := url.QueryUnescape(raw); err == nil {
		raw = u
	}
	return strings.TrimSpace(raw)
}

// cleanHTMLText strips tags and common entities from scraped text.
func cleanHTMLText(s string) string {
	tagRe := regexp.MustCompile(`<[^>]+>`)
	s = tagRe.ReplaceAllString(s, "")
	repl := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#39;", "'",
		"&nbsp;", " ",
	)
	s = repl.Replace(s)
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
