package producthunt

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/quantonganh/newsletter"
)

// DefaultURL is the page listing today's launches
const DefaultURL = "https://www.producthunt.com/"

const (
	sectionSelector     = `[data-test="homepage-section-0"] section`
	nameSelector        = `a[class*="text-16 font-semibold text-dark-gray"]`
	descriptionSelector = `a[class*="text-16 font-normal text-dark-gray text-gray-700"]`
)

// browser-like headers keep the page from being served a bot challenge
var headers = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Accept-Language": "en-GB,en-US;q=0.9,en;q=0.8",
}

// Scraper fetches and parses the product listing page
type Scraper struct {
	client *resty.Client
	url    string
}

// NewScraper returns a scraper for pageURL
func NewScraper(pageURL string) *Scraper {
	if pageURL == "" {
		pageURL = DefaultURL
	}

	return &Scraper{
		client: resty.New().SetHeaders(headers),
		url:    pageURL,
	}
}

// Scrape fetches the page and returns the listed products
func (s *Scraper) Scrape(ctx context.Context) ([]newsletter.Product, error) {
	base, err := url.Parse(s.url)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid url %s", s.url)
	}

	res, err := s.client.R().
		SetContext(ctx).
		Get(s.url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", s.url)
	}
	if res.IsError() {
		return nil, errors.Errorf("failed to fetch %s: %s", s.url, res.Status())
	}

	return Parse(bytes.NewReader(res.Body()), base)
}

// Parse extracts products from the listing markup. Items missing a name, a
// description or a link are skipped; links are resolved against base.
func Parse(r io.Reader, base *url.URL) ([]newsletter.Product, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse document")
	}

	var products []newsletter.Product
	doc.Find(sectionSelector).Each(func(_ int, section *goquery.Selection) {
		name := strings.TrimSpace(section.Find(nameSelector).First().Text())
		desc := section.Find(descriptionSelector).First()
		description := strings.TrimSpace(desc.Text())
		href := strings.TrimSpace(desc.AttrOr("href", ""))
		if name == "" || description == "" || href == "" {
			return
		}

		link, err := url.Parse(href)
		if err != nil {
			return
		}

		products = append(products, newsletter.Product{
			Name:        name,
			Description: description,
			Link:        base.ResolveReference(link).String(),
		})
	})

	return products, nil
}
