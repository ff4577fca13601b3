package newsletter

import (
	"context"
	"fmt"
	"strings"
)

// Digest email texts
const (
	DigestSubject    = "Check Out Today's New Products on Product Hunt"
	DigestGreeting   = "Hello, \n\nHere are the new products launched today on Product Hunt:\n\n"
	NoProductsFound  = "No products found on Product Hunt at the moment."
	digestItemFormat = "%s\n%s\nLink: %s\n\n"
)

// Product is one entry scraped from the product listing page
type Product struct {
	Name        string
	Description string
	Link        string
}

// Scraper fetches the current product listing
type Scraper interface {
	Scrape(ctx context.Context) ([]Product, error)
}

// FormatDigest returns the plain text body of the digest email
func FormatDigest(products []Product) string {
	var b strings.Builder
	b.WriteString(DigestGreeting)

	if len(products) == 0 {
		b.WriteString(NoProductsFound)
		b.WriteString("\n")
		return b.String()
	}

	for _, p := range products {
		fmt.Fprintf(&b, digestItemFormat, p.Name, p.Description, p.Link)
	}

	return b.String()
}
