package digest

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/quantonganh/newsletter"
)

// Runner sends the product digest to every subscriber
type Runner struct {
	Scraper           newsletter.Scraper
	SubscriberService newsletter.SubscriberService
	MailService       newsletter.MailService
	Logger            zerolog.Logger
}

// Result counts the outcome of one run
type Result struct {
	Products int
	Sent     int
	Failed   int
}

// Run scrapes the listing once and mails it to each subscriber in turn.
// A failed send is logged and does not stop the remaining ones.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	var result Result

	products, err := r.Scraper.Scrape(ctx)
	if err != nil {
		return result, errors.Wrap(err, "scrape")
	}
	result.Products = len(products)
	if len(products) == 0 {
		r.Logger.Warn().Msg(newsletter.NoProductsFound)
	} else {
		r.Logger.Info().Int("products", len(products)).Msg("Scraped products")
	}

	emails, err := r.SubscriberService.Emails(ctx)
	if err != nil {
		return result, errors.Wrap(err, "list subscribers")
	}

	for _, email := range emails {
		if email == "" {
			continue
		}

		if err := r.MailService.SendDigest(email, products); err != nil {
			result.Failed++
			r.Logger.Error().Err(err).Msgf("Error sending email to %s", email)
			sentry.CaptureException(err)
			continue
		}

		result.Sent++
		r.Logger.Info().Msgf("Email sent to %s", email)
	}

	return result, nil
}
