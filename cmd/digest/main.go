package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/quantonganh/newsletter"
	"github.com/quantonganh/newsletter/digest"
	"github.com/quantonganh/newsletter/gmail"
	"github.com/quantonganh/newsletter/producthunt"
	"github.com/quantonganh/newsletter/storage"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().
		Logger()

	config, err := newsletter.LoadConfig()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load config")
		return 1
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn: config.Sentry.DSN,
	}); err != nil {
		logger.Error().Err(err).Msg("sentry.Init")
		return 1
	}
	defer sentry.Flush(2 * time.Second)

	db, subscriberService, err := storage.Open(config)
	if err != nil {
		logger.Error().Err(err).Msg("Error connecting to the database")
		return 1
	}
	defer db.Close()

	runner := &digest.Runner{
		Scraper:           producthunt.NewScraper(config.Digest.URL),
		SubscriberService: subscriberService,
		MailService:       gmail.NewMailService(config, config.SiteURL()),
		Logger:            logger,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if spec := config.Digest.Cron.Spec; spec != "" {
		c := cron.New()
		if _, err := c.AddFunc(spec, func() {
			if err := runOnce(ctx, runner, logger); err != nil {
				sentry.CaptureException(err)
			}
		}); err != nil {
			logger.Error().Err(err).Str("spec", spec).Msg("invalid cron spec")
			return 1
		}

		logger.Info().Str("spec", spec).Msg("scheduled digest")
		c.Start()
		<-ctx.Done()
		<-c.Stop().Done()
		return 0
	}

	if err := runOnce(ctx, runner, logger); err != nil {
		return 1
	}
	return 0
}

func runOnce(ctx context.Context, runner *digest.Runner, logger zerolog.Logger) error {
	result, err := runner.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("digest failed")
		return err
	}

	logger.Info().
		Int("products", result.Products).
		Int("sent", result.Sent).
		Int("failed", result.Failed).
		Msg("Product Hunt products sent via email!")
	return nil
}
