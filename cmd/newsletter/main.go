package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"

	"github.com/quantonganh/newsletter"
	"github.com/quantonganh/newsletter/gmail"
	"github.com/quantonganh/newsletter/http"
	"github.com/quantonganh/newsletter/inmem"
	"github.com/quantonganh/newsletter/redis"
	"github.com/quantonganh/newsletter/storage"
)

func main() {
	config, err := newsletter.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if config.HTTP.SecretGenerated {
		log.Warn().Msg("http.secret is not set, flash messages will not survive a restart")
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn: config.Sentry.DSN,
	}); err != nil {
		log.Fatal().Err(err).Msg("sentry.Init")
	}
	defer sentry.Flush(2 * time.Second)

	a, err := newApp(config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create app")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		cancel()
	}()

	if err := a.Run(ctx); err != nil {
		_ = a.Close()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log.Info().Str("url", a.httpServer.URL()).Msg("listening")
	<-ctx.Done()

	if err := a.Close(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	config     *newsletter.Config
	db         newsletter.Database
	closeStore func() error
	httpServer *http.Server
}

func newApp(config *newsletter.Config) (*app, error) {
	httpServer, err := http.NewServer()
	if err != nil {
		return nil, err
	}
	return &app{
		config:     config,
		httpServer: httpServer,
	}, nil
}

func (a *app) Run(ctx context.Context) error {
	db, subscriberService, err := storage.Open(a.config)
	if err != nil {
		return err
	}
	a.db = db

	pendingStore, err := a.openPendingStore(ctx)
	if err != nil {
		return err
	}

	a.httpServer.Addr = a.config.HTTP.Addr
	a.httpServer.Domain = a.config.HTTP.Domain
	a.httpServer.Secret = a.config.HTTP.Secret
	if a.config.Signup.PendingTTL > 0 {
		a.httpServer.PendingTTL = a.config.Signup.PendingTTL
	}

	a.httpServer.SubscriberService = subscriberService
	a.httpServer.PendingStore = pendingStore
	a.httpServer.MailService = gmail.NewMailService(a.config, a.config.SiteURL())

	return a.httpServer.Open()
}

func (a *app) openPendingStore(ctx context.Context) (newsletter.PendingStore, error) {
	if a.config.Redis.URL == "" {
		return inmem.NewPendingStore(), nil
	}

	client, err := redis.Connect(ctx, a.config.Redis.URL)
	if err != nil {
		return nil, err
	}
	a.closeStore = client.Close

	return redis.NewPendingStore(client), nil
}

func (a *app) Close() error {
	if a.httpServer != nil {
		if err := a.httpServer.Close(); err != nil {
			return err
		}
	}

	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			return err
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return err
		}
	}

	return nil
}
