package http

import (
	"context"
	"flag"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	uuid "github.com/satori/go.uuid"

	"github.com/quantonganh/newsletter"
)

const (
	shutdownTimeout   = 1 * time.Second
	defaultPendingTTL = 15 * time.Minute
)

// Server represents HTTP server
type Server struct {
	ln        net.Listener
	server    *http.Server
	router    *mux.Router
	templates map[string]*template.Template
	validate  *validator.Validate
	newToken  func() string

	Addr       string
	Domain     string
	Secret     string
	PendingTTL time.Duration

	SubscriberService newsletter.SubscriberService
	PendingStore      newsletter.PendingStore
	MailService       newsletter.MailService
	GenerateOTP       func() (string, error)
}

// NewServer create new HTTP server
func NewServer() (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		server:      &http.Server{},
		router:      mux.NewRouter().StrictSlash(true),
		templates:   templates,
		validate:    validator.New(),
		newToken:    func() string { return uuid.NewV4().String() },
		PendingTTL:  defaultPendingTTL,
		GenerateOTP: newsletter.GenerateOTP,
	}

	zlog := zerolog.New(os.Stdout).With().
		Timestamp().
		Logger()
	s.router.Use(hlog.NewHandler(zlog))
	s.router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("")
	}))
	s.router.Use(hlog.UserAgentHandler("user_agent"))
	s.router.Use(hlog.RefererHandler("referer"))
	s.router.Use(hlog.RequestIDHandler("req_id", "Request-Id"))

	sentryHandler := sentryhttp.New(sentryhttp.Options{})
	s.router.Use(sentryHandler.Handle)

	s.server.Handler = http.HandlerFunc(s.serveHTTP)

	s.router.HandleFunc("/health", s.healthCheckHandler)
	s.router.HandleFunc("/", s.Error(s.page("index.html"))).Methods(http.MethodGet)
	s.router.HandleFunc("/signup", s.Error(s.page("signup.html"))).Methods(http.MethodGet)
	s.router.HandleFunc("/about", s.Error(s.page("about.html"))).Methods(http.MethodGet)
	s.router.HandleFunc("/faqs", s.Error(s.page("faq.html"))).Methods(http.MethodGet)
	s.router.HandleFunc("/logout", s.Error(s.page("log_out.html"))).Methods(http.MethodGet)
	s.router.HandleFunc("/subscribe", s.Error(s.subscribeHandler)).Methods(http.MethodPost)
	s.router.HandleFunc("/verify", s.Error(s.verifyHandler)).Methods(http.MethodPost)
	s.router.HandleFunc("/unsubscribe", s.Error(s.unsubscribeHandler)).Methods(http.MethodPost)

	return s, nil
}

// Scheme returns scheme
func (s *Server) Scheme() string {
	if s.UseTLS() {
		return "https"
	}
	return "http"
}

// UseTLS checks if server use TLS or not
func (s *Server) UseTLS() bool {
	return s.Domain != ""
}

// Port returns server port
func (s *Server) Port() int {
	if s.ln == nil {
		return 0
	}
	return s.ln.Addr().(*net.TCPAddr).Port
}

// URL returns server URL
func (s *Server) URL() string {
	scheme, port := s.Scheme(), s.Port()

	domain := "localhost"
	if s.Domain != "" {
		domain = s.Domain
	}

	if port == 80 || port == 443 || flag.Lookup("test.v") != nil {
		return fmt.Sprintf("%s://%s", scheme, domain)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, domain, s.Port())
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) healthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Open opens a connection to HTTP server
func (s *Server) Open() (err error) {
	s.ln, err = net.Listen("tcp", s.Addr)
	if err != nil {
		return errors.Errorf("failed to listen to port %s: %v", s.Addr, err)
	}

	go func() {
		_ = s.server.Serve(s.ln)
	}()

	return nil
}

// Close shutdowns HTTP server
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
