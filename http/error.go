package http

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/hlog"

	"github.com/quantonganh/newsletter"
)

type appHandler func(w http.ResponseWriter, r *http.Request) error

var codes = map[string]int{
	newsletter.ErrInvalid:      http.StatusBadRequest,
	newsletter.ErrUnauthorized: http.StatusUnauthorized,
	newsletter.ErrNotFound:     http.StatusNotFound,
	newsletter.ErrConflict:     http.StatusConflict,
	newsletter.ErrInternal:     http.StatusInternalServerError,
}

// ErrorStatusCode maps an error code to an HTTP status
func ErrorStatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

// Error logs the error returned by fn and writes a status derived from its code
func (s *Server) Error(fn appHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		code := newsletter.ErrorCode(err)
		hlog.FromRequest(r).Error().Str("code", code).Msg(err.Error())
		if code == newsletter.ErrInternal {
			if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
				hub.CaptureException(err)
			} else {
				sentry.CaptureException(err)
			}
		}

		http.Error(w, newsletter.ErrorMessage(err), ErrorStatusCode(code))
	}
}
