package http

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/quantonganh/newsletter/pkg/hash"
)

const flashCookie = "flash"

// setFlash stores message for the next rendered page
func (s *Server) setFlash(w http.ResponseWriter, r *http.Request, message string) {
	mac, err := hash.ComputeHmac256(message, s.Secret)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to sign flash message")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(message)) + "." + mac,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending flash message and clears it.
// Messages with a bad signature are dropped.
func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:   flashCookie,
		Path:   "/",
		MaxAge: -1,
	})

	encoded, mac, ok := strings.Cut(c.Value, ".")
	if !ok {
		return ""
	}
	message, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return ""
	}
	if !hash.ValidHmac256(string(message), mac, s.Secret) {
		return ""
	}

	return string(message)
}

// redirect sends the client to path with an optional flash message
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, path, message string) {
	if message != "" {
		s.setFlash(w, r, message)
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
