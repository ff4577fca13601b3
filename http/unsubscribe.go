package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/quantonganh/newsletter"
)

const (
	unsubscribeMessage        = "Account deleted successfully"
	wrongPasswordMessage      = "Password you entered is wrong, Try again"
	noAccountMessage          = "Account with that email id doesn't exist. So why not try subscribing??"
	invalidUnsubscribeMessage = "Please enter your email and password."
)

func (s *Server) unsubscribeHandler(w http.ResponseWriter, r *http.Request) error {
	req, err := s.decodeUnsubscribeRequest(r)
	if err != nil {
		s.redirect(w, r, "/logout", invalidUnsubscribeMessage)
		return nil
	}

	ctx := r.Context()
	subscriber, err := s.SubscriberService.FindByEmail(ctx, req.Email)
	if err != nil {
		if newsletter.ErrorCode(err) == newsletter.ErrNotFound {
			s.redirect(w, r, "/", noAccountMessage)
			return nil
		}
		return err
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(subscriber.Password)) != 1 {
		s.redirect(w, r, "/logout", wrongPasswordMessage)
		return nil
	}

	hlog.FromRequest(r).Info().Msg("Deleting subscriber")
	if err := s.SubscriberService.Delete(ctx, req.Email); err != nil && newsletter.ErrorCode(err) != newsletter.ErrNotFound {
		return err
	}

	s.redirect(w, r, "/", unsubscribeMessage)
	return nil
}
