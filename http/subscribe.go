package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/hlog"

	"github.com/quantonganh/newsletter"
)

const (
	otpSentMessage           = "A 6-digit OTP has been sent to your email. Please verify it below."
	alreadySubscribedMessage = "Account already exists with that email id. So don't worry, we will send you updates daily ☺"
	sendOTPErrorMessage      = "Error sending OTP email"
	invalidSignupMessage     = "Please fill in your name, a valid email and a password."
	invalidDataMessage       = "Invalid data submitted. Please try again."
	incorrectOTPMessage      = "OTP is incorrect. Please try again."
	thankyouMessage          = "Thank you for subscribing! Your subscription is now confirmed."
)

const tokenCookie = "signup_token"

func (s *Server) subscribeHandler(w http.ResponseWriter, r *http.Request) error {
	req, err := s.decodeSignupRequest(r)
	if err != nil {
		s.redirect(w, r, "/signup", invalidSignupMessage)
		return nil
	}

	ctx := r.Context()
	logger := hlog.FromRequest(r)
	if _, err := s.SubscriberService.FindByEmail(ctx, req.Email); err == nil {
		logger.Info().Msg("Subscriber already exists")
		s.redirect(w, r, "/", alreadySubscribedMessage)
		return nil
	} else if newsletter.ErrorCode(err) != newsletter.ErrNotFound {
		return err
	}

	otp, err := s.GenerateOTP()
	if err != nil {
		return err
	}

	logger.Info().Msg("Sending OTP email")
	if err := s.MailService.SendOTP(req.Email, otp); err != nil {
		logger.Error().Err(err).Msg("Failed to send OTP email")
		sentry.CaptureException(err)
		s.redirect(w, r, "/signup", sendOTPErrorMessage)
		return nil
	}

	if c, err := r.Cookie(tokenCookie); err == nil {
		if err := s.PendingStore.Delete(ctx, c.Value); err != nil {
			return err
		}
	}

	token := s.newToken()
	if err := s.PendingStore.Put(ctx, token, newsletter.NewPendingSignup(req, otp, s.PendingTTL)); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.PendingTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return s.render(w, r, "verify.html", pageData{
		Flash: otpSentMessage,
		Email: req.Email,
	})
}

func (s *Server) verifyHandler(w http.ResponseWriter, r *http.Request) error {
	req, err := s.decodeVerifyRequest(r)
	if err != nil {
		s.redirect(w, r, "/signup", invalidDataMessage)
		return nil
	}

	ctx := r.Context()
	c, err := r.Cookie(tokenCookie)
	if err != nil {
		s.redirect(w, r, "/signup", incorrectOTPMessage)
		return nil
	}

	pending, err := s.PendingStore.Get(ctx, c.Value)
	if err != nil {
		if newsletter.ErrorCode(err) == newsletter.ErrNotFound {
			s.redirect(w, r, "/signup", incorrectOTPMessage)
			return nil
		}
		return err
	}

	// a wrong code leaves the pending signup in place so the user can retry
	if subtle.ConstantTimeCompare([]byte(req.OTP), []byte(pending.OTP)) != 1 {
		s.redirect(w, r, "/signup", incorrectOTPMessage)
		return nil
	}

	logger := hlog.FromRequest(r)
	logger.Info().Msg("Saving new subscriber into the database")
	message := thankyouMessage
	if err := s.SubscriberService.Insert(ctx, newsletter.NewSubscriber(pending)); err != nil {
		if newsletter.ErrorCode(err) != newsletter.ErrConflict {
			return err
		}
		message = alreadySubscribedMessage
	}

	if err := s.PendingStore.Delete(ctx, c.Value); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:   tokenCookie,
		Path:   "/",
		MaxAge: -1,
	})

	s.redirect(w, r, "/", message)
	return nil
}
