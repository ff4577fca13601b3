package http

import (
	"net/http"

	"github.com/quantonganh/newsletter"
)

func (s *Server) decodeForm(r *http.Request, op string, dst interface{}, fill func()) error {
	if err := r.ParseForm(); err != nil {
		return &newsletter.Error{Code: newsletter.ErrInvalid, Op: op, Err: err}
	}
	fill()

	if err := s.validate.Struct(dst); err != nil {
		return &newsletter.Error{Code: newsletter.ErrInvalid, Op: op, Err: err}
	}
	return nil
}

func (s *Server) decodeSignupRequest(r *http.Request) (*newsletter.SignupRequest, error) {
	req := new(newsletter.SignupRequest)
	err := s.decodeForm(r, "decodeSignupRequest", req, func() {
		req.Name = r.PostForm.Get("name")
		req.Email = r.PostForm.Get("email")
		req.Password = r.PostForm.Get("password")
	})
	return req, err
}

func (s *Server) decodeVerifyRequest(r *http.Request) (*newsletter.VerifyRequest, error) {
	req := new(newsletter.VerifyRequest)
	err := s.decodeForm(r, "decodeVerifyRequest", req, func() {
		req.OTP = r.PostForm.Get("otp")
	})
	return req, err
}

func (s *Server) decodeUnsubscribeRequest(r *http.Request) (*newsletter.UnsubscribeRequest, error) {
	req := new(newsletter.UnsubscribeRequest)
	err := s.decodeForm(r, "decodeUnsubscribeRequest", req, func() {
		req.Email = r.PostForm.Get("email")
		req.Password = r.PostForm.Get("password")
	})
	return req, err
}
