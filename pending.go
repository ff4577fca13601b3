package newsletter

import (
	"context"
	"time"
)

// PendingStore keeps unconfirmed signups keyed by an opaque token until they expire.
// Get returns an ErrNotFound error for unknown or expired tokens.
type PendingStore interface {
	Put(ctx context.Context, token string, p *PendingSignup) error
	Get(ctx context.Context, token string) (*PendingSignup, error)
	Delete(ctx context.Context, token string) error
}

// PendingSignup is a signup waiting for its one-time code
type PendingSignup struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Password  string    `json:"password"`
	OTP       string    `json:"otp"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewPendingSignup returns a pending signup that expires after ttl
func NewPendingSignup(req *SignupRequest, otp string, ttl time.Duration) *PendingSignup {
	return &PendingSignup{
		Email:     req.Email,
		Name:      req.Name,
		Password:  req.Password,
		OTP:       otp,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Expired reports whether p is no longer valid at t
func (p *PendingSignup) Expired(t time.Time) bool {
	return !t.Before(p.ExpiresAt)
}

// TTL returns the time left before p expires
func (p *PendingSignup) TTL() time.Duration {
	return time.Until(p.ExpiresAt)
}
