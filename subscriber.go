package newsletter

import "context"

// SubscriberService is the interface that wraps methods related to the subscribers table
type SubscriberService interface {
	FindByEmail(ctx context.Context, email string) (*Subscriber, error)
	Insert(ctx context.Context, s *Subscriber) error
	Delete(ctx context.Context, email string) error
	Emails(ctx context.Context) ([]string, error)
}

// Subscriber represents a confirmed subscriber
type Subscriber struct {
	Name     string `db:"name"`
	Email    string `db:"email" storm:"id"`
	OTP      string `db:"otp"`
	Password string `db:"password"`
}

// NewSubscriber returns a subscriber promoted from a pending signup
func NewSubscriber(p *PendingSignup) *Subscriber {
	return &Subscriber{
		Name:     p.Name,
		Email:    p.Email,
		OTP:      p.OTP,
		Password: p.Password,
	}
}
