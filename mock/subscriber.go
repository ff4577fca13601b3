package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/quantonganh/newsletter"
)

// SubscriberService is a testify mock of newsletter.SubscriberService
type SubscriberService struct {
	mock.Mock
}

func (m *SubscriberService) FindByEmail(ctx context.Context, email string) (*newsletter.Subscriber, error) {
	args := m.Called(email)
	s, _ := args.Get(0).(*newsletter.Subscriber)
	return s, args.Error(1)
}

func (m *SubscriberService) Insert(ctx context.Context, s *newsletter.Subscriber) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *SubscriberService) Delete(ctx context.Context, email string) error {
	args := m.Called(email)
	return args.Error(0)
}

func (m *SubscriberService) Emails(ctx context.Context) ([]string, error) {
	args := m.Called()
	emails, _ := args.Get(0).([]string)
	return emails, args.Error(1)
}
