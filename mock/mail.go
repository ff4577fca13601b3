package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/quantonganh/newsletter"
)

// MailService is a testify mock of newsletter.MailService
type MailService struct {
	mock.Mock
}

func (m *MailService) SendOTP(to, otp string) error {
	args := m.Called(to, otp)
	return args.Error(0)
}

func (m *MailService) SendDigest(to string, products []newsletter.Product) error {
	args := m.Called(to, products)
	return args.Error(0)
}

// Scraper is a testify mock of newsletter.Scraper
type Scraper struct {
	mock.Mock
}

func (m *Scraper) Scrape(ctx context.Context) ([]newsletter.Product, error) {
	args := m.Called()
	products, _ := args.Get(0).([]newsletter.Product)
	return products, args.Error(1)
}
