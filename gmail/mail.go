package gmail

import (
	"fmt"

	"github.com/matcornic/hermes/v2"
	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/quantonganh/newsletter"
)

const (
	otpSubject  = "Newsletter Subscription OTP"
	otpTextBody = "Hello!!\n welcome to our Newsletter service\n Start your journey with us by entering  %s in given space"
)

// Sender delivers a composed message
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type mailService struct {
	ServerURL string
	*newsletter.Config
	sender Sender
}

// NewMailService returns a MailService that sends over the configured SMTP server
func NewMailService(config *newsletter.Config, serverURL string) newsletter.MailService {
	return &mailService{
		Config:    config,
		ServerURL: serverURL,
		sender:    gomail.NewDialer(config.SMTP.Host, config.SMTP.Port, config.SMTP.Username, config.SMTP.Password),
	}
}

func (ms *mailService) generator() *hermes.Hermes {
	return &hermes.Hermes{
		Product: hermes.Product{
			Name: ms.Config.Newsletter.Product.Name,
			Link: ms.ServerURL,
		},
	}
}

// SendOTP sends the one-time code used to confirm a signup
func (ms *mailService) SendOTP(to, otp string) error {
	email := hermes.Email{
		Body: hermes.Body{
			Intros: []string{
				fmt.Sprintf("Welcome to %s", ms.Config.Newsletter.Product.Name),
				"Start your journey with us by entering the code below in the given space.",
			},
			Dictionary: []hermes.Entry{
				{Key: "Code", Value: otp},
			},
		},
	}

	html, err := ms.generator().GenerateHTML(email)
	if err != nil {
		return errors.Errorf("failed to generate HTML email: %v", err)
	}

	return ms.sendEmail(to, otpSubject, fmt.Sprintf(otpTextBody, otp), html)
}

// SendDigest sends the product digest
func (ms *mailService) SendDigest(to string, products []newsletter.Product) error {
	email := hermes.Email{
		Body: hermes.Body{
			Greeting: "Hello",
			Intros: []string{
				"Here are the new products launched today on Product Hunt:",
			},
		},
	}

	if len(products) == 0 {
		email.Body.Intros = append(email.Body.Intros, newsletter.NoProductsFound)
	} else {
		rows := make([][]hermes.Entry, 0, len(products))
		for _, p := range products {
			rows = append(rows, []hermes.Entry{
				{Key: "Product", Value: p.Name},
				{Key: "Description", Value: p.Description},
				{Key: "Link", Value: p.Link},
			})
		}
		email.Body.Table = hermes.Table{Data: rows}
	}

	html, err := ms.generator().GenerateHTML(email)
	if err != nil {
		return errors.Errorf("failed to generate HTML email: %v", err)
	}

	return ms.sendEmail(to, newsletter.DigestSubject, newsletter.FormatDigest(products), html)
}

func (ms *mailService) sendEmail(to, subject, text, html string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", ms.Config.Newsletter.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html)
	if err := ms.sender.DialAndSend(m); err != nil {
		return errors.Errorf("failed to send mail to %s: %v", to, err)
	}

	return nil
}
