package newsletter

// MailService is the interface that wraps methods related to SMTP
type MailService interface {
	SendOTP(to, otp string) error
	SendDigest(to string, products []Product) error
}
