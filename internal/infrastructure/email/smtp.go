package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
}

// SMTPEmailService sends operational notices over SMTP.
type SMTPEmailService struct {
	config SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPEmailService(config SMTPConfig) *SMTPEmailService {
	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)

	return &SMTPEmailService{
		config: config,
		dialer: dialer,
	}
}

func (s *SMTPEmailService) SendQuotaExhaustedNotice(to, entrySID string, partnerID uint) error {
	subject := "Quota Exhausted"
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Quota exhausted</h2>
			<p>Ledger entry <strong>%s</strong> held by partner %d has no quota left.</p>
			<p>Allocate additional quota or top up the campaign to keep the partner's invitation codes usable.</p>
		</body>
		</html>
	`, entrySID, partnerID)

	plainBody := fmt.Sprintf(`
Quota exhausted

Ledger entry %s held by partner %d has no quota left.
Allocate additional quota or top up the campaign to keep the partner's invitation codes usable.
	`, entrySID, partnerID)

	return s.sendEmail(to, subject, htmlBody, plainBody)
}

func (s *SMTPEmailService) SendCampaignExpiringNotice(to, campaignSID string, daysNote string) error {
	subject := "Campaign Expiring Soon"
	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Campaign expiring</h2>
			<p>Campaign <strong>%s</strong> ends %s.</p>
			<p>Unused quota expires with the campaign. Review remaining allocations before the end date.</p>
		</body>
		</html>
	`, campaignSID, daysNote)

	plainBody := fmt.Sprintf(`
Campaign expiring

Campaign %s ends %s.
Unused quota expires with the campaign. Review remaining allocations before the end date.
	`, campaignSID, daysNote)

	return s.sendEmail(to, subject, htmlBody, plainBody)
}

func (s *SMTPEmailService) sendEmail(to, subject, htmlBody, plainBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromAddress)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
