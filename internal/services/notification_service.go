// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/ledrent/ledrent-backend/internal/config"
	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/repository"
)

type EmailSender interface {
	Send(ctx context.Context, to, toName, subject, htmlBody string) error
}

type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridSender(apiKey, fromEmail, fromName string) *SendGridSender {
	return &SendGridSender{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *SendGridSender) Send(ctx context.Context, to, toName, subject, htmlBody string) error {
	message := mail.NewSingleEmail(mail.NewEmail(s.fromName, s.fromEmail), subject, mail.NewEmail(toName, to), "", htmlBody)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   cfg.FromEmail,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, toName, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetAddressHeader("To", to, toName)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email via smtp: %w", err)
	}
	return nil
}

// LogSender only logs outgoing mail. Used when no provider is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, _, subject, _ string) error {
	logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email not configured, skipping send")
	return nil
}

// NewEmailSender prefers SendGrid, then SMTP.
func NewEmailSender(cfg config.EmailConfig) EmailSender {
	switch {
	case cfg.SendGridAPIKey != "":
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName)
	case cfg.SMTPHost != "":
		return NewSMTPSender(cfg)
	default:
		return LogSender{}
	}
}

// NotificationService emails customers about their rentals and orders. Sends run
// in the background and failures are logged, never returned.
type NotificationService struct {
	store       repository.Store
	sender      EmailSender
	frontendURL string
	timeout     time.Duration
	wg          sync.WaitGroup
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(store repository.Store, sender EmailSender, frontendURL string) *NotificationService {
	return &NotificationService{
		store:       store,
		sender:      sender,
		frontendURL: frontendURL,
		timeout:     30 * time.Second,
	}
}

// RentalStatusChanged mails the renter when a rental is confirmed, cancelled or returned.
func (s *NotificationService) RentalStatusChanged(ctx context.Context, rental *models.Rental, previous models.RentalStatus) {
	var templateType string
	switch rental.Status {
	case models.RentalStatusConfirmed:
		templateType = "rental_confirmed"
	case models.RentalStatusCancelled:
		templateType = "rental_cancelled"
	case models.RentalStatusReturned:
		templateType = "rental_returned"
	default:
		return
	}

	data := map[string]interface{}{
		"RentalID":  rental.ID.String(),
		"StartDate": rental.StartDate.Format("2006-01-02"),
		"EndDate":   rental.EndDate.Format("2006-01-02"),
		"Total":     rental.TotalAmount.StringFixed(2),
		"Previous":  string(previous),
		"URL":       fmt.Sprintf("%s/rentals/%s", s.frontendURL, rental.ID),
	}
	s.dispatch(ctx, rental.UserID, templateType, data)
}

func (s *NotificationService) OrderPaid(ctx context.Context, order *models.Order) {
	data := map[string]interface{}{
		"OrderID": order.ID.String(),
		"Total":   order.TotalAmount.StringFixed(2),
		"Items":   len(order.Items),
		"URL":     fmt.Sprintf("%s/orders/%s", s.frontendURL, order.ID),
	}
	s.dispatch(ctx, order.UserID, "order_paid", data)
}

// Wait blocks until in-flight sends finish.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) dispatch(ctx context.Context, userID uuid.UUID, templateType string, data map[string]interface{}) {
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		if err := s.send(ctx, userID, templateType, data); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user_id":  userID,
				"template": templateType,
			}).Warn("Failed to send notification")
		}
	}()
}

func (s *NotificationService) send(ctx context.Context, userID uuid.UUID, templateType string, data map[string]interface{}) error {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient: %w", err)
	}
	data["Name"] = user.Name

	tmpl := s.getEmailTemplate(templateType)
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sender.Send(ctx, user.Email, user.Name, tmpl.Subject, body)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"rental_confirmed": {
			Subject: "Your LED display rental is confirmed",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Rental confirmed</h2>
	<p>Hello {{.Name}},</p>
	<p>Your rental from {{.StartDate}} to {{.EndDate}} is confirmed. Total: {{.Total}}.</p>
	<a href="{{.URL}}">View rental</a>
</body>
</html>`,
		},
		"rental_cancelled": {
			Subject: "Your LED display rental was cancelled",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Rental cancelled</h2>
	<p>Hello {{.Name}},</p>
	<p>Your rental from {{.StartDate}} to {{.EndDate}} has been cancelled.</p>
	<a href="{{.URL}}">View rental</a>
</body>
</html>`,
		},
		"rental_returned": {
			Subject: "We received your rented LED displays",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Equipment returned</h2>
	<p>Hello {{.Name}},</p>
	<p>The equipment from your rental {{.StartDate}} to {{.EndDate}} has been checked back in. Thank you.</p>
</body>
</html>`,
		},
		"order_paid": {
			Subject: "Payment received for your order",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Payment received</h2>
	<p>Hello {{.Name}},</p>
	<p>We received {{.Total}} for your order of {{.Items}} item(s). We will let you know when it ships.</p>
	<a href="{{.URL}}">View order</a>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>Hello {{.Name}}, there is an update on your account.</p>",
	}
}
