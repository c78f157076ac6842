// Package mail sends transactional email through SendGrid.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/uniformline/api/internal/domain"
	"github.com/uniformline/api/internal/platform/config"
)

// SendGridMailer sends order confirmation emails to the contact on the order
// and a copy to the configured admin address.
type SendGridMailer struct {
	client       *sendgrid.Client
	fromName     string
	fromAddress  string
	adminAddress string
}

// NewSendGridMailer constructs a mailer from the mail configuration.
func NewSendGridMailer(cfg config.MailConfig) (*SendGridMailer, error) {
	apiKey := strings.TrimSpace(cfg.SendGridAPIKey)
	if apiKey == "" {
		return nil, errors.New("mail: sendgrid api key is required")
	}
	from := strings.TrimSpace(cfg.FromAddress)
	if from == "" {
		return nil, errors.New("mail: from address is required")
	}
	return &SendGridMailer{
		client:       sendgrid.NewSendClient(apiKey),
		fromName:     strings.TrimSpace(cfg.FromName),
		fromAddress:  from,
		adminAddress: strings.TrimSpace(cfg.AdminAddress),
	}, nil
}

// SendOrderConfirmation emails the order summary to the contact, with the
// admin address in copy when configured.
func (m *SendGridMailer) SendOrderConfirmation(ctx context.Context, order domain.Order) error {
	to := strings.TrimSpace(order.Contact.Email)
	if to == "" {
		return errors.New("mail: order contact has no email address")
	}

	recipient := order.Contact.Person
	if order.OrderType == domain.OrderTypeSchools && order.Contact.Organization != "" {
		recipient = order.Contact.Organization
	}

	subject := fmt.Sprintf("Order %s received", order.Number)
	plain := confirmationBody(order)

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(m.fromName, m.fromAddress),
		subject,
		sgmail.NewEmail(recipient, to),
		plain,
		fmt.Sprintf("<pre>%s</pre>", plain),
	)
	if m.adminAddress != "" && !strings.EqualFold(m.adminAddress, to) {
		message.Personalizations[0].AddCCs(sgmail.NewEmail("", m.adminAddress))
	}

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("mail: sendgrid send: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("mail: sendgrid send failed: status=%d body=%s", response.StatusCode, response.Body)
	}
	return nil
}

func confirmationBody(order domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", order.Contact.Person)
	fmt.Fprintf(&b, "We received your order %s.\n\n", order.Number)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "- %s (%s): %d pieces\n", item.Name.EN, item.ProductCode, item.Quantity)
	}
	fmt.Fprintf(&b, "\nTotal quantity: %d\n", order.TotalQuantity)
	b.WriteString("\nWe will contact you once the order moves into production.\n")
	return b.String()
}
