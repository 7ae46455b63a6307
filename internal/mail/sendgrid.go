// Package mail sends order confirmation mail through SendGrid.
package mail

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailClient delivers a single plain-text message.
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type SendGridClient struct {
	client *sendgrid.Client
}

func NewSendGridClient(apiKey string) *SendGridClient {
	return &SendGridClient{client: sendgrid.NewSendClient(apiKey)}
}

func (c *SendGridClient) Send(ctx context.Context, from, to, subject, body string) error {
	if from == "" {
		return errors.New("from address is empty")
	}
	if to == "" {
		return errors.New("to address is empty")
	}
	message := sgmail.NewSingleEmail(
		sgmail.NewEmail("Storefront", from),
		subject,
		sgmail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", html.EscapeString(body)),
	)

	resp, err := c.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", resp.StatusCode, resp.Body)
	}
	return nil
}
