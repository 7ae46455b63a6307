package mail

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

// OrderMailer composes order confirmations. A nil client disables sending.
type OrderMailer struct {
	client EmailClient
	from   string
	logger *zap.Logger
}

func NewOrderMailer(client EmailClient, from string, logger *zap.Logger) *OrderMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderMailer{client: client, from: from, logger: logger.Named("mail")}
}

// SendConfirmation mails the order summary to the given address.
func (m *OrderMailer) SendConfirmation(ctx context.Context, to string, o *domain.Order) error {
	if m == nil || m.client == nil || to == "" {
		return nil
	}
	subject := fmt.Sprintf("Order %s confirmed", shortID(o.ID))
	if err := m.client.Send(ctx, m.from, to, subject, ConfirmationBody(o)); err != nil {
		return err
	}
	m.logger.Info("order confirmation sent", zap.String("order_id", o.ID))
	return nil
}

// ConfirmationBody renders the plain-text summary of an order.
func ConfirmationBody(o *domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order %s.\n\n", o.ID)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "%d x %s  %s\n", it.Quantity, it.Name, it.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", o.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Tax: %s\n", o.Tax.StringFixed(2))
	fmt.Fprintf(&b, "Shipping: %s\n", o.Shipping.StringFixed(2))
	fmt.Fprintf(&b, "Total: %s\n\n", o.Total.StringFixed(2))
	fmt.Fprintf(&b, "Ships to: %s\n", o.ShippingAddress)
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
