// Package notification turns committed order events into outbound messages.
// It sits strictly downstream of persistence: by the time an event reaches
// the dispatcher the transition is durable, so nothing here can affect an
// order, and a transport failure costs at most one email.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/infoshop/orderflow/internal/identity"
	"github.com/infoshop/orderflow/internal/order/domain"
)

// Mailer is the outbound transport. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

type Email struct {
	To      string
	Subject string
	HTML    string
}

// Dispatcher resolves the recipient from the order owner's contact identity
// and hands the rendered message to the transport.
type Dispatcher struct {
	log       *slog.Logger
	directory identity.Directory
	mailer    Mailer
}

func NewDispatcher(log *slog.Logger, directory identity.Directory, mailer Mailer) *Dispatcher {
	return &Dispatcher{log: log, directory: directory, mailer: mailer}
}

// Dispatch sends the email for one event. Transport failures are logged and
// absorbed: the order transition already happened and is not retried or
// rolled back on account of a failed notification.
func (d *Dispatcher) Dispatch(ctx context.Context, kind string, snapshot domain.OrderSnapshot) error {
	contact, err := d.directory.Contact(ctx, snapshot.OwnerUserID)
	if err != nil {
		return fmt.Errorf("resolve recipient for order %s: %w", snapshot.OrderID, err)
	}

	var subject string
	switch kind {
	case domain.EventOrderCreated:
		subject = fmt.Sprintf("New Order %s", snapshot.OrderID)
	case domain.EventOrderPaid:
		subject = fmt.Sprintf("Payment received for order %s", snapshot.OrderID)
	default:
		d.log.Warn("no notification defined for event", "type", kind)
		return nil
	}

	email := Email{
		To:      fmt.Sprintf("%s <%s>", contact.Name, contact.Email),
		Subject: subject,
		HTML:    renderOrderEmail(contact, snapshot),
	}
	if err := d.mailer.Send(ctx, email); err != nil {
		d.log.Error("email send failed", "order_id", snapshot.OrderID, "to", contact.Email, "err", err)
		return nil
	}

	d.log.Info("notification sent", "order_id", snapshot.OrderID, "kind", kind, "to", contact.Email)
	return nil
}
