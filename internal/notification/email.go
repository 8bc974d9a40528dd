package notification

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/infoshop/orderflow/internal/identity"
	"github.com/infoshop/orderflow/internal/order/domain"
)

var orderEmailTmpl = template.Must(template.New("order").Parse(`<h1>Thank you for shopping with us</h1>
<p>Hi {{.Name}},</p>
<p>We have processed your order of {{.CreatedAt}}.</p>
<h2>Order {{.OrderID}}</h2>
<table>
<thead><tr><td><strong>Product</strong></td><td><strong>Quantity</strong></td><td align="right"><strong>Price</strong></td></tr></thead>
<tbody>
{{range .Items}}<tr><td>{{.Name}}</td><td align="center">{{.Quantity}}</td><td align="right">{{.UnitPrice}}</td></tr>
{{end}}</tbody>
<tfoot>
<tr><td colspan="2">Items price:</td><td align="right">{{.ItemsPrice}}</td></tr>
<tr><td colspan="2">Shipping price:</td><td align="right">{{.ShippingPrice}}</td></tr>
<tr><td colspan="2">Tax price:</td><td align="right">{{.TaxPrice}}</td></tr>
<tr><td colspan="2"><strong>Total price:</strong></td><td align="right"><strong>{{.TotalPrice}}</strong></td></tr>
<tr><td colspan="2">Payment method:</td><td align="right">{{.PaymentMethod}}</td></tr>
</tfoot>
</table>
<h2>Shipping address</h2>
<p>{{.Ship.FullName}}<br/>{{.Ship.Street}}<br/>{{.Ship.City}}, {{.Ship.PostalCode}}<br/>{{.Ship.Country}}</p>
<hr/>
<p>Thanks for shopping with us.</p>`))

type emailData struct {
	Name          string
	OrderID       string
	CreatedAt     string
	Items         []domain.LineItem
	ItemsPrice    string
	ShippingPrice string
	TaxPrice      string
	TotalPrice    string
	PaymentMethod string
	Ship          domain.Address
}

func renderOrderEmail(contact identity.Contact, snapshot domain.OrderSnapshot) string {
	data := emailData{
		Name:          contact.Name,
		OrderID:       snapshot.OrderID,
		CreatedAt:     snapshot.CreatedAt.Format("2006-01-02"),
		Items:         snapshot.Items,
		ItemsPrice:    snapshot.Prices.Items.StringFixed(2),
		ShippingPrice: snapshot.Prices.Shipping.StringFixed(2),
		TaxPrice:      snapshot.Prices.Tax.StringFixed(2),
		TotalPrice:    snapshot.Prices.Total.StringFixed(2),
		PaymentMethod: snapshot.PaymentMethod,
		Ship:          snapshot.ShippingAddress,
	}

	var b strings.Builder
	if err := orderEmailTmpl.Execute(&b, data); err != nil {
		return fmt.Sprintf("<p>Order %s confirmed.</p>", snapshot.OrderID)
	}
	return b.String()
}

// SMTPMailer sends through a plain SMTP relay. No retries: the dispatcher
// treats send failures as best-effort.
type SMTPMailer struct {
	addr string
	from string
}

func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

func (m *SMTPMailer) Send(_ context.Context, email Email) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		m.from, email.To, email.Subject, email.HTML)
	return smtp.SendMail(m.addr, nil, m.from, []string{extractAddr(email.To)}, []byte(msg))
}

// LogMailer is the transport for environments without an SMTP relay; it
// logs instead of sending.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, email Email) error {
	m.log.Info("email (not sent, log transport)", "to", email.To, "subject", email.Subject)
	return nil
}

func extractAddr(to string) string {
	if i := strings.Index(to, "<"); i >= 0 {
		if j := strings.Index(to[i:], ">"); j > 0 {
			return to[i+1 : i+j]
		}
	}
	return to
}
