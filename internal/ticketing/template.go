package ticketing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"

	"frutico/backend/internal/models"
)

//go:embed templates/*.html
var templateFiles embed.FS

const (
	// QRContentID is the content id the email body uses to reference the inline QR image.
	QRContentID = "frutico-qr"
	QRFileName  = "frutico-ticket.png"
)

const (
	TicketStatePaid    = "paid"
	TicketStateUsed    = "used"
	TicketStatePending = "pending"
	TicketStateFailed  = "failed"
)

var locationLabels = map[string]string{
	models.LocationAnnanagar:  "Anna Nagar",
	models.LocationKulithalai: "Kulithalai",
}

// TicketView is the data a ticket document is rendered from.
type TicketView struct {
	Name       string
	Persons    int
	Location   string
	VisitDate  string
	Amount     string
	TicketID   string
	QRSrc      template.URL
	State      string
	StateLabel string
	Paid       bool
}

// Renderer produces ticket HTML documents.
type Renderer struct {
	dates *DateFormatter
	email *template.Template
	page  *template.Template
}

func NewRenderer(dates *DateFormatter) (*Renderer, error) {
	email, err := template.ParseFS(templateFiles, "templates/ticket_email.html")
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}
	page, err := template.ParseFS(templateFiles, "templates/ticket_page.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Renderer{dates: dates, email: email, page: page}, nil
}

// ViewFor builds the template data for an order.
func (r *Renderer) ViewFor(order models.Order) TicketView {
	state, label := ticketState(order)
	return TicketView{
		Name:       order.Name,
		Persons:    order.Persons,
		Location:   LocationLabel(order.Location),
		VisitDate:  r.dates.Format(order.VisitDate),
		Amount:     FormatAmount(order.Amount),
		TicketID:   TicketID(order.ID),
		State:      state,
		StateLabel: label,
		Paid:       order.IsPaid(),
	}
}

// RenderEmail renders the email body; the QR image is referenced by content id.
func (r *Renderer) RenderEmail(view TicketView) (string, error) {
	view.QRSrc = template.URL("cid:" + QRContentID)
	return r.execute(r.email, view)
}

// RenderPage renders the public ticket page; qrSrc may be empty for unpaid orders.
func (r *Renderer) RenderPage(view TicketView, qrSrc string) (string, error) {
	view.QRSrc = template.URL(qrSrc)
	return r.execute(r.page, view)
}

func (r *Renderer) execute(tmpl *template.Template, view TicketView) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render ticket: %w", err)
	}
	return buf.String(), nil
}

// LocationLabel maps a branch code to its display name.
func LocationLabel(code string) string {
	if label, ok := locationLabels[code]; ok {
		return label
	}
	return code
}

// FormatAmount renders a major-unit amount with two decimals.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

func ticketState(order models.Order) (string, string) {
	switch {
	case order.IsPaid() && order.IsUsed:
		return TicketStateUsed, "This ticket has already been used."
	case order.IsPaid():
		return TicketStatePaid, "Valid ticket"
	case order.Status == models.OrderStatusFailed:
		return TicketStateFailed, "Payment failed. This ticket is not valid."
	default:
		return TicketStatePending, "Payment pending. This ticket is not valid yet."
	}
}
