package ticketing

import (
	"strings"
	"time"
	_ "time/tzdata"
)

const ticketIDLen = 8

// TicketURL is the retrieval link encoded into a ticket's QR code.
func TicketURL(baseURL, id string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/ticket/" + strings.TrimSpace(id)
}

// TicketID is the short code printed on a ticket: the first characters of the record id, upper-cased.
func TicketID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > ticketIDLen {
		id = id[:ticketIDLen]
	}
	return strings.ToUpper(id)
}

// MinorToMajor converts an amount in paise (or cents) to rupees (or dollars).
func MinorToMajor(minor int64) float64 {
	return float64(minor) / 100
}

// DateFormatter renders visit dates in the business's own timezone so a
// midnight-UTC date does not display as the previous day.
type DateFormatter struct {
	loc *time.Location
}

func NewDateFormatter(timezone string) (*DateFormatter, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &DateFormatter{loc: loc}, nil
}

// Format renders t like "Sunday, 10 March 2024".
func (f *DateFormatter) Format(t time.Time) string {
	return t.In(f.loc).Format("Monday, 02 January 2006")
}
