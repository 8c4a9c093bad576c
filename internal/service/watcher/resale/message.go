package resale

import (
	"fmt"
	"html"
	"strings"
)

// BuildMessage renders the notification body for one admitted offer in the
// HTML dialect the notification channel understands. Every dynamic value
// is escaped individually before insertion; the resource label doubles as
// the link text to the public resource page.
func BuildMessage(label, link string, offer EnrichedOffer) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(offer.OfferTypeDescription))
	fmt.Fprintf(&b, "<a href=\"%s\">%s</a>\n", html.EscapeString(link), html.EscapeString(label))

	if offer.HasSeat {
		if offer.Seat.Sector != "" {
			fmt.Fprintf(&b, "Sector: %s\n", html.EscapeString(offer.Seat.Sector))
		}
		if offer.Seat.Row != "" {
			fmt.Fprintf(&b, "Row: %s\n", html.EscapeString(offer.Seat.Row))
		}
		if offer.Seat.Seats != "" {
			fmt.Fprintf(&b, "Seats: %s\n", html.EscapeString(offer.Seat.Seats))
		}
	}

	fmt.Fprintf(&b, "Price: %.2f", offer.PriceMajor)

	return b.String()
}
