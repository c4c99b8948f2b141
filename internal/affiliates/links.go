// Package affiliates builds flight and hotel deep links for a derived trip.
package affiliates

import (
	"net/url"
	"strings"

	"surfalert/internal/config"
	"surfalert/internal/types"
)

const (
	aviasalesSearchURL = "https://www.aviasales.com/search"
	hotellookSearchURL = "https://search.hotellook.com/"
	bookingSearchURL   = "https://www.booking.com/searchresults.en.html"
	tpRedirectURL      = "https://tp.media/r"
)

// Builder renders partner links from affiliate configuration.
type Builder struct {
	cfg config.AffiliateConfig
}

// NewBuilder creates a Builder. With affiliates disabled the partner ids are
// ignored and only unattributed links are produced.
func NewBuilder(cfg config.AffiliateConfig) *Builder {
	if !cfg.EnableAffiliates {
		cfg.AviasalesMarker = ""
		cfg.HotellookPartner = ""
	}
	if cfg.Locale == "" {
		cfg.Locale = "en_US"
	}
	return &Builder{cfg: cfg}
}

// SubID is the tracking id attached to links generated for an alert.
func SubID(alertID string) string {
	return "alert_" + alertID
}

func validIATA(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

func ddmm(d types.Date) string {
	return d.Time().Format("0201")
}

// FlightLink returns an Aviasales round-trip search link, or "" when either
// airport code is not a three-letter IATA code. The marker is attached when
// configured but never required.
func (b *Builder) FlightLink(origin, dest string, trip types.TripDates, subID string) string {
	if !validIATA(origin) || !validIATA(dest) || trip.Depart.IsZero() {
		return ""
	}
	path := strings.ToUpper(origin) + ddmm(trip.Depart) + strings.ToUpper(dest)
	if !trip.Return.IsZero() {
		path += ddmm(trip.Return)
	}

	q := url.Values{}
	if b.cfg.AviasalesMarker != "" {
		q.Set("marker", b.cfg.AviasalesMarker)
	}
	if subID != "" {
		q.Set("sub_id", subID)
	}
	link := aviasalesSearchURL + "/" + path
	if len(q) > 0 {
		link += "?" + q.Encode()
	}
	return link
}

// HotelLink returns a hotel search link for the configured provider, or ""
// when hotel links are disabled or cannot be built.
func (b *Builder) HotelLink(dest string, trip types.TripDates, subID string) string {
	if !b.cfg.EnableHotelLinks || dest == "" || trip.Depart.IsZero() || trip.Return.IsZero() {
		return ""
	}
	if b.cfg.HotelProvider == types.HotelProviderBooking {
		return b.bookingLink(dest, trip, subID)
	}
	return b.hotellookLink(dest, trip, subID)
}

// hotellookLink goes through the tp.media redirector when both marker and
// partner id are set, and links Hotellook directly otherwise.
func (b *Builder) hotellookLink(dest string, trip types.TripDates, subID string) string {
	dest = strings.ToUpper(dest)
	if b.cfg.AviasalesMarker == "" || b.cfg.HotellookPartner == "" {
		q := url.Values{}
		q.Set("destination", dest)
		q.Set("checkin", trip.Depart.String())
		q.Set("checkout", trip.Return.String())
		q.Set("locale", b.cfg.Locale)
		return hotellookSearchURL + "?" + q.Encode()
	}

	target := url.Values{}
	target.Set("destination", dest)
	target.Set("checkIn", trip.Depart.String())
	target.Set("checkOut", trip.Return.String())
	target.Set("adults", "1")
	target.Set("rooms", "1")
	target.Set("children", "0")
	target.Set("locale", "en")
	target.Set("currency", "EUR")

	return b.redirect(b.cfg.HotellookPartner, hotellookSearchURL+"?"+target.Encode(), subID)
}

// bookingLink requires the marker; Booking.com has no unattributed fallback.
func (b *Builder) bookingLink(city string, trip types.TripDates, subID string) string {
	if b.cfg.AviasalesMarker == "" {
		return ""
	}
	target := url.Values{}
	target.Set("ss", city)
	target.Set("checkin", trip.Depart.String())
	target.Set("checkout", trip.Return.String())
	target.Set("group_adults", "2")
	target.Set("no_rooms", "1")
	target.Set("group_children", "0")

	return b.redirect("booking", bookingSearchURL+"?"+target.Encode(), subID)
}

func (b *Builder) redirect(partner, target, subID string) string {
	q := url.Values{}
	q.Set("marker", b.cfg.AviasalesMarker)
	q.Set("p", partner)
	q.Set("u", target)
	if subID != "" {
		q.Set("sub_id", subID)
	}
	return tpRedirectURL + "?" + q.Encode()
}

// Links derives both links for trip.
func (b *Builder) Links(origin, dest string, trip types.TripDates, subID string) types.BookingLinks {
	return types.BookingLinks{
		Trip:       trip,
		FlightLink: b.FlightLink(origin, dest, trip, subID),
		HotelLink:  b.HotelLink(dest, trip, subID),
	}
}
