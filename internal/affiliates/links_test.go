package affiliates

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surfalert/internal/config"
	"surfalert/internal/types"
)

var trip = types.TripDates{
	Depart: types.MustParseDate("2026-06-05"),
	Return: types.MustParseDate("2026-06-08"),
	Length: 3,
}

func TestFlightLink(t *testing.T) {
	b := NewBuilder(config.AffiliateConfig{EnableAffiliates: true, AviasalesMarker: "12345"})

	link := b.FlightLink("lhr", "LIS", trip, SubID("a1"))
	assert.Equal(t, "https://www.aviasales.com/search/LHR0506LIS0806?marker=12345&sub_id=alert_a1", link)
}

func TestFlightLinkWithoutMarker(t *testing.T) {
	b := NewBuilder(config.AffiliateConfig{})

	assert.Equal(t, "https://www.aviasales.com/search/LHR0506LIS0806", b.FlightLink("LHR", "LIS", trip, ""))
}

func TestFlightLinkRejectsBadCodes(t *testing.T) {
	b := NewBuilder(config.AffiliateConfig{})

	assert.Empty(t, b.FlightLink("", "LIS", trip, ""))
	assert.Empty(t, b.FlightLink("LONDON", "LIS", trip, ""))
	assert.Empty(t, b.FlightLink("LH1", "LIS", trip, ""))
	assert.Empty(t, b.FlightLink("LHR", "LIS", types.TripDates{}, ""))
}

func TestHotelLinkDisabled(t *testing.T) {
	b := NewBuilder(config.AffiliateConfig{EnableAffiliates: true, AviasalesMarker: "m", HotellookPartner: "p"})
	assert.Empty(t, b.HotelLink("LIS", trip, ""))
}

func TestHotellookDirectFallback(t *testing.T) {
	b := NewBuilder(config.AffiliateConfig{EnableHotelLinks: true, HotelProvider: types.HotelProviderHotellook})

	link, err := url.Parse(b.HotelLink("lis", trip, "sub"))
	require.NoError(t, err)
	assert.Equal(t, "search.hotellook.com", link.Host)
	q := link.Query()
	assert.Equal(t, "LIS", q.Get("destination"))
	assert.Equal(t, "2026-06-05", q.Get("checkin"))
	assert.Equal(t, "2026-06-08", q.Get("checkout"))
	assert.Equal(t, "en_US", q.Get("locale"))
}

func TestHotellookViaRedirector(t *testing.T) {
	b := NewBuilder(config.AffiliateConfig{
		EnableAffiliates: true,
		AviasalesMarker:  "m1",
		HotellookPartner: "4115",
		EnableHotelLinks: true,
		HotelProvider:    types.HotelProviderHotellook,
	})

	link, err := url.Parse(b.HotelLink("LIS", trip, "alert_a1"))
	require.NoError(t, err)
	assert.Equal(t, "tp.media", link.Host)
	q := link.Query()
	assert.Equal(t, "m1", q.Get("marker"))
	assert.Equal(t, "4115", q.Get("p"))
	assert.Equal(t, "alert_a1", q.Get("sub_id"))

	target, err := url.Parse(q.Get("u"))
	require.NoError(t, err)
	assert.Equal(t, "2026-06-05", target.Query().Get("checkIn"))
}

func TestBookingLink(t *testing.T) {
	cfg := config.AffiliateConfig{EnableAffiliates: true, EnableHotelLinks: true, HotelProvider: types.HotelProviderBooking}

	assert.Empty(t, NewBuilder(cfg).HotelLink("Lisbon", trip, ""), "booking requires a marker")

	cfg.AviasalesMarker = "m1"
	link, err := url.Parse(NewBuilder(cfg).HotelLink("Lisbon", trip, ""))
	require.NoError(t, err)
	q := link.Query()
	assert.Equal(t, "booking", q.Get("p"))

	target, err := url.Parse(q.Get("u"))
	require.NoError(t, err)
	assert.Equal(t, "www.booking.com", target.Host)
	assert.Equal(t, "Lisbon", target.Query().Get("ss"))
	assert.Equal(t, "2", target.Query().Get("group_adults"))
}

func TestAffiliatesDisabledDropsAttribution(t *testing.T) {
	cfg := config.AffiliateConfig{
		AviasalesMarker:  "m1",
		HotellookPartner: "4115",
		EnableHotelLinks: true,
		HotelProvider:    types.HotelProviderBooking,
	}
	b := NewBuilder(cfg)

	assert.Empty(t, b.HotelLink("Lisbon", trip, ""), "booking needs affiliates enabled")
	assert.Equal(t, "https://www.aviasales.com/search/LHR0506LIS0806", b.FlightLink("LHR", "LIS", trip, ""))

	cfg.HotelProvider = types.HotelProviderHotellook
	link, err := url.Parse(NewBuilder(cfg).HotelLink("LIS", trip, ""))
	require.NoError(t, err)
	assert.Equal(t, "search.hotellook.com", link.Host)
	assert.Empty(t, link.Query().Get("marker"))
}

func TestLinks(t *testing.T) {
	b := NewBuilder(config.AffiliateConfig{})
	links := b.Links("LHR", "LIS", trip, "")
	assert.Equal(t, trip, links.Trip)
	assert.NotEmpty(t, links.FlightLink)
	assert.Empty(t, links.HotelLink)
}
