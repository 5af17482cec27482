package travel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HotelFinder searches for hotel offers. Live mode uses the Amadeus
// hotel-list and hotel-offers endpoints; demo mode generates seeded
// sample properties.
type HotelFinder struct {
	clientID     string
	clientSecret string
	host         string
	httpClient   *http.Client
	live         bool
}

// NewHotelFinder creates a HotelFinder. Live or demo mode is fixed at
// construction from cfg.
func NewHotelFinder(cfg Config) *HotelFinder {
	return &HotelFinder{
		clientID:     cfg.AmadeusClientID,
		clientSecret: cfg.AmadeusClientSecret,
		host:         cfg.host(),
		httpClient:   cfg.client(),
		live:         cfg.amadeusLive(),
	}
}

// Name implements Tool.
func (h *HotelFinder) Name() string { return "find_hotels" }

// Call searches for hotels. Required args: destination, check_in,
// check_out.
func (h *HotelFinder) Call(ctx context.Context, args map[string]string) (string, error) {
	destination := args[FieldDestination]
	checkIn := args[FieldCheckIn]
	checkOut := args[FieldCheckOut]

	if err := validDate(checkIn); err != nil {
		return "", fmt.Errorf("check_in: %w", err)
	}
	if err := validDate(checkOut); err != nil {
		return "", fmt.Errorf("check_out: %w", err)
	}

	if !h.live {
		return h.demoHotels(destination, checkIn, checkOut), nil
	}

	return h.liveHotels(ctx, destination, checkIn, checkOut)
}

func (h *HotelFinder) liveHotels(ctx context.Context, destination, checkIn, checkOut string) (string, error) {
	cityCode, err := resolveCityCode(ctx, h.httpClient, h.host, h.clientID, h.clientSecret, destination)
	if err != nil {
		return "", err
	}

	listParams := url.Values{}
	listParams.Set("cityCode", cityCode)

	var hotelList struct {
		Data []struct {
			HotelID string `json:"hotelId"`
			Name    string `json:"name"`
		} `json:"data"`
	}
	if err := amadeusGet(ctx, h.httpClient, h.host, h.clientID, h.clientSecret, "/v1/reference-data/locations/hotels/by-city", listParams, &hotelList); err != nil {
		return "", err
	}
	if len(hotelList.Data) == 0 {
		return fmt.Sprintf("No hotels found in %s.", destination), nil
	}

	var ids []string
	for _, hotel := range hotelList.Data {
		ids = append(ids, hotel.HotelID)
		if len(ids) >= 12 {
			break
		}
	}

	offerParams := url.Values{}
	offerParams.Set("hotelIds", strings.Join(ids, ","))
	offerParams.Set("checkInDate", checkIn)
	offerParams.Set("checkOutDate", checkOut)
	offerParams.Set("adults", "1")

	var offers struct {
		Data []struct {
			Hotel struct {
				Name string `json:"name"`
			} `json:"hotel"`
			Offers []struct {
				Price struct {
					Total    string `json:"total"`
					Currency string `json:"currency"`
				} `json:"price"`
			} `json:"offers"`
		} `json:"data"`
	}
	if err := amadeusGet(ctx, h.httpClient, h.host, h.clientID, h.clientSecret, "/v3/shopping/hotel-offers", offerParams, &offers); err != nil {
		return "", err
	}
	if len(offers.Data) == 0 {
		return fmt.Sprintf("No hotel offers found in %s for %s to %s.", destination, checkIn, checkOut), nil
	}

	var lines []string
	for idx, entry := range offers.Data {
		if idx >= 5 {
			break
		}
		price := "price unavailable"
		if len(entry.Offers) > 0 {
			p := entry.Offers[0].Price
			price = fmt.Sprintf("%s %s total", p.Total, p.Currency)
		}
		lines = append(lines, fmt.Sprintf("%d. %s - %s", idx+1, entry.Hotel.Name, price))
	}

	return strings.Join(lines, "\n"), nil
}

// demoHotels generates seeded sample properties spanning price tiers.
func (h *HotelFinder) demoHotels(destination, checkIn, checkOut string) string {
	rnd := demoRand(destination, checkIn, checkOut)
	city := cityFromDestination(destination)

	nights := 1
	in, errIn := time.Parse("2006-01-02", checkIn)
	out, errOut := time.Parse("2006-01-02", checkOut)
	if errIn == nil && errOut == nil {
		if n := int(out.Sub(in).Hours() / 24); n > 0 {
			nights = n
		}
	}

	archetypes := []struct {
		name     string
		tier     string
		min, max int
	}{
		{"Grand Hotel", "luxury", 200, 400},
		{"Comfort Inn", "mid-range", 80, 150},
		{"Budget Hostel", "budget", 30, 60},
		{"Boutique Suites", "mid-range", 120, 200},
		{"Downtown Lodge", "budget", 50, 90},
	}

	var lines []string
	for idx, a := range archetypes {
		perNight := a.min + rnd.Intn(a.max-a.min+1)
		lines = append(lines, fmt.Sprintf("%d. %s %s (%s) - $%d/night, $%d total for %d night(s)",
			idx+1, city, a.name, a.tier, perNight, perNight*nights, nights))
	}

	return strings.Join(lines, "\n") + demoMarker
}
