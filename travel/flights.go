package travel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// FlightFinder searches for flight offers.
//
// With Amadeus credentials configured it queries the flight-offers
// endpoint; otherwise it generates seeded demo offers so planning works
// end to end without keys.
type FlightFinder struct {
	clientID     string
	clientSecret string
	host         string
	httpClient   *http.Client
	live         bool
}

// NewFlightFinder creates a FlightFinder. Live or demo mode is fixed at
// construction from cfg.
func NewFlightFinder(cfg Config) *FlightFinder {
	return &FlightFinder{
		clientID:     cfg.AmadeusClientID,
		clientSecret: cfg.AmadeusClientSecret,
		host:         cfg.host(),
		httpClient:   cfg.client(),
		live:         cfg.amadeusLive(),
	}
}

// Name implements Tool.
func (f *FlightFinder) Name() string { return "find_flights" }

// Call searches for flights. Required args: origin, destination,
// depart_date. Optional: return_date. Returns up to three offers with
// price and segment details.
func (f *FlightFinder) Call(ctx context.Context, args map[string]string) (string, error) {
	origin := args[FieldOrigin]
	destination := args[FieldDestination]
	departDate := args[FieldDepartDate]
	returnDate := args[FieldReturnDate]

	if err := validDate(departDate); err != nil {
		return "", fmt.Errorf("depart_date: %w", err)
	}
	if returnDate != "" {
		if err := validDate(returnDate); err != nil {
			return "", fmt.Errorf("return_date: %w", err)
		}
	}

	if !f.live {
		return f.demoFlights(origin, destination, departDate, returnDate), nil
	}

	return f.liveFlights(ctx, origin, destination, departDate, returnDate)
}

func (f *FlightFinder) liveFlights(ctx context.Context, origin, destination, departDate, returnDate string) (string, error) {
	destCode, err := resolveCityCode(ctx, f.httpClient, f.host, f.clientID, f.clientSecret, destination)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("originLocationCode", strings.ToUpper(origin))
	params.Set("destinationLocationCode", destCode)
	params.Set("departureDate", departDate)
	params.Set("adults", "1")
	params.Set("max", "3")
	if returnDate != "" {
		params.Set("returnDate", returnDate)
	}

	var body struct {
		Data []struct {
			Price struct {
				GrandTotal string `json:"grandTotal"`
				Total      string `json:"total"`
			} `json:"price"`
			Itineraries []struct {
				Segments []struct {
					CarrierCode string `json:"carrierCode"`
					Number      string `json:"number"`
					Departure   struct {
						IataCode string `json:"iataCode"`
						At       string `json:"at"`
					} `json:"departure"`
					Arrival struct {
						IataCode string `json:"iataCode"`
						At       string `json:"at"`
					} `json:"arrival"`
				} `json:"segments"`
			} `json:"itineraries"`
		} `json:"data"`
	}
	if err := amadeusGet(ctx, f.httpClient, f.host, f.clientID, f.clientSecret, "/v2/shopping/flight-offers", params, &body); err != nil {
		return "", err
	}

	if len(body.Data) == 0 {
		return fmt.Sprintf("No flight offers found for %s -> %s on %s.", origin, destCode, departDate), nil
	}

	var sb strings.Builder
	for idx, offer := range body.Data {
		if idx >= 3 {
			break
		}
		price := offer.Price.GrandTotal
		if price == "" {
			price = offer.Price.Total
		}

		var segs []string
		for _, itin := range offer.Itineraries {
			for _, seg := range itin.Segments {
				segs = append(segs, fmt.Sprintf("%s%s: %s %s -> %s %s",
					seg.CarrierCode, seg.Number,
					seg.Departure.IataCode, seg.Departure.At,
					seg.Arrival.IataCode, seg.Arrival.At))
			}
		}

		if idx > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d. $%s - %s", idx+1, price, strings.Join(segs, " | "))
	}

	return sb.String(), nil
}

// demoFlights generates three seeded sample offers.
func (f *FlightFinder) demoFlights(origin, destination, departDate, returnDate string) string {
	rnd := demoRand(origin, destination, departDate, returnDate)

	carriers := []string{"AA", "DL", "UA", "BA", "LH", "AF", "KL"}
	basePrice := 200 + rnd.Intn(601)
	destCode := strings.ToUpper(cityFromDestination(destination))
	if len(destCode) > 3 {
		destCode = destCode[:3]
	}

	var lines []string
	for idx := 1; idx <= 3; idx++ {
		carrier := carriers[rnd.Intn(len(carriers))]
		flightNum := 100 + rnd.Intn(900)
		price := basePrice - 100 + rnd.Intn(301)
		depTime := fmt.Sprintf("%sT%02d:%02d:00", departDate, 6+rnd.Intn(15), rnd.Intn(60))
		arrTime := fmt.Sprintf("%sT%02d:%02d:00", departDate, 10+rnd.Intn(14), rnd.Intn(60))

		info := fmt.Sprintf("%s%d: %s %s -> %s %s", carrier, flightNum, origin, depTime, destCode, arrTime)
		if returnDate != "" {
			retDep := fmt.Sprintf("%sT%02d:%02d:00", returnDate, 6+rnd.Intn(15), rnd.Intn(60))
			retArr := fmt.Sprintf("%sT%02d:%02d:00", returnDate, 10+rnd.Intn(14), rnd.Intn(60))
			info = fmt.Sprintf("%s | %s%d: %s %s -> %s %s", info, carrier, flightNum+1, destCode, retDep, origin, retArr)
		}

		lines = append(lines, fmt.Sprintf("%d. $%d - %s", idx, price, info))
	}

	return strings.Join(lines, "\n") + demoMarker
}
