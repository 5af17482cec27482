package travel

import (
	"net/http"
	"time"
)

// Config selects live or demo behavior for every tool, once, at
// construction time. A tool whose credentials are absent runs in demo
// mode for the lifetime of the process; there is no per-call probing.
type Config struct {
	// AmadeusClientID and AmadeusClientSecret enable live flight and
	// hotel search against the Amadeus API. When either is empty the
	// flight and hotel tools serve seeded demo data.
	AmadeusClientID     string
	AmadeusClientSecret string

	// AmadeusHost is the Amadeus API host. Defaults to the sandbox
	// ("test.api.amadeus.com").
	AmadeusHost string

	// OpenWeatherAPIKey enables live weather lookups. When empty the
	// weather tool serves seeded mock data.
	OpenWeatherAPIKey string

	// Offline forces every tool into demo mode regardless of
	// credentials, including the keyless Wikipedia attraction lookup.
	Offline bool

	// HTTPClient is used for all outbound requests. Defaults to a
	// client with a 15 second timeout.
	HTTPClient *http.Client

	// UserAgent identifies this application to public APIs that require
	// one (Wikipedia).
	UserAgent string
}

func (c Config) host() string {
	if c.AmadeusHost != "" {
		return c.AmadeusHost
	}
	return "test.api.amadeus.com"
}

func (c Config) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (c Config) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return "tripgraph/1.0 (travel itinerary planner)"
}

func (c Config) amadeusLive() bool {
	return !c.Offline && c.AmadeusClientID != "" && c.AmadeusClientSecret != ""
}

// DefaultRegistry builds a Registry with all four planning tools
// configured from cfg.
func DefaultRegistry(cfg Config) *Registry {
	reg := NewRegistry()
	_ = reg.Register(NewFlightFinder(cfg))
	_ = reg.Register(NewHotelFinder(cfg))
	_ = reg.Register(NewAttractionFinder(cfg))
	_ = reg.Register(NewWeatherChecker(cfg))
	return reg
}
