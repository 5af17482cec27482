package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"
)

// WeatherChecker reports current conditions or a dated forecast. Live
// mode uses the OpenWeather API; demo mode generates seeded mock
// conditions.
type WeatherChecker struct {
	apiKey     string
	httpClient *http.Client
	live       bool
}

// NewWeatherChecker creates a WeatherChecker. Live or demo mode is
// fixed at construction from cfg.
func NewWeatherChecker(cfg Config) *WeatherChecker {
	return &WeatherChecker{
		apiKey:     cfg.OpenWeatherAPIKey,
		httpClient: cfg.client(),
		live:       !cfg.Offline && cfg.OpenWeatherAPIKey != "",
	}
}

// Name implements Tool.
func (w *WeatherChecker) Name() string { return "weather_checker" }

// Call reports weather. Required args: destination. Optional:
// depart_date — when present and within forecast range, returns the
// forecast for that date; otherwise current conditions.
func (w *WeatherChecker) Call(ctx context.Context, args map[string]string) (string, error) {
	destination := args[FieldDestination]
	date := args[FieldDepartDate]

	if date != "" {
		if err := validDate(date); err != nil {
			return "", fmt.Errorf("depart_date: %w", err)
		}
	}

	if !w.live {
		return w.demoWeather(destination, date), nil
	}

	return w.liveWeather(ctx, destination, date)
}

func (w *WeatherChecker) liveWeather(ctx context.Context, destination, date string) (string, error) {
	city := cityFromDestination(destination)

	if date == "" {
		return w.currentWeather(ctx, city)
	}

	target, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", date, err)
	}
	now := time.Now()
	if target.Before(now.Truncate(24 * time.Hour)) {
		return "", fmt.Errorf("historical data not supported for %s", date)
	}
	if target.After(now.Add(5 * 24 * time.Hour)) {
		// Beyond the 5-day forecast window; report current conditions
		// with a note instead of failing the dispatch.
		current, err := w.currentWeather(ctx, city)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s is beyond the forecast range. %s", date, current), nil
	}

	return w.forecast(ctx, city, date)
}

func (w *WeatherChecker) currentWeather(ctx context.Context, city string) (string, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", w.apiKey)
	params.Set("units", "metric")

	var body struct {
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
	}
	if err := w.get(ctx, "https://api.openweathermap.org/data/2.5/weather", params, &body); err != nil {
		return "", err
	}

	desc := "unknown conditions"
	if len(body.Weather) > 0 {
		desc = body.Weather[0].Description
	}
	return fmt.Sprintf("Current weather in %s: %s, %.1f°C, humidity %d%%",
		city, desc, body.Main.Temp, body.Main.Humidity), nil
}

// forecast returns the forecast entry closest to midday on the target
// date from the 3-hourly 5-day forecast feed.
func (w *WeatherChecker) forecast(ctx context.Context, city, date string) (string, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", w.apiKey)
	params.Set("units", "metric")

	var body struct {
		List []struct {
			DtTxt   string `json:"dt_txt"`
			Weather []struct {
				Description string `json:"description"`
			} `json:"weather"`
			Main struct {
				Temp     float64 `json:"temp"`
				Humidity int     `json:"humidity"`
			} `json:"main"`
		} `json:"list"`
	}
	if err := w.get(ctx, "https://api.openweathermap.org/data/2.5/forecast", params, &body); err != nil {
		return "", err
	}

	midday, _ := time.Parse("2006-01-02 15:04:05", date+" 12:00:00")
	bestIdx := -1
	bestDiff := math.MaxFloat64
	for idx, entry := range body.List {
		ts, err := time.Parse("2006-01-02 15:04:05", entry.DtTxt)
		if err != nil || ts.Format("2006-01-02") != date {
			continue
		}
		diff := math.Abs(ts.Sub(midday).Hours())
		if diff < bestDiff {
			bestDiff = diff
			bestIdx = idx
		}
	}
	if bestIdx < 0 {
		return fmt.Sprintf("No forecast available for %s on %s.", city, date), nil
	}

	entry := body.List[bestIdx]
	desc := "unknown conditions"
	if len(entry.Weather) > 0 {
		desc = entry.Weather[0].Description
	}
	return fmt.Sprintf("Forecast for %s on %s: %s, %.1f°C, humidity %d%%",
		city, date, desc, entry.Main.Temp, entry.Main.Humidity), nil
}

func (w *WeatherChecker) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openweather request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openweather returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode openweather response: %w", err)
	}
	return nil
}

// demoWeather generates seeded mock conditions.
func (w *WeatherChecker) demoWeather(destination, date string) string {
	seed := date
	if seed == "" {
		seed = "now"
	}
	rnd := demoRand(destination, seed)
	city := cityFromDestination(destination)

	descriptions := []string{
		"clear sky", "few clouds", "scattered clouds", "light rain",
		"moderate rain", "overcast clouds", "thunderstorm", "snow",
	}
	desc := descriptions[rnd.Intn(len(descriptions))]
	temp := 5 + rnd.Intn(26)
	humidity := 30 + rnd.Intn(61)

	if date == "" {
		return fmt.Sprintf("Mock current weather in %s: %s, %d°C, humidity %d%%",
			city, desc, temp, humidity)
	}
	return fmt.Sprintf("Mock forecast for %s on %s: %s, %d°C, humidity %d%%",
		city, date, desc, temp, humidity)
}
