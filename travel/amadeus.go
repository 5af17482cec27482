package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// amadeusToken obtains an OAuth access token from the Amadeus API.
func amadeusToken(ctx context.Context, client *http.Client, host, clientID, clientSecret string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	tokenURL := fmt.Sprintf("https://%s/v1/security/oauth2/token", host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("amadeus token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("amadeus token request returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("amadeus token response missing access_token")
	}

	return body.AccessToken, nil
}

// amadeusGet performs an authenticated GET against an Amadeus endpoint,
// refreshing the token and retrying once on 401.
func amadeusGet(ctx context.Context, client *http.Client, host, clientID, clientSecret, path string, params url.Values, out interface{}) error {
	token, err := amadeusToken(ctx, client, host, clientID, clientSecret)
	if err != nil {
		return err
	}

	do := func(token string) (*http.Response, error) {
		reqURL := fmt.Sprintf("https://%s%s?%s", host, path, params.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return client.Do(req)
	}

	resp, err := do(token)
	if err != nil {
		return fmt.Errorf("amadeus request failed: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		token, err = amadeusToken(ctx, client, host, clientID, clientSecret)
		if err != nil {
			return err
		}
		resp, err = do(token)
		if err != nil {
			return fmt.Errorf("amadeus request failed: %w", err)
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("amadeus %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode amadeus response: %w", err)
	}
	return nil
}

// resolveCityCode maps a free-form destination to an Amadeus city code
// via the reference-data locations endpoint. A bare three-letter input is
// treated as an IATA code directly.
func resolveCityCode(ctx context.Context, client *http.Client, host, clientID, clientSecret, destination string) (string, error) {
	city := destination
	if i := strings.Index(city, ","); i >= 0 {
		city = city[:i]
	}
	city = strings.TrimSpace(city)

	if len(city) == 3 && isAlpha(city) {
		return strings.ToUpper(city), nil
	}

	params := url.Values{}
	params.Set("subType", "CITY")
	params.Set("keyword", city)
	params.Set("page[limit]", "1")

	var body struct {
		Data []struct {
			IataCode string `json:"iataCode"`
		} `json:"data"`
	}
	if err := amadeusGet(ctx, client, host, clientID, clientSecret, "/v1/reference-data/locations", params, &body); err != nil {
		return "", err
	}
	if len(body.Data) == 0 || body.Data[0].IataCode == "" {
		return "", fmt.Errorf("no city code found for %q", city)
	}

	return body.Data[0].IataCode, nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return s != ""
}
