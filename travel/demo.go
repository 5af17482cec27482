package travel

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// demoMarker is appended to every demo-mode result so downstream quality
// classification can tell generated samples from live API data.
const demoMarker = "\n\n[DEMO DATA - For planning purposes only. Configure API credentials for live results.]"

// demoRand returns a rand.Rand seeded from the given parts, so demo data
// is stable for a given request and repeated runs produce identical plans.
func demoRand(parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
		_, _ = h.Write([]byte{0})
	}
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// validDate checks a YYYY-MM-DD calendar date. Absence of a field is the
// caller's concern; this only rejects malformed values.
func validDate(value string) error {
	if !dateRe.MatchString(value) {
		return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("invalid date %q: %w", value, err)
	}
	return nil
}

// cityFromDestination extracts a city-like name from a free-form
// destination string ("Paris, France" -> "Paris").
func cityFromDestination(destination string) string {
	city := destination
	if i := strings.Index(city, ","); i >= 0 {
		city = city[:i]
	}
	return strings.TrimSpace(city)
}
