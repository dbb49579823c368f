// Package extract provides heuristic text extraction for discovered leads:
// locations, prices, URL normalization, and source-type classification.
// Everything here is pure and deterministic.
package extract

import (
	"regexp"
	"strings"

	"github.com/timkosters/edge-city-finder/internal/model"
)

// LocationUnknown is returned when no location can be extracted.
const LocationUnknown = "Location Unknown"

// stateCodes lists the two-letter US state abbreviations in alphabetical
// order. The fallback scan walks this slice so the same text always yields
// the same state.
var stateCodes = []string{
	"AK", "AL", "AR", "AZ", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "IA", "ID", "IL", "IN", "KS", "KY", "LA", "MA", "MD",
	"ME", "MI", "MN", "MO", "MS", "MT", "NC", "ND", "NE", "NH",
	"NJ", "NM", "NV", "NY", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VA", "VT", "WA", "WI", "WV", "WY",
}

var usStates = func() map[string]bool {
	m := make(map[string]bool, len(stateCodes))
	for _, s := range stateCodes {
		m[s] = true
	}
	return m
}()

var cityStateRe = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s[A-Z][a-z]+)?),\s*([A-Z]{2})\b`)

// Location scans the combined title and text for a "City, ST" pattern with
// a valid US state code, falling back to any standalone state abbreviation.
// Returns LocationUnknown when nothing matches.
func Location(text, title string) string {
	combined := title + " " + text

	if m := cityStateRe.FindStringSubmatch(combined); m != nil {
		if usStates[m[2]] {
			return m[1] + ", " + m[2]
		}
	}

	for _, state := range stateCodes {
		if strings.Contains(combined, " "+state+" ") || strings.HasSuffix(combined, " "+state) {
			return state
		}
	}

	return LocationUnknown
}

var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$[\d,]+(?:\.\d+)?(?:\s*(?:million|M))?`),
	regexp.MustCompile(`(?i)asking\s+\$[\d,]+`),
	regexp.MustCompile(`(?i)listed\s+(?:at|for)\s+\$[\d,]+`),
}

// Price returns the first dollar-amount, "asking $X", or "listed at/for $X"
// match found in text, verbatim. Empty string when no price is present.
func Price(text string) string {
	for _, re := range pricePatterns {
		if m := re.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

// NormalizeURL strips the query string, fragment, and trailing slash so
// that URLs differing only in those collapse to one dedup key. The stored
// lead keeps its original URL; normalization is for dedup only.
func NormalizeURL(rawURL string) string {
	base := rawURL
	if idx := strings.Index(base, "?"); idx >= 0 {
		base = base[:idx]
	}
	if idx := strings.Index(base, "#"); idx >= 0 {
		base = base[:idx]
	}
	return strings.TrimRight(base, "/")
}

var listingPlatforms = []string{"loopnet", "crexi", "landwatch", "landsofamerica"}

var auctionPlatforms = []string{"auction.com", "ten-x", "hubzu"}

var newsKeywords = []string{"news", "journal", "times", "post", "herald", "nytimes", "wsj"}

// ClassifySource infers a lead's source type from its URL host and the
// discovery channel that produced it. Listing and auction platforms win
// over news-domain keywords; channels carrying "legal" or "foreclosure"
// imply a foreclosure source; everything else defaults to news.
func ClassifySource(rawURL, discoveredVia string) model.SourceType {
	lower := strings.ToLower(rawURL)

	for _, site := range listingPlatforms {
		if strings.Contains(lower, site) {
			return model.SourceListing
		}
	}
	for _, site := range auctionPlatforms {
		if strings.Contains(lower, site) {
			return model.SourceAuction
		}
	}
	for _, kw := range newsKeywords {
		if strings.Contains(lower, kw) {
			return model.SourceNews
		}
	}

	if strings.Contains(discoveredVia, "legal") || strings.Contains(discoveredVia, "foreclosure") {
		return model.SourceForeclosure
	}

	return model.SourceNews
}
