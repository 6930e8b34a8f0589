package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// priceRegex finds the first German-formatted price number in a string.
// It handles thousand separators (1.079) and decimal commas (119,00).
var priceRegex = regexp.MustCompile(`\d+(?:\.\d{3})*(?:,\d+)?`)

// ParsePrice cleans a German price string and converts it to a float64.
// It tolerates surrounding text like "Summe: EUR 1.079,00".
func ParsePrice(priceStr string) float64 {
	if priceStr == "" {
		return 0.0
	}

	found := priceRegex.FindString(priceStr)
	if found == "" {
		return 0.0
	}

	cleaned := strings.ReplaceAll(found, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0.0
	}
	return price
}

// ParseCurrency returns the currency code found in a price string, or ""
// when the string carries none (e.g. "Audible Guthaben").
func ParseCurrency(priceStr string) string {
	switch {
	case strings.Contains(priceStr, "EUR"), strings.Contains(priceStr, "€"):
		return "EUR"
	case strings.Contains(priceStr, "GBP"), strings.Contains(priceStr, "£"):
		return "GBP"
	case strings.Contains(priceStr, "USD"), strings.Contains(priceStr, "$"):
		return "USD"
	}
	return ""
}

// germanMonths maps the month names used on the order-history page.
var germanMonths = map[string]time.Month{
	"Januar":    time.January,
	"Februar":   time.February,
	"März":      time.March,
	"April":     time.April,
	"Mai":       time.May,
	"Juni":      time.June,
	"Juli":      time.July,
	"August":    time.August,
	"September": time.September,
	"Oktober":   time.October,
	"November":  time.November,
	"Dezember":  time.December,
}

// ParseOrderDate parses the German order date format '4. September 2018'.
func ParseOrderDate(dateStr string) (time.Time, error) {
	parts := strings.Fields(strings.TrimSpace(dateStr))
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("unexpected date format: %q", dateStr)
	}

	day, err := strconv.Atoi(strings.TrimSuffix(parts[0], "."))
	if err != nil {
		return time.Time{}, fmt.Errorf("unexpected day in date %q: %w", dateStr, err)
	}
	month, ok := germanMonths[parts[1]]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown month in date %q", dateStr)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("unexpected year in date %q: %w", dateStr, err)
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}

// HashAccount derives the account identifier stored in the persisted file.
// Only the hash leaves the process, never the email itself.
func HashAccount(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}
