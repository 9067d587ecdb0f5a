// Package normalize canonicalizes heterogeneous ledger fields into the
// forms the matching core expects. All functions are pure and never
// fail: unparsable input yields a defined empty value (0.0 for amounts,
// a zero time for dates) rather than an error. Callers relying on this
// leniency should treat a zero value as "absent", not as data loss.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	amountRe     = regexp.MustCompile(`[^\d.\-]`)
	alnumRe      = regexp.MustCompile(`[^a-z0-9\s]`)
	wordRe       = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Legal-entity suffixes stripped from customer names, applied in order
// so stacked suffixes ("Acme Co Inc") fall off one at a time.
var nameSuffixRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+inc\.?$`),
	regexp.MustCompile(`(?i)\s+llc\.?$`),
	regexp.MustCompile(`(?i)\s+corp\.?$`),
	regexp.MustCompile(`(?i)\s+corporation$`),
	regexp.MustCompile(`(?i)\s+ltd\.?$`),
	regexp.MustCompile(`(?i)\s+limited$`),
	regexp.MustCompile(`(?i)\s+co\.?$`),
	regexp.MustCompile(`(?i)\s+company$`),
}

// Date formats tried after RFC 3339, in order. MM/DD/YYYY is tried
// before DD/MM/YYYY, so an ambiguous slash date reads as US-style.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
}

// Amount parses a monetary value out of free text, stripping currency
// symbols, commas, and anything else that is not a digit, sign, or
// decimal point. Unparsable or empty input yields 0.0.
func Amount(s string) float64 {
	cleaned := amountRe.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0.0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0.0
	}
	return v
}

// Date parses a calendar date from a string, trying ISO-8601 first and
// then the common slash formats. The result is truncated to a UTC
// calendar date. Returns false when nothing matches.
func Date(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Day(t), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), true
		}
	}
	return time.Time{}, false
}

// DateFromEpoch converts a Unix timestamp in seconds to a UTC calendar
// date.
func DateFromEpoch(sec int64) time.Time {
	return Day(time.Unix(sec, 0).UTC())
}

// Day truncates a time to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed whole-day difference a minus b.
func DaysBetween(a, b time.Time) int {
	return int(Day(a).Sub(Day(b)).Hours() / 24)
}

// String lowercases, strips every character outside [a-z0-9\s],
// collapses whitespace runs to a single space, and trims. Idempotent.
func String(s string) string {
	s = strings.ToLower(s)
	s = alnumRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CustomerName normalizes a customer display name for matching,
// removing trailing legal-entity suffixes (Inc, LLC, Corp, ...) before
// the final punctuation and whitespace cleanup.
func CustomerName(name string) string {
	if name == "" {
		return ""
	}
	name = strings.ToLower(name)
	for _, re := range nameSuffixRes {
		name = re.ReplaceAllString(name, "")
	}
	name = wordRe.ReplaceAllString(name, "")
	name = whitespaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// Alternate metadata key spellings scanned by CustomerInfo, in order.
var (
	customerIDKeys   = []string{"customer_id", "customerId", "customer", "client_id", "clientId"}
	customerNameKeys = []string{"customer_name", "customerName", "name", "client_name", "clientName"}
)

// CustomerInfo scans metadata for a customer id and name under their
// common alternate spellings, returning the first hit of each.
func CustomerInfo(metadata map[string]string) (id, name string) {
	if len(metadata) == 0 {
		return "", ""
	}
	for _, key := range customerIDKeys {
		if v, ok := metadata[key]; ok {
			id = v
			break
		}
	}
	for _, key := range customerNameKeys {
		if v, ok := metadata[key]; ok {
			name = v
			break
		}
	}
	return id, name
}
