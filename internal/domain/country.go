package domain

import (
	"sort"
	"strings"
)

// CountryNames maps ISO 3166-1 alpha-2 codes to display names for prompts and summaries.
var CountryNames = map[string]string{
	"AE": "UAE",
	"AF": "Afghanistan",
	"AU": "Australia",
	"BR": "Brazil",
	"BY": "Belarus",
	"CA": "Canada",
	"CN": "China",
	"CU": "Cuba",
	"DE": "Germany",
	"EG": "Egypt",
	"FR": "France",
	"GB": "United Kingdom",
	"ID": "Indonesia",
	"IL": "Israel",
	"IN": "India",
	"IQ": "Iraq",
	"IR": "Iran",
	"JP": "Japan",
	"KP": "North Korea",
	"KR": "South Korea",
	"LY": "Libya",
	"MM": "Myanmar",
	"MY": "Malaysia",
	"PK": "Pakistan",
	"QA": "Qatar",
	"RU": "Russia",
	"SA": "Saudi Arabia",
	"SD": "Sudan",
	"SG": "Singapore",
	"SY": "Syria",
	"TR": "Turkey",
	"US": "United States",
	"VE": "Venezuela",
	"YE": "Yemen",
}

// CountryName returns the display name for code, or the code itself when unknown.
func CountryName(code string) string {
	code = NormalizeCountryCode(code)
	if code == "" {
		return "Unknown"
	}
	if name, ok := CountryNames[code]; ok {
		return name
	}
	return code
}

// NormalizeCountryCode upper-cases and trims an ISO code.
func NormalizeCountryCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsAlpha2 reports whether code looks like an ISO 3166-1 alpha-2 code.
func IsAlpha2(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// CountrySet is the read-only set of flagged countries.
type CountrySet map[string]struct{}

// NewCountrySet normalizes codes and drops blanks.
func NewCountrySet(codes ...string) CountrySet {
	set := make(CountrySet, len(codes))
	for _, code := range codes {
		code = NormalizeCountryCode(code)
		if code == "" {
			continue
		}
		set[code] = struct{}{}
	}
	return set
}

// Has reports membership after normalization.
func (s CountrySet) Has(code string) bool {
	_, ok := s[NormalizeCountryCode(code)]
	return ok
}

// Codes returns the sorted members.
func (s CountrySet) Codes() []string {
	codes := make([]string, 0, len(s))
	for code := range s {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
