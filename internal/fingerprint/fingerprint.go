// Package fingerprint maps proxies to a country and the browser locale,
// timezone and screen size that match it.
package fingerprint

import (
	"sort"
	"strings"
)

// DefaultCountry is used when a proxy's country cannot be resolved.
const DefaultCountry = "US"

// Screen is a window size in pixels.
type Screen struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Fingerprint is the locale profile presented for one country.
type Fingerprint struct {
	Country  string `json:"country" yaml:"country"`
	Timezone string `json:"timezone" yaml:"timezone"`
	Locale   string `json:"locale" yaml:"locale"`
	Screen   Screen `json:"screen" yaml:"screen"`
}

var fullHD = Screen{Width: 1920, Height: 1080}

var table = map[string]Fingerprint{
	"US": {Country: "US", Timezone: "America/New_York", Locale: "en-US", Screen: fullHD},
	"GB": {Country: "GB", Timezone: "Europe/London", Locale: "en-GB", Screen: fullHD},
	"DE": {Country: "DE", Timezone: "Europe/Berlin", Locale: "de-DE", Screen: fullHD},
	"FR": {Country: "FR", Timezone: "Europe/Paris", Locale: "fr-FR", Screen: fullHD},
	"NL": {Country: "NL", Timezone: "Europe/Amsterdam", Locale: "nl-NL", Screen: fullHD},
	"CA": {Country: "CA", Timezone: "America/Toronto", Locale: "en-CA", Screen: fullHD},
	"AU": {Country: "AU", Timezone: "Australia/Sydney", Locale: "en-AU", Screen: fullHD},
	"JP": {Country: "JP", Timezone: "Asia/Tokyo", Locale: "ja-JP", Screen: fullHD},
	"IN": {Country: "IN", Timezone: "Asia/Kolkata", Locale: "en-IN", Screen: Screen{Width: 1366, Height: 768}},
	"BR": {Country: "BR", Timezone: "America/Sao_Paulo", Locale: "pt-BR", Screen: Screen{Width: 1366, Height: 768}},
	"RU": {Country: "RU", Timezone: "Europe/Moscow", Locale: "ru-RU", Screen: fullHD},
	"IT": {Country: "IT", Timezone: "Europe/Rome", Locale: "it-IT", Screen: fullHD},
	"ES": {Country: "ES", Timezone: "Europe/Madrid", Locale: "es-ES", Screen: fullHD},
}

// Lookup returns the fingerprint for an ISO country code.
func Lookup(country string) (Fingerprint, bool) {
	fp, ok := table[strings.ToUpper(strings.TrimSpace(country))]
	return fp, ok
}

// ForCountry returns the fingerprint for country, or the US entry.
func ForCountry(country string) Fingerprint {
	if fp, ok := Lookup(country); ok {
		return fp
	}
	return Default()
}

// Default returns the US fingerprint.
func Default() Fingerprint {
	return table[DefaultCountry]
}

// Countries returns the supported country codes, sorted.
func Countries() []string {
	codes := make([]string, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
