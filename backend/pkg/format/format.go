// Package format turns raw record fields into the strings printed in contracts.
// Every function is pure.
package format

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Missing marks a unit-name part that could not be extracted.
const Missing = "N/A"

// UnknownBrowser is returned when no known browser token matches.
const UnknownBrowser = "Desconocido"

var months = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Currency renders an amount in euros with no decimals and Spanish grouping.
func Currency(amount decimal.Decimal) string {
	return Number(amount) + " €"
}

// Number renders an integer amount with Spanish thousands separators.
func Number(amount decimal.Decimal) string {
	p := message.NewPrinter(language.Spanish)
	return p.Sprintf("%d", amount.Round(0).IntPart())
}

// Percent renders a percentage with two decimals and a comma separator.
func Percent(p decimal.Decimal) string {
	return strings.Replace(p.StringFixed(2), ".", ",", 1) + " %"
}

// Area renders square meters, or Undetermined text when zero.
func Area(m2 decimal.Decimal, fallback string) string {
	if m2.IsZero() {
		return fallback
	}
	return strings.Replace(m2.StringFixed(2), ".", ",", 1) + " m²"
}

// LongDate renders "DD de <mes> de YYYY".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%02d de %s de %d", t.Day(), months[t.Month()-1], t.Year())
}

// DateTime renders the long date followed by the time of day.
func DateTime(t time.Time) string {
	return LongDate(t) + " a las " + t.Format("15:04:05")
}

// ContractNumber builds CONT-{YYYY}{MM}-{last six characters of the reservation id, uppercased}.
func ContractNumber(reservationID string, at time.Time) string {
	suffix := []rune(reservationID)
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return fmt.Sprintf("CONT-%d%02d-%s", at.Year(), int(at.Month()), strings.ToUpper(string(suffix)))
}

// UnitParts are the descriptors extracted from a free-text unit name.
type UnitParts struct {
	Block string
	Floor string
	Door  string
}

var (
	blockPattern = regexp.MustCompile(`(?i)bloque\s+([a-z0-9]+)`)
	floorPattern = regexp.MustCompile(`-\s*([^\s-]+)`)
	doorPattern  = regexp.MustCompile(`(?i)-\s*[^\s-]+\s+([a-z0-9]+)\s*$`)
)

// ParseUnitName extracts block, floor and door from names like "Bloque A - Cuarto A".
// Parts that do not match are Missing.
func ParseUnitName(name string) UnitParts {
	parts := UnitParts{Block: Missing, Floor: Missing, Door: Missing}
	if m := blockPattern.FindStringSubmatch(name); m != nil {
		parts.Block = strings.ToUpper(m[1])
	}
	if m := floorPattern.FindStringSubmatch(name); m != nil {
		parts.Floor = m[1]
	}
	if m := doorPattern.FindStringSubmatch(name); m != nil {
		parts.Door = strings.ToUpper(m[1])
	}
	return parts
}

// Address joins the non-blank parts with ", ".
func Address(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// FullName joins name and surname.
func FullName(name, surname string) string {
	return strings.TrimSpace(strings.TrimSpace(name) + " " + strings.TrimSpace(surname))
}

// AddOns describes the parking spot and storage unit included in a reservation.
func AddOns(parking bool, parkingID string, storage bool, storageID string) string {
	var items []string
	if parking {
		items = append(items, strings.TrimSpace("Plaza de garaje "+parkingID))
	}
	if storage {
		items = append(items, strings.TrimSpace("Trastero "+storageID))
	}
	if len(items) == 0 {
		return "Ninguno"
	}
	return strings.Join(items, ", ")
}

var browsers = []struct {
	token string
	name  string
}{
	{"Edg", "Microsoft Edge"},
	{"OPR", "Opera"},
	{"Opera", "Opera"},
	{"Chrome", "Google Chrome"},
	{"Firefox", "Mozilla Firefox"},
	{"Safari", "Safari"},
}

// Browser derives a browser name from a User-Agent header.
func Browser(userAgent string) string {
	for _, b := range browsers {
		if strings.Contains(userAgent, b.token) {
			return b.name
		}
	}
	return UnknownBrowser
}

// ShortHash returns the first n characters of a hash.
func ShortHash(hash string, n int) string {
	if len(hash) <= n {
		return hash
	}
	return hash[:n]
}

// Bytes renders a payload size.
func Bytes(n int) string {
	return Number(decimal.NewFromInt(int64(n))) + " bytes"
}
