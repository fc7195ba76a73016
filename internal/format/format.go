// Package format holds the display helpers used when rendering chat replies and
// price listings: currency amounts, locale dates and capitalized crop names.
package format

import (
	"errors"
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// RupeeSymbol is the default currency symbol for mandi prices.
const RupeeSymbol = "₹"

// DefaultLocale is the regional convention used for dates when none is configured.
const DefaultLocale = "en-IN"

var errZeroTime = errors.New("format: zero time")

// Currency renders amount with the symbol and exactly two decimal places.
func Currency(symbol string, amount decimal.Decimal) string {
	return symbol + amount.StringFixed(2)
}

// Capitalize upper-cases the first rune of s and leaves the rest untouched.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// DateFormatter renders a point in time for display.
type DateFormatter interface {
	FormatDate(t time.Time) (string, error)
}

// Every supported region orders dates day/month/year; only padding and separators vary.
var regionLayouts = map[string]string{
	"IN": "2/1/2006",
	"GB": "02/01/2006",
	"AU": "02/01/2006",
	"FR": "02/01/2006",
	"DE": "2.1.2006",
	"NL": "2-1-2006",
}

const defaultLayout = "02/01/2006"

// LocaleDate formats dates in day/month/year order for a BCP 47 locale.
type LocaleDate struct {
	tag    language.Tag
	layout string
}

var _ DateFormatter = (*LocaleDate)(nil)

// NewLocaleDate parses locale (e.g. "en-IN") and picks the matching layout.
func NewLocaleDate(locale string) (*LocaleDate, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("format: parse locale %q: %w", locale, err)
	}
	layout := defaultLayout
	if region, conf := tag.Region(); conf != language.No {
		if l, ok := regionLayouts[region.String()]; ok {
			layout = l
		}
	}
	return &LocaleDate{tag: tag, layout: layout}, nil
}

// Locale returns the canonical locale tag.
func (d *LocaleDate) Locale() string {
	return d.tag.String()
}

// FormatDate renders t, e.g. 16/10/2026 for en-IN.
func (d *LocaleDate) FormatDate(t time.Time) (string, error) {
	if d == nil {
		return "", errors.New("format: nil date formatter")
	}
	if t.IsZero() {
		return "", errZeroTime
	}
	return t.Format(d.layout), nil
}
