// Package chatbot answers farmer questions from a fixed, ordered set of
// keyword rules backed by a read-only mandi price table.
package chatbot

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/format"
)

const (
	greetingReply = "Hello! I can help you with crop prices, farming advice, and selling crops."

	wheatSeasonReply = "🌾 **Wheat Harvest Season**\n\nBest time: **March – April** (Rabi crop)"
	riceSeasonReply  = "🌾 **Rice Harvest Season**\n\nBest time: **October – November** (Kharif crop)"
	seasonPrompt     = "🌱 Tell me the crop name to suggest the best season."

	sellingReply = "**How to Sell Crops on Kisan Mandi**\n\n" +
		"1. List crop\n" +
		"2. Set price\n" +
		"3. Connect buyers\n" +
		"4. Get paid securely"

	fallbackReply = "I didn't understand that. Try:\n" +
		"• current wheat price\n" +
		"• best season to harvest wheat"
)

var greetingWords = []string{"hi", "hello", "hey"}

// fallbackExamples fill the crop prompt when the table has fewer than three commodities.
var fallbackExamples = []string{"wheat", "rice", "maize"}

// Rule pairs an intent predicate with the reply it produces. Rules are
// evaluated in slice order and the first match wins.
type Rule struct {
	Intent  domain.Intent
	Match   func(text string) bool
	Respond func(text string) string
}

// Responder classifies free-text messages and builds canned replies.
// It is safe for concurrent use; all fields are read-only after construction.
type Responder struct {
	table    *domain.PriceTable
	matcher  Matcher
	dates    format.DateFormatter
	currency string
	now      func() time.Time
	rules    []Rule
}

// Option customizes a Responder.
type Option func(*Responder)

// WithMatcher swaps the keyword matching strategy.
func WithMatcher(m Matcher) Option {
	return func(r *Responder) {
		if m != nil {
			r.matcher = m
		}
	}
}

// WithDateFormatter sets the formatter for the "Updated" line of price replies.
func WithDateFormatter(f format.DateFormatter) Option {
	return func(r *Responder) { r.dates = f }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Responder) {
		if now != nil {
			r.now = now
		}
	}
}

// WithCurrencySymbol sets the symbol printed before prices.
func WithCurrencySymbol(symbol string) Option {
	return func(r *Responder) {
		if symbol != "" {
			r.currency = symbol
		}
	}
}

// NewResponder builds a Responder over table. A nil table behaves as empty.
func NewResponder(table *domain.PriceTable, opts ...Option) *Responder {
	if table == nil {
		table = &domain.PriceTable{}
	}
	r := &Responder{
		table:    table,
		matcher:  SubstringMatcher{},
		currency: format.RupeeSymbol,
		now:      time.Now,
	}
	if f, err := format.NewLocaleDate(format.DefaultLocale); err == nil {
		r.dates = f
	}
	for _, opt := range opts {
		opt(r)
	}
	r.rules = r.defaultRules()
	return r
}

func (r *Responder) defaultRules() []Rule {
	return []Rule{
		{
			Intent:  domain.IntentGreeting,
			Match:   func(text string) bool { return containsAny(r.matcher, text, greetingWords...) },
			Respond: func(string) string { return greetingReply },
		},
		{
			Intent:  domain.IntentPrice,
			Match:   func(text string) bool { return r.matcher.Matches("price", text) },
			Respond: r.priceReply,
		},
		{
			Intent:  domain.IntentSeason,
			Match:   func(text string) bool { return containsAny(r.matcher, text, "season", "harvest") },
			Respond: r.seasonReply,
		},
		{
			Intent:  domain.IntentSelling,
			Match:   func(text string) bool { return r.matcher.Matches("sell", text) },
			Respond: func(string) string { return sellingReply },
		},
	}
}

// Rules returns the ordered rule list, excluding the implicit fallback.
func (r *Responder) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Respond returns the display reply for message. It never fails.
func (r *Responder) Respond(message string) string {
	return r.Classify(message).Text
}

// Classify runs the rules and reports the matching intent along with its reply.
func (r *Responder) Classify(message string) domain.Classification {
	text := normalize(message)
	for _, rule := range r.rules {
		if rule.Match(text) {
			return domain.Classification{Intent: rule.Intent, Text: rule.Respond(text)}
		}
	}
	return domain.Classification{Intent: domain.IntentFallback, Text: fallbackReply}
}

func (r *Responder) priceReply(text string) string {
	for _, entry := range r.table.Entries() {
		if r.matcher.Matches(entry.Commodity, text) {
			return r.priceBlock(entry)
		}
	}
	return cropPrompt(r.table)
}

func (r *Responder) priceBlock(entry domain.MarketPriceEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s Price**\n\n", format.Capitalize(entry.Commodity))
	fmt.Fprintf(&b, "Price: %s/%s\n", format.Currency(r.currency, entry.Price), entry.Unit)
	fmt.Fprintf(&b, "Mandi: %s", entry.SourceMarket)
	if r.dates != nil {
		if updated, err := r.dates.FormatDate(r.now()); err == nil {
			fmt.Fprintf(&b, "\nUpdated: %s", updated)
		}
	}
	return b.String()
}

func cropPrompt(table *domain.PriceTable) string {
	names := make([]string, 0, 3)
	for _, entry := range table.Entries() {
		if len(names) == 3 {
			break
		}
		names = append(names, entry.Commodity)
	}
	for _, ex := range fallbackExamples {
		if len(names) == 3 {
			break
		}
		if !slices.Contains(names, ex) {
			names = append(names, ex)
		}
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "*" + n + "*"
	}
	return "Please mention a crop name like " + strings.Join(quoted, ", ") + "."
}

func (r *Responder) seasonReply(text string) string {
	switch {
	case r.matcher.Matches("wheat", text):
		return wheatSeasonReply
	case r.matcher.Matches("rice", text):
		return riceSeasonReply
	default:
		return seasonPrompt
	}
}
