package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("domain: not found")

// Intent is the category a chat message was classified into.
type Intent string

const (
	IntentGreeting Intent = "greeting"
	IntentPrice    Intent = "price"
	IntentSeason   Intent = "season"
	IntentSelling  Intent = "selling"
	IntentFallback Intent = "fallback"
	// IntentAdvisor marks answers produced by the LLM advisor instead of the rules.
	IntentAdvisor Intent = "advisor"
)

// Topic selects the advisor persona for a chat message.
type Topic string

const (
	TopicGeneral     Topic = "general"
	TopicAgronomy    Topic = "agronomy"
	TopicMarketplace Topic = "marketplace"
)

// ParseTopic maps free text to a Topic, defaulting to TopicGeneral.
func ParseTopic(s string) Topic {
	switch Topic(s) {
	case TopicAgronomy:
		return TopicAgronomy
	case TopicMarketplace:
		return TopicMarketplace
	default:
		return TopicGeneral
	}
}

// ReplySource records which component produced a bot reply.
type ReplySource string

const (
	SourceRules   ReplySource = "rules"
	SourceAdvisor ReplySource = "advisor"
)

// Classification is the outcome of running the rule responder on one message.
type Classification struct {
	Intent Intent
	Text   string
}

// ChatExchange is one answered chat message. It is returned to the caller and never stored.
type ChatExchange struct {
	ID          string      `json:"id"`
	UserMessage string      `json:"user_message"`
	BotResponse string      `json:"bot_response"`
	Intent      Intent      `json:"intent"`
	Source      ReplySource `json:"source"`
	CreatedAt   time.Time   `json:"created_at"`
}

// IntentStat is the aggregate hit counter for one intent.
type IntentStat struct {
	Intent     Intent    `json:"intent"`
	Count      int64     `json:"count"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
