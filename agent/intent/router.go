// Package intent classifies an inbound message into exactly one intent.
// Routing is a pure function of the message and the session context; it
// never touches an oracle, so it is deterministic and replayable.
package intent

import (
	"regexp"
	"strings"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
	statex "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/state"
)

// BrowseTrigger is a matched catalog-browse category.
type BrowseTrigger string

const (
	TriggerNewArrivals BrowseTrigger = "new_arrivals"
	TriggerTrending    BrowseTrigger = "trending"
	TriggerSale        BrowseTrigger = "sale"
)

var (
	// Strict order IDs look like ORD-2024-001234.
	orderIDPattern = regexp.MustCompile(`(?i)ORD-\d{4}-\d{6}`)
	// Anything order-ID-shaped routes to order tracking so the composer
	// can answer with format guidance instead of a generic reply.
	orderShapePattern = regexp.MustCompile(`(?i)\bORD-[A-Za-z0-9-]+`)
)

var browseTriggers = []struct {
	trigger BrowseTrigger
	phrases []string
}{
	{TriggerNewArrivals, []string{"new arrivals", "newest", "just in", "latest"}},
	{TriggerTrending, []string{"trending", "popular", "best seller", "top rated"}},
	{TriggerSale, []string{"sale", "discount", "clearance", "deal"}},
}

var greetingPhrases = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening",
	"hola", "bonjour", "ciao", "hallo", "olá",
}

var nonDomainKeywords = []string{
	"weather", "news", "politics", "sports score", "recipe",
	"math", "calculate", "code", "programming", "translate",
}

var domainKeywords = []string{
	"dress", "shirt", "pants", "skirt", "jacket", "coat",
	"shoe", "size", "color", "fabric", "cotton", "silk",
	"order", "shipping", "delivery", "return", "exchange",
	"price", "cost", "available", "stock", "inventory",
	"style", "fashion", "wear", "outfit", "clothing",
	"blouse", "sweater", "jeans", "shorts", "top",
}

// Route classifies the message. Priority order is deliberate: an image
// always wins, even when its caption also matches a browse phrase.
func Route(msg contractx.Message, slot statex.ContextSlot) contractx.Intent {
	if msg.Kind == contractx.KindImage {
		return contractx.IntentVisualSearch
	}

	text := strings.TrimSpace(msg.Text)

	if _, ok := DetectBrowseTrigger(text); ok {
		return contractx.IntentCatalogBrowse
	}

	if orderShapePattern.MatchString(text) || slot.AwaitingOrderID {
		return contractx.IntentOrderTracking
	}

	if isGreeting(text) {
		return contractx.IntentGreeting
	}

	// A follow-up like "do you have it in red" rides on the stored product
	// reference; resolving "it" is the composer's job.
	if hasProductRef(slot) && (slot.LastIntent == contractx.IntentQA || slot.LastIntent == contractx.IntentVisualSearch) {
		return contractx.IntentQA
	}

	if !isDomainRelated(text) {
		return contractx.IntentUnclear
	}
	return contractx.IntentQA
}

// DetectBrowseTrigger matches the fixed browse phrase set, case-insensitive.
func DetectBrowseTrigger(text string) (BrowseTrigger, bool) {
	lower := strings.ToLower(text)
	for _, bt := range browseTriggers {
		for _, phrase := range bt.phrases {
			if strings.Contains(lower, phrase) {
				return bt.trigger, true
			}
		}
	}
	return "", false
}

// ExtractOrderID pulls a strictly-formatted order ID out of the text.
func ExtractOrderID(text string) (string, bool) {
	match := orderIDPattern.FindString(text)
	if match == "" {
		return "", false
	}
	return strings.ToUpper(match), true
}

// HasOrderShapedToken reports whether the text carries anything that looks
// like an order ID, well-formed or not.
func HasOrderShapedToken(text string) bool {
	return orderShapePattern.MatchString(text)
}

func isGreeting(text string) bool {
	lower := strings.ToLower(strings.TrimRight(text, "!.?, "))
	for _, phrase := range greetingPhrases {
		if lower == phrase {
			return true
		}
	}
	return false
}

func hasProductRef(slot statex.ContextSlot) bool {
	return slot.ProductID != "" || slot.ProductName != ""
}

func isDomainRelated(text string) bool {
	lower := strings.ToLower(text)

	for _, kw := range nonDomainKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	for _, kw := range domainKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	// Ambiguous messages default to qa; the composer grounds them with
	// retrieved context.
	return true
}
