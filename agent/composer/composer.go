// Package composer turns (intent, evidence, session) into a candidate reply
// plus a confidence score. Deterministic rule-based replies are pinned to
// confidence 1.0; only model-grounded replies carry the generation oracle's
// reported confidence, or 0.0 when that call degraded.
package composer

import (
	"context"
	"errors"
	"sort"
	"strings"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
	guardx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/guard"
	intentx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/intent"
	statex "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/state"
)

const (
	visualMatchLimit = 5
	browseLimit      = 10
)

// Pronouns that make a question underspecified without the context slot.
var subjectPronouns = []string{"it", "this", "that", "these", "those", "one"}

type Composer struct {
	generator contractx.Generator
	orders    contractx.OrderLookup
	browser   contractx.Browser
	guard     *guardx.Controller
}

func New(generator contractx.Generator, orders contractx.OrderLookup, browser contractx.Browser, guard *guardx.Controller) *Composer {
	return &Composer{
		generator: generator,
		orders:    orders,
		browser:   browser,
		guard:     guard,
	}
}

// Compose produces the candidate reply for the routed intent.
func (c *Composer) Compose(
	ctx context.Context,
	intent contractx.Intent,
	ev contractx.Evidence,
	sess *statex.Session,
	msg contractx.Message,
) (contractx.Reply, float64) {
	switch intent {
	case contractx.IntentVisualSearch:
		return c.composeVisualSearch(ev, sess)
	case contractx.IntentQA:
		return c.composeQA(ctx, ev, sess, msg)
	case contractx.IntentOrderTracking:
		return c.composeOrderTracking(ctx, msg)
	case contractx.IntentCatalogBrowse:
		return c.composeCatalogBrowse(ctx, msg)
	case contractx.IntentGreeting:
		return contractx.Reply{Text: greetingMessage}, 1.0
	default:
		return contractx.Reply{Text: unclearMessage}, 1.0
	}
}

func (c *Composer) composeVisualSearch(ev contractx.Evidence, sess *statex.Session) (contractx.Reply, float64) {
	if ev.VisionDegraded {
		return contractx.Reply{Text: clearerPhotoMessage, Degraded: true}, 0.0
	}
	if ev.Vision == nil {
		return contractx.Reply{Text: clearerPhotoMessage}, 1.0
	}

	switch ev.Vision.Outcome {
	case contractx.VisionNotClothing:
		// Deterministic redirect, regardless of any other evidence.
		return contractx.Reply{Text: RedirectMessage(sess.Context.Language)}, 1.0
	case contractx.VisionAmbiguous:
		return contractx.Reply{Text: clearerPhotoMessage}, 1.0
	}

	if ev.SearchDegraded {
		return contractx.Reply{Text: noMatchesMessage, Degraded: true}, 0.0
	}
	if len(ev.Products) == 0 {
		return contractx.Reply{Text: noMatchesMessage}, 1.0
	}

	products := rankProducts(ev.Products, visualMatchLimit)
	return contractx.Reply{
		Text:     formatProductList(products, visualMatchLimit),
		Products: products,
	}, 1.0
}

func (c *Composer) composeQA(
	ctx context.Context,
	ev contractx.Evidence,
	sess *statex.Session,
	msg contractx.Message,
) (contractx.Reply, float64) {
	question := strings.TrimSpace(msg.Text)

	// An underspecified question ("do you have it in M?") resolves its
	// subject from the stored product reference before generation.
	if sess.HasProductRef() && isUnderspecified(question) {
		question = sess.Context.ProductName + ": " + question
	}

	snippetContext := ""
	if !ev.SearchDegraded {
		snippetContext = joinSnippets(ev.Snippets)
	}

	result := guardx.Invoke(ctx, c.guard, "generation", func(ctx context.Context) (contractx.GenerationResult, error) {
		return c.generator.Generate(ctx, contractx.GenerationRequest{
			UserMessage: question,
			Context:     snippetContext,
			History:     sess.HistoryMessages(),
			Language:    sess.Context.Language,
		})
	})
	if result.Degraded {
		menu := FallbackMenu()
		return contractx.Reply{Text: menu.Body, Menu: &menu, Degraded: true}, 0.0
	}

	return contractx.Reply{Text: result.Value.Text}, result.Value.Confidence
}

type orderLookupResult struct {
	order contractx.OrderStatus
	found bool
}

func (c *Composer) composeOrderTracking(ctx context.Context, msg contractx.Message) (contractx.Reply, float64) {
	text := strings.TrimSpace(msg.Text)

	orderID, ok := intentx.ExtractOrderID(text)
	if !ok {
		if intentx.HasOrderShapedToken(text) {
			return contractx.Reply{Text: orderFormatGuidanceMessage}, 1.0
		}
		return contractx.Reply{Text: orderIDPromptMessage, AwaitOrderID: true}, 1.0
	}

	result := guardx.Invoke(ctx, c.guard, "order_lookup", func(ctx context.Context) (orderLookupResult, error) {
		order, err := c.orders.Lookup(ctx, orderID)
		if errors.Is(err, contractx.ErrNotFound) {
			// A missing order is a domain outcome, not a failure to retry.
			return orderLookupResult{}, nil
		}
		if err != nil {
			return orderLookupResult{}, err
		}
		return orderLookupResult{order: order, found: true}, nil
	})
	if result.Degraded {
		menu := FallbackMenu()
		return contractx.Reply{Text: menu.Body, Menu: &menu, Degraded: true}, 0.0
	}
	if !result.Value.found {
		return contractx.Reply{Text: orderNotFoundMessage(orderID)}, 1.0
	}
	return contractx.Reply{Text: formatOrderStatus(result.Value.order)}, 1.0
}

func (c *Composer) composeCatalogBrowse(ctx context.Context, msg contractx.Message) (contractx.Reply, float64) {
	trigger, ok := intentx.DetectBrowseTrigger(msg.Text)
	if !ok {
		trigger = intentx.TriggerNewArrivals
	}

	result := guardx.Invoke(ctx, c.guard, "catalog_browse", func(ctx context.Context) ([]contractx.ProductMatch, error) {
		switch trigger {
		case intentx.TriggerTrending:
			return c.browser.Trending(ctx, browseLimit)
		case intentx.TriggerSale:
			return c.browser.SaleItems(ctx, browseLimit)
		default:
			return c.browser.NewArrivals(ctx, browseLimit)
		}
	})
	if result.Degraded {
		menu := FallbackMenu()
		return contractx.Reply{Text: menu.Body, Menu: &menu, Degraded: true}, 0.0
	}

	products := result.Value
	if len(products) == 0 {
		// Never an empty reply: name the gap and offer alternatives.
		return contractx.Reply{Text: formatEmptyCategory(string(trigger))}, 1.0
	}
	if len(products) > browseLimit {
		products = products[:browseLimit]
	}
	return contractx.Reply{
		Text:     formatBrowseBody(string(trigger), len(products)),
		Products: products,
	}, 1.0
}

// rankProducts orders by similarity descending; the stable sort preserves
// catalog insertion order on ties.
func rankProducts(products []contractx.ProductMatch, limit int) []contractx.ProductMatch {
	ranked := append([]contractx.ProductMatch(nil), products...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func isUnderspecified(question string) bool {
	lower := strings.ToLower(question)
	for _, pronoun := range subjectPronouns {
		if containsWord(lower, pronoun) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	for _, f := range fields {
		if f == word {
			return true
		}
	}
	return false
}

func joinSnippets(snippets []contractx.Snippet) string {
	parts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		if strings.TrimSpace(s.Content) != "" {
			parts = append(parts, s.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}
