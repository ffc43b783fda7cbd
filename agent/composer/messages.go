package composer

import (
	"fmt"
	"strings"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
)

// Deterministic reply texts. Rule-based replies carry a fixed confidence of
// 1.0 so the escalation gate never mistakes them for model guesses.

var redirectMessages = map[string]string{
	"en": "I'm here to help with fashion and clothing questions! " +
		"Feel free to ask about our products, sizes, shipping, or returns. " +
		"You can also send a photo of clothing you'd like to find.",
	"es": "¡Estoy aquí para ayudar con preguntas sobre moda y ropa! " +
		"Puede preguntar sobre productos, tallas, envíos o devoluciones. " +
		"También puede enviar una foto de la ropa que busca.",
	"fr": "Je suis là pour répondre à vos questions sur la mode ! " +
		"N'hésitez pas à me poser des questions sur nos produits, tailles, livraison ou retours. " +
		"Vous pouvez aussi m'envoyer une photo du vêtement que vous recherchez.",
}

// RedirectMessage is the clothing-only redirect for non-clothing images and
// off-topic questions.
func RedirectMessage(lang string) string {
	if msg, ok := redirectMessages[lang]; ok {
		return msg
	}
	return redirectMessages["en"]
}

const clearerPhotoMessage = "I couldn't read that photo clearly. " +
	"Could you send a sharper, well-lit picture of the clothing item? " +
	"A single item against a plain background works best."

const greetingMessage = "Hi there! 👋 I can help you find clothing, answer questions about " +
	"sizes, shipping, and returns, or track an order.\n\n" +
	"Try sending a photo of an item you like, or type *New Arrivals* to browse."

const unclearMessage = "I'm not sure I can help with that. I handle fashion and clothing topics.\n\n" +
	"You can:\n" +
	"• Send a photo of clothing to find similar items\n" +
	"• Ask about sizes, shipping, or returns\n" +
	"• Type *New Arrivals*, *Trending*, or *Sale* to browse\n" +
	"• Send an order ID like ORD-2024-001234 to track an order"

const orderIDPromptMessage = "Sure, I can track that for you. " +
	"Please send your order ID (it looks like *ORD-2024-001234*, " +
	"you can find it in your confirmation email)."

const orderFormatGuidanceMessage = "📝 Order IDs follow this format: *ORD-YYYY-NNNNNN*\n\n" +
	"Example: ORD-2024-001234\n\n" +
	"You can find your order ID in your confirmation email. " +
	"Please enter the complete order ID to track your order."

const noMatchesMessage = "I couldn't find anything close to that in our catalog right now. 😅\n\n" +
	"Try browsing *New Arrivals* or *Sale*, or send another photo!"

// FallbackMenu is the rule-based menu used when generation (or another
// dependency) is fully degraded. The customer always gets something usable.
func FallbackMenu() contractx.Menu {
	return contractx.Menu{
		Header: "How can I help?",
		Body: "I'm having trouble understanding. " +
			"Please choose an option or try rephrasing your question.",
		Buttons: []contractx.MenuButton{
			{ID: "browse", Title: "Browse Products"},
			{ID: "track", Title: "Track Order"},
			{ID: "help", Title: "Get Help"},
		},
	}
}

// SupersededAck acknowledges a queued message that was replaced by a newer
// one before processing started.
const SupersededAck = "Got it, I'll answer your latest message. 👍"

func orderNotFoundMessage(orderID string) string {
	return fmt.Sprintf(
		"❓ I couldn't find order *%s* in our system.\n\n"+
			"Please check the order ID and try again. "+
			"You can find your order ID in your confirmation email.\n\n"+
			"If you need help, type 'Help' to see options.",
		orderID,
	)
}

var statusEmoji = map[string]string{
	"pending":    "⏳",
	"processing": "📦",
	"shipped":    "🚚",
	"delivered":  "✅",
	"cancelled":  "❌",
}

func formatOrderStatus(order contractx.OrderStatus) string {
	emoji, ok := statusEmoji[order.Status]
	if !ok {
		emoji = "📋"
	}

	lines := []string{
		emoji + " *Order Status*",
		"Order: " + order.ID,
		"Status: " + titleCase(order.Status),
	}

	if order.Status == "shipped" {
		if order.TrackingNumber != "" {
			lines = append(lines, "Tracking: "+order.TrackingNumber)
		}
		if order.Carrier != "" {
			lines = append(lines, "Carrier: "+order.Carrier)
		}
		if order.EstimatedDelivery != "" {
			lines = append(lines, "Est. Delivery: "+order.EstimatedDelivery)
		}
	}
	if order.Status == "delivered" && order.DeliveredAt != "" {
		lines = append(lines, "Delivered: "+order.DeliveredAt)
	}

	if len(order.Items) > 0 {
		lines = append(lines, "", "*Items:*")
		for _, item := range order.Items {
			lines = append(lines, fmt.Sprintf("• %s x%d", item.Name, item.Quantity))
		}
	}

	if order.TotalAmount > 0 {
		currency := order.Currency
		if currency == "" {
			currency = "USD"
		}
		lines = append(lines, fmt.Sprintf("\nTotal: %s %.2f", currency, order.TotalAmount))
	}

	return strings.Join(lines, "\n")
}

func formatProductList(products []contractx.ProductMatch, limit int) string {
	if len(products) == 0 {
		return noMatchesMessage
	}
	if len(products) > limit {
		products = products[:limit]
	}

	lines := []string{"Here are some items you might like:\n"}
	for i, p := range products {
		currency := p.Currency
		if currency == "" {
			currency = "USD"
		}
		lines = append(lines, fmt.Sprintf("%d. *%s*\n💰 %s %.2f", i+1, p.Name, currency, p.Price))
	}
	return strings.Join(lines, "\n")
}

func formatEmptyCategory(category string) string {
	display := titleCase(strings.ReplaceAll(category, "_", " "))
	return fmt.Sprintf(
		"😅 We don't have any %s products right now.\n\n"+
			"Try browsing:\n"+
			"• *New Arrivals* - Our latest products\n"+
			"• *Trending* - Popular items\n"+
			"• *Sale* - Discounted items\n\n"+
			"Or send a photo of what you're looking for!",
		display,
	)
}

func formatBrowseBody(category string, count int) string {
	display := titleCase(strings.ReplaceAll(category, "_", " "))
	return fmt.Sprintf("🛍️ *%s*\nFound %d items. Tap to see details:", display, count)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
