package intent

import (
	"testing"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
	statex "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/state"
)

func TestRoutePriorityOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  contractx.Message
		slot statex.ContextSlot
		want contractx.Intent
	}{
		{
			name: "image always wins",
			msg:  contractx.Message{Kind: contractx.KindImage, Image: []byte{0xFF}, Text: "any new arrivals?"},
			want: contractx.IntentVisualSearch,
		},
		{
			name: "browse phrase beats order shape",
			msg:  contractx.Message{Kind: contractx.KindText, Text: "show me new arrivals for order ORD-2024-001234"},
			want: contractx.IntentCatalogBrowse,
		},
		{
			name: "strict order id",
			msg:  contractx.Message{Kind: contractx.KindText, Text: "where is ORD-2024-001234"},
			want: contractx.IntentOrderTracking,
		},
		{
			name: "malformed order token still routes to tracking",
			msg:  contractx.Message{Kind: contractx.KindText, Text: "status of ORD-12345 please"},
			want: contractx.IntentOrderTracking,
		},
		{
			name: "open order id prompt carries over",
			msg:  contractx.Message{Kind: contractx.KindText, Text: "any update?"},
			slot: statex.ContextSlot{LastIntent: contractx.IntentOrderTracking, AwaitingOrderID: true},
			want: contractx.IntentOrderTracking,
		},
		{
			name: "bare greeting",
			msg:  contractx.Message{Kind: contractx.KindText, Text: "Hello!"},
			want: contractx.IntentGreeting,
		},
		{
			name: "greeting embedded in a question is not a greeting",
			msg:  contractx.Message{Kind: contractx.KindText, Text: "hello, do you have this dress in blue"},
			want: contractx.IntentQA,
		},
		{
			name: "follow-up rides product reference",
			msg:  contractx.Message{Kind: contractx.KindText, Text: "does it run small?"},
			slot: statex.ContextSlot{ProductName: "Red Midi Dress", LastIntent: contractx.IntentVisualSearch},
			want: contractx.IntentQA,
		},
		{
			name: "off-domain text is unclear",
			msg:  contractx.Message{Kind: contractx.KindText, Text: "what's the weather tomorrow"},
			want: contractx.IntentUnclear,
		},
		{
			name: "domain question defaults to qa",
			msg:  contractx.Message{Kind: contractx.KindText, Text: "what sizes does the blue blouse come in"},
			want: contractx.IntentQA,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Route(tc.msg, tc.slot); got != tc.want {
				t.Fatalf("Route() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRouteOrderTrackingClosesAfterResolvedLookup(t *testing.T) {
	t.Parallel()

	// A completed lookup leaves LastIntent as order_tracking but closes the
	// exchange; plain text afterwards must route on its own merits again.
	slot := statex.ContextSlot{LastIntent: contractx.IntentOrderTracking}

	tests := []struct {
		text string
		want contractx.Intent
	}{
		{"hi", contractx.IntentGreeting},
		{"what is your return policy", contractx.IntentQA},
		{"does this dress come in blue", contractx.IntentQA},
	}
	for _, tc := range tests {
		msg := contractx.Message{Kind: contractx.KindText, Text: tc.text}
		if got := Route(msg, slot); got != tc.want {
			t.Errorf("Route(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestRouteIsDeterministic(t *testing.T) {
	t.Parallel()

	msg := contractx.Message{Kind: contractx.KindText, Text: "trending sneakers ORD-2024-000001"}
	slot := statex.ContextSlot{LastIntent: contractx.IntentOrderTracking}

	first := Route(msg, slot)
	for i := 0; i < 5; i++ {
		if got := Route(msg, slot); got != first {
			t.Fatalf("Route() changed between calls: %v then %v", first, got)
		}
	}
}

func TestDetectBrowseTrigger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text    string
		want    BrowseTrigger
		matched bool
	}{
		{"Show me the NEW ARRIVALS", TriggerNewArrivals, true},
		{"what's trending right now", TriggerTrending, true},
		{"any deal on jackets?", TriggerSale, true},
		{"do you have this in red", "", false},
	}

	for _, tc := range tests {
		got, ok := DetectBrowseTrigger(tc.text)
		if ok != tc.matched || got != tc.want {
			t.Fatalf("DetectBrowseTrigger(%q) = %v,%v, want %v,%v", tc.text, got, ok, tc.want, tc.matched)
		}
	}
}

func TestExtractOrderID(t *testing.T) {
	t.Parallel()

	id, ok := ExtractOrderID("tracking ord-2024-001234 thanks")
	if !ok || id != "ORD-2024-001234" {
		t.Fatalf("ExtractOrderID() = %q,%v, want ORD-2024-001234,true", id, ok)
	}

	if _, ok := ExtractOrderID("tracking ORD-24-1234"); ok {
		t.Fatal("ExtractOrderID() matched a malformed id")
	}
	if !HasOrderShapedToken("tracking ORD-24-1234") {
		t.Fatal("HasOrderShapedToken() missed an order-shaped token")
	}
}
