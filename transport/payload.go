package transport

import (
	"encoding/json"
	"strconv"
	"time"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
)

// webhookPayload mirrors the Cloud API webhook envelope, trimmed to the
// fields this service reads.
type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Messages []webhookMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	Image *struct {
		ID      string `json:"id"`
		Caption string `json:"caption"`
	} `json:"image"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
		ListReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"list_reply"`
	} `json:"interactive"`
}

// decodeMessages pulls the inbound customer messages out of a webhook body.
// Statuses-only deliveries and unsupported message types simply yield none.
func decodeMessages(body []byte) ([]contractx.Message, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	var out []contractx.Message
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, wm := range change.Value.Messages {
				if msg, ok := toMessage(wm); ok {
					out = append(out, msg)
				}
			}
		}
	}
	return out, nil
}

func toMessage(wm webhookMessage) (contractx.Message, bool) {
	msg := contractx.Message{
		CustomerID: wm.From,
		Timestamp:  parseEpoch(wm.Timestamp),
	}

	switch wm.Type {
	case "text":
		if wm.Text == nil || wm.Text.Body == "" {
			return contractx.Message{}, false
		}
		msg.Kind = contractx.KindText
		msg.Text = wm.Text.Body
	case "image":
		if wm.Image == nil || wm.Image.ID == "" {
			return contractx.Message{}, false
		}
		msg.Kind = contractx.KindImage
		msg.MediaID = wm.Image.ID
		msg.Text = wm.Image.Caption
	case "interactive":
		reply := interactiveReply(wm)
		if reply == "" {
			return contractx.Message{}, false
		}
		msg.Kind = contractx.KindInteractive
		msg.Text = reply
	default:
		return contractx.Message{}, false
	}
	return msg, true
}

// interactiveReply maps a tapped button or list row back onto the text the
// router understands.
func interactiveReply(wm webhookMessage) string {
	if wm.Interactive == nil {
		return ""
	}
	var id, title string
	switch {
	case wm.Interactive.ButtonReply != nil:
		id, title = wm.Interactive.ButtonReply.ID, wm.Interactive.ButtonReply.Title
	case wm.Interactive.ListReply != nil:
		id, title = wm.Interactive.ListReply.ID, wm.Interactive.ListReply.Title
	default:
		return ""
	}

	switch id {
	case "browse":
		return "show me new arrivals"
	case "track":
		return "track my order"
	case "help":
		return "help"
	}
	return title
}

func parseEpoch(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
