// Package orchestratornode holds the individual steps of the message-handling
// graph. Each node takes the shared GraphState, does one thing, and hands the
// state to the next node.
package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
	statex "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/state"
)

var (
	ErrInvalidCustomer = errors.New("customer id is empty")
	ErrInvalidMessage  = errors.New("message has no content")
)

type GraphInput struct {
	Message contractx.Message
}

type GraphOutput struct {
	Reply          contractx.Reply
	Intent         contractx.Intent
	Confidence     float64
	Escalated      bool
	EscalationCode string
	Language       string
}

type GraphState struct {
	Message contractx.Message
	Now     time.Time

	Session   *statex.Session
	PriorSlot statex.ContextSlot
	Intent    contractx.Intent
	Language  string
	Evidence  contractx.Evidence

	Reply            contractx.Reply
	Confidence       float64
	Escalated        bool
	EscalationCode   string
	EscalationReason string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	msg := in.Message
	msg.CustomerID = strings.TrimSpace(msg.CustomerID)
	if msg.CustomerID == "" {
		return nil, ErrInvalidCustomer
	}

	msg.Text = strings.TrimSpace(msg.Text)
	if msg.Kind == contractx.KindImage {
		if len(msg.Image) == 0 {
			return nil, ErrInvalidMessage
		}
	} else if msg.Text == "" {
		return nil, ErrInvalidMessage
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = nowFn().UTC()
	}

	return &GraphState{
		Message: msg,
		Now:     nowFn().UTC(),
	}, nil
}
