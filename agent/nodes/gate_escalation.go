package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
	escalationx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/escalation"
)

func GateEscalation(ctx context.Context, in *GraphState, gate *escalationx.Gate) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	out := gate.Decide(ctx, escalationx.Input{
		CustomerID: in.Message.CustomerID,
		Reply:      in.Reply,
		Confidence: in.Confidence,
		Intent:     in.Intent,
		LastText:   in.Message.Text,
		Session:    in.Session,
		Now:        in.Now,
	})

	in.Reply = out.Reply
	in.Escalated = out.Escalated
	in.EscalationCode = out.Code
	in.EscalationReason = out.Reason
	return in, nil
}
