package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
	recorderx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/recorder"
)

func RecordTurn(ctx context.Context, in *GraphState, rec *recorderx.Recorder) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	rec.Record(ctx, recorderx.Turn{
		CustomerID: in.Message.CustomerID,
		Message:    in.Message,
		Reply:      in.Reply,
		Intent:     in.Intent,
		Confidence: in.Confidence,
		Escalated:  in.Escalated,
		Language:   in.Language,
		StartedAt:  in.Now,
		PriorSlot:  in.PriorSlot,
	})
	return in, nil
}

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Reply.Text == "" && in.Reply.Menu == nil {
		return GraphOutput{}, fmt.Errorf("%w: empty reply for intent %s", contractx.ErrValidation, in.Intent)
	}

	return GraphOutput{
		Reply:          in.Reply,
		Intent:         in.Intent,
		Confidence:     in.Confidence,
		Escalated:      in.Escalated,
		EscalationCode: in.EscalationCode,
		Language:       in.Language,
	}, nil
}
