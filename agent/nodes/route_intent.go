package orchestratornode

import (
	"fmt"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
	intentx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/intent"
	"github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/pkg/language"
)

// RouteIntent classifies the message and pins the turn language.
func RouteIntent(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Intent = intentx.Route(in.Message, in.PriorSlot)

	// Language follows the current text when there is any, otherwise stick
	// with whatever the session last saw.
	switch {
	case in.Message.Text != "":
		in.Language = language.Detect(in.Message.Text)
	case in.PriorSlot.Language != "":
		in.Language = in.PriorSlot.Language
	default:
		in.Language = "en"
	}
	in.Session.Context.Language = in.Language

	return in, nil
}
