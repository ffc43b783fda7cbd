package orchestratornode

import (
	"context"
	"fmt"

	composerx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/composer"
	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
)

func ComposeReply(ctx context.Context, in *GraphState, composer *composerx.Composer) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	in.Reply, in.Confidence = composer.Compose(ctx, in.Intent, in.Evidence, in.Session, in.Message)
	return in, nil
}
