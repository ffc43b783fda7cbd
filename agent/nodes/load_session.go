package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
	statex "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/state"
)

// LoadSession resolves the customer's session. A missing, expired, or
// unreadable session all degrade to the empty session: losing short-term
// context must never block the turn.
func LoadSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	sess, err := store.Load(ctx, in.Message.CustomerID)
	switch {
	case errors.Is(err, statex.ErrSessionNotFound):
		sess = statex.NewSession(in.Message.CustomerID, in.Now)
	case err != nil:
		log.Warn().Err(err).Str("customer_id", in.Message.CustomerID).
			Msg("session load failed, continuing with empty session")
		sess = statex.NewSession(in.Message.CustomerID, in.Now)
	case sess.Expired(in.Now):
		sess = statex.NewSession(in.Message.CustomerID, in.Now)
	}

	in.Session = sess
	in.PriorSlot = sess.Context
	return in, nil
}
