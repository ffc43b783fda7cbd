package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
	guardx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/guard"
)

const (
	productSearchLimit   = 5
	knowledgeSearchLimit = 3
)

// GatherEvidence runs the oracle calls the routed intent needs, every one of
// them through the degradation controller. Degradations are recorded on the
// evidence bundle, never returned as errors.
func GatherEvidence(
	ctx context.Context,
	in *GraphState,
	vision contractx.VisionOracle,
	retriever contractx.Retriever,
	guard *guardx.Controller,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	switch in.Intent {
	case contractx.IntentVisualSearch:
		gatherVisualEvidence(ctx, in, vision, retriever, guard)
	case contractx.IntentQA:
		gatherQAEvidence(ctx, in, retriever, guard)
	}
	return in, nil
}

func gatherVisualEvidence(
	ctx context.Context,
	in *GraphState,
	vision contractx.VisionOracle,
	retriever contractx.Retriever,
	guard *guardx.Controller,
) {
	res := guardx.Invoke(ctx, guard, "vision_analyze", func(ctx context.Context) (contractx.VisionResult, error) {
		return vision.Analyze(ctx, in.Message.Image)
	})
	if res.Degraded {
		in.Evidence.VisionDegraded = true
		return
	}

	vr := res.Value
	in.Evidence.Vision = &vr
	if vr.Outcome != contractx.VisionClothing {
		return
	}

	search := guardx.Invoke(ctx, guard, "product_search", func(ctx context.Context) ([]contractx.ProductMatch, error) {
		return retriever.SearchProducts(ctx, vr.QueryText(), productSearchLimit)
	})
	if search.Degraded {
		in.Evidence.SearchDegraded = true
		return
	}
	in.Evidence.Products = search.Value
}

func gatherQAEvidence(
	ctx context.Context,
	in *GraphState,
	retriever contractx.Retriever,
	guard *guardx.Controller,
) {
	query := in.Message.Text
	// Resolve bare pronouns against the referenced product before retrieval
	// so "does it come in blue" searches for the product, not the pronoun.
	if in.PriorSlot.ProductName != "" {
		query = in.PriorSlot.ProductName + " " + query
	}

	search := guardx.Invoke(ctx, guard, "knowledge_search", func(ctx context.Context) ([]contractx.Snippet, error) {
		return retriever.SearchKnowledge(ctx, query, knowledgeSearchLimit)
	})
	if search.Degraded {
		in.Evidence.SearchDegraded = true
		return
	}
	in.Evidence.Snippets = search.Value
}
