package evidence

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	chromem "github.com/philippgille/chromem-go"
)

// OpenAIEmbeddingFunc adapts the OpenAI embeddings endpoint to chromem's
// embedding contract.
func OpenAIEmbeddingFunc(client *openaisdk.Client, model string) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		if client == nil {
			return nil, fmt.Errorf("embedding client not configured")
		}

		resp, err := client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
			Model: openaisdk.EmbeddingModel(model),
			Input: openaisdk.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: []string{text},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("create embedding: %w", err)
		}
		if len(resp.Data) == 0 {
			return nil, fmt.Errorf("embedding response is empty")
		}

		vec := make([]float32, len(resp.Data[0].Embedding))
		for i, v := range resp.Data[0].Embedding {
			vec[i] = float32(v)
		}
		return vec, nil
	}
}
