// Package generation wraps the language-generation oracle.
package generation

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
)

const systemPrompt = `You are a helpful AI assistant for a fashion import business.
You help customers find clothing items, answer questions about products, sizes, shipping, and returns.

Guidelines:
- Be friendly and professional
- Focus only on fashion/clothing related questions
- Provide accurate information based on the context provided
- If you don't have specific information, say so honestly
- Keep responses concise and helpful
- Respond in the same language as the customer's message

Available size formats: XS, S, M, L, XL, XXL and numeric sizes (2-16 US, 34-48 EU)`

// Hedged answers get their confidence knocked down before the gate.
var uncertainPhrases = []string{
	"i'm not sure",
	"i don't know",
	"i cannot",
	"unfortunately",
	"i apologize",
}

type Config struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// OpenAIGenerator implements contract.Generator on the OpenAI chat API.
type OpenAIGenerator struct {
	client *openaisdk.Client
	cfg    Config
}

func NewOpenAIGenerator(client *openaisdk.Client, cfg Config) *OpenAIGenerator {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	return &OpenAIGenerator{client: client, cfg: cfg}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req contractx.GenerationRequest) (contractx.GenerationResult, error) {
	if g.client == nil {
		return contractx.GenerationResult{}, fmt.Errorf("%w: generation client not configured", contractx.ErrUpstream)
	}

	messages := []openaisdk.ChatCompletionMessageParamUnion{
		openaisdk.SystemMessage(systemPrompt),
	}
	if strings.TrimSpace(req.Context) != "" {
		messages = append(messages, openaisdk.SystemMessage("Relevant information:\n"+req.Context))
	}
	for _, h := range req.History {
		switch h.Role {
		case "assistant":
			messages = append(messages, openaisdk.AssistantMessage(h.Content))
		default:
			messages = append(messages, openaisdk.UserMessage(h.Content))
		}
	}
	messages = append(messages, openaisdk.UserMessage(req.UserMessage))

	resp, err := g.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(g.cfg.Model),
		Messages:    messages,
		MaxTokens:   openaisdk.Int(int64(g.cfg.MaxTokens)),
		Temperature: openaisdk.Float(g.cfg.Temperature),
	})
	if err != nil {
		return contractx.GenerationResult{}, fmt.Errorf("%w: generate: %v", contractx.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return contractx.GenerationResult{}, fmt.Errorf("%w: no choices", contractx.ErrUpstream)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return contractx.GenerationResult{}, fmt.Errorf("%w: empty completion", contractx.ErrUpstream)
	}

	return contractx.GenerationResult{
		Text:       text,
		Confidence: ScoreConfidence(text, req.Context != ""),
	}, nil
}

// ScoreConfidence estimates answer confidence: grounded answers start at
// 0.85, ungrounded at 0.65, hedging costs 0.2. Clamped to [0,1].
func ScoreConfidence(text string, grounded bool) float64 {
	confidence := 0.65
	if grounded {
		confidence = 0.85
	}

	lower := strings.ToLower(text)
	for _, phrase := range uncertainPhrases {
		if strings.Contains(lower, phrase) {
			confidence -= 0.2
			break
		}
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
