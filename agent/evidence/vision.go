package evidence

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
)

const visionPrompt = `Analyze this image and determine if it shows clothing/fashion items.

If this IS a clothing item, return a JSON object with:
{
    "garment_type": "type of clothing (dress, shirt, pants, etc.)",
    "colors": ["list", "of", "colors"],
    "patterns": ["list", "of", "patterns like floral, striped, solid"],
    "style_keywords": ["descriptive", "style", "words"]
}

If this is NOT a clothing item (food, landscape, person without focus on clothes, blurry, etc.), return:
{
    "is_clothing": false,
    "reason": "brief explanation why this cannot be analyzed as clothing"
}

Return ONLY valid JSON, no other text.`

// VisionExtractor wraps the image-understanding oracle. It distinguishes a
// clean "not clothing" classification from an unreadable/ambiguous image:
// the two produce different customer-facing messages.
type VisionExtractor struct {
	client *openaisdk.Client
	model  string
}

func NewVisionExtractor(client *openaisdk.Client, model string) *VisionExtractor {
	return &VisionExtractor{client: client, model: model}
}

func (v *VisionExtractor) Analyze(ctx context.Context, image []byte) (contractx.VisionResult, error) {
	if len(image) == 0 {
		return contractx.VisionResult{}, fmt.Errorf("%w: empty image", contractx.ErrInvalid)
	}
	if v.client == nil {
		return contractx.VisionResult{}, fmt.Errorf("%w: vision client not configured", contractx.ErrUpstream)
	}

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := v.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(v.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage([]openaisdk.ChatCompletionContentPartUnionParam{
				openaisdk.TextContentPart(visionPrompt),
				openaisdk.ImageContentPart(openaisdk.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
			}),
		},
	})
	if err != nil {
		return contractx.VisionResult{}, fmt.Errorf("%w: vision call: %v", contractx.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return contractx.VisionResult{}, fmt.Errorf("%w: vision returned no choices", contractx.ErrUpstream)
	}

	return ParseVisionResponse(resp.Choices[0].Message.Content), nil
}

type rawVisionResponse struct {
	IsClothing    *bool    `json:"is_clothing,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	GarmentType   string   `json:"garment_type,omitempty"`
	Colors        []string `json:"colors,omitempty"`
	Patterns      []string `json:"patterns,omitempty"`
	StyleKeywords []string `json:"style_keywords,omitempty"`
}

// ParseVisionResponse interprets the oracle's JSON reply. Unparseable or
// incomplete output maps to the ambiguous outcome, never to an error: an
// unreadable image is a domain result, not a failure.
func ParseVisionResponse(raw string) contractx.VisionResult {
	text := stripMarkdownFences(strings.TrimSpace(raw))

	var parsed rawVisionResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return contractx.VisionResult{
			Outcome: contractx.VisionAmbiguous,
			Reason:  "unparseable vision response",
		}
	}

	if parsed.IsClothing != nil && !*parsed.IsClothing {
		return contractx.VisionResult{
			Outcome: contractx.VisionNotClothing,
			Reason:  parsed.Reason,
		}
	}

	if parsed.GarmentType == "" {
		return contractx.VisionResult{
			Outcome: contractx.VisionAmbiguous,
			Reason:  "missing garment attributes",
		}
	}

	return contractx.VisionResult{
		Outcome:       contractx.VisionClothing,
		GarmentType:   parsed.GarmentType,
		Colors:        parsed.Colors,
		Patterns:      parsed.Patterns,
		StyleKeywords: parsed.StyleKeywords,
	}
}

func stripMarkdownFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	var kept []string
	inBlock := false
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "```") && !inBlock:
			inBlock = true
		case strings.HasPrefix(line, "```") && inBlock:
			return strings.Join(kept, "\n")
		case inBlock:
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
