package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const categoryPrompt = `Classify this knowledge base document into ONE category. Respond with JSON only.

Categories:
- faq: Question and answer content, frequently asked questions
- pricing: Prices, plans, billing, fees, discounts
- support: Troubleshooting, error resolution, how to get help
- product_info: Product descriptions, features, specifications
- general: Anything else

Title: %s

Content:
%s

Respond with: {"category": "<category_name>"}`

// ErrUnparseableAnswer is returned when the model does not answer with the
// expected JSON object.
var ErrUnparseableAnswer = errors.New("llm: category answer was not valid json")

// CategoryProvider classifies documents by prompting a Client. It returns
// the raw category name; callers validate it against their closed set.
type CategoryProvider struct {
	client Client
	model  string
}

func NewCategoryProvider(client Client, model string) *CategoryProvider {
	return &CategoryProvider{client: client, model: model}
}

func (p *CategoryProvider) Classify(ctx context.Context, content, title string) (string, error) {
	prompt := fmt.Sprintf(categoryPrompt, strings.TrimSpace(title), content)

	resp, err := p.client.Complete(ctx, Request{
		Model:       p.model,
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   50,
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	var result struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil || strings.TrimSpace(result.Category) == "" {
		return "", ErrUnparseableAnswer
	}
	return strings.ToLower(strings.TrimSpace(result.Category)), nil
}
