package tagger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/deepak-arjariya/wikisearch/pkg/httpclient"
)

// DefaultOpenAIURL is the chat-completions endpoint used when no override
// is configured.
const DefaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

const classifyPrompt = "Extract relevant categories or tags for the following article. " +
	"Answer with a short comma-separated list of tags only.\n\n%s\n\nTags:"

// OpenAI classifies article text through the chat-completions API and
// normalizes the free-form answer into a bounded label list.
type OpenAI struct {
	client httpclient.Client
	apiURL string
	apiKey string
	model  string
	vocab  *Vocabulary
}

// NewOpenAI constructs the OpenAI-backed classifier.
func NewOpenAI(client httpclient.Client, apiURL, apiKey, model string, vocab *Vocabulary) *OpenAI {
	if strings.TrimSpace(apiURL) == "" {
		apiURL = DefaultOpenAIURL
	}
	return &OpenAI{client: client, apiURL: apiURL, apiKey: apiKey, model: model, vocab: vocab}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify asks the model for tags. A non-200 status, undecodable body or
// an answer that normalizes to nothing all surface as errors; the caller's
// fallback policy decides what happens next.
func (o *OpenAI) Classify(ctx context.Context, text string) ([]string, error) {
	body := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a helpful assistant."},
			{Role: "user", Content: fmt.Sprintf(classifyPrompt, text)},
		},
		MaxTokens:   50,
		Temperature: 0.7,
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}

	resp, err := o.client.PostJSON(ctx, o.apiURL, headers, body)
	if err != nil {
		return nil, fmt.Errorf("classifier request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("classifier status %d", resp.StatusCode())
	}

	var decoded chatResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, errors.New("classifier returned no choices")
	}

	labels := Normalize(decoded.Choices[0].Message.Content, o.vocab)
	if len(labels) == 0 {
		return nil, errors.New("classifier output normalized to nothing")
	}
	return labels, nil
}
