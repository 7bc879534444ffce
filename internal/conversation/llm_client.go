package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tedinroc/line-gpt-bot/pkg/logging"
)

const (
	// maxCompletionTokens bounds every reply the relay requests.
	maxCompletionTokens = 500

	// completionTimeout is the deadline on the only network round trip with
	// unbounded latency exposure.
	completionTimeout = 30 * time.Second
)

// LLMClient produces assistant replies for text and image turns. Both
// operations share one contract: persona plus payload in, trimmed reply out.
type LLMClient interface {
	CompleteText(ctx context.Context, persona, prompt string) (string, error)
	CompleteImage(ctx context.Context, persona, instruction, imageDataURI string) (string, error)
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient implements LLMClient against an OpenAI-compatible chat
// completion endpoint.
type OpenAIClient struct {
	client chatCompleter
	model  string
	logger *logging.Logger
}

// NewOpenAIClient returns an OpenAI-backed LLMClient.
func NewOpenAIClient(client chatCompleter, model string, logger *logging.Logger) *OpenAIClient {
	if client == nil {
		panic("conversation: chat client cannot be nil")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OpenAIClient{
		client: client,
		model:  model,
		logger: logger,
	}
}

func (c *OpenAIClient) CompleteText(ctx context.Context, persona, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: persona},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}
	return c.complete(ctx, messages)
}

func (c *OpenAIClient) CompleteImage(ctx context.Context, persona, instruction, imageDataURI string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: persona},
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: instruction},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL:    imageDataURI,
						Detail: openai.ImageURLDetailAuto,
					},
				},
			},
		},
	}
	return c.complete(ctx, messages)
}

func (c *OpenAIClient) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: maxCompletionTokens,
	})
	if err != nil {
		return "", fmt.Errorf("conversation: openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("conversation: openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
