package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/ragstack/chat-api/internal/llm"
)

const (
	defaultChatModel      = openai.GPT3Dot5Turbo
	defaultEmbeddingModel = openai.AdaEmbeddingV2 // 1536 dimensions
)

type Client struct {
	client *openai.Client
}

func NewClient(apiKey string) *Client {
	return &Client{client: openai.NewClient(apiKey)}
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	rsp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: defaultEmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding request failed: %w", err)
	}
	if len(rsp.Data) == 0 || len(rsp.Data[0].Embedding) == 0 {
		return nil, errors.New("no embedding data received from openai")
	}
	return rsp.Data[0].Embedding, nil
}

func (c *Client) Complete(ctx context.Context, systemInstruction string, turns []llm.Turn) (string, error) {
	if len(turns) == 0 {
		return "", errors.New("no turns provided for chat completion")
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	if systemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemInstruction,
		})
	}
	for _, turn := range turns {
		role := openai.ChatMessageRoleUser
		if turn.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}

	rsp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    defaultChatModel,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(rsp.Choices) == 0 || rsp.Choices[0].Message.Content == "" {
		return "", errors.New("no response from openai")
	}
	return rsp.Choices[0].Message.Content, nil
}
