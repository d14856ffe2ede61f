package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"github.com/ragstack/chat-api/internal/llm"
)

const (
	defaultChatModel      = "gemini-1.5-flash-latest"
	defaultEmbeddingModel = "text-embedding-004"
)

type Client struct {
	client *genai.Client
}

func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			log.WithError(err).Warn("Error closing GenAI client")
		}
	}
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	em := c.client.EmbeddingModel(defaultEmbeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("no embedding data received from gemini")
	}
	return res.Embedding.Values, nil
}

func (c *Client) Complete(ctx context.Context, systemInstruction string, turns []llm.Turn) (string, error) {
	if len(turns) == 0 {
		return "", errors.New("no turns provided for chat completion")
	}

	last := turns[len(turns)-1]
	if last.Role != "user" {
		return "", errors.New("last turn is not from 'user', cannot proceed with chat completion")
	}

	model := c.client.GenerativeModel(defaultChatModel)
	if systemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemInstruction)},
		}
	}

	chatSession := model.StartChat()
	for _, turn := range turns[:len(turns)-1] {
		role := "user"
		if turn.Role == "assistant" {
			role = "model" // Gemini's name for the assistant role
		}
		chatSession.History = append(chatSession.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}

	resp, err := chatSession.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini response was empty or had no valid candidates")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Warnf("Gemini response part was not text: %T", part)
		}
	}

	if responseText.Len() == 0 {
		return "", errors.New("gemini response contained no text parts")
	}
	return responseText.String(), nil
}
