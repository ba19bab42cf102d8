package reviewer

import (
	"context"
	"errors"
	"io"

	"github.com/sashabaranov/go-openai"

	apperrors "compliance/pkg/errors"
)

type OpenAIConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
}

// OpenAIReviewer streams a chat completion from any OpenAI-compatible
// endpoint.
type OpenAIReviewer struct {
	client *openai.Client
	cfg    OpenAIConfig
}

func NewOpenAIReviewer(cfg OpenAIConfig) *OpenAIReviewer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	return &OpenAIReviewer{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}
}

func (r *OpenAIReviewer) Stream(ctx context.Context, prompt string, emit func(chunk string)) error {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if r.cfg.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: r.cfg.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	stream, err := r.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       r.cfg.Model,
		Messages:    messages,
		Temperature: r.cfg.Temperature,
		MaxTokens:   r.cfg.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		return startError(err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrAnalysis)
		}
		for _, choice := range resp.Choices {
			if choice.Delta.Content != "" {
				emit(choice.Delta.Content)
			}
		}
	}
}

// startError classifies a failure to open the stream. Client errors (bad
// key, bad model) are not worth retrying.
func startError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 && apiErr.HTTPStatusCode != 429 {
		return apperrors.Wrap(err, apperrors.ErrAnalysis).AsFatal()
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= 400 && reqErr.HTTPStatusCode < 500 && reqErr.HTTPStatusCode != 429 {
		return apperrors.Wrap(err, apperrors.ErrAnalysis).AsFatal()
	}
	return apperrors.Wrap(err, apperrors.ErrAnalysis)
}
