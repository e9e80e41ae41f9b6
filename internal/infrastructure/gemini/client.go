package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/cfg"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/jitter"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const systemInstruction = "You are a retail analyst for a small shop. " +
	"Answer with short, practical recommendations based only on the data provided."

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client генерирует текстовые инсайты через Gemini.
type Client struct {
	client    *genai.Client
	model     contentGenerator
	modelName string
	cfg       *cfg.GeminiCfg
	logger    logger.Logger
	backoff   jitter.Backoff
}

func NewClient(ctx context.Context, cfg *cfg.GeminiCfg, logger logger.Logger) (*Client, error) {
	const op = "gemini.NewClient"

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("failed to create Gemini client: %w", err))
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(0.4)
	model.SetMaxOutputTokens(1024)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}

	return newClient(client, model, cfg, logger), nil
}

func newClient(client *genai.Client, model contentGenerator, cfg *cfg.GeminiCfg, logger logger.Logger) *Client {
	return &Client{
		client:    client,
		model:     model,
		modelName: cfg.Model,
		cfg:       cfg,
		logger:    logger,
		backoff:   jitter.NewBackoff(500*time.Millisecond, 5*time.Second),
	}
}

func (c *Client) Model() string {
	return c.modelName
}

// GenerateText отправляет prompt модели. Временные ошибки повторяются
// не более MaxRetries раз, каждая попытка ограничена Timeout.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	const op = "gemini.Client.GenerateText"

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.backoff.Sleep(ctx, attempt-1); err != nil {
				return "", e.Wrap(op, err)
			}
		}

		text, err := c.generateOnce(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !isRetryable(err) || ctx.Err() != nil {
			break
		}
		c.logger.Warnf("%s: attempt %d failed: %v", op, attempt+1, err)
	}

	return "", e.Wrap(op, lastErr)
}

func (c *Client) generateOnce(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.model.GenerateContent(callCtx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	text := extractText(resp)
	if text == "" {
		return "", errEmptyResponse
	}

	return text, nil
}

var errEmptyResponse = errors.New("no response candidates")

// extractText склеивает текстовые части всех кандидатов.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var result strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				result.WriteString(string(text))
			}
		}
	}

	return strings.TrimSpace(result.String())
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, errEmptyResponse) {
		return true
	}

	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.Internal, codes.DeadlineExceeded, codes.Aborted:
		return true
	case codes.Unknown:
		// Ошибки без gRPC-статуса (например, сетевые) тоже повторяем
		return true
	default:
		return false
	}
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
