package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/conorfennell/flashlearn/internal/domain"
)

const (
	DefaultModel = "gpt-4o-mini"

	maxTokens   = 2000
	temperature = 0.7
)

const systemPrompt = `You create vocabulary flashcards for language learners.
Extract the key words, phrases and idioms from the text and pair each with its translation.

Rules:
1. Produce between 3 and 10 flashcards depending on the length of the text.
2. Detect the language of the text. Polish text is translated to English, English text to Polish.
3. Prefer frequent nouns, verbs and adjectives, useful phrases, idioms and collocations.
4. question is the word or phrase in the language of the text, answer is its translation.
5. Keep both sides short. These are flashcards, not definitions.

Reply with JSON only, in this shape:
{"flashcards": [{"question": "word or phrase", "answer": "translation"}]}`

// OpenAIConfig configures an OpenAI-compatible generator.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIGenerator implements Generator using the OpenAI SDK.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAIGenerator(cfg OpenAIConfig, logger *slog.Logger) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger,
	}, nil
}

func (g *OpenAIGenerator) ModelID() string { return g.model }

func (g *OpenAIGenerator) Generate(ctx context.Context, text string) (*Result, error) {
	start := time.Now()
	words := WordCount(text)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(text, SuggestedCount(words))},
		},
		MaxCompletionTokens: maxTokens,
		Temperature:         temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		g.logger.Error("flashcard generation failed", "error", err, "duration", time.Since(start))
		return nil, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("no choices in OpenAI response")}
	}

	content := resp.Choices[0].Message.Content
	drafts, err := g.parse(content)
	if err != nil {
		return nil, err
	}

	g.logger.Info("flashcards generated",
		"count", len(drafts),
		"words", words,
		"tokens", resp.Usage.TotalTokens,
		"duration", time.Since(start),
	)
	return &Result{
		Drafts: drafts,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Model: g.model,
	}, nil
}

type cardItem struct {
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
}

func (g *OpenAIGenerator) parse(content string) ([]domain.Draft, error) {
	var payload struct {
		Flashcards []json.RawMessage `json:"flashcards"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, &ErrInvalidResponse{Content: json.RawMessage(content), Err: err}
	}
	if payload.Flashcards == nil {
		return nil, &ErrInvalidResponse{Content: json.RawMessage(content), Err: errors.New("missing flashcards array")}
	}

	raw := make([]domain.Draft, 0, len(payload.Flashcards))
	for _, item := range payload.Flashcards {
		var c cardItem
		if err := json.Unmarshal(item, &c); err != nil || c.Question == nil || c.Answer == nil {
			g.logger.Warn("skipping invalid generated flashcard", "item", string(item))
			continue
		}
		raw = append(raw, domain.Draft{Question: *c.Question, Answer: *c.Answer})
	}

	drafts := cleanDrafts(raw)
	if len(drafts) < minCards {
		return nil, &ErrInvalidResponse{
			Content: json.RawMessage(content),
			Err:     fmt.Errorf("too few flashcards generated: %d", len(drafts)),
		}
	}
	return drafts, nil
}

func userPrompt(text string, count int) string {
	return fmt.Sprintf(`Generate about %d vocabulary flashcards from the text below.

SOURCE TEXT:
%s

Pick the %d most useful words or phrases, translate them into the other language, and do not write questions like "What does ... mean?".`, count, text, count)
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return &ErrRateLimit{Err: err}
		case apiErr.HTTPStatusCode >= 500:
			return &ErrProviderUnavailable{Err: err}
		}
	}
	return &ErrProviderUnavailable{Err: err}
}
