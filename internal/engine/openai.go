package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/glotbridge/glotbridge-backend/internal/platform/envutil"
	"github.com/glotbridge/glotbridge-backend/internal/platform/logger"
)

const translateSystemPrompt = `You are a professional translator. You receive a JSON array of source strings.
Translate every string from the given source language into the given target language.
Preserve placeholders such as {name}, {{name}}, %s and HTML tags exactly as they appear.
Respond with ONLY a JSON array of the translated strings, same length and order as the input.`

// OpenAIEngine translates batches through the OpenAI chat completions
// API. One request covers the whole batch; the model is asked for a JSON
// array mirroring the input order.
type OpenAIEngine struct {
	log     *logger.Logger
	client  openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIEngine(log *logger.Logger) (*OpenAIEngine, error) {
	apiKey := envutil.String("OPENAI_API_KEY", "")
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := envutil.String("OPENAI_BASE_URL", ""); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIEngine{
		log:     log.With("engine", "openai"),
		client:  openai.NewClient(opts...),
		model:   envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		timeout: envutil.Duration("OPENAI_TIMEOUT", 120*time.Second),
	}, nil
}

func (e *OpenAIEngine) TranslateBatch(ctx context.Context, texts []string, targetLang, sourceLang string) ([]Result, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	input, err := json.Marshal(texts)
	if err != nil {
		return nil, err
	}
	user := fmt.Sprintf("Source language: %s\nTarget language: %s\nStrings:\n%s", sourceLang, targetLang, input)

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(translateSystemPrompt),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices returned")
	}

	translated, err := parseTranslations(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if len(translated) != len(texts) {
		return nil, fmt.Errorf("openai: got %d translations for %d inputs", len(translated), len(texts))
	}
	out := make([]Result, 0, len(translated))
	for _, text := range translated {
		out = append(out, Result{Text: text})
	}
	return out, nil
}

// parseTranslations tolerates a fenced code block around the JSON array.
func parseTranslations(content string) ([]string, error) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("openai: unparseable response: %w", err)
	}
	return out, nil
}

func (e *OpenAIEngine) Name() string    { return "openai" }
func (e *OpenAIEngine) Version() string { return e.model }
