package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"document-qa/internal/config"
	"document-qa/internal/models"
)

const (
	relatedTrimChars  = "•-–. 1234567890\t"
	relatedMinLength  = 10
	relatedMaxResults = 6
)

// Client sends prompts to an OpenAI-compatible chat-completion endpoint.
type Client struct {
	llm llms.Model
	cfg *config.ChatConfig
}

// NewClient builds a client for cfg.APIURL. The URL may be the full
// .../v1/chat/completions endpoint or the /v1 base.
func NewClient(cfg *config.ChatConfig) (*Client, error) {
	log.Debug().Str("api_url", cfg.APIURL).Str("model", cfg.Model).Msg("Creating chat client")
	llm, err := openai.New(
		openai.WithBaseURL(BaseURL(cfg.APIURL)),
		openai.WithToken(tokenOrPlaceholder(cfg.Key)),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("init chat client: %w", err)
	}
	return NewClientWithModel(llm, cfg), nil
}

func NewClientWithModel(llm llms.Model, cfg *config.ChatConfig) *Client {
	return &Client{llm: llm, cfg: cfg}
}

// BaseURL strips the /chat/completions suffix from a chat endpoint URL.
func BaseURL(apiURL string) string {
	return strings.TrimSuffix(strings.TrimRight(apiURL, "/"), "/chat/completions")
}

func tokenOrPlaceholder(key string) string {
	key = strings.TrimPrefix(key, "Bearer ")
	if key == "" {
		return "lm-studio"
	}
	return key
}

// GenerateContent calls the model with a system/user message pair and
// returns the first choice.
func (c *Client) GenerateContent(ctx context.Context, prompt models.Prompt, temperature float64, maxTokens int) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompt.System),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt.User),
	}
	if prompt.System == "" {
		messages = messages[1:]
	}

	resp, err := c.llm.GenerateContent(ctx, messages,
		llms.WithModel(c.cfg.Model),
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from model")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// Complete answers prompt. A failed call is logged and returned as the
// answer text so that callers always have something to show.
func (c *Client) Complete(ctx context.Context, prompt models.Prompt) string {
	answer, err := c.GenerateContent(ctx, prompt, c.cfg.AnswerTemperature(), c.cfg.MaxTokens)
	if err != nil {
		log.Error().Err(err).Str("api_url", c.cfg.APIURL).Msg("Chat completion failed")
		return fmt.Sprintf(models.LLMErrorAnswer, err)
	}
	return answer
}

// RelatedQuestions asks the model for follow-up questions to question.
// Failures yield an empty list.
func (c *Client) RelatedQuestions(ctx context.Context, question string) []string {
	prompt := models.Prompt{User: fmt.Sprintf(models.RelatedPromptTemplate, question)}
	text, err := c.GenerateContent(ctx, prompt, c.cfg.RelatedQuestionTemperature(), c.cfg.RelatedMaxTokens)
	if err != nil {
		log.Warn().Err(err).Msg("Related questions failed")
		return []string{}
	}
	return ParseRelatedQuestions(text)
}

// ParseRelatedQuestions keeps one question per line with bullets and
// numbering trimmed. Lines of 10 characters or fewer, measured before the
// trim, are dropped.
func ParseRelatedQuestions(text string) []string {
	questions := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= relatedMinLength {
			continue
		}
		questions = append(questions, strings.Trim(line, relatedTrimChars))
		if len(questions) == relatedMaxResults {
			break
		}
	}
	return questions
}
