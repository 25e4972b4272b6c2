// Package feedback builds the assessment prompt and relays it to an
// OpenAI-compatible chat completion endpoint.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Category identifies a user-facing failure class of feedback generation.
type Category string

const (
	CategoryMissingKey  Category = "missing_key"
	CategoryRateLimit   Category = "rate_limit"
	CategoryQuota       Category = "quota"
	CategoryInvalidKey  Category = "invalid_key"
	CategoryNotFound    Category = "not_found"
	CategoryAPIError    Category = "api_error"
	CategoryUnavailable Category = "unavailable"
)

// Error is the single typed error for all feedback failures. Message is for
// logs; callers present the Category to the user.
type Error struct {
	Category   Category
	StatusCode int
	Message    string
	err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("feedback %s (status %d): %s", e.Category, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("feedback %s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// Is matches errors by category so callers can compare against sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Category == e.Category
}

// ErrMissingAPIKey is returned before any network call when no credential
// is configured.
var ErrMissingAPIKey = &Error{Category: CategoryMissingKey, Message: "API key is not configured"}

// QuestionInfo carries the question fields the prompt needs.
type QuestionInfo struct {
	ID            int64    `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Category      string   `json:"category"`
}

// Request is the feedback boundary payload: one submission joined with the
// question set it was graded against.
type Request struct {
	EmployeeName   string         `json:"employeeName"`
	Position       string         `json:"position"`
	Sector         string         `json:"sector"`
	Answers        map[int64]int  `json:"answers"`
	Questions      []QuestionInfo `json:"questions"`
	Score          int            `json:"score"`
	TotalQuestions int            `json:"totalQuestions"`
}

const maxFeedbackTokens = 2000

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a feedback client. It fails fast with ErrMissingAPIKey when no
// credential is given.
func New(baseURL, apiKey, modelName string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}, nil
}

// Generate sends the composed prompt and returns the completion text.
// Every failure comes back as a *Error; there is no retry and no partial
// result, so a successful return is always a non-empty feedback string.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	prompt := BuildPrompt(req)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: maxFeedbackTokens,
	})
	if err != nil {
		fbErr := classify(err)
		slog.Error("feedback generation failed", "category", fbErr.Category, "status", fbErr.StatusCode, "error", err)
		return "", fbErr
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Category: CategoryAPIError, Message: "completion returned no choices"}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &Error{Category: CategoryAPIError, Message: "completion returned empty content"}
	}
	return text, nil
}

func classify(err error) *Error {
	var status int
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return &Error{Category: CategoryUnavailable, Message: err.Error(), err: err}
	}

	switch status {
	case 429:
		return &Error{Category: CategoryRateLimit, StatusCode: status, Message: "rate limit exceeded", err: err}
	case 402:
		return &Error{Category: CategoryQuota, StatusCode: status, Message: "insufficient credits", err: err}
	case 401:
		return &Error{Category: CategoryInvalidKey, StatusCode: status, Message: "invalid or expired API key", err: err}
	case 404:
		return &Error{Category: CategoryNotFound, StatusCode: status, Message: "endpoint not found", err: err}
	default:
		return &Error{Category: CategoryAPIError, StatusCode: status, Message: "AI service error", err: err}
	}
}
