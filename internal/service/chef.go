package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jvibeschool/chefcard/internal/domain"
	"github.com/jvibeschool/chefcard/internal/logger"
	"github.com/jvibeschool/chefcard/internal/prompts"
)

// ChefConfig holds settings for the recipe text client.
type ChefConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// ChefService turns a dish name into structured bilingual recipe content
// using the text generation endpoint. Failures here are fatal to the whole
// generation request: without recipe text there is nothing to draw.
type ChefService struct {
	client  *resty.Client
	baseURL string
	model   string
}

// NewChefService creates a new ChefService.
func NewChefService(cfg *ChefConfig) *ChefService {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &ChefService{
		client:  resty.New().SetTimeout(timeout),
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// GenerateRecipe asks the text model for bilingual recipe content for the
// given dish. The model is instructed to answer with bare JSON; code fences
// are stripped before parsing since models wrap output anyway.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - dish: free-text dish name from the user.
//   - apiKey: API key selected for the requester's tier.
//
// Returns:
//   - *domain.RecipeContent: parsed bilingual titles, ingredients and steps.
//   - error: *TextGenerationError if the endpoint or payload is unusable.
func (s *ChefService) GenerateRecipe(ctx context.Context, dish, apiKey string) (*domain.RecipeContent, error) {
	start := time.Now()
	url := fmt.Sprintf("%s/models/%s:generateContent", s.baseURL, s.model)

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", apiKey).
		SetBody(newTextRequest(prompts.ChefPrompt(dish))).
		Post(url)
	if err != nil {
		return nil, &TextGenerationError{Message: err.Error()}
	}

	body := resp.Body()
	if resp.StatusCode() != 200 {
		msg := upstreamErrorMessage(string(body))
		if msg == "" {
			msg = resp.Status()
		}
		return nil, &TextGenerationError{
			StatusCode: resp.StatusCode(),
			Message:    msg,
			RawBody:    truncate(string(body), maxDiagnosticBody),
		}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &TextGenerationError{
			StatusCode: resp.StatusCode(),
			Message:    "malformed response envelope: " + err.Error(),
			RawBody:    truncate(string(body), maxDiagnosticBody),
		}
	}

	text := parsed.firstText()
	if text == "" {
		return nil, &TextGenerationError{
			StatusCode: resp.StatusCode(),
			Message:    "response carried no text candidate",
			RawBody:    truncate(string(body), maxDiagnosticBody),
		}
	}

	var content domain.RecipeContent
	if err := json.Unmarshal([]byte(stripFences(text)), &content); err != nil {
		return nil, &TextGenerationError{
			StatusCode: resp.StatusCode(),
			Message:    "recipe JSON did not parse: " + err.Error(),
			RawBody:    truncate(text, maxDiagnosticBody),
		}
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldComponent:  "chef",
		logger.FieldDish:       dish,
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info("recipe text generated")
	return &content, nil
}
