package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jvibeschool/chefcard/internal/domain"
	"github.com/jvibeschool/chefcard/internal/logger"
)

// ImageAPI selects which wire shape the configured image model speaks.
type ImageAPI string

const (
	// ImageAPIPredict is the Imagen-family :predict endpoint.
	ImageAPIPredict ImageAPI = "predict"

	// ImageAPIChat is the multimodal :generateContent endpoint.
	ImageAPIChat ImageAPI = "chat"
)

// ResolveImageAPI picks the wire shape from the model name. Imagen models
// only speak :predict; everything else goes through :generateContent.
func ResolveImageAPI(model string) ImageAPI {
	if strings.Contains(strings.ToLower(model), "imagen") {
		return ImageAPIPredict
	}
	return ImageAPIChat
}

// chatImageTemperature keeps multimodal image output close to the prompt.
const chatImageTemperature = 0.4

// ArtistConfig holds settings for the image client.
type ArtistConfig struct {
	BaseURL        string
	Model          string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// ImageRequest describes one image to render.
type ImageRequest struct {
	Prompt      string
	APIKey      string
	Kind        domain.ImageKind
	AspectRatio string // prompt-level ratio key; mapped to a parameter on :predict
}

// ArtistService renders card images. Transient upstream failures (overload,
// rate limit, transport) are retried with exponential backoff; anything
// else fails immediately. Errors never escape as panics; the orchestrator
// decides whether a failure degrades or aborts the request.
type ArtistService struct {
	client     *resty.Client
	baseURL    string
	model      string
	api        ImageAPI
	maxRetries int
	baseDelay  time.Duration

	// sleep is swapped out in tests to keep backoff deterministic.
	sleep func(time.Duration)
}

// NewArtistService creates a new ArtistService.
func NewArtistService(cfg *ArtistConfig) *ArtistService {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 180 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	return &ArtistService{
		client:     resty.New().SetTimeout(timeout),
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		api:        ResolveImageAPI(cfg.Model),
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		sleep:      time.Sleep,
	}
}

// Generate renders one image for the given prompt, retrying transient
// failures up to the configured budget. A 200 that carries no image payload
// counts as transient: the model sometimes answers with text only and a
// fresh attempt usually succeeds.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: prompt, key and kind of the image to render.
//
// Returns:
//   - *domain.GeneratedImage: decoded image bytes on success.
//   - error: *ImageGenerationError carrying the last status and body.
func (s *ArtistService) Generate(ctx context.Context, req ImageRequest) (*domain.GeneratedImage, error) {
	log := logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldComponent: "artist",
		"image_kind":          string(req.Kind),
	})

	failure := &ImageGenerationError{}
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		failure.Attempts = attempt

		data, status, body, err := s.attempt(ctx, req)
		if err == nil && len(data) > 0 {
			log.WithFields(logger.Fields{
				logger.FieldAttempt: attempt,
				logger.FieldSize:    len(data),
			}).Info("image generated")
			return &domain.GeneratedImage{Data: data, Kind: req.Kind}, nil
		}

		failure.LastStatus = status
		failure.RawBody = truncate(body, maxDiagnosticBody)
		if err != nil {
			failure.LastErr = err.Error()
		} else {
			failure.LastErr = ""
		}

		if !retryableImageFailure(status, err) {
			log.WithFields(logger.Fields{
				logger.FieldAttempt: attempt,
				logger.FieldStatus:  status,
			}).Warn("image generation failed with non-retryable status")
			return nil, failure
		}

		if attempt < s.maxRetries {
			delay := s.baseDelay << (attempt - 1)
			log.WithFields(logger.Fields{
				logger.FieldAttempt: attempt,
				logger.FieldStatus:  status,
				"retry_in":          delay.String(),
			}).Warn("image generation attempt failed, retrying")
			s.sleep(delay)
		}
	}

	log.WithField(logger.FieldStatus, failure.LastStatus).Error("image generation retry budget exhausted")
	return nil, failure
}

// attempt performs one upstream call and extracts the image payload.
// A nil error with empty data means the response was well-formed but
// carried no image.
func (s *ArtistService) attempt(ctx context.Context, req ImageRequest) (data []byte, status int, body string, err error) {
	var resp *resty.Response
	if s.api == ImageAPIPredict {
		resp, err = s.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetQueryParam("key", req.APIKey).
			SetBody(&predictRequest{
				Instances: []predictInstance{{Prompt: req.Prompt}},
				Parameters: predictParameters{
					SampleCount: 1,
					AspectRatio: predictAspectRatio(req.AspectRatio),
				},
			}).
			Post(fmt.Sprintf("%s/models/%s:predict", s.baseURL, s.model))
	} else {
		temp := chatImageTemperature
		resp, err = s.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetQueryParam("key", req.APIKey).
			SetBody(&geminiRequest{
				Contents: []geminiContent{
					{Parts: []geminiPart{{Text: req.Prompt}}},
				},
				GenerationConfig: &geminiGenerationConfig{
					Temperature:        &temp,
					ResponseModalities: []string{"TEXT", "IMAGE"},
				},
			}).
			Post(fmt.Sprintf("%s/models/%s:generateContent", s.baseURL, s.model))
	}
	if err != nil {
		return nil, 0, "", err
	}

	status = resp.StatusCode()
	body = string(resp.Body())
	if status != 200 {
		return nil, status, body, nil
	}

	encoded := s.extractPayload(body)
	if encoded == "" {
		return nil, status, body, nil
	}

	data, decErr := base64.StdEncoding.DecodeString(encoded)
	if decErr != nil {
		// treat garbage base64 as a missing payload and retry
		return nil, status, body, nil
	}
	return data, status, body, nil
}

// extractPayload pulls the base64 image payload out of a 200 body.
func (s *ArtistService) extractPayload(body string) string {
	if s.api == ImageAPIPredict {
		var parsed predictResponse
		if err := json.Unmarshal([]byte(body), &parsed); err != nil {
			return ""
		}
		if len(parsed.Predictions) == 0 {
			return ""
		}
		return parsed.Predictions[0].BytesBase64Encoded
	}

	var parsed geminiResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return ""
	}
	if inline := parsed.firstInlineData(); inline != nil {
		return inline.Data
	}
	return ""
}

// retryableImageFailure reports whether a failed attempt should be retried.
// Overload (503), rate limiting (429), transport errors and empty 200
// payloads are transient; any other status is a hard failure.
func retryableImageFailure(status int, err error) bool {
	if err != nil {
		return true
	}
	switch status {
	case 200, 503, 429:
		return true
	}
	return false
}

// predictAspectRatio maps a card ratio key to the :predict aspectRatio
// parameter. Unknown keys fall back to the vertical card format.
func predictAspectRatio(ratio string) string {
	switch ratio {
	case "horizontal":
		return "16:9"
	case "square":
		return "1:1"
	default:
		return "9:16"
	}
}
