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
	"github.com/jvibeschool/chefcard/internal/prompts"
)

// VisionConfig holds settings for the layout analysis client.
type VisionConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// VisionService asks a multimodal model where the text sits on a rendered
// card. Position extraction is best-effort: it runs once, and any failure
// yields an empty list so the card ships without overlay anchors rather
// than wasting the image spend.
type VisionService struct {
	client  *resty.Client
	baseURL string
	model   string
}

// NewVisionService creates a new VisionService.
func NewVisionService(cfg *VisionConfig) *VisionService {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &VisionService{
		client:  resty.New().SetTimeout(timeout),
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// ExtractPositions locates text elements on a rendered card image. The
// returned order is preserved exactly as the model emitted it; list
// position is what binds an entry to its ingredient or step later.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - image: PNG bytes of the rendered card.
//   - apiKey: API key selected for the requester's tier.
//
// Returns:
//   - domain.TextPositionList: extracted positions; empty on any failure.
func (s *VisionService) ExtractPositions(ctx context.Context, image []byte, apiKey string) domain.TextPositionList {
	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "vision")

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", apiKey).
		SetBody(&geminiRequest{
			Contents: []geminiContent{
				{Parts: []geminiPart{
					{Text: prompts.VisionPrompt},
					{InlineData: &geminiInlineData{
						MimeType: "image/png",
						Data:     base64.StdEncoding.EncodeToString(image),
					}},
				}},
			},
		}).
		Post(fmt.Sprintf("%s/models/%s:generateContent", s.baseURL, s.model))
	if err != nil {
		log.WithError(err).Warn("position extraction request failed")
		return nil
	}
	if resp.StatusCode() != 200 {
		log.WithField(logger.FieldStatus, resp.StatusCode()).Warn("position extraction rejected")
		return nil
	}

	var parsed geminiResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		log.WithError(err).Warn("position extraction envelope did not parse")
		return nil
	}

	positions := parsePositions(parsed.firstText())
	if positions == nil {
		log.Warn("position extraction returned no usable positions")
		return nil
	}
	log.WithField("positions", len(positions)).Info("text positions extracted")
	return positions
}

// parsePositions parses the model's JSON array answer, tolerating code
// fences and stray prose around the array.
func parsePositions(text string) domain.TextPositionList {
	text = stripFences(text)
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end <= start {
		return nil
	}

	var positions domain.TextPositionList
	if err := json.Unmarshal([]byte(text[start:end+1]), &positions); err != nil {
		return nil
	}
	if len(positions) == 0 {
		return nil
	}
	return positions
}
