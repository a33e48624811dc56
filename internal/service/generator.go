package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
	"github.com/jvibeschool/chefcard/internal/domain"
	"github.com/jvibeschool/chefcard/internal/logger"
	"github.com/jvibeschool/chefcard/internal/prompts"
	"github.com/jvibeschool/chefcard/internal/storage"
)

// Collaborator interfaces are declared here, at the consumer, so tests can
// substitute fakes without spinning up HTTP servers.

type chefClient interface {
	GenerateRecipe(ctx context.Context, dish, apiKey string) (*domain.RecipeContent, error)
}

type artistClient interface {
	Generate(ctx context.Context, req ImageRequest) (*domain.GeneratedImage, error)
}

type visionClient interface {
	ExtractPositions(ctx context.Context, img []byte, apiKey string) domain.TextPositionList
}

type recipeCreator interface {
	Create(ctx context.Context, recipe *domain.Recipe) error
}

// GenerateRequest is one card generation order. Zero-valued option fields
// take defaults; only Dish is mandatory.
type GenerateRequest struct {
	Dish       string            `json:"dish"`
	Style      string            `json:"style"`
	Ratio      string            `json:"ratio"`
	Layout     string            `json:"layout"`
	Language   string            `json:"language"`
	RenderMode domain.RenderMode `json:"render_mode"`
	KeyTier    domain.KeyTier    `json:"key_tier"`
	CreatedBy  string            `json:"-"`
}

// GenerateResult is the outcome of a generation run. Degraded means the
// card was persisted with the placeholder image after the image retry
// budget ran out.
type GenerateResult struct {
	Recipe     *domain.Recipe
	Degraded   bool
	Diagnostic string
}

// GeneratorConfig holds orchestration settings.
type GeneratorConfig struct {
	PlaceholderURL string
	APIKeyFree     string
	APIKeyPaid     string
}

// GeneratorService runs the full card pipeline: recipe text, one or two
// images, best-effort position extraction, object upload and the final
// atomic insert.
type GeneratorService struct {
	chef    chefClient
	artist  artistClient
	vision  visionClient
	recipes recipeCreator
	store   storage.ObjectStorage

	placeholderURL string
	apiKeyFree     string
	apiKeyPaid     string
}

// NewGeneratorService creates a new GeneratorService.
func NewGeneratorService(
	cfg *GeneratorConfig,
	chef chefClient,
	artist artistClient,
	vision visionClient,
	recipes recipeCreator,
	store storage.ObjectStorage,
) *GeneratorService {
	return &GeneratorService{
		chef:           chef,
		artist:         artist,
		vision:         vision,
		recipes:        recipes,
		store:          store,
		placeholderURL: cfg.PlaceholderURL,
		apiKeyFree:     cfg.APIKeyFree,
		apiKeyPaid:     cfg.APIKeyPaid,
	}
}

// Generate runs the whole pipeline for one request. Text failure aborts
// with nothing persisted; image failure degrades to a placeholder card so
// the recipe text is not lost; persistence failure after successful AI
// calls is reported as a *PersistenceError.
// Parameters:
//   - ctx: context for the request. Cancellation is honored up to the text
//     stage; once money has been spent on images the pipeline runs to
//     completion so the result can be persisted.
//   - req: generation order.
//
// Returns:
//   - *GenerateResult: persisted recipe plus degradation info.
//   - error: ErrValidation, *TextGenerationError or *PersistenceError.
func (g *GeneratorService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	req = normalizeRequest(req)
	if req.Dish == "" {
		return nil, ErrValidation
	}

	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent: "generator",
		logger.FieldDish:      req.Dish,
	})
	apiKey := g.keyForTier(req.KeyTier)
	start := time.Now()

	content, err := g.chef.GenerateRecipe(ctx, req.Dish, apiKey)
	if err != nil {
		return nil, err
	}

	// Past this point upstream spend exists; finish even if the caller went
	// away so the spend is not wasted.
	ctx = context.WithoutCancel(ctx)

	spec := prompts.CardSpec{
		Title:       prompts.TitleForPrompt(req.Language, content.TitleEN, content.TitleKO),
		Ingredients: prompts.ListForPrompt(req.Language, content.IngredientsEN, content.IngredientsKO),
		Steps:       prompts.ListForPrompt(req.Language, content.StepsEN, content.StepsKO),
		Style:       req.Style,
		Layout:      req.Layout,
		Language:    req.Language,
		Ratio:       req.Ratio,
	}

	recipe := &domain.Recipe{
		Ingredients: bilingualPair(content.IngredientsEN, content.IngredientsKO),
		Steps:       bilingualPair(content.StepsEN, content.StepsKO),
		Style:       req.Style,
		Ratio:       req.Ratio,
		Layout:      req.Layout,
		Language:    req.Language,
		RenderMode:  req.RenderMode,
		CreatedBy:   req.CreatedBy,
	}

	result := &GenerateResult{Recipe: recipe}

	if req.RenderMode == domain.RenderModeOverlay {
		err = g.renderOverlay(ctx, req, spec, content, recipe, result, apiKey)
	} else {
		err = g.renderEmbedded(ctx, req, spec, content, recipe, result, apiKey)
	}
	if err != nil {
		return nil, err
	}

	recipe.Title = displayTitle(content)

	if err := g.recipes.Create(ctx, recipe); err != nil {
		return nil, &PersistenceError{Op: "recipe insert", Err: err}
	}

	logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldRecipeID:   recipe.ID,
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		"degraded":             result.Degraded,
	}).Info("recipe card generated")
	return result, nil
}

// renderEmbedded produces the single text-bearing card image.
func (g *GeneratorService) renderEmbedded(
	ctx context.Context,
	req GenerateRequest,
	spec prompts.CardSpec,
	content *domain.RecipeContent,
	recipe *domain.Recipe,
	result *GenerateResult,
	apiKey string,
) error {
	prompt := prompts.EmbeddedPrompt(spec)
	recipe.FinalPrompt = prompt
	recipe.ImageKind = domain.ImageKindEmbedded

	img, err := g.artist.Generate(ctx, ImageRequest{
		Prompt:      prompt,
		APIKey:      apiKey,
		Kind:        domain.ImageKindEmbedded,
		AspectRatio: req.Ratio,
	})
	if err != nil {
		g.degrade(ctx, content, recipe, result, err)
		return nil
	}

	url, upErr := g.uploadImage(ctx, "recipe", img)
	if upErr != nil {
		return upErr
	}
	recipe.ImageURL = url
	return nil
}

// renderOverlay produces the clean card image plus a text-bearing variant
// used only for position extraction. The clean image is primary; the
// embedded variant and its positions are best-effort extras.
func (g *GeneratorService) renderOverlay(
	ctx context.Context,
	req GenerateRequest,
	spec prompts.CardSpec,
	content *domain.RecipeContent,
	recipe *domain.Recipe,
	result *GenerateResult,
	apiKey string,
) error {
	cleanPrompt := prompts.CleanPrompt(spec)
	recipe.FinalPrompt = cleanPrompt
	recipe.ImageKind = domain.ImageKindClean

	embImg, embErr := g.artist.Generate(ctx, ImageRequest{
		Prompt:      prompts.EmbeddedPrompt(spec),
		APIKey:      apiKey,
		Kind:        domain.ImageKindEmbedded,
		AspectRatio: req.Ratio,
	})
	if embErr == nil {
		recipe.TextPositions = g.vision.ExtractPositions(ctx, embImg.Data, apiKey)
		url, upErr := g.uploadImage(ctx, "embedded", embImg)
		if upErr != nil {
			return upErr
		}
		recipe.ImageEmbeddedURL = url
	} else {
		logger.FromContext(ctx).WithError(embErr).Warn("embedded variant failed, card ships without overlay anchors")
	}

	cleanImg, cleanErr := g.artist.Generate(ctx, ImageRequest{
		Prompt:      cleanPrompt,
		APIKey:      apiKey,
		Kind:        domain.ImageKindClean,
		AspectRatio: req.Ratio,
	})
	if cleanErr != nil {
		g.degrade(ctx, content, recipe, result, cleanErr)
		return nil
	}

	url, upErr := g.uploadImage(ctx, "overlay", cleanImg)
	if upErr != nil {
		return upErr
	}
	recipe.ImageURL = url
	return nil
}

// degrade swaps in the placeholder image and annotates the title so the
// failure stays visible, instead of throwing away the recipe text.
func (g *GeneratorService) degrade(ctx context.Context, content *domain.RecipeContent, recipe *domain.Recipe, result *GenerateResult, err error) {
	result.Degraded = true
	result.Diagnostic = imageDiagnostic(err)
	recipe.ImageURL = g.placeholderURL
	content.TitleEN = strings.TrimSpace(content.TitleEN + " " + result.Diagnostic)

	logger.FromContext(ctx).WithError(err).Error("image generation exhausted, persisting placeholder card")
}

// uploadImage probes and uploads one image, returning its public URL.
func (g *GeneratorService) uploadImage(ctx context.Context, prefix string, img *domain.GeneratedImage) (string, error) {
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(img.Data)); err != nil {
		logger.FromContext(ctx).WithError(err).WithField(logger.FieldSize, len(img.Data)).Warn("image payload did not decode, uploading anyway")
	} else {
		logger.FromContext(ctx).WithFields(logger.Fields{
			"format": format,
			"width":  cfg.Width,
			"height": cfg.Height,
		}).Debug("image payload probed")
	}

	key := fmt.Sprintf("%s_%d_%s.png", prefix, time.Now().Unix(), uuid.NewString())
	if err := g.store.Upload(ctx, key, bytes.NewReader(img.Data), int64(len(img.Data)), "image/png"); err != nil {
		return "", &PersistenceError{Op: "image upload", Err: err}
	}
	return g.store.GetURL(key), nil
}

func (g *GeneratorService) keyForTier(tier domain.KeyTier) string {
	if tier == domain.KeyTierFree && g.apiKeyFree != "" {
		return g.apiKeyFree
	}
	return g.apiKeyPaid
}

// normalizeRequest trims the dish and fills defaulted option fields.
func normalizeRequest(req GenerateRequest) GenerateRequest {
	req.Dish = strings.TrimSpace(req.Dish)
	if req.Style == "" {
		req.Style = "minimal"
	}
	if req.Ratio == "" {
		req.Ratio = "vertical"
	}
	if req.Layout == "" {
		req.Layout = "standard"
	}
	if req.Language == "" {
		req.Language = "bilingual"
	}
	if req.RenderMode != domain.RenderModeOverlay {
		req.RenderMode = domain.RenderModeEmbedded
	}
	if req.KeyTier != domain.KeyTierFree {
		req.KeyTier = domain.KeyTierPaid
	}
	return req
}

// bilingualPair builds the stored language pair, copying one side into the
// other when the model omitted it.
func bilingualPair(en, ko []string) domain.LanguagePair {
	if len(en) == 0 {
		en = ko
	}
	if len(ko) == 0 {
		ko = en
	}
	return domain.LanguagePair{EN: en, KO: ko}
}

// displayTitle composes the persisted gallery title. The Korean title
// leads with the English one in parentheses; degradation annotations on
// the English title land inside the parentheses.
func displayTitle(content *domain.RecipeContent) string {
	if content.TitleKO == "" {
		return content.TitleEN
	}
	return content.TitleKO + " (" + content.TitleEN + ")"
}

// imageDiagnostic renders the short title annotation for a failed image.
func imageDiagnostic(err error) string {
	if e, ok := err.(*ImageGenerationError); ok {
		return e.Diagnostic()
	}
	return "[Retry: 0 - " + err.Error() + "]"
}
