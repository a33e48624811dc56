package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/jvibeschool/chefcard/internal/domain"
	"github.com/jvibeschool/chefcard/internal/prompts"
)

// ============================================================================
// Fakes
// ============================================================================

type fakeChef struct {
	content *domain.RecipeContent
	err     error
	calls   int
}

func (f *fakeChef) GenerateRecipe(ctx context.Context, dish, apiKey string) (*domain.RecipeContent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	content := *f.content
	return &content, nil
}

type fakeArtist struct {
	failKinds map[domain.ImageKind]error
	requests  []ImageRequest
}

func (f *fakeArtist) Generate(ctx context.Context, req ImageRequest) (*domain.GeneratedImage, error) {
	f.requests = append(f.requests, req)
	if err, ok := f.failKinds[req.Kind]; ok {
		return nil, err
	}
	return &domain.GeneratedImage{Data: []byte("png-" + string(req.Kind)), Kind: req.Kind}, nil
}

type fakeVision struct {
	positions domain.TextPositionList
	calls     int
}

func (f *fakeVision) ExtractPositions(ctx context.Context, image []byte, apiKey string) domain.TextPositionList {
	f.calls++
	return f.positions
}

type fakeRecipeStore struct {
	created *domain.Recipe
	err     error
}

func (f *fakeRecipeStore) Create(ctx context.Context, recipe *domain.Recipe) error {
	if f.err != nil {
		return f.err
	}
	recipe.ID = 42
	f.created = recipe
	return nil
}

type fakeObjectStorage struct {
	uploaded []string
	err      error
}

func (f *fakeObjectStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if f.err != nil {
		return f.err
	}
	f.uploaded = append(f.uploaded, key)
	return nil
}

func (f *fakeObjectStorage) GetURL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeObjectStorage) KeyFromURL(url string) (string, bool) {
	if strings.HasPrefix(url, "https://cdn.test/") {
		return strings.TrimPrefix(url, "https://cdn.test/"), true
	}
	return "", false
}

func (f *fakeObjectStorage) Delete(ctx context.Context, key string) error { return nil }

func (f *fakeObjectStorage) Exists(ctx context.Context, key string) (bool, error) { return true, nil }

// ============================================================================
// Helpers
// ============================================================================

const placeholderURL = "https://placehold.co/600x800/orange/white?text=Gen+Failed"

func kimchiContent() *domain.RecipeContent {
	return &domain.RecipeContent{
		TitleEN:       "Kimchi Stew",
		TitleKO:       "김치찌개",
		IngredientsEN: []string{"kimchi", "pork", "tofu"},
		IngredientsKO: []string{"김치", "돼지고기", "두부"},
		StepsEN:       []string{"sauté kimchi", "add broth", "simmer"},
		StepsKO:       []string{"김치 볶기", "육수 붓기", "끓이기"},
	}
}

type generatorFixture struct {
	chef    *fakeChef
	artist  *fakeArtist
	vision  *fakeVision
	recipes *fakeRecipeStore
	store   *fakeObjectStorage
	svc     *GeneratorService
}

func newGeneratorFixture() *generatorFixture {
	f := &generatorFixture{
		chef:    &fakeChef{content: kimchiContent()},
		artist:  &fakeArtist{},
		vision:  &fakeVision{positions: domain.TextPositionList{{Type: "title", X: 10, Y: 5, FontSize: domain.FontSizeXL}}},
		recipes: &fakeRecipeStore{},
		store:   &fakeObjectStorage{},
	}
	f.svc = NewGeneratorService(
		&GeneratorConfig{PlaceholderURL: placeholderURL, APIKeyFree: "free-key", APIKeyPaid: "paid-key"},
		f.chef, f.artist, f.vision, f.recipes, f.store,
	)
	return f
}

// ============================================================================
// Tests
// ============================================================================

func TestGenerateEmbeddedSuccess(t *testing.T) {
	f := newGeneratorFixture()

	result, err := f.svc.Generate(context.Background(), GenerateRequest{
		Dish:     "Kimchi Stew",
		Style:    "minimal",
		Language: "bilingual",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Degraded {
		t.Error("successful run must not be degraded")
	}

	recipe := f.recipes.created
	if recipe == nil {
		t.Fatal("recipe was not persisted")
	}
	if recipe.Title != "김치찌개 (Kimchi Stew)" {
		t.Errorf("wrong composed title: %q", recipe.Title)
	}
	if recipe.ImageKind != domain.ImageKindEmbedded {
		t.Errorf("embedded mode must persist the embedded kind, got %s", recipe.ImageKind)
	}

	wantPrompt := prompts.EmbeddedPrompt(prompts.CardSpec{
		Title:       "Kimchi Stew",
		Ingredients: "kimchi, pork, tofu",
		Steps:       "sauté kimchi, add broth, simmer",
		Style:       "minimal",
		Layout:      "standard",
		Language:    "bilingual",
		Ratio:       "vertical",
	})
	if recipe.FinalPrompt != wantPrompt {
		t.Errorf("stored prompt must match the builder output exactly:\ngot:  %s\nwant: %s", recipe.FinalPrompt, wantPrompt)
	}

	if len(f.store.uploaded) != 1 || !strings.HasPrefix(f.store.uploaded[0], "recipe_") {
		t.Errorf("want one recipe_ upload, got %v", f.store.uploaded)
	}
	if !strings.HasPrefix(recipe.ImageURL, "https://cdn.test/recipe_") {
		t.Errorf("wrong image URL: %s", recipe.ImageURL)
	}
	if f.vision.calls != 0 {
		t.Error("embedded mode must not run position extraction")
	}
}

func TestGenerateEmbeddedDegrades(t *testing.T) {
	f := newGeneratorFixture()
	f.artist.failKinds = map[domain.ImageKind]error{
		domain.ImageKindEmbedded: &ImageGenerationError{Attempts: 3, LastStatus: 503, RawBody: `{"error":{"code":503,"message":"The model is overloaded. Please try again later.","status":"UNAVAILABLE"}}`},
	}

	result, err := f.svc.Generate(context.Background(), GenerateRequest{Dish: "Kimchi Stew"})
	if err != nil {
		t.Fatalf("image failure must degrade, not abort: %v", err)
	}
	if !result.Degraded {
		t.Fatal("want degraded result")
	}

	recipe := f.recipes.created
	if recipe.ImageURL != placeholderURL {
		t.Errorf("want placeholder URL, got %s", recipe.ImageURL)
	}
	if !strings.Contains(recipe.Title, "[Retry: 503 - The model is overloaded. Please try again later.]") {
		t.Errorf("title must carry the failure annotation, got %q", recipe.Title)
	}
	if !strings.HasPrefix(recipe.Title, "김치찌개 (Kimchi Stew") {
		t.Errorf("annotation must land inside the parentheses, got %q", recipe.Title)
	}
	if len(f.store.uploaded) != 0 {
		t.Errorf("nothing should be uploaded on degradation, got %v", f.store.uploaded)
	}
}

func TestGenerateOverlaySuccess(t *testing.T) {
	f := newGeneratorFixture()

	result, err := f.svc.Generate(context.Background(), GenerateRequest{
		Dish:       "Kimchi Stew",
		RenderMode: domain.RenderModeOverlay,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Degraded {
		t.Error("successful run must not be degraded")
	}

	// embedded variant first (for extraction), clean second (primary)
	if len(f.artist.requests) != 2 {
		t.Fatalf("want 2 image calls, got %d", len(f.artist.requests))
	}
	if f.artist.requests[0].Kind != domain.ImageKindEmbedded || f.artist.requests[1].Kind != domain.ImageKindClean {
		t.Errorf("wrong call order: %+v", f.artist.requests)
	}

	recipe := f.recipes.created
	if recipe.ImageKind != domain.ImageKindClean {
		t.Errorf("overlay mode must persist the clean kind, got %s", recipe.ImageKind)
	}
	if !strings.HasPrefix(recipe.ImageURL, "https://cdn.test/overlay_") {
		t.Errorf("primary image must be the clean variant, got %s", recipe.ImageURL)
	}
	if !strings.HasPrefix(recipe.ImageEmbeddedURL, "https://cdn.test/embedded_") {
		t.Errorf("embedded variant must be kept, got %s", recipe.ImageEmbeddedURL)
	}
	if len(recipe.TextPositions) != 1 || recipe.TextPositions[0].Type != "title" {
		t.Errorf("positions not carried through: %+v", recipe.TextPositions)
	}
	if !strings.Contains(recipe.FinalPrompt, "NO TEXT LABELS") {
		t.Error("overlay mode must store the clean prompt")
	}
	if f.vision.calls != 1 {
		t.Errorf("want one extraction call, got %d", f.vision.calls)
	}
}

func TestGenerateOverlayEmbeddedVariantFails(t *testing.T) {
	f := newGeneratorFixture()
	f.artist.failKinds = map[domain.ImageKind]error{
		domain.ImageKindEmbedded: &ImageGenerationError{Attempts: 3, LastStatus: 503},
	}

	result, err := f.svc.Generate(context.Background(), GenerateRequest{
		Dish:       "Kimchi Stew",
		RenderMode: domain.RenderModeOverlay,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Degraded {
		t.Error("primary image succeeded, result must not be degraded")
	}

	recipe := f.recipes.created
	if recipe.ImageEmbeddedURL != "" {
		t.Errorf("failed variant must not leave a URL, got %s", recipe.ImageEmbeddedURL)
	}
	if len(recipe.TextPositions) != 0 {
		t.Errorf("extraction must be skipped without the embedded variant, got %+v", recipe.TextPositions)
	}
	if f.vision.calls != 0 {
		t.Error("extraction must only run on the embedded variant")
	}
	if !strings.HasPrefix(recipe.ImageURL, "https://cdn.test/overlay_") {
		t.Errorf("clean image must still be primary, got %s", recipe.ImageURL)
	}
}

func TestGenerateOverlayCleanFails(t *testing.T) {
	f := newGeneratorFixture()
	f.artist.failKinds = map[domain.ImageKind]error{
		domain.ImageKindClean: &ImageGenerationError{Attempts: 3, LastStatus: 429},
	}

	result, err := f.svc.Generate(context.Background(), GenerateRequest{
		Dish:       "Kimchi Stew",
		RenderMode: domain.RenderModeOverlay,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Degraded {
		t.Fatal("failed primary image must degrade")
	}

	recipe := f.recipes.created
	if recipe.ImageURL != placeholderURL {
		t.Errorf("want placeholder URL, got %s", recipe.ImageURL)
	}
	// the embedded variant succeeded and is kept even on a degraded card
	if !strings.HasPrefix(recipe.ImageEmbeddedURL, "https://cdn.test/embedded_") {
		t.Errorf("embedded variant should survive degradation, got %s", recipe.ImageEmbeddedURL)
	}
}

func TestGenerateValidation(t *testing.T) {
	f := newGeneratorFixture()

	_, err := f.svc.Generate(context.Background(), GenerateRequest{Dish: "   "})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if f.chef.calls != 0 {
		t.Error("validation must reject before any upstream call")
	}
}

func TestGenerateTextFailureAborts(t *testing.T) {
	f := newGeneratorFixture()
	f.chef.err = &TextGenerationError{StatusCode: 403, Message: "API key not valid"}

	_, err := f.svc.Generate(context.Background(), GenerateRequest{Dish: "Kimchi Stew"})

	var textErr *TextGenerationError
	if !errors.As(err, &textErr) {
		t.Fatalf("want *TextGenerationError, got %T", err)
	}
	if len(f.artist.requests) != 0 {
		t.Error("no image call after a text failure")
	}
	if f.recipes.created != nil {
		t.Error("nothing may be persisted after a text failure")
	}
}

func TestGeneratePersistenceFailure(t *testing.T) {
	f := newGeneratorFixture()
	f.recipes.err = errors.New("database is locked")

	_, err := f.svc.Generate(context.Background(), GenerateRequest{Dish: "Kimchi Stew"})

	var persErr *PersistenceError
	if !errors.As(err, &persErr) {
		t.Fatalf("want *PersistenceError, got %T", err)
	}
}

func TestGenerateBilingualFallback(t *testing.T) {
	f := newGeneratorFixture()
	f.chef.content.IngredientsKO = nil
	f.chef.content.StepsKO = nil

	_, err := f.svc.Generate(context.Background(), GenerateRequest{Dish: "Kimchi Stew"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recipe := f.recipes.created
	if len(recipe.Ingredients.KO) != len(recipe.Ingredients.EN) {
		t.Errorf("missing korean bucket must copy english: %+v", recipe.Ingredients)
	}
	if recipe.Steps.KO[0] != "sauté kimchi" {
		t.Errorf("fallback should copy entries verbatim, got %+v", recipe.Steps)
	}
}

func TestGenerateKeyTierSelection(t *testing.T) {
	f := newGeneratorFixture()

	if _, err := f.svc.Generate(context.Background(), GenerateRequest{Dish: "Kimchi Stew", KeyTier: domain.KeyTierFree}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.artist.requests[0].APIKey != "free-key" {
		t.Errorf("free tier must use the free key, got %q", f.artist.requests[0].APIKey)
	}

	f = newGeneratorFixture()
	if _, err := f.svc.Generate(context.Background(), GenerateRequest{Dish: "Kimchi Stew"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.artist.requests[0].APIKey != "paid-key" {
		t.Errorf("default tier must use the paid key, got %q", f.artist.requests[0].APIKey)
	}
}
