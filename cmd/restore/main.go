package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/jvibeschool/chefcard/internal/config"
	"github.com/jvibeschool/chefcard/internal/domain"
	"github.com/jvibeschool/chefcard/internal/logger"
	"github.com/jvibeschool/chefcard/internal/prompts"
	"github.com/jvibeschool/chefcard/internal/repository"
)

// restore backfills the final_prompt column for rows persisted before the
// prompt was stored. The prompt builders are deterministic, so rebuilding
// from the stored card fields reproduces the original prompt exactly.
func main() {
	configPath := flag.String("config", "", "config file path (default: ./configs/config.yaml)")
	dryRun := flag.Bool("dry-run", false, "print what would be written without updating rows")
	limit := flag.Int("limit", 0, "maximum rows to process (0 = all)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(nil)
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	recipeRepo := repository.NewRecipeRepository(db)

	ctx := context.Background()
	recipes, err := recipeRepo.ListMissingPrompt(ctx, *limit)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to list recipes")
	}
	appLogger.WithField("count", len(recipes)).Info("Recipes missing a stored prompt")

	restored := 0
	for _, recipe := range recipes {
		prompt := rebuildPrompt(&recipe)
		if *dryRun {
			appLogger.WithFields(logger.Fields{
				logger.FieldRecipeID: recipe.ID,
				"prompt_len":         len(prompt),
			}).Info("Would restore prompt")
			continue
		}
		if err := recipeRepo.UpdateFinalPrompt(ctx, recipe.ID, prompt); err != nil {
			appLogger.WithError(err).WithField(logger.FieldRecipeID, recipe.ID).Error("Failed to update recipe")
			continue
		}
		restored++
	}

	appLogger.WithFields(logger.Fields{
		"restored": restored,
		"total":    len(recipes),
	}).Info("Prompt restoration finished")
}

// rebuildPrompt reconstructs the prompt that produced a recipe's primary
// image from its stored fields.
func rebuildPrompt(recipe *domain.Recipe) string {
	titleKO, titleEN := splitTitle(recipe.Title)
	spec := prompts.CardSpec{
		Title:       prompts.TitleForPrompt(recipe.Language, titleEN, titleKO),
		Ingredients: prompts.ListForPrompt(recipe.Language, recipe.Ingredients.EN, recipe.Ingredients.KO),
		Steps:       prompts.ListForPrompt(recipe.Language, recipe.Steps.EN, recipe.Steps.KO),
		Style:       recipe.Style,
		Layout:      recipe.Layout,
		Language:    recipe.Language,
		Ratio:       recipe.Ratio,
	}
	if recipe.ImageKind == domain.ImageKindClean {
		return prompts.CleanPrompt(spec)
	}
	return prompts.EmbeddedPrompt(spec)
}

// splitTitle takes apart the stored "한글명 (English Name)" form. Rows whose
// title has no parenthesized part carry a single-language title.
func splitTitle(title string) (ko, en string) {
	if strings.HasSuffix(title, ")") {
		if idx := strings.LastIndex(title, " ("); idx != -1 {
			return title[:idx], title[idx+2 : len(title)-1]
		}
	}
	return "", title
}
