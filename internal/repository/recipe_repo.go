package repository

import (
	"context"
	"time"

	"github.com/jvibeschool/chefcard/internal/domain"
	"gorm.io/gorm"
)

// RecipeRepository handles recipe data operations.
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new RecipeRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *RecipeRepository: repository instance bound to db.
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create inserts a new recipe record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - recipe: recipe record to persist.
//
// Returns:
//   - error: non-nil if the insert fails.
func (r *RecipeRepository) Create(ctx context.Context, recipe *domain.Recipe) error {
	return r.db.WithContext(ctx).Create(recipe).Error
}

// GetByID retrieves a recipe by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: recipe ID.
//
// Returns:
//   - *domain.Recipe: recipe record if found.
//   - error: non-nil if lookup fails.
func (r *RecipeRepository) GetByID(ctx context.Context, id uint) (*domain.Recipe, error) {
	var recipe domain.Recipe
	if err := r.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// List retrieves the most recent recipes, optionally filtered by a title
// substring search.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - search: title substring to match; empty means all.
//   - limit: maximum number of records to return.
//
// Returns:
//   - []domain.Recipe: matching recipe records, newest first.
//   - error: non-nil if the query fails.
func (r *RecipeRepository) List(ctx context.Context, search string, limit int) ([]domain.Recipe, error) {
	var recipes []domain.Recipe
	query := r.db.WithContext(ctx)
	if search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// Like atomically increments the like counter of a recipe.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: recipe ID.
//
// Returns:
//   - error: non-nil if the update fails; gorm.ErrRecordNotFound if no row matched.
func (r *RecipeRepository) Like(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Where("id = ?", id).
		UpdateColumn("likes", gorm.Expr("likes + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdatePositions replaces the stored text positions of a recipe. The
// given order is persisted verbatim; list position binds overlay entries
// to ingredient/step indexes at render time.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: recipe ID.
//   - positions: ordered position list to store.
//
// Returns:
//   - error: non-nil if the update fails; gorm.ErrRecordNotFound if no row matched.
func (r *RecipeRepository) UpdatePositions(ctx context.Context, id uint, positions domain.TextPositionList) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Where("id = ?", id).
		Update("text_positions", positions)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a recipe by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: recipe ID to delete.
//
// Returns:
//   - error: non-nil if the delete fails; gorm.ErrRecordNotFound if no row matched.
func (r *RecipeRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Recipe{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountTotal counts all recipes.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//
// Returns:
//   - int64: number of recipe records.
//   - error: non-nil if the query fails.
func (r *RecipeRepository) CountTotal(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Recipe{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountToday counts recipes created since local midnight.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//
// Returns:
//   - int64: number of recipe records created today.
//   - error: non-nil if the query fails.
func (r *RecipeRepository) CountToday(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Where("created_at >= ?", startOfToday()).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// startOfToday returns local midnight. Shared by the recipe and usage
// counters so "today" means the same thing everywhere.
func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// UpdateFinalPrompt sets the stored final prompt of a recipe. Used by the
// offline restoration tool to backfill legacy rows.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: recipe ID.
//   - prompt: the reconstructed prompt string.
//
// Returns:
//   - error: non-nil if the update fails.
func (r *RecipeRepository) UpdateFinalPrompt(ctx context.Context, id uint, prompt string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Where("id = ?", id).
		Update("final_prompt", prompt).Error
}

// ListMissingPrompt retrieves recipes whose final prompt was never stored.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - limit: maximum number of records to return; 0 means no limit.
//
// Returns:
//   - []domain.Recipe: matching recipe records.
//   - error: non-nil if the query fails.
func (r *RecipeRepository) ListMissingPrompt(ctx context.Context, limit int) ([]domain.Recipe, error) {
	var recipes []domain.Recipe
	query := r.db.WithContext(ctx).
		Where("final_prompt IS NULL OR final_prompt = ''")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}
