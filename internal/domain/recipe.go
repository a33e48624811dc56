package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// RenderMode selects how text ends up on the finished card.
type RenderMode string

const (
	RenderModeEmbedded RenderMode = "embedded" // text painted into the image
	RenderModeOverlay  RenderMode = "overlay"  // clean image + positioned overlay text
)

// ImageKind tags which prompt variant produced the primary image.
// Embedded mode persists the text-bearing image as primary; overlay mode
// persists the clean variant.
type ImageKind string

const (
	ImageKindEmbedded ImageKind = "embedded"
	ImageKindClean    ImageKind = "clean"
)

// KeyTier selects which upstream API key pool a generation request uses.
type KeyTier string

const (
	KeyTierFree KeyTier = "free"
	KeyTierPaid KeyTier = "paid"
)

// FontSize is the coarse font-size bucket reported by position extraction.
type FontSize string

const (
	FontSizeSM FontSize = "sm"
	FontSizeMD FontSize = "md"
	FontSizeLG FontSize = "lg"
	FontSizeXL FontSize = "xl"
)

// TextPosition describes where one text block sits on the rendered card,
// in percentages of the image dimensions. Ordering within a list is
// significant: the Nth "ingredient" entry binds to ingredients[N], same
// for "step".
type TextPosition struct {
	Type     string   `json:"type"` // title | ingredient | step
	X        float64  `json:"x"`    // 0-100, from left
	Y        float64  `json:"y"`    // 0-100, from top
	FontSize FontSize `json:"fontSize"`
}

// TextPositionList stores an ordered set of text positions as a JSON column.
type TextPositionList []TextPosition

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded representation of the list, nil when unset.
//   - error: non-nil if marshaling fails.
func (l TextPositionList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
//
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (l *TextPositionList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan TextPositionList")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, l)
}

// LanguagePair holds the bilingual bucket shape persisted for ingredients
// and steps. Both sides are always stored; when the model omits one
// language the other side is copied in as a fallback.
type LanguagePair struct {
	EN []string `json:"en"`
	KO []string `json:"ko"`
}

// Value implements the driver.Valuer interface for database serialization.
func (p LanguagePair) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (p *LanguagePair) Scan(value interface{}) error {
	if value == nil {
		*p = LanguagePair{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan LanguagePair")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, p)
}

// Recipe is a generated recipe card. Created atomically at the end of a
// successful generation run; mutated only by the like increment and the
// text-position update; deleted only by an explicit admin delete.
type Recipe struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	Title            string           `gorm:"type:text;not null" json:"title"` // "한글명 (English Name)"
	Ingredients      LanguagePair     `gorm:"type:text" json:"ingredients"`
	Steps            LanguagePair     `gorm:"type:text" json:"steps"`
	ImageURL         string           `gorm:"type:text" json:"image_url"`
	ImageEmbeddedURL string           `gorm:"type:text" json:"image_embedded_url,omitempty"`
	ImageKind        ImageKind        `gorm:"type:text;default:embedded" json:"image_kind"`
	Style            string           `gorm:"type:text;index:idx_recipes_style" json:"style"`
	Ratio            string           `gorm:"type:text" json:"ratio"`
	Layout           string           `gorm:"type:text" json:"layout"`
	Language         string           `gorm:"type:text" json:"language"`
	RenderMode       RenderMode       `gorm:"type:text;default:embedded" json:"render_mode"`
	TextPositions    TextPositionList `gorm:"type:text" json:"text_positions,omitempty"`
	FinalPrompt      string           `gorm:"type:text" json:"final_prompt,omitempty"` // exact prompt sent for the primary image, kept for audit/replay
	Likes            int64            `gorm:"default:0" json:"likes"`
	CreatedBy        string           `gorm:"type:text" json:"created_by,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// TableName returns the database table name for Recipe.
func (Recipe) TableName() string {
	return "recipes"
}

// RecipeContent is the structured output of the chef (text) model.
// Array lengths are bounded by the prompt contract (about six entries),
// but consumers must tolerate more or fewer.
type RecipeContent struct {
	TitleEN       string   `json:"title_en"`
	TitleKO       string   `json:"title_ko"`
	IngredientsEN []string `json:"ingredients_en"`
	IngredientsKO []string `json:"ingredients_ko"`
	StepsEN       []string `json:"steps_en"`
	StepsKO       []string `json:"steps_ko"`
}

// GeneratedImage is the normalized result of one image-generation call.
type GeneratedImage struct {
	Data []byte    // decoded PNG bytes
	Kind ImageKind // which prompt variant produced it
}
