package prompts

import "strings"

// ============================================================================
// Lookup tables
//
// These tables are the single source of truth for prompt text. The live
// generation pipeline and the offline prompt-restoration tool both build
// prompts through this package, so a prompt regenerated from stored
// metadata is byte-identical to the one originally sent.
// ============================================================================

// StyleClauses maps a style key to its visual-style clause.
var StyleClauses = map[string]string{
	"minimal":     "Modern minimalist style. Clean white background, high-contrast sans-serif typography.",
	"infographic": "3D Exploded-view infographic. High-detail 3D illustrations. Vibrant isometric style.",
	"watercolor":  "Artistic watercolor painting. Soft pastel colors, textured paper background.",
	"graphic":     "Graphic Recording style. Hand-drawn marker style, limited color palette.",
	"sketch":      "Light pencil sketch style. Very soft and faint graphite pencil strokes. Minimal detail, simple and clean lines. Subtle shading with sparse hatching. Off-white sketchbook paper background. Less busy, more whitespace. Understated and elegant sketch aesthetic.",
	"girlish":     "Soft colored pencil illustration style. ABSOLUTELY NO HARD OUTLINES - all shapes extremely soft and blended, edges fade into each other. Clean notebook paper background with subtle grid lines. NO decorative elements. Warm pastel colors with soft colored pencil shading, heavy blending, smudged soft transitions. ALL TEXT AND LETTERING MUST LOOK HAND-DRAWN WITH COLORED PENCILS - slightly wobbly, textured, childlike handwriting style with visible pencil strokes in the letters. Dreamy soft focus aesthetic. Simple and clean composition.",
	"botanical":   "Soft colored pencil sticker style on beige paper. ABSOLUTELY NO BLACK OUTLINES. Objects should have a VERY THIN, SUBTLE white glow around them (not thick borders). Line work should be EXTREMELY LIGHT and THIN - 50% less prominent than normal, almost invisible. Soft pastel colors, gentle shading, fuzzy edges. Minimalist hand-drawn aesthetic. Cute, cozy, warm atmosphere. Light touch, delicate strokes.",
}

// LayoutClauses maps a layout key to its composition clause.
var LayoutClauses = map[string]string{
	"standard": "COMPOSITION: Vertical 3-Tier Layout.",
	"bento":    "COMPOSITION: Bento Grid Layout.",
	"radial":   "COMPOSITION: Radial Focus.",
	"magazine": "COMPOSITION: Magazine Hero.",
}

// LanguageClauses maps an output-language key to the embedded-text
// instruction for the image model.
var LanguageClauses = map[string]string{
	"ko":        "ONLY Korean text labels (한글만). DO NOT include any English text. All text must be in Korean language only. Use LARGE, BOLD Korean text with clean sans-serif Korean fonts (고딕체). Text should be clear and legible with high contrast and sharp edges. Balance text size with visual content - text should not dominate the image.",
	"en":        "ONLY English text labels. DO NOT include any Korean text. All text must be in English language only. Use LARGE, BOLD text with clean sans-serif fonts. Text should be clear and legible with high contrast. Balance text size with visual content.",
	"bilingual": "Both English and Korean text labels together (한/영 병기). Use LARGE, BOLD Korean and English text with clean sans-serif fonts. Text should be clear and legible with high contrast and sharp edges for both languages. Balance text size with visual content - text should not dominate the image.",
}

// RatioClauses maps an aspect-ratio key to its format clause.
var RatioClauses = map[string]string{
	"vertical":   "ASPECT RATIO: Tall vertical 9:16 portrait format.",
	"horizontal": "ASPECT RATIO: Wide horizontal 16:9 landscape format.",
	"square":     "ASPECT RATIO: Perfect square 1:1 format.",
}

// StyleClause returns the clause for a style key, falling back to minimal
// for unknown keys. Unknown keys never error.
func StyleClause(key string) string {
	if c, ok := StyleClauses[key]; ok {
		return c
	}
	return StyleClauses["minimal"]
}

// LayoutClause returns the clause for a layout key, falling back to the
// standard vertical layout for unknown keys.
func LayoutClause(key string) string {
	if c, ok := LayoutClauses[key]; ok {
		return c
	}
	return LayoutClauses["standard"]
}

// LanguageClause returns the embedded-text clause for a language key,
// falling back to bilingual for unknown keys.
func LanguageClause(key string) string {
	if c, ok := LanguageClauses[key]; ok {
		return c
	}
	return LanguageClauses["bilingual"]
}

// RatioClause returns the clause for an aspect-ratio key, falling back to
// vertical for unknown keys.
func RatioClause(key string) string {
	if c, ok := RatioClauses[key]; ok {
		return c
	}
	return RatioClauses["vertical"]
}

// ============================================================================
// Chef prompt (text model)
// ============================================================================

const chefPromptTemplate = `You are a professional chef. Analyze this dish: '%DISH%'.
Return ONLY a valid JSON object with DOUBLE QUOTES (not single quotes):
{
  "title_en": "English Name",
  "title_ko": "Korean Name",
  "ingredients_en": ["Ingredient 1 (En)", "Ingredient 2 (En)"],
  "ingredients_ko": ["재료 1 (한글)", "재료 2 (한글)"],
  "steps_en": ["Step 1 (En)", "Step 2 (En)"],
  "steps_ko": ["과정 1 (한글)", "과정 2 (한글)"]
}

CRITICAL INSTRUCTIONS:
- Keep ingredients list to maximum 5-6 items
- Keep steps to maximum 5-6 steps
- Each step MUST be VERY SHORT and CONCISE (maximum 5-7 words in Korean, 7-10 words in English)
- Use simple, direct language
- Avoid detailed explanations or time specifications
- Focus on essential actions only
- IMPORTANT: Use DOUBLE QUOTES for all JSON strings, NOT single quotes

Output raw JSON only, no markdown, no code blocks.`

// ChefPrompt builds the instruction sent to the text model for a dish.
func ChefPrompt(dish string) string {
	return strings.ReplaceAll(chefPromptTemplate, "%DISH%", dish)
}

// ============================================================================
// Visual prompts (image model)
// ============================================================================

// CardSpec carries everything the visual prompt builders need. Ingredients
// and Steps are already comma-joined in the prompt-appropriate language.
type CardSpec struct {
	Title       string
	Ingredients string
	Steps       string
	Style       string
	Layout      string
	Language    string
	Ratio       string
}

const embeddedPromptTail = "CRITICAL VISUAL FOCUS: Prioritize stunning, detailed illustrations. Show beautifully arranged ingredients with realistic textures and colors. Include appetizing visuals of the finished dish with professional food styling. Add visual elements showing key cooking techniques. Use vibrant, natural colors and dramatic lighting. Create a composition that makes viewers hungry. Fill the canvas with engaging visual content. High clarity, 4k, professional food photography quality."

const cleanPromptTail = "MAXIMUM VISUAL QUALITY: Create a stunning, magazine-worthy food illustration. Show: 1) The finished dish as hero image with professional styling and dramatic lighting, 2) Individual ingredients arranged beautifully with realistic details and textures, 3) Key cooking process steps illustrated clearly. Use rich, vibrant colors that make the food look delicious and appetizing. Add depth, shadows, and highlights for realism. Professional food photography quality with artistic composition. Fill every part of the canvas with engaging, beautiful visual content."

// EmbeddedPrompt builds the visual prompt that paints the title and all
// text labels into the image. Identical inputs always produce an identical
// prompt string.
func EmbeddedPrompt(s CardSpec) string {
	var b strings.Builder
	b.WriteString("A visual recipe for '")
	b.WriteString(s.Title)
	b.WriteString("'. ")
	b.WriteString(StyleClause(s.Style))
	b.WriteString(" **Display the Title: '")
	b.WriteString(s.Title)
	b.WriteString("' prominently at the top.** Include stylish ")
	b.WriteString(LanguageClause(s.Language))
	b.WriteString(" for ingredients and steps. ")
	b.WriteString(LayoutClause(s.Layout))
	b.WriteString(" ")
	b.WriteString(RatioClause(s.Ratio))
	b.WriteString(" Ingredients: ")
	b.WriteString(s.Ingredients)
	b.WriteString(". Steps: ")
	b.WriteString(s.Steps)
	b.WriteString(". ")
	b.WriteString(embeddedPromptTail)
	return b.String()
}

// CleanPrompt builds the no-text visual prompt used for overlay mode.
func CleanPrompt(s CardSpec) string {
	var b strings.Builder
	b.WriteString("A visual recipe for '")
	b.WriteString(s.Title)
	b.WriteString("'. ")
	b.WriteString(StyleClause(s.Style))
	b.WriteString(" NO TEXT LABELS. Do not include any text, words, letters, or numbers. Only visual illustrations. ")
	b.WriteString(LayoutClause(s.Layout))
	b.WriteString(" ")
	b.WriteString(RatioClause(s.Ratio))
	b.WriteString(" ")
	b.WriteString(cleanPromptTail)
	b.WriteString(" Ingredients: ")
	b.WriteString(s.Ingredients)
	b.WriteString(". Steps: ")
	b.WriteString(s.Steps)
	b.WriteString(". Ultra high clarity, 4k, award-winning food photography style.")
	return b.String()
}

// ============================================================================
// Vision prompt (position extraction)
// ============================================================================

// VisionPrompt asks the text/vision model to locate text blocks in a
// rendered card. The model must return a bare JSON array.
const VisionPrompt = `Analyze this recipe infographic image. Identify all text elements and their approximate positions.
Return a JSON array of text blocks. Each block should have:
- type: 'title', 'ingredient', or 'step'
- x: horizontal position from left (0-100 as percentage)
- y: vertical position from top (0-100 as percentage)
- fontSize: approximate font size (sm, md, lg, xl)

Format: [{"type":"title","x":10,"y":5,"fontSize":"xl"},{"type":"ingredient","x":5,"y":20,"fontSize":"sm"}...]
Only return the JSON array, no markdown or explanation.`

// ============================================================================
// Content selection helpers
// ============================================================================

// TitleForPrompt picks the title the visual prompt should use. Korean
// output prefers the Korean title with an English fallback; everything
// else uses the English title.
func TitleForPrompt(lang, titleEN, titleKO string) string {
	if lang == "ko" && titleKO != "" {
		return titleKO
	}
	return titleEN
}

// ListForPrompt comma-joins the language-appropriate list. Korean output
// prefers the Korean list, falling back to English when the model omitted
// it; everything else uses English.
func ListForPrompt(lang string, en, ko []string) string {
	if lang == "ko" && len(ko) > 0 {
		return strings.Join(ko, ", ")
	}
	return strings.Join(en, ", ")
}
