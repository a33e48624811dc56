package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// textServer returns a fake text endpoint that wraps answer in the
// generateContent response envelope.
func textServer(t *testing.T, status int, answer string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, answer)
		} else {
			fmt.Fprint(w, `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`)
		}
	}))
}

const recipeJSON = `{"title_en":"Kimchi Stew","title_ko":"김치찌개","ingredients_en":["kimchi","pork"],"ingredients_ko":["김치","돼지고기"],"steps_en":["simmer"],"steps_ko":["끓이기"]}`

func TestGenerateRecipe(t *testing.T) {
	tests := []struct {
		name   string
		answer string
	}{
		{"bare json", recipeJSON},
		{"fenced json", "```json\n" + recipeJSON + "\n```"},
		{"fenced without tag", "```\n" + recipeJSON + "\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := textServer(t, http.StatusOK, tt.answer)
			defer srv.Close()

			svc := NewChefService(&ChefConfig{BaseURL: srv.URL, Model: "text-model"})
			content, err := svc.GenerateRecipe(context.Background(), "Kimchi Stew", "test-key")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if content.TitleKO != "김치찌개" {
				t.Errorf("wrong korean title: %s", content.TitleKO)
			}
			if len(content.IngredientsEN) != 2 {
				t.Errorf("wrong ingredient count: %d", len(content.IngredientsEN))
			}
		})
	}
}

func TestGenerateRecipeUpstreamError(t *testing.T) {
	srv := textServer(t, http.StatusForbidden, "")
	defer srv.Close()

	svc := NewChefService(&ChefConfig{BaseURL: srv.URL, Model: "text-model"})
	_, err := svc.GenerateRecipe(context.Background(), "Kimchi Stew", "bad-key")

	var textErr *TextGenerationError
	if !errors.As(err, &textErr) {
		t.Fatalf("want *TextGenerationError, got %T", err)
	}
	if textErr.StatusCode != http.StatusForbidden {
		t.Errorf("want status 403, got %d", textErr.StatusCode)
	}
	if !strings.Contains(textErr.Message, "API key not valid") {
		t.Errorf("want upstream message surfaced, got %q", textErr.Message)
	}
}

func TestGenerateRecipeUnparsableContent(t *testing.T) {
	srv := textServer(t, http.StatusOK, "Sure! Here is a recipe for you.")
	defer srv.Close()

	svc := NewChefService(&ChefConfig{BaseURL: srv.URL, Model: "text-model"})
	_, err := svc.GenerateRecipe(context.Background(), "Kimchi Stew", "test-key")

	var textErr *TextGenerationError
	if !errors.As(err, &textErr) {
		t.Fatalf("want *TextGenerationError, got %T", err)
	}
	if textErr.RawBody == "" {
		t.Error("unparsable content should be kept for diagnostics")
	}
}

func TestGenerateRecipeTransportError(t *testing.T) {
	svc := NewChefService(&ChefConfig{BaseURL: "http://127.0.0.1:1", Model: "text-model"})
	_, err := svc.GenerateRecipe(context.Background(), "Kimchi Stew", "test-key")

	var textErr *TextGenerationError
	if !errors.As(err, &textErr) {
		t.Fatalf("want *TextGenerationError, got %T", err)
	}
	if textErr.StatusCode != 0 {
		t.Errorf("transport error should carry no HTTP status, got %d", textErr.StatusCode)
	}
}
