package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jvibeschool/chefcard/internal/domain"
)

const positionsJSON = `[{"type":"title","x":10,"y":5,"fontSize":"xl"},{"type":"ingredient","x":5,"y":20,"fontSize":"sm"},{"type":"step","x":5,"y":60,"fontSize":"md"}]`

func visionServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, answer)
	}))
}

func TestExtractPositions(t *testing.T) {
	tests := []struct {
		name   string
		answer string
	}{
		{"bare array", positionsJSON},
		{"fenced array", "```json\n" + positionsJSON + "\n```"},
		{"array with prose", "Here are the positions:\n" + positionsJSON + "\nHope this helps!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := visionServer(t, tt.answer)
			defer srv.Close()

			svc := NewVisionService(&VisionConfig{BaseURL: srv.URL, Model: "text-model"})
			positions := svc.ExtractPositions(context.Background(), []byte("png-bytes"), "test-key")
			if len(positions) != 3 {
				t.Fatalf("want 3 positions, got %d", len(positions))
			}
			// order must be preserved: list index binds entries to content
			if positions[0].Type != "title" || positions[1].Type != "ingredient" || positions[2].Type != "step" {
				t.Errorf("order not preserved: %+v", positions)
			}
			if positions[0].FontSize != domain.FontSizeXL {
				t.Errorf("want xl title, got %s", positions[0].FontSize)
			}
		})
	}
}

func TestExtractPositionsFailuresYieldEmpty(t *testing.T) {
	t.Run("upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		svc := NewVisionService(&VisionConfig{BaseURL: srv.URL, Model: "text-model"})
		if got := svc.ExtractPositions(context.Background(), []byte("png"), "k"); got != nil {
			t.Errorf("want nil positions, got %+v", got)
		}
	})

	t.Run("no array in answer", func(t *testing.T) {
		srv := visionServer(t, "I could not find any text in this image.")
		defer srv.Close()

		svc := NewVisionService(&VisionConfig{BaseURL: srv.URL, Model: "text-model"})
		if got := svc.ExtractPositions(context.Background(), []byte("png"), "k"); got != nil {
			t.Errorf("want nil positions, got %+v", got)
		}
	})

	t.Run("transport error", func(t *testing.T) {
		svc := NewVisionService(&VisionConfig{BaseURL: "http://127.0.0.1:1", Model: "text-model"})
		if got := svc.ExtractPositions(context.Background(), []byte("png"), "k"); got != nil {
			t.Errorf("want nil positions, got %+v", got)
		}
	})
}
