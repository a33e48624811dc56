package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jvibeschool/chefcard/internal/domain"
)

var fakePNG = base64.StdEncoding.EncodeToString([]byte("not-really-a-png"))

// imageServer returns a fake image endpoint that replays the given status
// codes in order, answering with an image payload on 200.
func imageServer(t *testing.T, statuses []int, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := *calls
		*calls++
		if idx >= len(statuses) {
			t.Errorf("unexpected extra call %d", idx+1)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		status := statuses[idx]
		w.WriteHeader(status)
		switch status {
		case http.StatusOK:
			fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":%q}}]}}]}`, fakePNG)
		case http.StatusServiceUnavailable:
			fmt.Fprint(w, `{"error":{"code":503,"message":"The model is overloaded. Please try again later.","status":"UNAVAILABLE"}}`)
		default:
			fmt.Fprintf(w, `{"error":{"code":%d,"message":"rejected","status":"FAILED"}}`, status)
		}
	}))
}

func newTestArtist(baseURL, model string, delays *[]time.Duration) *ArtistService {
	svc := NewArtistService(&ArtistConfig{
		BaseURL:        baseURL,
		Model:          model,
		MaxRetries:     3,
		RetryBaseDelay: 2 * time.Second,
	})
	svc.sleep = func(d time.Duration) { *delays = append(*delays, d) }
	return svc
}

func TestGenerateRetriesOverloadThenSucceeds(t *testing.T) {
	var calls int
	srv := imageServer(t, []int{503, 503, 200}, &calls)
	defer srv.Close()

	var delays []time.Duration
	svc := newTestArtist(srv.URL, "image-model", &delays)

	img, err := svc.Generate(context.Background(), ImageRequest{
		Prompt: "a recipe card",
		APIKey: "test-key",
		Kind:   domain.ImageKindEmbedded,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("want exactly 3 calls, got %d", calls)
	}
	if img.Kind != domain.ImageKindEmbedded {
		t.Errorf("wrong kind: %s", img.Kind)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("want %d backoff sleeps, got %v", len(want), delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("sleep %d: want %v, got %v", i, want[i], delays[i])
		}
	}
}

func TestGenerateExhaustsRetryBudget(t *testing.T) {
	var calls int
	srv := imageServer(t, []int{503, 503, 503}, &calls)
	defer srv.Close()

	var delays []time.Duration
	svc := newTestArtist(srv.URL, "image-model", &delays)

	_, err := svc.Generate(context.Background(), ImageRequest{Prompt: "p", APIKey: "k", Kind: domain.ImageKindClean})

	var imgErr *ImageGenerationError
	if !errors.As(err, &imgErr) {
		t.Fatalf("want *ImageGenerationError, got %T", err)
	}
	if calls != 3 {
		t.Errorf("want exactly 3 calls, got %d", calls)
	}
	if imgErr.Attempts != 3 || imgErr.LastStatus != 503 {
		t.Errorf("want 3 attempts ending in 503, got %+v", imgErr)
	}
	if len(delays) != 2 {
		t.Errorf("no sleep after the final attempt, got %v", delays)
	}
	if !strings.Contains(imgErr.Diagnostic(), "[Retry: 503 - ") {
		t.Errorf("diagnostic should carry the last status, got %q", imgErr.Diagnostic())
	}
}

func TestGenerateFailsFastOnHardStatus(t *testing.T) {
	var calls int
	srv := imageServer(t, []int{403}, &calls)
	defer srv.Close()

	var delays []time.Duration
	svc := newTestArtist(srv.URL, "image-model", &delays)

	_, err := svc.Generate(context.Background(), ImageRequest{Prompt: "p", APIKey: "k", Kind: domain.ImageKindEmbedded})

	var imgErr *ImageGenerationError
	if !errors.As(err, &imgErr) {
		t.Fatalf("want *ImageGenerationError, got %T", err)
	}
	if calls != 1 {
		t.Errorf("403 must not be retried, got %d calls", calls)
	}
	if len(delays) != 0 {
		t.Errorf("no backoff for a hard failure, got %v", delays)
	}
}

func TestGenerateRetriesEmptyPayload(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// well-formed 200 that carries text only
			fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"I cannot draw that."}]}}]}`)
			return
		}
		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":%q}}]}}]}`, fakePNG)
	}))
	defer srv.Close()

	var delays []time.Duration
	svc := newTestArtist(srv.URL, "image-model", &delays)

	img, err := svc.Generate(context.Background(), ImageRequest{Prompt: "p", APIKey: "k", Kind: domain.ImageKindEmbedded})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("empty payload should be retried once more, got %d calls", calls)
	}
	if len(img.Data) == 0 {
		t.Error("want decoded image bytes")
	}
}

func TestGeneratePredictShape(t *testing.T) {
	var gotBody predictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":predict") {
			t.Errorf("imagen models must use :predict, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("body did not parse: %v", err)
		}
		fmt.Fprintf(w, `{"predictions":[{"bytesBase64Encoded":%q}]}`, fakePNG)
	}))
	defer srv.Close()

	var delays []time.Duration
	svc := newTestArtist(srv.URL, "imagen-3.0-generate-002", &delays)

	_, err := svc.Generate(context.Background(), ImageRequest{
		Prompt:      "p",
		APIKey:      "k",
		Kind:        domain.ImageKindClean,
		AspectRatio: "horizontal",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody.Parameters.AspectRatio != "16:9" {
		t.Errorf("want aspect ratio 16:9, got %q", gotBody.Parameters.AspectRatio)
	}
	if gotBody.Parameters.SampleCount != 1 {
		t.Errorf("want sample count 1, got %d", gotBody.Parameters.SampleCount)
	}
}

func TestResolveImageAPI(t *testing.T) {
	tests := []struct {
		model string
		want  ImageAPI
	}{
		{"imagen-3.0-generate-002", ImageAPIPredict},
		{"gemini-2.0-flash-exp-image-generation", ImageAPIChat},
		{"Imagen-4", ImageAPIPredict},
	}
	for _, tt := range tests {
		if got := ResolveImageAPI(tt.model); got != tt.want {
			t.Errorf("%s: want %s, got %s", tt.model, tt.want, got)
		}
	}
}
