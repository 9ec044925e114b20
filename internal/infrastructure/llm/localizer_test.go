package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"CatalogLocalizer/internal/domain"
)

const rateLimitBody = `{"error":{"message":"Rate limit reached for requests","type":"requests","code":"rate_limit_exceeded"}}`

var plierKeywords = []string{"plier", "pliers", "alicate", "pinza"}

func testLocalizer(t *testing.T, handler http.HandlerFunc) *Localizer {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	cfg.HTTPClient = server.Client()

	l := NewLocalizer(openai.NewClientWithConfig(cfg), "", "Wiha", plierKeywords, nil)
	l.cooldown = time.Millisecond
	return l
}

func writeCompletion(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
		ID:     "chatcmpl-test",
		Object: "chat.completion",
		Model:  openai.GPT4o,
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	})
	if err != nil {
		t.Errorf("encode completion: %v", err)
	}
}

func TestLocalizeWithoutClientSkips(t *testing.T) {
	t.Parallel()

	l := NewLocalizer(nil, "", "Wiha", plierKeywords, nil)

	outcome := l.Localize(context.Background(), domain.ProductRecord{Code: "W1"}, "text", domain.EmptyPageInfo())

	if outcome.Status != domain.LocalizationSkipped {
		t.Fatalf("expected skipped outcome, got %s", outcome.Status)
	}
	if outcome.Text != "API key not provided. Translation skipped." {
		t.Fatalf("unexpected skip message: %q", outcome.Text)
	}
}

func TestLocalizeStripsMarkdownAndInjectsNotices(t *testing.T) {
	t.Parallel()

	var captured openai.ChatCompletionRequest
	l := testLocalizer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writeCompletion(t, w, "## Destornillador Wiha W30590\nUna herramienta **precisa** para _profesionales_.")
	})

	product := domain.ProductRecord{Code: "W30590", Name: "Precision Screwdriver"}
	detail := domain.EmptyPageInfo()
	detail.Description = "A fine screwdriver."
	detail.Specifications.Set("Length", "150 mm")

	outcome := l.Localize(context.Background(), product, "The Wiha W30590 is excellent.", detail)

	if outcome.Status != domain.LocalizationOK {
		t.Fatalf("expected ok outcome, got %s (%s)", outcome.Status, outcome.Detail)
	}

	want := "Destornillador Wiha W30590\n" +
		"\n-- FABRICADO EN ALEMANIA (no es producto chino) --\n\n" +
		"Somos PROFITOOLS, el único representante oficial de Wiha en Argentina.\n\n" +
		"Una herramienta precisa para profesionales."
	if outcome.Text != want {
		t.Fatalf("unexpected text:\n%q\nwant:\n%q", outcome.Text, want)
	}
	if outcome.Render() != want {
		t.Fatalf("ok outcome should render as its text")
	}

	if captured.Model != "gpt-4o" {
		t.Fatalf("expected default model gpt-4o, got %s", captured.Model)
	}
	if captured.Temperature != 0.5 || captured.MaxTokens != 1500 {
		t.Fatalf("unexpected sampling settings: temp=%v max=%d", captured.Temperature, captured.MaxTokens)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("unexpected messages: %+v", captured.Messages)
	}

	prompt := captured.Messages[1].Content
	for _, fragment := range []string{
		`"code": "W30590"`,
		`"raw_description": "A fine screwdriver."`,
		`"Length": "150 mm"`,
		"ENGLISH DESCRIPTION (for reference):\nThe Wiha W30590 is excellent.",
		`The original name is "W30590 Precision Screwdriver"`,
	} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
	if strings.Contains(prompt, "This product is a plier") {
		t.Fatalf("plier note should not appear for a screwdriver")
	}
}

func TestLocalizePlierOmitsFabricationNotice(t *testing.T) {
	t.Parallel()

	var captured openai.ChatCompletionRequest
	l := testLocalizer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writeCompletion(t, w, "Alicate de punta larga\nCuerpo forjado.")
	})

	product := domain.ProductRecord{Code: "Z2", Name: "Long Nose Pliers"}

	outcome := l.Localize(context.Background(), product, "english", domain.EmptyPageInfo())

	if outcome.Status != domain.LocalizationOK {
		t.Fatalf("expected ok outcome, got %s (%s)", outcome.Status, outcome.Detail)
	}
	if strings.Contains(outcome.Text, "FABRICADO EN ALEMANIA") {
		t.Fatalf("plier text must not claim German fabrication:\n%s", outcome.Text)
	}

	want := "Alicate de punta larga\n" +
		"\nSomos PROFITOOLS, el único representante oficial de Wiha en Argentina.\n\n" +
		"Cuerpo forjado."
	if outcome.Text != want {
		t.Fatalf("unexpected text:\n%q\nwant:\n%q", outcome.Text, want)
	}

	if !strings.Contains(captured.Messages[1].Content, "This product is a plier") {
		t.Fatalf("plier note missing from prompt")
	}
}

func TestLocalizeSingleLineAppendsNotices(t *testing.T) {
	t.Parallel()

	l := testLocalizer(t, func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(t, w, "Producto único")
	})

	outcome := l.Localize(context.Background(), domain.ProductRecord{Code: "W1", Name: "Bit"}, "english", domain.EmptyPageInfo())

	want := "Producto único" +
		"\n-- FABRICADO EN ALEMANIA (no es producto chino) --\n\n" +
		"Somos PROFITOOLS, el único representante oficial de Wiha en Argentina.\n\n"
	if outcome.Text != want {
		t.Fatalf("unexpected text:\n%q\nwant:\n%q", outcome.Text, want)
	}
}

func TestLocalizeRetriesRateLimitOnce(t *testing.T) {
	t.Parallel()

	var calls int
	l := testLocalizer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(rateLimitBody))
			return
		}
		writeCompletion(t, w, "Texto\nCuerpo.")
	})

	outcome := l.Localize(context.Background(), domain.ProductRecord{Code: "W1", Name: "Bit"}, "english", domain.EmptyPageInfo())

	if outcome.Status != domain.LocalizationOK {
		t.Fatalf("expected ok after retry, got %s (%s)", outcome.Status, outcome.Detail)
	}
	if calls != 2 {
		t.Fatalf("expected 2 requests, got %d", calls)
	}
}

func TestLocalizeFailsAfterExhaustedRateLimitRetry(t *testing.T) {
	t.Parallel()

	var calls int
	l := testLocalizer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(rateLimitBody))
	})

	outcome := l.Localize(context.Background(), domain.ProductRecord{Code: "W1", Name: "Bit"}, "english", domain.EmptyPageInfo())

	if outcome.Status != domain.LocalizationFailed {
		t.Fatalf("expected failed outcome, got %s", outcome.Status)
	}
	if !strings.HasPrefix(outcome.Detail, "OpenAI API Error after retry: ") {
		t.Fatalf("unexpected detail: %q", outcome.Detail)
	}
	if !strings.HasPrefix(outcome.Render(), "NOT FOUND - OpenAI API Error after retry: ") {
		t.Fatalf("unexpected rendered form: %q", outcome.Render())
	}
	if calls != 2 {
		t.Fatalf("expected 2 requests, got %d", calls)
	}
}

func TestLocalizeDoesNotRetryOtherErrors(t *testing.T) {
	t.Parallel()

	var calls int
	l := testLocalizer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	outcome := l.Localize(context.Background(), domain.ProductRecord{Code: "W1", Name: "Bit"}, "english", domain.EmptyPageInfo())

	if outcome.Status != domain.LocalizationFailed {
		t.Fatalf("expected failed outcome, got %s", outcome.Status)
	}
	if !strings.HasPrefix(outcome.Detail, "OpenAI API Error: ") {
		t.Fatalf("unexpected detail: %q", outcome.Detail)
	}
	if calls != 1 {
		t.Fatalf("expected a single request, got %d", calls)
	}
}

func TestLocalizeEmptyChoicesFails(t *testing.T) {
	t.Parallel()

	l := testLocalizer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-test","object":"chat.completion","choices":[]}`))
	})

	outcome := l.Localize(context.Background(), domain.ProductRecord{Code: "W1", Name: "Bit"}, "english", domain.EmptyPageInfo())

	if outcome.Status != domain.LocalizationFailed {
		t.Fatalf("expected failed outcome, got %s", outcome.Status)
	}
	if !strings.Contains(outcome.Detail, "empty completion response") {
		t.Fatalf("unexpected detail: %q", outcome.Detail)
	}
}
