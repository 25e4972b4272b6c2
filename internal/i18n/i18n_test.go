package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslatePortuguese(t *testing.T) {
	ctx := initLang(t, "pt-BR")

	got := T(ctx, "AlreadySubmitted")
	if got != "O colaborador já realizou a prova." {
		t.Errorf("T(AlreadySubmitted) = %q", got)
	}

	got = T(ctx, "WrongPassword")
	if got != "Senha incorreta. Por favor, verifique a senha e tente novamente." {
		t.Errorf("T(WrongPassword) = %q", got)
	}
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AlreadySubmitted")
	if got != "The employee has already taken the test." {
		t.Errorf("T(AlreadySubmitted) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "pt-BR")

	got := Td(ctx, "FeedbackAPIError", map[string]any{"Code": 503})
	if got != "Erro na API de IA: 503" {
		t.Errorf("Td(FeedbackAPIError) = %q", got)
	}
}

func TestMissingTranslationFallsBackToID(t *testing.T) {
	ctx := initLang(t, "pt-BR")

	if got := T(ctx, "NoSuchMessage"); got != "NoSuchMessage" {
		t.Errorf("T(NoSuchMessage) = %q, want the ID itself", got)
	}
}

func TestMiddlewareHonorsAcceptLanguage(t *testing.T) {
	if err := Init("pt-BR"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var got string
	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "AlreadySubmitted")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "The employee has already taken the test." {
		t.Errorf("expected the English message for Accept-Language en, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "O colaborador já realizou a prova." {
		t.Errorf("expected the default language without a header, got %q", got)
	}
}
