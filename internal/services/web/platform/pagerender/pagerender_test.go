package pagerender

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	webi18n "github.com/louisbranch/parley/internal/services/web/i18n"
	webtemplates "github.com/louisbranch/parley/internal/services/web/templates"
	"golang.org/x/text/message"
)

func TestWritePageRendersWithStatusAndContentType(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rr := httptest.NewRecorder()

	err := WritePage(rr, req, http.StatusAccepted, func(page webtemplates.PageContext, _ *message.Printer) templ.Component {
		return webtemplates.LoginPage(page, webtemplates.LoginView{})
	})
	if err != nil {
		t.Fatalf("WritePage() error = %v", err)
	}
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusAccepted)
	}
	if got := rr.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Fatalf("content-type = %q", got)
	}
	if !strings.Contains(rr.Body.String(), `action="/login"`) {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestWritePageDefaultsStatusToOK(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	if err := WritePage(rr, httptest.NewRequest(http.MethodGet, "/", nil), 0, func(webtemplates.PageContext, *message.Printer) templ.Component {
		return templ.Raw("ok")
	}); err != nil {
		t.Fatalf("WritePage() error = %v", err)
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestWritePageWritesNothingOnRenderFailure(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	renderErr := errors.New("boom")
	err := WritePage(rr, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, func(webtemplates.PageContext, *message.Printer) templ.Component {
		return templ.ComponentFunc(func(context.Context, io.Writer) error { return renderErr })
	})
	if !errors.Is(err, renderErr) {
		t.Fatalf("WritePage() error = %v, want %v", err, renderErr)
	}
	if rr.Body.Len() != 0 || rr.Header().Get("Content-Type") != "" {
		t.Fatalf("expected untouched response, got %q", rr.Body.String())
	}
}

func TestResolvePersistsExplicitLanguage(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/signup?lang=pt-BR", nil)
	rr := httptest.NewRecorder()

	page, printer := Resolve(rr, req)
	if page.Lang != "pt-BR" || page.CurrentPath != "/signup" || page.CurrentQuery != "lang=pt-BR" {
		t.Fatalf("unexpected page context: %+v", page)
	}
	if got := printer.Sprintf("login.submit"); got != "Entrar" {
		t.Fatalf("printer.Sprintf(login.submit) = %q", got)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != webi18n.LangCookieName || cookies[0].Value != "pt-BR" {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}
}

func TestResolveDoesNotPersistHeaderLanguage(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")
	rr := httptest.NewRecorder()

	page, _ := Resolve(rr, req)
	if page.Lang != "pt-BR" {
		t.Fatalf("page.Lang = %q, want pt-BR", page.Lang)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Fatalf("expected no cookies, got %+v", rr.Result().Cookies())
	}
}
