package templates

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/a-h/templ"
	webi18n "github.com/louisbranch/parley/internal/services/web/i18n"
	"golang.org/x/text/language"
)

func render(t *testing.T, component templ.Component) string {
	t.Helper()
	var b strings.Builder
	if err := component.Render(context.Background(), &b); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return b.String()
}

func englishPage(path string) PageContext {
	return PageContext{Lang: "en-US", Loc: webi18n.Printer(language.AmericanEnglish), CurrentPath: path}
}

func TestSignupPageKeepsFieldsButNotPassword(t *testing.T) {
	t.Parallel()

	html := render(t, SignupPage(englishPage("/signup"), SignupView{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Notice:    Notice{Kind: NoticeError, Message: "Email already registered"},
	}))
	for _, want := range []string{
		`<title>Create account | Parley</title>`,
		`name="first_name" value="Ada"`,
		`name="last_name" value="Lovelace"`,
		`name="email" value="ada@example.com"`,
		`type="password" name="password" value=""`,
		`role="alert"`,
		"Email already registered",
		`action="/signup"`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("signup page missing %q:\n%s", want, html)
		}
	}
}

func TestVerifyPageRendersOTPConstraintsAndResend(t *testing.T) {
	t.Parallel()

	html := render(t, VerifyPage(englishPage("/verify-otp"), VerifyView{Email: "ada@example.com"}))
	for _, want := range []string{
		"Enter the OTP sent to ada@example.com",
		`pattern="\d{6}"`,
		`maxlength="6"`,
		`inputmode="numeric"`,
		`action="/verify-otp/resend"`,
		"Resend OTP",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("verify page missing %q:\n%s", want, html)
		}
	}
	if strings.Contains(html, "notice") {
		t.Fatalf("expected no notice without a message:\n%s", html)
	}
}

func TestVerifiedPageRefreshesToLogin(t *testing.T) {
	t.Parallel()

	html := render(t, VerifiedPage(englishPage("/verify-otp"), VerifiedView{Message: "Account verified successfully!", RedirectIn: 2}))
	if !strings.Contains(html, `http-equiv="refresh" content="2;url=/login"`) {
		t.Fatalf("expected refresh to login:\n%s", html)
	}
	if !strings.Contains(html, "Account verified successfully!") {
		t.Fatalf("expected verified message:\n%s", html)
	}
}

func TestLoginAndDashboardPages(t *testing.T) {
	t.Parallel()

	login := render(t, LoginPage(englishPage("/login"), LoginView{Email: "ada@example.com"}))
	if !strings.Contains(login, `action="/login"`) || !strings.Contains(login, `href="/signup"`) {
		t.Fatalf("unexpected login page:\n%s", login)
	}
	dashboard := render(t, DashboardPage(englishPage("/dashboard")))
	if !strings.Contains(dashboard, `action="/logout"`) || !strings.Contains(dashboard, "Welcome to Parley") {
		t.Fatalf("unexpected dashboard page:\n%s", dashboard)
	}
}

func TestPagesEscapeUserInput(t *testing.T) {
	t.Parallel()

	html := render(t, LoginPage(englishPage("/login"), LoginView{
		Email:  `"><script>alert(1)</script>`,
		Notice: Notice{Kind: NoticeError, Message: "<b>bad</b>"},
	}))
	if strings.Contains(html, "<script>") || strings.Contains(html, "<b>bad</b>") {
		t.Fatalf("expected escaped output:\n%s", html)
	}
}

func TestLoadingPageRetriesCurrentURL(t *testing.T) {
	t.Parallel()

	page := englishPage("/dashboard")
	page.CurrentQuery = "lang=pt-BR"
	html := render(t, LoadingPage(page))
	if !strings.Contains(html, `content="1;url=/dashboard?lang=pt-BR"`) {
		t.Fatalf("expected retry refresh:\n%s", html)
	}
}

func TestErrorPageByStatus(t *testing.T) {
	t.Parallel()

	notFound := render(t, ErrorPage(englishPage("/missing"), http.StatusNotFound))
	if !strings.Contains(notFound, "Page not found") {
		t.Fatalf("unexpected 404 page:\n%s", notFound)
	}
	serverError := render(t, ErrorPage(englishPage("/"), http.StatusInternalServerError))
	if !strings.Contains(serverError, "Something went wrong") {
		t.Fatalf("unexpected 500 page:\n%s", serverError)
	}
}

func TestPortugueseLayout(t *testing.T) {
	t.Parallel()

	page := PageContext{Lang: "pt-BR", Loc: webi18n.Printer(language.BrazilianPortuguese), CurrentPath: "/login"}
	html := render(t, LoginPage(page, LoginView{}))
	if !strings.Contains(html, `<html lang="pt-BR">`) || !strings.Contains(html, "Entre no Parley") {
		t.Fatalf("expected portuguese page:\n%s", html)
	}
}

func TestLanguageOptionsMarkActiveAndKeepQuery(t *testing.T) {
	t.Parallel()

	page := englishPage("/login")
	page.CurrentQuery = "next=x"
	options := LanguageOptions(page)
	if len(options) != 2 {
		t.Fatalf("len(options) = %d, want 2", len(options))
	}
	if !options[0].Active || options[1].Active {
		t.Fatalf("unexpected active flags: %+v", options)
	}
	if options[1].URL != "/login?lang=pt-BR&next=x" {
		t.Fatalf("options[1].URL = %q", options[1].URL)
	}
}

func TestTFallsBackToKeyWithoutLocalizer(t *testing.T) {
	t.Parallel()

	if got := T(nil, "verify.sent_to %s", "x"); got != "verify.sent_to x" {
		t.Fatalf("T() = %q", got)
	}
}

func TestNoticeBannerRolesByKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		notice Notice
		want   string
	}{
		{name: "error", notice: Notice{Kind: NoticeError, Message: "Nope"}, want: `<p class="notice" data-kind="error" role="alert">Nope</p>`},
		{name: "success", notice: Notice{Kind: NoticeSuccess, Message: "Sent"}, want: `<p class="notice" data-kind="success" role="status">Sent</p>`},
		{name: "default", notice: Notice{Message: "Hi"}, want: `<p class="notice" data-kind="info" role="status">Hi</p>`},
		{name: "empty", notice: Notice{Kind: NoticeError}, want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := render(t, noticeBanner(tc.notice)); got != tc.want {
				t.Fatalf("noticeBanner() = %q, want %q", got, tc.want)
			}
		})
	}
}
