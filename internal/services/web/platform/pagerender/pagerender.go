// Package pagerender centralizes full-page rendering for web modules.
package pagerender

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
	webi18n "github.com/louisbranch/parley/internal/services/web/i18n"
	"github.com/louisbranch/parley/internal/services/web/platform/httpx"
	webtemplates "github.com/louisbranch/parley/internal/services/web/templates"
	"golang.org/x/text/message"
)

// Builder produces a page body for a resolved page context. The printer
// localizes free text such as notices.
type Builder func(page webtemplates.PageContext, printer *message.Printer) templ.Component

// Resolve returns the page context for r. An explicit language param is
// persisted as a cookie so later pages keep the choice.
func Resolve(w http.ResponseWriter, r *http.Request) (webtemplates.PageContext, *message.Printer) {
	tag, persist := webi18n.ResolveTag(r)
	if persist {
		webi18n.SetLanguageCookie(w, tag)
	}
	printer := webi18n.Printer(tag)
	page := webtemplates.PageContext{Lang: tag.String(), Loc: printer}
	if r != nil && r.URL != nil {
		page.CurrentPath = r.URL.Path
		page.CurrentQuery = r.URL.RawQuery
	}
	return page, printer
}

// WritePage renders build into a buffer and writes it with statusCode. Nothing
// is written when rendering fails so callers can still send an error page.
func WritePage(w http.ResponseWriter, r *http.Request, statusCode int, build Builder) error {
	if w == nil || build == nil {
		return nil
	}
	if statusCode <= 0 {
		statusCode = http.StatusOK
	}
	page, printer := Resolve(w, r)
	var buf bytes.Buffer
	if err := build(page, printer).Render(httpx.RequestContext(r), &buf); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
	return nil
}
