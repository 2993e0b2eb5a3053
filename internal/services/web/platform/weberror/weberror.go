// Package weberror renders shared error responses for web modules.
package weberror

import (
	"log"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	apperrors "github.com/louisbranch/parley/internal/services/web/platform/errors"
	"github.com/louisbranch/parley/internal/services/web/platform/pagerender"
	webtemplates "github.com/louisbranch/parley/internal/services/web/templates"
	"golang.org/x/text/message"
)

// ShouldRenderErrorPage reports whether status uses the full error page.
func ShouldRenderErrorPage(statusCode int) bool {
	return statusCode == http.StatusNotFound || statusCode >= http.StatusInternalServerError
}

// PublicMessage resolves a user-safe localized error message.
func PublicMessage(printer *message.Printer, err error) string {
	if err == nil {
		return ""
	}
	if printer != nil {
		if key := apperrors.LocalizationKey(err); key != "" {
			if localized := strings.TrimSpace(printer.Sprintf(key)); localized != "" && localized != key {
				return localized
			}
		}
	}
	if apperrors.KindOf(err) != apperrors.KindUnknown {
		return apperrors.PublicMessage(err, http.StatusText(apperrors.HTTPStatus(err)))
	}
	return http.StatusText(http.StatusInternalServerError)
}

// WritePage writes the localized error page for statusCode.
func WritePage(w http.ResponseWriter, r *http.Request, statusCode int) {
	if w == nil {
		return
	}
	if !ShouldRenderErrorPage(statusCode) {
		statusCode = http.StatusInternalServerError
	}
	err := pagerender.WritePage(w, r, statusCode, func(page webtemplates.PageContext, _ *message.Printer) templ.Component {
		return webtemplates.ErrorPage(page, statusCode)
	})
	if err != nil {
		log.Printf("web: render error page failed status=%d: %v", statusCode, err)
		http.Error(w, http.StatusText(statusCode), statusCode)
	}
}

// NotFound is the shared 404 handler.
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WritePage(w, r, http.StatusNotFound)
	})
}

// WriteModuleError writes err with its mapped status. Server errors are logged
// and render the error page; client errors get a short localized message.
func WriteModuleError(w http.ResponseWriter, r *http.Request, err error) {
	if w == nil || err == nil {
		return
	}
	statusCode := apperrors.HTTPStatus(err)
	if ShouldRenderErrorPage(statusCode) {
		if statusCode >= http.StatusInternalServerError {
			path := ""
			if r != nil && r.URL != nil {
				path = r.URL.Path
			}
			log.Printf("web: request failed path=%s status=%d: %v", path, statusCode, err)
		}
		WritePage(w, r, statusCode)
		return
	}
	_, printer := pagerender.Resolve(w, r)
	http.Error(w, PublicMessage(printer, err), statusCode)
}
