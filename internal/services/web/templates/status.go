package templates

import (
	"net/http"

	"github.com/louisbranch/parley/internal/services/web/routepath"
)

// LoadingRetrySeconds is how long the placeholder waits before retrying.
const LoadingRetrySeconds = 1

// loadingLayout retries the exact URL that was requested, query included.
func loadingLayout(page PageContext) LayoutOptions {
	target := page.CurrentPath
	if target == "" {
		target = routepath.Root
	}
	if page.CurrentQuery != "" {
		target += "?" + page.CurrentQuery
	}
	return LayoutOptions{TitleKey: "loading.title", Refresh: &Refresh{Seconds: LoadingRetrySeconds, URL: target}}
}

func errorTitleKey(status int) string {
	if status == http.StatusNotFound {
		return "error.title_not_found"
	}
	return "error.title_server_error"
}

func errorMessageKey(status int) string {
	if status == http.StatusNotFound {
		return "error.message_not_found"
	}
	return "error.message_server_error"
}
