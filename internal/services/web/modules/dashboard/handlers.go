package dashboard

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/louisbranch/parley/internal/services/web/platform/pagerender"
	"github.com/louisbranch/parley/internal/services/web/platform/weberror"
	webtemplates "github.com/louisbranch/parley/internal/services/web/templates"
	"golang.org/x/text/message"
)

type handlers struct{}

func newHandlers() handlers {
	return handlers{}
}

func (h handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	err := pagerender.WritePage(w, r, http.StatusOK, func(page webtemplates.PageContext, _ *message.Printer) templ.Component {
		return webtemplates.DashboardPage(page)
	})
	if err != nil {
		weberror.WriteModuleError(w, r, err)
	}
}
