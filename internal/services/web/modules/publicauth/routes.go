package publicauth

import (
	"net/http"

	"github.com/louisbranch/parley/internal/services/web/platform/httpx"
	"github.com/louisbranch/parley/internal/services/web/platform/weberror"
	"github.com/louisbranch/parley/internal/services/web/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" "+routepath.Root+"{$}", h.handleEntry)
	mux.HandleFunc(http.MethodGet+" "+routepath.Signup, h.handleSignupPage)
	mux.HandleFunc(http.MethodPost+" "+routepath.Signup, h.handleSignupSubmit)
	mux.HandleFunc(http.MethodGet+" "+routepath.VerifyOTP, h.handleVerifyPage)
	mux.HandleFunc(http.MethodPost+" "+routepath.VerifyOTP, h.handleVerifySubmit)
	mux.HandleFunc(http.MethodPost+" "+routepath.ResendOTP, h.handleResend)
	mux.HandleFunc(routepath.ResendOTP, httpx.MethodNotAllowed(http.MethodPost))
	mux.HandleFunc(http.MethodGet+" "+routepath.Login, h.handleLoginPage)
	mux.HandleFunc(http.MethodPost+" "+routepath.Login, h.handleLoginSubmit)
	mux.HandleFunc(http.MethodPost+" "+routepath.Logout, h.handleLogout)
	mux.HandleFunc(routepath.Logout, httpx.MethodNotAllowed(http.MethodPost))
	mux.Handle(routepath.Root, weberror.NotFound())
}
