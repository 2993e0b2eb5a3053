package publicauth

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/louisbranch/parley/internal/services/web/flow"
	webi18n "github.com/louisbranch/parley/internal/services/web/i18n"
	apperrors "github.com/louisbranch/parley/internal/services/web/platform/errors"
	"github.com/louisbranch/parley/internal/services/web/platform/flash"
	"github.com/louisbranch/parley/internal/services/web/platform/httpx"
	"github.com/louisbranch/parley/internal/services/web/platform/pagerender"
	"github.com/louisbranch/parley/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/parley/internal/services/web/platform/sessioncookie"
	"github.com/louisbranch/parley/internal/services/web/platform/weberror"
	"github.com/louisbranch/parley/internal/services/web/routepath"
	webtemplates "github.com/louisbranch/parley/internal/services/web/templates"
	"golang.org/x/text/message"
)

type handlers struct {
	controller *flow.Controller
	codec      *flow.Codec
	policy     requestmeta.SchemePolicy
}

func newHandlers(cfg Config) (handlers, error) {
	if cfg.Controller == nil {
		return handlers{}, errors.New("publicauth: flow controller is required")
	}
	codec := cfg.Codec
	if codec == nil {
		var err error
		codec, err = flow.NewCodec(nil, 0)
		if err != nil {
			return handlers{}, err
		}
	}
	return handlers{controller: cfg.Controller, codec: codec, policy: cfg.Policy}, nil
}

// visitor resolves the request's visitor id, minting one on first contact.
func (h handlers) visitor(w http.ResponseWriter, r *http.Request) (string, bool) {
	visitorID, err := sessioncookie.Ensure(w, r, h.policy)
	if err != nil {
		weberror.WriteModuleError(w, r, err)
		return "", false
	}
	return visitorID, true
}

func (h handlers) handleEntry(w http.ResponseWriter, r *http.Request) {
	httpx.WriteRedirect(w, r, routepath.Login)
}

func (h handlers) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	notice, _ := flash.ReadAndClear(w, r, h.policy)
	h.render(w, r, http.StatusOK, func(page webtemplates.PageContext, p *message.Printer) templ.Component {
		return webtemplates.SignupPage(page, webtemplates.SignupView{Notice: flashNotice(p, notice)})
	})
}

func (h handlers) handleSignupSubmit(w http.ResponseWriter, r *http.Request) {
	visitorID, ok := h.visitor(w, r)
	if !ok {
		return
	}
	draft, err := readSignupDraft(r)
	if err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	state := h.codec.Read(r, visitorID)
	next, outcome, err := h.controller.SubmitSignup(r.Context(), visitorID, state, draft)
	if h.abandoned(r, "signup", err) {
		return
	}
	if outcome.Screen != flow.ScreenVerify {
		h.render(w, r, noticeStatus(outcome.Notice), func(page webtemplates.PageContext, p *message.Printer) templ.Component {
			return webtemplates.SignupPage(page, webtemplates.SignupView{
				FirstName: draft.FirstName,
				LastName:  draft.LastName,
				Email:     draft.Email,
				Notice:    flowNotice(p, outcome.Notice),
			})
		})
		return
	}
	if !h.writeState(w, r, visitorID, next) {
		return
	}
	flash.Write(w, r, flash.Notice{Kind: flash.Kind(outcome.Notice.Kind), Message: outcome.Notice.Message}, h.policy)
	httpx.WriteRedirect(w, r, routepath.VerifyOTP)
}

func (h handlers) handleVerifyPage(w http.ResponseWriter, r *http.Request) {
	visitorID, ok := h.visitor(w, r)
	if !ok {
		return
	}
	state, outcome := h.controller.EnterVerification(h.codec.Read(r, visitorID))
	if outcome.Screen != flow.ScreenVerify {
		h.restart(w, r)
		return
	}
	notice, _ := flash.ReadAndClear(w, r, h.policy)
	h.render(w, r, http.StatusOK, func(page webtemplates.PageContext, p *message.Printer) templ.Component {
		return webtemplates.VerifyPage(page, webtemplates.VerifyView{Email: state.PendingEmail, Notice: flashNotice(p, notice)})
	})
}

func (h handlers) handleVerifySubmit(w http.ResponseWriter, r *http.Request) {
	visitorID, ok := h.visitor(w, r)
	if !ok {
		return
	}
	code, err := httpx.FormValue(r, "otp")
	if err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	state := h.codec.Read(r, visitorID)
	next, outcome, err := h.controller.SubmitOTP(r.Context(), visitorID, state, code)
	if h.abandoned(r, "verify_otp", err) {
		return
	}
	switch outcome.Screen {
	case flow.ScreenVerified:
		if !h.writeState(w, r, visitorID, next) {
			return
		}
		h.render(w, r, http.StatusOK, func(page webtemplates.PageContext, p *message.Printer) templ.Component {
			return webtemplates.VerifiedPage(page, webtemplates.VerifiedView{
				Message:      webi18n.Text(p, outcome.Notice.Message),
				RedirectIn:   redirectSeconds(outcome.RedirectAfter),
				RedirectPath: routepath.Login,
			})
		})
	case flow.ScreenVerify:
		h.renderVerify(w, r, next, outcome)
	default:
		h.restart(w, r)
	}
}

func (h handlers) handleResend(w http.ResponseWriter, r *http.Request) {
	visitorID, ok := h.visitor(w, r)
	if !ok {
		return
	}
	state := h.codec.Read(r, visitorID)
	next, outcome, err := h.controller.ResendOTP(r.Context(), visitorID, state)
	if h.abandoned(r, "resend_otp", err) {
		return
	}
	if outcome.Screen != flow.ScreenVerify {
		h.restart(w, r)
		return
	}
	h.renderVerify(w, r, next, outcome)
}

func (h handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	notice, _ := flash.ReadAndClear(w, r, h.policy)
	h.render(w, r, http.StatusOK, func(page webtemplates.PageContext, p *message.Printer) templ.Component {
		return webtemplates.LoginPage(page, webtemplates.LoginView{Notice: flashNotice(p, notice)})
	})
}

func (h handlers) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	visitorID, ok := h.visitor(w, r)
	if !ok {
		return
	}
	draft, err := readLoginDraft(r)
	if err != nil {
		weberror.WriteModuleError(w, r, err)
		return
	}
	state := h.codec.Read(r, visitorID)
	next, outcome, err := h.controller.SubmitLogin(r.Context(), visitorID, state, draft)
	if h.abandoned(r, "login", err) {
		return
	}
	if outcome.Screen != flow.ScreenDashboard {
		h.render(w, r, noticeStatus(outcome.Notice), func(page webtemplates.PageContext, p *message.Printer) templ.Component {
			return webtemplates.LoginPage(page, webtemplates.LoginView{Email: draft.Email, Notice: flowNotice(p, outcome.Notice)})
		})
		return
	}
	// The session lives under a new visitor id; the pre-login cookie value is discarded.
	sessioncookie.Write(w, r, outcome.VisitorID, h.policy)
	if !h.writeState(w, r, outcome.VisitorID, next) {
		return
	}
	httpx.WriteRedirect(w, r, routepath.Landing)
}

func (h handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if visitorID, ok := sessioncookie.Read(r); ok {
		if _, _, err := h.controller.Logout(r.Context(), visitorID); err != nil {
			weberror.WriteModuleError(w, r, err)
			return
		}
	}
	sessioncookie.Clear(w, r, h.policy)
	h.codec.Clear(w, r, h.policy)
	httpx.WriteRedirect(w, r, routepath.Login)
}

func (h handlers) renderVerify(w http.ResponseWriter, r *http.Request, state flow.State, outcome flow.Outcome) {
	h.render(w, r, noticeStatus(outcome.Notice), func(page webtemplates.PageContext, p *message.Printer) templ.Component {
		return webtemplates.VerifyPage(page, webtemplates.VerifyView{Email: state.PendingEmail, Notice: flowNotice(p, outcome.Notice)})
	})
}

// restart drops a flow state that cannot continue and sends the visitor back
// to signup without a message.
func (h handlers) restart(w http.ResponseWriter, r *http.Request) {
	h.codec.Clear(w, r, h.policy)
	httpx.WriteRedirect(w, r, routepath.Signup)
}

func (h handlers) writeState(w http.ResponseWriter, r *http.Request, visitorID string, state flow.State) bool {
	if err := h.codec.Write(w, r, visitorID, state, h.policy); err != nil {
		weberror.WriteModuleError(w, r, err)
		return false
	}
	return true
}

func (h handlers) render(w http.ResponseWriter, r *http.Request, status int, build pagerender.Builder) {
	if err := pagerender.WritePage(w, r, status, build); err != nil {
		weberror.WriteModuleError(w, r, err)
	}
}

// abandoned reports whether the visitor left before the backend answered. In
// that case nothing is written.
func (h handlers) abandoned(r *http.Request, operation string, err error) bool {
	if !errors.Is(err, flow.ErrAbandoned) {
		return false
	}
	log.Printf("web: flow request abandoned op=%s path=%s", operation, r.URL.Path)
	return true
}

func readSignupDraft(r *http.Request) (flow.SignupDraft, error) {
	if err := r.ParseForm(); err != nil {
		return flow.SignupDraft{}, formError(err)
	}
	return flow.SignupDraft{
		FirstName: r.PostForm.Get("first_name"),
		LastName:  r.PostForm.Get("last_name"),
		Email:     r.PostForm.Get("email"),
		Password:  r.PostForm.Get("password"),
	}.Normalize(), nil
}

func readLoginDraft(r *http.Request) (flow.LoginDraft, error) {
	if err := r.ParseForm(); err != nil {
		return flow.LoginDraft{}, formError(err)
	}
	return flow.LoginDraft{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}.Normalize(), nil
}

func formError(err error) error {
	return apperrors.Wrap(apperrors.KindInvalidInput, "invalid form body", err)
}

func noticeStatus(notice flow.Notice) int {
	if notice.Kind == flow.NoticeError {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

func flowNotice(p *message.Printer, notice flow.Notice) webtemplates.Notice {
	if notice.IsZero() {
		return webtemplates.Notice{}
	}
	return webtemplates.Notice{Kind: webtemplates.NoticeKind(notice.Kind), Message: webi18n.Text(p, notice.Message)}
}

func flashNotice(p *message.Printer, notice flash.Notice) webtemplates.Notice {
	if notice.IsZero() {
		return webtemplates.Notice{}
	}
	return webtemplates.Notice{Kind: webtemplates.NoticeKind(notice.Kind), Message: webi18n.Text(p, notice.Message)}
}

func redirectSeconds(d time.Duration) int {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}
