package flow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/parley/internal/platform/id"
	"github.com/louisbranch/parley/internal/platform/timeouts"
	"github.com/louisbranch/parley/internal/services/web/gateway"
	apperrors "github.com/louisbranch/parley/internal/services/web/platform/errors"
	"golang.org/x/sync/singleflight"
)

// ErrAbandoned means the triggering request went away before the backend
// answered. The answer was discarded and nothing changed.
var ErrAbandoned = errors.New("flow request abandoned")

// SessionWriter is the slice of the session store the controller mutates.
type SessionWriter interface {
	SetToken(ctx context.Context, visitorID, token string) error
	ClearToken(ctx context.Context, visitorID string) error
}

// Options tunes a Controller.
type Options struct {
	// VerifyRedirectDelay is how long the verified screen stays up before login.
	VerifyRedirectDelay time.Duration
	// CallTimeout bounds a backend call once it is detached from the request.
	CallTimeout time.Duration
	// NewVisitorID mints the id an authenticated session is keyed by.
	NewVisitorID func() (string, error)
}

// Controller drives the auth flow against a gateway and a session store.
type Controller struct {
	gateway     gateway.Gateway
	sessions    SessionWriter
	verifyDelay time.Duration
	callTimeout time.Duration
	newVisitor  func() (string, error)
	inflight    singleflight.Group
}

// NewController wires the controller dependencies.
func NewController(gw gateway.Gateway, sessions SessionWriter, opts Options) *Controller {
	if gw == nil {
		gw = gateway.Unavailable{}
	}
	delay := opts.VerifyRedirectDelay
	if delay <= 0 {
		delay = timeouts.VerifyRedirect
	}
	callTimeout := opts.CallTimeout
	if callTimeout <= 0 {
		callTimeout = timeouts.BackendRequest
	}
	newVisitor := opts.NewVisitorID
	if newVisitor == nil {
		newVisitor = id.NewID
	}
	return &Controller{
		gateway:     gw,
		sessions:    sessions,
		verifyDelay: delay,
		callTimeout: callTimeout,
		newVisitor:  newVisitor,
	}
}

// SubmitSignup registers the draft. Success moves to verification carrying
// the submitted email.
func (c *Controller) SubmitSignup(ctx context.Context, visitorID string, state State, draft SignupDraft) (State, Outcome, error) {
	if err := draft.Validate(); err != nil {
		return state, Outcome{Screen: ScreenSignup, Notice: errorNotice(apperrors.PublicMessage(err, MessageFieldsRequired))}, nil
	}
	draft = draft.Normalize()

	payload := []string{draft.FirstName, draft.LastName, draft.Email, draft.Password}
	reply, err := c.call(ctx, inflightKey(visitorID, "signup", payload...), func(callCtx context.Context) (gateway.Reply, error) {
		return c.gateway.Signup(callCtx, gateway.SignupRequest{
			FirstName: draft.FirstName,
			LastName:  draft.LastName,
			Email:     draft.Email,
			Password:  draft.Password,
		})
	})
	if errors.Is(err, ErrAbandoned) {
		return state, Outcome{}, err
	}
	if err != nil {
		return state, Outcome{Screen: ScreenSignup, Notice: errorNotice(apperrors.PublicMessage(err, gateway.MessageServerError))}, nil
	}

	next := State{Step: StepAwaitingVerification, PendingEmail: draft.Email}
	return next, Outcome{Screen: ScreenVerify, Notice: successNotice(reply.Message)}, nil
}

// EnterVerification checks that verification has a target email. Without one
// the visitor restarts at signup, silently.
func (c *Controller) EnterVerification(state State) (State, Outcome) {
	if !state.CanVerify() {
		return Anonymous(), Outcome{Screen: ScreenSignup}
	}
	return state, Outcome{Screen: ScreenVerify}
}

// SubmitOTP confirms the pending email. Success shows the verified screen and
// then login; the session is left untouched.
func (c *Controller) SubmitOTP(ctx context.Context, visitorID string, state State, rawCode string) (State, Outcome, error) {
	if next, outcome := c.EnterVerification(state); outcome.Screen != ScreenVerify {
		return next, outcome, nil
	}
	code, ok := NormalizeOTP(rawCode)
	if !ok {
		return state, Outcome{Screen: ScreenVerify, Notice: errorNotice(MessageOTPFormat)}, nil
	}

	email := state.PendingEmail
	reply, err := c.call(ctx, inflightKey(visitorID, "verify_otp", email, code), func(callCtx context.Context) (gateway.Reply, error) {
		return c.gateway.VerifyOTP(callCtx, email, code)
	})
	if errors.Is(err, ErrAbandoned) {
		return state, Outcome{}, err
	}
	if err != nil {
		return state, Outcome{Screen: ScreenVerify, Notice: errorNotice(apperrors.PublicMessage(err, gateway.MessageServerError))}, nil
	}

	return State{Step: StepVerified}, Outcome{
		Screen:        ScreenVerified,
		Notice:        successNotice(reply.Message),
		RedirectAfter: c.verifyDelay,
	}, nil
}

// ResendOTP asks for a new code. The state never changes and a message is
// always produced, including the backend's text on failure statuses.
func (c *Controller) ResendOTP(ctx context.Context, visitorID string, state State) (State, Outcome, error) {
	if next, outcome := c.EnterVerification(state); outcome.Screen != ScreenVerify {
		return next, outcome, nil
	}

	email := state.PendingEmail
	reply, err := c.call(ctx, inflightKey(visitorID, "resend_otp", email), func(callCtx context.Context) (gateway.Reply, error) {
		return c.gateway.ResendOTP(callCtx, email)
	})
	if errors.Is(err, ErrAbandoned) {
		return state, Outcome{}, err
	}
	if err != nil {
		return state, Outcome{Screen: ScreenVerify, Notice: errorNotice(apperrors.PublicMessage(err, gateway.MessageResendFailed))}, nil
	}
	notice := successNotice(reply.Message)
	if !reply.OK() {
		notice = errorNotice(reply.Message)
	}
	return state, Outcome{Screen: ScreenVerify, Notice: notice}, nil
}

// SubmitLogin exchanges credentials for a token and stores it under a freshly
// minted visitor id, returned in Outcome.VisitorID. The pre-login id never
// becomes an authenticated session key.
func (c *Controller) SubmitLogin(ctx context.Context, visitorID string, state State, draft LoginDraft) (State, Outcome, error) {
	if err := draft.Validate(); err != nil {
		return state, Outcome{Screen: ScreenLogin, Notice: errorNotice(apperrors.PublicMessage(err, MessageFieldsRequired))}, nil
	}
	draft = draft.Normalize()

	reply, err := c.call(ctx, inflightKey(visitorID, "login", draft.Email, draft.Password), func(callCtx context.Context) (gateway.Reply, error) {
		return c.gateway.Login(callCtx, draft.Email, draft.Password)
	})
	if errors.Is(err, ErrAbandoned) {
		return state, Outcome{}, err
	}
	if err != nil {
		return state, Outcome{Screen: ScreenLogin, Notice: errorNotice(apperrors.PublicMessage(err, gateway.MessageServerError))}, nil
	}

	if c.sessions == nil {
		return state, Outcome{Screen: ScreenLogin, Notice: errorNotice(gateway.MessageServerError)}, nil
	}
	sessionID, err := c.newVisitor()
	if err != nil {
		log.Printf("web: mint session visitor failed visitor=%s: %v", visitorID, err)
		return state, Outcome{Screen: ScreenLogin, Notice: errorNotice(gateway.MessageServerError)}, nil
	}
	if err := c.sessions.SetToken(ctx, sessionID, reply.Token); err != nil {
		log.Printf("web: store session token failed visitor=%s: %v", sessionID, err)
		return state, Outcome{Screen: ScreenLogin, Notice: errorNotice(gateway.MessageServerError)}, nil
	}
	return State{Step: StepAuthenticated}, Outcome{Screen: ScreenDashboard, VisitorID: sessionID}, nil
}

// Logout clears the visitor's token. No backend call is made.
func (c *Controller) Logout(ctx context.Context, visitorID string) (State, Outcome, error) {
	if c.sessions != nil {
		if err := c.sessions.ClearToken(ctx, visitorID); err != nil {
			return Anonymous(), Outcome{}, err
		}
	}
	return Anonymous(), Outcome{Screen: ScreenLogin}, nil
}

// inflightKey identifies one backend request. Submits from the same visitor
// share a key only when their payloads match, so a different draft always gets
// its own answer.
func inflightKey(visitorID, operation string, payload ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(payload, "\x00")))
	return visitorID + "/" + operation + "/" + hex.EncodeToString(sum[:])
}

// call runs fn at most once per key at a time. Concurrent duplicates share the
// first call's answer. fn runs detached from ctx so a departed request cannot
// cut the backend call short, and its answer is then dropped as ErrAbandoned.
func (c *Controller) call(ctx context.Context, key string, fn func(context.Context) (gateway.Reply, error)) (gateway.Reply, error) {
	result := c.inflight.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.callTimeout)
		defer cancel()
		return fn(callCtx)
	})

	select {
	case res := <-result:
		if ctx.Err() != nil {
			return gateway.Reply{}, ErrAbandoned
		}
		return replyFrom(key, res)
	case <-ctx.Done():
		return gateway.Reply{}, ErrAbandoned
	}
}

func replyFrom(key string, res singleflight.Result) (gateway.Reply, error) {
	if res.Err != nil {
		return gateway.Reply{}, res.Err
	}
	reply, ok := res.Val.(gateway.Reply)
	if !ok {
		return gateway.Reply{}, fmt.Errorf("unexpected %s result %T", key, res.Val)
	}
	return reply, nil
}
