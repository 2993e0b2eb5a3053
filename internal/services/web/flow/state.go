package flow

import "time"

// Step is a position in the auth flow.
type Step string

const (
	StepAnonymous            Step = ""
	StepAwaitingVerification Step = "awaiting_verification"
	StepVerified             Step = "verified"
	StepAuthenticated        Step = "authenticated"
)

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	switch s {
	case StepAnonymous, StepAwaitingVerification, StepVerified, StepAuthenticated:
		return true
	default:
		return false
	}
}

// State is the transient flow position carried between requests.
type State struct {
	Step Step
	// PendingEmail is the address awaiting OTP confirmation.
	PendingEmail string
}

// Anonymous is the zero state.
func Anonymous() State {
	return State{}
}

// IsAnonymous reports whether the state carries nothing worth keeping.
func (s State) IsAnonymous() bool {
	return s.Step == StepAnonymous && s.PendingEmail == ""
}

// CanVerify reports whether the verification screen may be entered.
func (s State) CanVerify() bool {
	return s.Step == StepAwaitingVerification && s.PendingEmail != ""
}

// Screen names the page the visitor should see.
type Screen string

const (
	ScreenSignup    Screen = "signup"
	ScreenVerify    Screen = "verify"
	ScreenVerified  Screen = "verified"
	ScreenLogin     Screen = "login"
	ScreenDashboard Screen = "dashboard"
)

// NoticeKind classifies a notice for presentation.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is an inline message for the next screen.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// IsZero reports whether there is nothing to show.
func (n Notice) IsZero() bool {
	return n.Message == ""
}

// Outcome is what the visitor sees after an operation.
type Outcome struct {
	Screen Screen
	Notice Notice
	// RedirectAfter is set when Screen should move on to login by itself.
	RedirectAfter time.Duration
	// VisitorID is the id the visitor must be known by from now on. It is only
	// set when login rotated the session.
	VisitorID string
}

func successNotice(message string) Notice {
	return Notice{Kind: NoticeSuccess, Message: message}
}

func errorNotice(message string) Notice {
	return Notice{Kind: NoticeError, Message: message}
}
