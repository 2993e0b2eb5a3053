// Package routepath stores canonical HTTP paths for web modules.
package routepath

const (
	Root      = "/"
	Signup    = "/signup"
	VerifyOTP = "/verify-otp"
	ResendOTP = "/verify-otp/resend"
	Login     = "/login"
	Logout    = "/logout"
	Dashboard = "/dashboard"
	Health    = "/up"
)

// Landing is where an authenticated visitor is sent.
const Landing = Dashboard

// AnonymousOnly lists the entry screens an authenticated visitor is sent
// away from.
var AnonymousOnly = []string{Signup, VerifyOTP, ResendOTP, Login}

// Protected lists the screens that require a session token.
var Protected = []string{Dashboard, Logout}
