package templates

import "github.com/louisbranch/parley/internal/services/web/routepath"

// SignupView holds the signup form state.
type SignupView struct {
	FirstName string
	LastName  string
	Email     string
	Notice    Notice
}

// VerifyView holds the OTP entry state.
type VerifyView struct {
	Email  string
	Notice Notice
}

// LoginView holds the login form state.
type LoginView struct {
	Email  string
	Notice Notice
}

// VerifiedView holds the post-verification redirect.
type VerifiedView struct {
	Message      string
	RedirectIn   int
	RedirectPath string
}

func verifiedTarget(view VerifiedView) string {
	if view.RedirectPath == "" {
		return routepath.Login
	}
	return view.RedirectPath
}

func verifiedLayout(view VerifiedView) LayoutOptions {
	return LayoutOptions{
		TitleKey: "verify.title",
		Refresh:  &Refresh{Seconds: view.RedirectIn, URL: verifiedTarget(view)},
	}
}
