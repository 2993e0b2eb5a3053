// Package flow sequences the signup, verification and login screens.
//
// The controller is a state machine over State. Each operation takes the
// visitor's current State and returns the next State plus an Outcome naming
// the screen to show and the notice to show on it. The pending email travels
// in State between requests, so the verification screen always knows which
// address it confirms; a State without one sends the visitor back to signup.
//
// Verification success never authenticates. Only SubmitLogin writes a token
// to the session store.
package flow
