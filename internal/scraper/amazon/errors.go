package amazon

import "fmt"

// AuthError means the session never became authenticated. It is fatal for
// the run: no orders have been accumulated yet, so nothing is written.
type AuthError struct {
	Reason string
	// RequiresManualVerification is set when the post-login page is a
	// challenge the scraper will not automate (OTP, captcha, email
	// confirmation). The user has to complete it in a normal browser first.
	RequiresManualVerification bool
}

func (e *AuthError) Error() string {
	if e.RequiresManualVerification {
		return fmt.Sprintf("authentication requires manual verification: %s", e.Reason)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// NavigationError means a page load failed or timed out mid-run. It ends
// pagination early; the run finalizes with whatever was accumulated.
type NavigationError struct {
	Year int
	Page int
	Err  error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation failed on year %d page %d: %v", e.Year, e.Page, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }
