package scraper

import (
	"context"

	"orderscraper/internal/models"
)

// Session is one authenticated browser lifetime, scoped to a single scrape
// run. The interface keeps the orchestrator and the pagination walker
// independent of the real browser so they can be driven by fakes in tests.
type Session interface {
	// Login signs the account in and verifies the landing page. It does not
	// handle two-factor or email-confirmation challenges; those surface as an
	// AuthError that requires manual verification.
	Login(ctx context.Context, creds models.Credentials) error

	// LoadOrderListPage navigates to one page of the order-history listing
	// for the given order year and returns the rendered HTML.
	// Page numbering starts at 1.
	LoadOrderListPage(ctx context.Context, year, page int) (string, error)

	// Close releases the browser process. Safe to call on every exit path.
	Close() error
}
