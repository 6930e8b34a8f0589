package amazon

import (
	"context"
	"errors"
	"testing"

	"orderscraper/internal/models"
)

// fakeSession serves scripted fragments per page index. Pages beyond the
// script come back as an empty order list; failAt injects a navigation
// failure on that page.
type fakeSession struct {
	fragments []string
	failAt    int
	loads     int
}

func (f *fakeSession) Login(ctx context.Context, creds models.Credentials) error { return nil }

func (f *fakeSession) LoadOrderListPage(ctx context.Context, year, page int) (string, error) {
	f.loads++
	if f.failAt != 0 && page == f.failAt {
		return "", &NavigationError{Year: year, Page: page, Err: errors.New("timeout")}
	}
	if page > len(f.fragments) {
		return emptyOrderListPage(), nil
	}
	return f.fragments[page-1], nil
}

func (f *fakeSession) Close() error { return nil }

func TestWalkerStopsOnZeroOrderPage(t *testing.T) {
	session := &fakeSession{fragments: []string{
		orderListPage(true, standardCard("304-1")),
		orderListPage(true, standardCard("304-2")),
	}}
	w := NewWalker(session, 2018, 100)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, ok := w.Next(ctx); !ok {
			t.Fatalf("expected page %d to be yielded", i+1)
		}
	}
	if _, ok := w.Next(ctx); ok {
		t.Fatal("zero-order page must terminate the sequence")
	}
	if w.Err() != nil {
		t.Errorf("clean exhaustion must not report an error, got %v", w.Err())
	}
	if w.Pages() != 2 {
		t.Errorf("Pages() = %d, want 2", w.Pages())
	}
}

func TestWalkerStopsWithoutNextLink(t *testing.T) {
	session := &fakeSession{fragments: []string{
		orderListPage(false, standardCard("304-1")),
	}}
	w := NewWalker(session, 2018, 100)

	ctx := context.Background()
	if _, ok := w.Next(ctx); !ok {
		t.Fatal("first page should be yielded")
	}
	if _, ok := w.Next(ctx); ok {
		t.Fatal("disabled next link must end the sequence")
	}
	if session.loads != 1 {
		t.Errorf("walker fetched %d pages, the last-page marker should prevent a second load", session.loads)
	}
}

func TestWalkerNavigationErrorEndsSequenceEarly(t *testing.T) {
	session := &fakeSession{
		fragments: []string{
			orderListPage(true, standardCard("304-1")),
			orderListPage(true, standardCard("304-2")),
		},
		failAt: 2,
	}
	w := NewWalker(session, 2018, 100)

	ctx := context.Background()
	if _, ok := w.Next(ctx); !ok {
		t.Fatal("first page should be yielded")
	}
	if _, ok := w.Next(ctx); ok {
		t.Fatal("navigation failure must end the sequence")
	}

	var navErr *NavigationError
	if !errors.As(w.Err(), &navErr) {
		t.Fatalf("Err() = %v, want *NavigationError", w.Err())
	}
	if navErr.Page != 2 {
		t.Errorf("failure page = %d, want 2", navErr.Page)
	}
	if w.Pages() != 1 {
		t.Errorf("Pages() = %d, want 1", w.Pages())
	}
}

func TestWalkerMaxPagesGuard(t *testing.T) {
	pages := make([]string, 10)
	for i := range pages {
		pages[i] = orderListPage(true, standardCard("304-x"))
	}
	session := &fakeSession{fragments: pages}
	w := NewWalker(session, 2018, 3)

	ctx := context.Background()
	count := 0
	for {
		if _, ok := w.Next(ctx); !ok {
			break
		}
		count++
	}
	if count != 3 {
		t.Errorf("max pages guard yielded %d pages, want 3", count)
	}
	if w.Err() != nil {
		t.Errorf("guard stop is clean exhaustion, got error %v", w.Err())
	}
}

func TestFragmentHasNextPage(t *testing.T) {
	testCases := []struct {
		name     string
		fragment string
		want     bool
	}{
		{"Next Enabled", orderListPage(true, standardCard("1")), true},
		{"Next Disabled", orderListPage(false, standardCard("1")), false},
		{"No Pagination", emptyOrderListPage(), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := fragmentHasNextPage(tc.fragment); got != tc.want {
				t.Errorf("fragmentHasNextPage = %v, want %v", got, tc.want)
			}
		})
	}
}
