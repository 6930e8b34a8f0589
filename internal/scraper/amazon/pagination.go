package amazon

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"orderscraper/internal/scraper"
)

// Walker produces a lazy, finite, non-restartable sequence of order-history
// page fragments for one year filter. It stops on a page with zero order
// cards, on a missing or disabled next-page link, or at maxPages (a guard
// against markup drift producing endless pagination).
type Walker struct {
	session  scraper.Session
	year     int
	maxPages int

	page    int
	yielded int
	done    bool
	err     error
}

// NewWalker returns a walker positioned before the first page.
func NewWalker(session scraper.Session, year, maxPages int) *Walker {
	return &Walker{session: session, year: year, maxPages: maxPages}
}

// Next fetches the next page fragment. It returns ok=false when the
// sequence is exhausted; check Err afterwards to distinguish clean
// exhaustion from a navigation failure.
func (w *Walker) Next(ctx context.Context) (string, bool) {
	if w.done || w.page >= w.maxPages {
		w.done = true
		return "", false
	}

	w.page++
	fragment, err := w.session.LoadOrderListPage(ctx, w.year, w.page)
	if err != nil {
		w.done = true
		w.err = err
		return "", false
	}

	if !fragmentHasOrders(fragment) {
		w.done = true
		return "", false
	}

	w.yielded++
	if !fragmentHasNextPage(fragment) {
		w.done = true
	}
	return fragment, true
}

// Err reports the navigation failure that ended the sequence early, if any.
func (w *Walker) Err() error { return w.err }

// Pages is the number of fragments successfully yielded so far.
func (w *Walker) Pages() int { return w.yielded }

// fragmentHasOrders reports whether the fragment contains at least one
// order card.
func fragmentHasOrders(fragment string) bool {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return false
	}

	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && nodeHasClass(n, "order") {
			found = true
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

// fragmentHasNextPage inspects the pagination menu. No menu means a single
// page; a disabled 'a-last' entry means the current page is the last one.
func fragmentHasNextPage(fragment string) bool {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return false
	}

	var pagination *html.Node
	var findPagination func(*html.Node)
	findPagination = func(n *html.Node) {
		if pagination != nil {
			return
		}
		if n.Type == html.ElementNode && nodeHasClass(n, "a-pagination") {
			pagination = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findPagination(c)
		}
	}
	findPagination(doc)
	if pagination == nil {
		return false
	}

	var hasNext bool
	var findLast func(*html.Node)
	findLast = func(n *html.Node) {
		if hasNext {
			return
		}
		if n.Type == html.ElementNode && nodeHasClass(n, "a-last") && !nodeHasClass(n, "a-disabled") {
			// The entry only counts when it actually links somewhere.
			var findAnchor func(*html.Node) bool
			findAnchor = func(a *html.Node) bool {
				if a.Type == html.ElementNode && a.Data == "a" {
					for _, attr := range a.Attr {
						if attr.Key == "href" && attr.Val != "" {
							return true
						}
					}
				}
				for c := a.FirstChild; c != nil; c = c.NextSibling {
					if findAnchor(c) {
						return true
					}
				}
				return false
			}
			hasNext = findAnchor(n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findLast(c)
		}
	}
	findLast(pagination)
	return hasNext
}

func nodeHasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}
