package amazon

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"orderscraper/internal/models"
	"orderscraper/utils"
)

// ExtractStats reports what happened while extracting one page fragment.
type ExtractStats struct {
	Orders        int
	Skipped       int // entries excluded because no order id could be found
	FlaggedFields int // optional fields that came back empty and were flagged
	DigitalOrders int
}

// ExtractOrders parses a rendered order-history fragment into orders. It is
// a pure function of its input: no session, no side effects, deterministic.
//
// Policy: a missing optional field (recipient, item price) yields a flagged
// order, never a dropped one; a missing order id excludes the entry and
// bumps the skip counter.
func ExtractOrders(fragment string) ([]models.Order, ExtractStats) {
	var stats ExtractStats

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, stats
	}

	var orders []models.Order
	doc.Find("div.order").Each(func(_ int, card *goquery.Selection) {
		order, ok := extractOrder(card, &stats)
		if !ok {
			stats.Skipped++
			return
		}
		orders = append(orders, order)
		stats.Orders++
	})

	return orders, stats
}

// extractOrder reads one order card. The order-info header carries generic
// 'value' spans in a fixed layout: [date, total, recipient, id], with the
// recipient missing on some orders.
func extractOrder(card *goquery.Selection, stats *ExtractStats) (models.Order, bool) {
	var values []string
	card.Find(".order-info .value").Each(func(_ int, v *goquery.Selection) {
		values = append(values, strings.TrimSpace(v.Text()))
	})
	if len(values) < 3 {
		return models.Order{}, false
	}

	order := models.Order{OrderID: values[len(values)-1]}
	if order.OrderID == "" {
		return models.Order{}, false
	}

	if date, err := utils.ParseOrderDate(values[0]); err == nil {
		order.Date = date.Format("2006-01-02")
	} else {
		order.Flags = append(order.Flags, models.FlagMissingDate)
		stats.FlaggedFields++
	}

	// The total is whichever header value carries a currency. Gift-balance
	// orders ('Audible Guthaben') legitimately have none.
	totalStr := ""
	for _, v := range values[1 : len(values)-1] {
		if utils.ParseCurrency(v) != "" {
			totalStr = v
			break
		}
	}
	if totalStr != "" {
		order.Total = utils.ParsePrice(totalStr)
		order.Currency = utils.ParseCurrency(totalStr)
	} else {
		order.Flags = append(order.Flags, models.FlagMissingTotal)
		stats.FlaggedFields++
	}

	if len(values) >= 4 {
		order.Recipient = values[2]
	}
	if order.Recipient == "" {
		order.Flags = append(order.Flags, models.FlagMissingRecipient)
		stats.FlaggedFields++
	}

	order.Status = strings.TrimSpace(card.Find(".shipment-top-row").First().Text())

	if order.Digital() {
		order.Flags = append(order.Flags, models.FlagDigitalOrder)
		stats.DigitalOrders++
	}

	order.Items = extractItems(card, order, stats)
	if len(order.Items) == 0 {
		order.Flags = append(order.Flags, models.FlagMissingItems)
		stats.FlaggedFields++
	}

	order.Flags = utils.UniqueStrings(order.Flags)
	if len(order.Flags) == 0 {
		order.Flags = nil
	}
	return order, true
}

// extractItems reads the per-seller boxes of an order card. Every a-box
// except the order-info header holds one seller's items, one
// a-fixed-left-grid per item.
func extractItems(card *goquery.Selection, order models.Order, stats *ExtractStats) []models.Item {
	var items []models.Item

	card.Find("div.a-box").Each(func(_ int, box *goquery.Selection) {
		if box.HasClass("order-info") {
			return
		}

		box.Find(".a-fixed-left-grid").Each(func(_ int, grid *goquery.Selection) {
			item := models.Item{Currency: order.Currency}

			right := grid.Find(".a-col-right")
			titleRow := right.Find(".a-row").First()
			item.Name = strings.TrimSpace(titleRow.Text())
			if link, ok := titleRow.Find("a.a-link-normal").First().Attr("href"); ok {
				item.Link = link
			}
			if item.Name == "" {
				// A grid without a title row is decoration, not an item.
				return
			}

			item.Seller = extractSeller(right)

			switch {
			case order.Digital():
				// Digital orders render no per-item price; the order total
				// is the single item's price.
				item.Price = order.Total
			default:
				priceStr := strings.TrimSpace(grid.Find(".a-color-price").First().Text())
				if priceStr == "" {
					item.Flags = append(item.Flags, models.FlagMissingItemPrice)
					stats.FlaggedFields++
				} else {
					item.Price = utils.ParsePrice(priceStr)
					if item.Currency == "" {
						item.Currency = utils.ParseCurrency(priceStr)
					}
				}
			}

			items = append(items, item)
		})
	})

	return items
}

// extractSeller pulls the seller name out of the 'Verkauf durch: X' row.
func extractSeller(right *goquery.Selection) string {
	seller := ""
	right.Find(".a-row").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		text := row.Text()
		idx := strings.Index(text, "durch: ")
		if idx == -1 {
			return true
		}
		rest := text[idx+len("durch: "):]
		if nl := strings.IndexByte(rest, '\n'); nl != -1 {
			rest = rest[:nl]
		}
		seller = strings.TrimSpace(rest)
		return false
	})
	return seller
}
