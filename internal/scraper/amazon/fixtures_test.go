package amazon

import (
	"fmt"
	"strings"
)

// orderCard builds one order card in the markup shape the extractor is
// written against. recipient may be empty (three header values instead of
// four), itemPrice may be empty (price row omitted).
type orderCard struct {
	id        string
	date      string
	total     string
	recipient string
	status    string
	items     []itemRow
}

type itemRow struct {
	name   string
	price  string
	seller string
	link   string
}

func (c orderCard) html() string {
	var b strings.Builder
	b.WriteString(`<div class="order a-box-group">`)
	b.WriteString(`<div class="a-box order-info"><div class="a-row">`)
	b.WriteString(fmt.Sprintf(`<span class="value">%s</span>`, c.date))
	if c.total != "" {
		b.WriteString(fmt.Sprintf(`<span class="value">%s</span>`, c.total))
	}
	if c.recipient != "" {
		b.WriteString(fmt.Sprintf(`<span class="value">%s</span>`, c.recipient))
	}
	b.WriteString(fmt.Sprintf(`<span class="value">%s</span>`, c.id))
	b.WriteString(`</div></div>`)

	b.WriteString(`<div class="a-box shipment">`)
	if c.status != "" {
		b.WriteString(fmt.Sprintf(`<div class="shipment-top-row">%s</div>`, c.status))
	}
	for _, it := range c.items {
		b.WriteString(`<div class="a-fixed-left-grid"><div class="a-col-right">`)
		link := it.link
		if link == "" {
			link = "https://www.amazon.de/gp/product/B000TEST"
		}
		b.WriteString(fmt.Sprintf(`<div class="a-row"><a class="a-link-normal" href="%s">%s</a></div>`, link, it.name))
		if it.seller != "" {
			b.WriteString(fmt.Sprintf(`<div class="a-row">Verkauf durch: %s</div>`, it.seller))
		}
		if it.price != "" {
			b.WriteString(fmt.Sprintf(`<div class="a-row"><span class="a-color-price">%s</span></div>`, it.price))
		}
		b.WriteString(`</div></div>`)
	}
	b.WriteString(`</div></div>`)
	return b.String()
}

func standardCard(id string) orderCard {
	return orderCard{
		id:        id,
		date:      "4. September 2018",
		total:     "EUR 29,99",
		recipient: "Max Mustermann",
		status:    "Zugestellt 6. September 2018",
		items: []itemRow{
			{name: "USB-C Kabel 2m", price: "EUR 29,99", seller: "Amazon EU S.a.r.L."},
		},
	}
}

// orderListPage wraps cards into a full order-history page fragment.
// withNext controls whether the pagination menu advertises a next page.
func orderListPage(withNext bool, cards ...orderCard) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="ordersContainer">`)
	for _, c := range cards {
		b.WriteString(c.html())
	}
	b.WriteString(`</div>`)
	if len(cards) > 0 {
		b.WriteString(`<ul class="a-pagination"><li class="a-normal"><a href="?startIndex=0">1</a></li>`)
		if withNext {
			b.WriteString(`<li class="a-last"><a href="?startIndex=10">Weiter</a></li>`)
		} else {
			b.WriteString(`<li class="a-disabled a-last">Weiter</li>`)
		}
		b.WriteString(`</ul>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func emptyOrderListPage() string {
	return `<html><body><div id="ordersContainer"><p>Sie haben in diesem Zeitraum keine Bestellungen aufgegeben.</p></div></body></html>`
}
