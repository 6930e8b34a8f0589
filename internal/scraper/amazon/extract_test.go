package amazon

import (
	"reflect"
	"testing"

	"orderscraper/internal/models"
)

func TestExtractOrderFields(t *testing.T) {
	card := orderCard{
		id:        "304-1234567-1234567",
		date:      "4. September 2018",
		total:     "EUR 49,98",
		recipient: "Max Mustermann",
		status:    "Zugestellt 6. September 2018",
		items: []itemRow{
			{name: "USB-C Kabel 2m", price: "EUR 19,99", seller: "KabelKontor", link: "https://www.amazon.de/gp/product/B0001"},
			{name: "Netzteil 65W", price: "EUR 29,99", seller: "Amazon EU S.a.r.L."},
		},
	}

	orders, stats := ExtractOrders(orderListPage(false, card))
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	if stats.Orders != 1 || stats.Skipped != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	o := orders[0]
	if o.OrderID != "304-1234567-1234567" {
		t.Errorf("order id = %q", o.OrderID)
	}
	if o.Date != "2018-09-04" {
		t.Errorf("date = %q, want 2018-09-04", o.Date)
	}
	if o.Total != 49.98 || o.Currency != "EUR" {
		t.Errorf("total = %f %s", o.Total, o.Currency)
	}
	if o.Recipient != "Max Mustermann" {
		t.Errorf("recipient = %q", o.Recipient)
	}
	if o.Status != "Zugestellt 6. September 2018" {
		t.Errorf("status = %q", o.Status)
	}
	if len(o.Flags) != 0 {
		t.Errorf("unexpected flags: %v", o.Flags)
	}
	if len(o.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(o.Items))
	}
	if o.Items[0].Name != "USB-C Kabel 2m" || o.Items[0].Price != 19.99 {
		t.Errorf("item[0] = %+v", o.Items[0])
	}
	if o.Items[0].Seller != "KabelKontor" {
		t.Errorf("item[0] seller = %q", o.Items[0].Seller)
	}
	if o.Items[0].Link != "https://www.amazon.de/gp/product/B0001" {
		t.Errorf("item[0] link = %q", o.Items[0].Link)
	}
	if o.Items[1].Price != 29.99 {
		t.Errorf("item[1] price = %f", o.Items[1].Price)
	}
}

func TestExtractOrdersDeterministic(t *testing.T) {
	page := orderListPage(true, standardCard("304-0000001-0000001"), standardCard("304-0000002-0000002"))

	first, firstStats := ExtractOrders(page)
	second, secondStats := ExtractOrders(page)

	if !reflect.DeepEqual(first, second) {
		t.Error("extraction is not deterministic for identical input")
	}
	if firstStats != secondStats {
		t.Errorf("stats differ: %+v vs %+v", firstStats, secondStats)
	}
}

func TestExtractMissingRecipientFlaggedNotDropped(t *testing.T) {
	with := standardCard("304-0000001-0000001")
	without := standardCard("304-0000001-0000001")
	without.recipient = ""

	ordersWith, _ := ExtractOrders(orderListPage(false, with))
	ordersWithout, _ := ExtractOrders(orderListPage(false, without))

	if len(ordersWith) != len(ordersWithout) {
		t.Fatalf("removing an optional field changed the order count: %d vs %d", len(ordersWith), len(ordersWithout))
	}
	o := ordersWithout[0]
	if o.Recipient != "" {
		t.Errorf("recipient should be empty, got %q", o.Recipient)
	}
	if !hasFlag(o.Flags, models.FlagMissingRecipient) {
		t.Errorf("expected %s flag, got %v", models.FlagMissingRecipient, o.Flags)
	}
}

func TestExtractMissingOrderIDSkipped(t *testing.T) {
	broken := orderCard{date: "4. September 2018", total: "", id: ""}
	good := standardCard("304-0000009-0000009")

	orders, stats := ExtractOrders(orderListPage(false, broken, good))
	if len(orders) != 1 {
		t.Fatalf("expected only the valid order, got %d", len(orders))
	}
	if stats.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", stats.Skipped)
	}
}

func TestExtractMissingItemPriceFlagged(t *testing.T) {
	card := standardCard("304-0000003-0000003")
	card.items = []itemRow{{name: "Buch ohne Preiszeile", seller: "Buchhandlung"}}

	orders, stats := ExtractOrders(orderListPage(false, card))
	if len(orders) != 1 || len(orders[0].Items) != 1 {
		t.Fatalf("unexpected shape: %+v", orders)
	}
	item := orders[0].Items[0]
	if !hasFlag(item.Flags, models.FlagMissingItemPrice) {
		t.Errorf("expected %s flag on item, got %v", models.FlagMissingItemPrice, item.Flags)
	}
	if stats.FlaggedFields == 0 {
		t.Error("flagged field not counted")
	}
}

func TestExtractDigitalOrder(t *testing.T) {
	card := orderCard{
		id:    "D01-1234567-1234567",
		date:  "12. Mai 2019",
		total: "EUR 9,95",
		items: []itemRow{{name: "Hörbuch: Der Prozess"}},
	}

	orders, stats := ExtractOrders(orderListPage(false, card))
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
	o := orders[0]
	if !o.Digital() {
		t.Fatal("order should be digital")
	}
	if o.Items[0].Price != 9.95 {
		t.Errorf("digital item should inherit the order total, got %f", o.Items[0].Price)
	}
	if !hasFlag(o.Flags, models.FlagDigitalOrder) {
		t.Errorf("expected %s flag, got %v", models.FlagDigitalOrder, o.Flags)
	}
	if stats.DigitalOrders != 1 {
		t.Errorf("digital orders = %d, want 1", stats.DigitalOrders)
	}
}

func TestExtractEmptyFragment(t *testing.T) {
	orders, stats := ExtractOrders(emptyOrderListPage())
	if len(orders) != 0 || stats.Orders != 0 || stats.Skipped != 0 {
		t.Errorf("empty page should extract nothing, got %d orders, stats %+v", len(orders), stats)
	}
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}
