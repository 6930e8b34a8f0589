package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Flags attached to orders or items when a field could not be extracted.
// They travel with the persisted file so the dashboard can surface them.
const (
	FlagMissingRecipient = "missing_recipient"
	FlagMissingDate      = "missing_date"
	FlagMissingItemPrice = "missing_item_price"
	FlagMissingItems     = "missing_items"
	FlagMissingTotal     = "missing_total"
	FlagDigitalOrder     = "digital_order"
)

// Item is one line of an order as it appears on the order card.
type Item struct {
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Currency string   `json:"currency"`
	Link     string   `json:"link,omitempty"`
	Seller   string   `json:"seller,omitempty"`
	Flags    []string `json:"flags,omitempty"`
}

// Order is one purchase record from the account's order history.
type Order struct {
	OrderID   string   `json:"order_id"`
	Date      string   `json:"date"` // YYYY-MM-DD
	Total     float64  `json:"total"`
	Currency  string   `json:"currency"`
	Recipient string   `json:"recipient,omitempty"`
	Status    string   `json:"status,omitempty"`
	Items     []Item   `json:"items"`
	Flags     []string `json:"flags,omitempty"`
}

// Year returns the order year, or 0 if the date did not parse.
func (o Order) Year() int {
	t, err := time.Parse("2006-01-02", o.Date)
	if err != nil {
		return 0
	}
	return t.Year()
}

// Digital reports whether the order is a digital purchase (video, audio
// book). Amazon prefixes those order ids with D01.
func (o Order) Digital() bool {
	return len(o.OrderID) >= 3 && o.OrderID[:3] == "D01"
}

// Collection is the persisted output of one scrape run. It is grown
// append-only by the orchestrator and immutable once handed to the writer.
type Collection struct {
	ScrapedAt time.Time `json:"scraped_at"`
	Account   string    `json:"account"` // sha256 hex of the account email
	Locale    string    `json:"locale"`
	Partial   bool      `json:"partial"`
	Orders    []Order   `json:"orders"`
}

// Append adds orders, dropping any whose id is already present. Order id
// uniqueness within a collection is an invariant of the persisted file.
func (c *Collection) Append(orders []Order) (added int) {
	seen := make(map[string]bool, len(c.Orders))
	for _, o := range c.Orders {
		seen[o.OrderID] = true
	}
	for _, o := range orders {
		if seen[o.OrderID] {
			continue
		}
		seen[o.OrderID] = true
		c.Orders = append(c.Orders, o)
		added++
	}
	return added
}

// RunState is the terminal state of a scrape run.
type RunState string

const (
	RunDone   RunState = "DONE"
	RunFailed RunState = "FAILED"
)

// Summary is what a scrape run reports back to the caller.
type Summary struct {
	State        RunState `json:"state"`
	OrderCount   int      `json:"order_count"`
	PageCount    int      `json:"page_count"`
	SkippedItems int      `json:"skipped_items"`
	Partial      bool     `json:"partial"`
}

// Credentials for the Amazon sign-in form.
type Credentials struct {
	Email    string
	Password string
}

// RunRecord is one row of the run-history archive.
type RunRecord struct {
	ID           int64     `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	Account      string    `json:"account"`
	Locale       string    `json:"locale"`
	State        RunState  `json:"state"`
	OrderCount   int       `json:"order_count"`
	PageCount    int       `json:"page_count"`
	SkippedItems int       `json:"skipped_items"`
	Partial      bool      `json:"partial"`
	OutputPath   string    `json:"output_path"`
	// Flags is the union of extraction flags seen during the run.
	Flags JSONStringSlice `json:"flags,omitempty"`
}

// JSONStringSlice stores a []string as a JSON column in sqlite.
type JSONStringSlice []string

// Value implements driver.Valuer.
func (j JSONStringSlice) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSONStringSlice) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("unsupported type for JSONStringSlice")
	}
	return json.Unmarshal(bytes, j)
}
