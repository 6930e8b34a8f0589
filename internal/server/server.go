package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"orderscraper/internal/models"
	"orderscraper/internal/storage"
	"orderscraper/pkg/config"
)

// Server renders the local dashboard over the persisted order file. It
// consumes only the file's documented schema and the run archive; it has no
// dependency on the scraper.
type Server struct {
	cfg     config.DashConfig
	archive *storage.Archive // optional, nil when no archive db exists
	log     *zap.Logger
	tmpl    *template.Template
}

// New creates a dashboard server. archive may be nil.
func New(cfg config.DashConfig, archive *storage.Archive, log *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		archive: archive,
		log:     log,
		tmpl:    template.Must(template.New("dashboard").Parse(dashboardTemplate)),
	}
}

// Handler returns the route table. Split out from Start so tests can drive
// it with httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleDashboard)
	mux.HandleFunc("/api/orders", s.handleOrders)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/runs", s.handleRuns)
	return mux
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", s.cfg.Port),
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("dashboard listening",
		zap.String("url", fmt.Sprintf("http://127.0.0.1:%d", s.cfg.Port)),
		zap.String("input", s.cfg.Input))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// load reads the persisted collection fresh on every request, so a re-run
// of the scraper shows up on the next page reload.
func (s *Server) load() (*models.Collection, error) {
	return storage.Load(s.cfg.Input)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	collection, err := s.load()
	if err != nil {
		s.log.Warn("could not load order file", zap.Error(err))
		http.Error(w, "no order data found; run a scrape first", http.StatusServiceUnavailable)
		return
	}

	var runs []models.RunRecord
	if s.archive != nil {
		if runs, err = s.archive.ListRuns(); err != nil {
			s.log.Warn("could not list runs", zap.Error(err))
		}
	}

	data := struct {
		Stats  Stats
		Orders []models.Order
		Runs   []models.RunRecord
	}{
		Stats:  ComputeStats(collection),
		Orders: collection.Orders,
		Runs:   runs,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.log.Error("rendering dashboard", zap.Error(err))
	}
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	collection, err := s.load()
	if err != nil {
		http.Error(w, "no order data found", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, collection)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	collection, err := s.load()
	if err != nil {
		http.Error(w, "no order data found", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, ComputeStats(collection))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, []models.RunRecord{})
		return
	}
	runs, err := s.archive.ListRuns()
	if err != nil {
		http.Error(w, "could not read run archive", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []models.RunRecord{}
	}
	writeJSON(w, runs)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Order History</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { border: 1px solid #ddd; padding: 0.4rem 0.6rem; text-align: left; }
th { background: #f4f4f4; }
.bar { background: #3178c6; height: 1rem; }
.partial { color: #b00; }
.flag { color: #b60; font-size: 0.85em; }
</style>
</head>
<body>
<h1>Order History</h1>
<p>
  Scraped {{.Stats.ScrapedAt.Format "2006-01-02 15:04"}} &mdash;
  {{.Stats.OrderCount}} orders, {{printf "%.2f" .Stats.GrandTotal}} {{.Stats.Currency}} total
  {{if .Stats.Partial}}<span class="partial">(partial result)</span>{{end}}
</p>
{{if .Stats.MostExpensive}}
<p>Most expensive order: {{.Stats.MostExpensive.OrderID}} ({{printf "%.2f" .Stats.MostExpensive.Total}} {{.Stats.MostExpensive.Currency}})</p>
{{end}}
{{if gt .Stats.DigitalTotal 0.0}}
<p>Digital purchases: {{printf "%.2f" .Stats.DigitalTotal}} {{.Stats.Currency}}</p>
{{end}}

<h2>Spend by year</h2>
<table>
{{range .Stats.TotalsByYear}}
<tr>
  <td style="width:5rem">{{.Year}}</td>
  <td><div class="bar" style="width:{{$.Stats.BarWidth .Total}}%"></div></td>
  <td style="width:8rem">{{printf "%.2f" .Total}}</td>
</tr>
{{end}}
</table>

<h2>Orders</h2>
<table>
<tr><th>Date</th><th>Order</th><th>Items</th><th>Total</th><th>Recipient</th><th>Status</th></tr>
{{range .Orders}}
<tr>
  <td>{{.Date}}</td>
  <td>{{.OrderID}}{{range .Flags}} <span class="flag">{{.}}</span>{{end}}</td>
  <td>{{range .Items}}{{.Name}}<br>{{end}}</td>
  <td>{{printf "%.2f" .Total}} {{.Currency}}</td>
  <td>{{.Recipient}}</td>
  <td>{{.Status}}</td>
</tr>
{{end}}
</table>

{{if .Runs}}
<h2>Scrape runs</h2>
<table>
<tr><th>Started</th><th>State</th><th>Orders</th><th>Pages</th><th>Skipped</th><th>Partial</th></tr>
{{range .Runs}}
<tr>
  <td>{{.StartedAt.Format "2006-01-02 15:04"}}</td>
  <td>{{.State}}</td>
  <td>{{.OrderCount}}</td>
  <td>{{.PageCount}}</td>
  <td>{{.SkippedItems}}</td>
  <td>{{if .Partial}}yes{{else}}no{{end}}</td>
</tr>
{{end}}
</table>
{{end}}
</body>
</html>
`
