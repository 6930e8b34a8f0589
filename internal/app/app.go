package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"orderscraper/internal/models"
	"orderscraper/internal/scraper"
	"orderscraper/internal/scraper/amazon"
	"orderscraper/internal/storage"
	"orderscraper/pkg/config"
	"orderscraper/utils"
)

// runPhase is the orchestrator's position in a scrape run.
type runPhase string

const (
	phaseInit       runPhase = "INIT"
	phaseLoggingIn  runPhase = "LOGGING_IN"
	phasePaging     runPhase = "PAGING"
	phaseFinalizing runPhase = "FINALIZING"
	phaseDone       runPhase = "DONE"
	phaseFailed     runPhase = "FAILED"
)

// App composes the session driver, pagination walker, field extractor and
// persistence writer into a full scrape run.
type App struct {
	Config *config.Config
	log    *zap.Logger

	// newSession is swapped out in tests to drive the run with a fake.
	newSession func() (scraper.Session, error)
}

// New creates an application instance. All configuration is passed in here;
// nothing is read from ambient state later.
func New(cfg *config.Config, log *zap.Logger) *App {
	a := &App{Config: cfg, log: log}
	a.newSession = func() (scraper.Session, error) {
		return amazon.NewSession(cfg.Scraper, cfg.Amazon, log)
	}
	return a
}

// Scrape runs the whole pipeline: login, paginate year by year, extract,
// finalize. An AuthError aborts with nothing written; a NavigationError
// mid-paging degrades the run to a partial result that is still written.
func (a *App) Scrape(ctx context.Context, creds models.Credentials) (models.Summary, error) {
	phase := phaseInit
	startedAt := time.Now()

	sys := utils.Preflight()
	a.log.Info("starting scrape run",
		zap.String("phase", string(phase)),
		zap.Int("logical_cores", sys.LogicalCores),
		zap.Uint64("available_memory", sys.AvailableMemory))
	if sys.LowMemory {
		a.log.Warn("available memory is low for a browser session, the run may stall")
	}

	phase = phaseLoggingIn
	session, err := a.newSession()
	if err != nil {
		return a.fail(phase, startedAt, creds, err)
	}
	// The browser process is the one resource this tool can leak; releasing
	// it must survive every exit path, including panics and interrupts.
	defer func() {
		if cerr := session.Close(); cerr != nil {
			a.log.Warn("closing browser session", zap.Error(cerr))
		}
	}()

	if err := session.Login(ctx, creds); err != nil {
		return a.fail(phase, startedAt, creds, err)
	}

	phase = phasePaging
	collection := &models.Collection{
		ScrapedAt: startedAt.UTC(),
		Account:   utils.HashAccount(creds.Email),
		Locale:    a.Config.Amazon.Locale,
	}
	var summary models.Summary
	var flags []string

	for year := a.Config.Scraper.EndYear; year >= a.Config.Scraper.StartYear; year-- {
		walker := amazon.NewWalker(session, year, a.Config.Scraper.MaxPages)
		for {
			fragment, ok := walker.Next(ctx)
			if !ok {
				break
			}
			orders, stats := amazon.ExtractOrders(fragment)
			added := collection.Append(orders)
			summary.SkippedItems += stats.Skipped
			for _, o := range orders {
				flags = append(flags, o.Flags...)
			}
			a.log.Info("processed page",
				zap.Int("year", year),
				zap.Int("page", walker.Pages()),
				zap.Int("orders", added),
				zap.Int("skipped", stats.Skipped))
		}
		summary.PageCount += walker.Pages()

		if werr := walker.Err(); werr != nil {
			var navErr *amazon.NavigationError
			if errors.As(werr, &navErr) {
				a.log.Warn("navigation failed, finalizing with accumulated orders", zap.Error(navErr))
				summary.Partial = true
				break
			}
			return a.fail(phase, startedAt, creds, werr)
		}
		if err := ctx.Err(); err != nil {
			a.log.Warn("run cancelled, finalizing with accumulated orders")
			summary.Partial = true
			break
		}
	}

	phase = phaseFinalizing
	sort.Slice(collection.Orders, func(i, j int) bool {
		if collection.Orders[i].Date != collection.Orders[j].Date {
			return collection.Orders[i].Date < collection.Orders[j].Date
		}
		return collection.Orders[i].OrderID < collection.Orders[j].OrderID
	})
	collection.Partial = summary.Partial
	summary.OrderCount = len(collection.Orders)

	if err := storage.Write(collection, a.Config.Scraper.Output); err != nil {
		a.log.Error("finalize failed", zap.String("phase", string(phase)), zap.Error(err))
		summary.State = models.RunFailed
		a.record(startedAt, creds, summary, flags)
		return summary, fmt.Errorf("writing order collection: %w", err)
	}

	phase = phaseDone
	summary.State = models.RunDone
	a.record(startedAt, creds, summary, flags)
	a.log.Info("scrape run finished",
		zap.String("phase", string(phase)),
		zap.Int("orders", summary.OrderCount),
		zap.Int("pages", summary.PageCount),
		zap.Bool("partial", summary.Partial))
	return summary, nil
}

// fail produces the FAILED summary for fatal errors. Nothing is written:
// authentication failures happen before any order was accumulated.
func (a *App) fail(phase runPhase, startedAt time.Time, creds models.Credentials, err error) (models.Summary, error) {
	a.log.Error("scrape run failed", zap.String("phase", string(phase)), zap.Error(err))
	summary := models.Summary{State: models.RunFailed}
	a.record(startedAt, creds, summary, nil)
	return summary, err
}

// record appends the run to the sqlite archive. Archive problems are logged,
// never fatal; the scrape result itself has already been handled.
func (a *App) record(startedAt time.Time, creds models.Credentials, summary models.Summary, flags []string) {
	if a.Config.Scraper.ArchiveDB == "" {
		return
	}
	archive, err := storage.OpenArchive(a.Config.Scraper.ArchiveDB)
	if err != nil {
		a.log.Warn("could not open run archive", zap.Error(err))
		return
	}
	defer archive.Close()

	_, err = archive.RecordRun(models.RunRecord{
		StartedAt:    startedAt,
		Account:      utils.HashAccount(creds.Email),
		Locale:       a.Config.Amazon.Locale,
		State:        summary.State,
		OrderCount:   summary.OrderCount,
		PageCount:    summary.PageCount,
		SkippedItems: summary.SkippedItems,
		Partial:      summary.Partial,
		OutputPath:   a.Config.Scraper.Output,
		Flags:        utils.UniqueStrings(flags),
	})
	if err != nil {
		a.log.Warn("could not record run", zap.Error(err))
	}
}
