package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orderscraper/internal/app"
	"orderscraper/internal/models"
	"orderscraper/internal/server"
	"orderscraper/internal/storage"
	"orderscraper/pkg/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "scraper",
		Short:         "Scrape your Amazon order history and review it locally",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yml", "path to the config file")

	root.AddCommand(newScrapeCmd(&configPath))
	root.AddCommand(newDashCmd(&configPath))
	return root
}

func newScrapeCmd(configPath *string) *cobra.Command {
	var (
		email     string
		password  string
		output    string
		startYear int
		endYear   int
		headless  bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Log in, walk the order history and write orders to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output") {
				cfg.Scraper.Output = output
			}
			if cmd.Flags().Changed("start-year") {
				cfg.Scraper.StartYear = startYear
			}
			if cmd.Flags().Changed("end-year") {
				cfg.Scraper.EndYear = endYear
			}
			if cmd.Flags().Changed("headless") {
				cfg.Scraper.Headless = headless
			}
			if cfg.Scraper.StartYear > cfg.Scraper.EndYear {
				return fmt.Errorf("start year %d is after end year %d", cfg.Scraper.StartYear, cfg.Scraper.EndYear)
			}

			if password == "" {
				password, err = config.LoadPasswordFile(cfg.Scraper.PasswordFile)
				if err != nil {
					return err
				}
			}

			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			summary, runErr := app.New(cfg, logger).Scrape(ctx, models.Credentials{
				Email:    email,
				Password: password,
			})
			printSummary(summary)
			return runErr
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Amazon account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (falls back to the password file)")
	cmd.Flags().StringVar(&output, "output", "", "path of the order file to write")
	cmd.Flags().IntVar(&startYear, "start-year", 0, "first order year to scrape")
	cmd.Flags().IntVar(&endYear, "end-year", 0, "last order year to scrape")
	cmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newDashCmd(configPath *string) *cobra.Command {
	var (
		port  int
		input string
	)

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Serve the local dashboard over a previously scraped order file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Dash.Port = port
			}
			if cmd.Flags().Changed("input") {
				cfg.Dash.Input = input
			}

			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync()

			var archive *storage.Archive
			if db := cfg.Scraper.ArchiveDB; db != "" {
				if _, statErr := os.Stat(db); statErr == nil {
					if archive, err = storage.OpenArchive(db); err != nil {
						logger.Warn("could not open run archive", zap.Error(err))
						archive = nil
					} else {
						defer archive.Close()
					}
				}
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return server.New(cfg.Dash, archive, logger).Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "dashboard port")
	cmd.Flags().StringVar(&input, "input", "", "path of the order file to serve")
	return cmd
}

func printSummary(summary models.Summary) {
	fmt.Printf("result:         %s\n", summary.State)
	fmt.Printf("orders scraped: %d\n", summary.OrderCount)
	fmt.Printf("pages visited:  %d\n", summary.PageCount)
	fmt.Printf("items skipped:  %d\n", summary.SkippedItems)
	fmt.Printf("partial:        %v\n", summary.Partial)
}
