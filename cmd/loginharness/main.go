package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	internalcli "github.com/keyworddriven/loginharness/internal/cli"
	"github.com/keyworddriven/loginharness/internal/config"
	"github.com/keyworddriven/loginharness/internal/database"
	"github.com/keyworddriven/loginharness/internal/driver"
	"github.com/keyworddriven/loginharness/internal/handlers"
	"github.com/keyworddriven/loginharness/internal/repository"
	"github.com/keyworddriven/loginharness/internal/services"
	"github.com/keyworddriven/loginharness/internal/suite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

var version = "0.1.0"

// setupLogging configures the global logger for console output
func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
}

// openHistory connects to Postgres and returns the history service
func openHistory() (*services.HistoryService, *sql.DB, error) {
	pgConfig, err := config.LoadPostgresConfig(os.Getenv)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load postgres config: %w", err)
	}

	db, err := database.Connect(pgConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info().Str("host", pgConfig.Host).Msg("Connected to database successfully")

	if err := database.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	return services.NewHistoryService(repository.NewRunRepository(db)), db, nil
}

// loadHarness loads the harness configuration and applies command line overrides
func loadHarness(c *cli.Context) (*config.HarnessConfig, error) {
	cfg, err := config.LoadHarnessConfig()
	if err != nil {
		return nil, err
	}
	if c.IsSet("browser") {
		cfg.Browser = c.String("browser")
	}
	if c.IsSet("engine") {
		cfg.Engine = c.String("engine")
	}
	if c.IsSet("report") {
		cfg.ReportPath = c.String("report")
	}
	if c.IsSet("history") {
		cfg.History = c.Bool("history")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	setupLogging(cfg.LogLevel)
	return cfg, nil
}

// RunCommand returns the run command
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the login page scenarios and write the HTML report",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "browser", Aliases: []string{"b"}, Usage: "chrome, firefox or edge"},
			&cli.StringFlag{Name: "engine", Usage: "webdriver or playwright"},
			&cli.StringFlag{Name: "report", Usage: "report output path"},
			&cli.StringSliceFlag{Name: "only", Usage: "run only the named scenarios"},
			&cli.BoolFlag{Name: "history", Usage: "save the run to Postgres"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadHarness(c)
			if err != nil {
				return err
			}

			scenarios, err := internalcli.SelectScenarios(suite.LoginScenarios(), c.StringSlice("only"))
			if err != nil {
				return err
			}

			factory, err := driver.NewFactoryFromConfig(cfg)
			if err != nil {
				return err
			}

			deps := internalcli.RunDependencies{
				Harness:   cfg,
				Factory:   factory,
				Scenarios: scenarios,
			}
			if cfg.History {
				history, db, err := openHistory()
				if err != nil {
					return err
				}
				defer db.Close()
				deps.Store = history
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := internalcli.RunSuite(ctx, deps)
			log.Info().
				Int("total", len(result.Outcomes)).
				Int("failed", result.Failed()).
				Str("report", cfg.ReportPath).
				Msg("Suite finished")
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// ServeCommand returns the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the latest report and the run history API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "report", Usage: "report path to serve"},
			&cli.BoolFlag{Name: "history", Usage: "expose run history from Postgres"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadHarness(c)
			if err != nil {
				return err
			}

			deps := internalcli.ServerDependencies{
				ServerConfig:  config.LoadServerConfig(os.Getenv),
				ReportHandler: handlers.NewReportHandler(cfg.ReportPath),
				RunsHandler:   handlers.NewRunsHandler(nil),
			}
			if cfg.History {
				history, db, err := openHistory()
				if err != nil {
					return err
				}
				defer db.Close()
				deps.RunsHandler = handlers.NewRunsHandler(history)
			}

			return internalcli.RunServe(deps)
		},
	}
}

// HistoryCommand returns the history command
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent runs saved in Postgres",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: repository.DefaultListLimit, Usage: "number of runs to read"},
			&cli.BoolFlag{Name: "stats", Usage: "show per-test pass rates instead of runs"},
		},
		Action: func(c *cli.Context) error {
			if _, err := loadHarness(c); err != nil {
				return err
			}

			history, db, err := openHistory()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
			defer cancel()

			if c.Bool("stats") {
				return internalcli.PrintTestStats(ctx, c.App.Writer, history, c.Int("limit"))
			}
			return internalcli.PrintRuns(ctx, c.App.Writer, history, c.Int("limit"))
		},
	}
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: .env file not found, using environment variables")
	}
	setupLogging(os.Getenv("HARNESS_LOG_LEVEL"))

	app := &cli.App{
		Name:    "loginharness",
		Usage:   "Browser test harness for the ACME demo login page",
		Version: version,
		Commands: []*cli.Command{
			RunCommand(),
			ServeCommand(),
			HistoryCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}
