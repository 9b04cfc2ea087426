// Package main provides sitecheck, a headless runner for the browser
// scenarios that check the opravy-telefonu.cz site. It is meant for CI: it
// prints a result per scenario, writes run artifacts and exits non-zero when
// anything fails.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/entrhq/sitecheck/pkg/browser"
	"github.com/entrhq/sitecheck/pkg/config"
	"github.com/entrhq/sitecheck/pkg/logging"
	"github.com/entrhq/sitecheck/pkg/report"
	"github.com/entrhq/sitecheck/pkg/scenario"
)

const version = "0.1.0"

var (
	errScenariosFailed = errors.New("one or more scenarios failed")
	errSessionsLeaked  = errors.New("browser sessions left open")
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	Scenarios   listFlag
	Engines     string
	Headed      bool
	Parallel    int
	Timeout     time.Duration
	Install     bool
	List        bool
	ShowVersion bool

	set map[string]bool
}

// listFlag collects a flag that may be repeated or given as a comma list.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, config.SplitList(v)...)
	return nil
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("sitecheck v%s\n", version)
		return
	}

	if cli.List {
		for _, s := range scenario.All() {
			fmt.Printf("%-20s %s\n", s.Name, s.Description)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, closing browsers...")
		cancel()
	}()

	if err := run(ctx, cli); err != nil {
		cancel()
		if !errors.Is(err, errScenariosFailed) {
			log.Printf("sitecheck failed: %v", err)
		}
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.ConfigFile, "config", os.Getenv("SITECHECK_CONFIG"), "Path to configuration file (YAML)")
	flag.Var(&cli.Scenarios, "scenario", "Scenario name or glob to run; repeatable or comma separated (default all)")
	flag.StringVar(&cli.Engines, "engines", "", "Comma separated browser engines for the cross-engine check")
	flag.BoolVar(&cli.Headed, "headed", false, "Show browser windows")
	flag.IntVar(&cli.Parallel, "parallel", 1, "Number of scenarios run at once")
	flag.DurationVar(&cli.Timeout, "timeout", 5*time.Minute, "Overall run timeout")
	flag.BoolVar(&cli.Install, "install", false, "Install the Playwright driver and browsers first")
	flag.BoolVar(&cli.List, "list", false, "List scenarios and exit")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sitecheck - browser checks for opravy-telefonu.cz\n\n")
		fmt.Fprintf(os.Stderr, "Usage: sitecheck [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Run every scenario headless\n")
		fmt.Fprintf(os.Stderr, "  sitecheck\n\n")
		fmt.Fprintf(os.Stderr, "  # Only the title check, on all three engines, with visible browsers\n")
		fmt.Fprintf(os.Stderr, "  sitecheck -scenario cross-engine-title -engines chromium,firefox,webkit -headed\n\n")
	}

	flag.Parse()

	cli.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { cli.set[f.Name] = true })
	return cli
}

// loadConfig loads the config file and applies command line overrides on
// top of it. Flags left at their defaults do not override the file.
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	cfg, err := config.Load(cli.ConfigFile)
	if err != nil {
		return nil, err
	}

	if cli.Engines != "" {
		cfg.Browser.Engines = config.SplitList(cli.Engines)
	}
	if cli.set["headed"] {
		cfg.Browser.Headless = !cli.Headed
	}
	if cli.set["parallel"] {
		cfg.Run.Parallelism = cli.Parallel
	}
	if cli.set["timeout"] {
		cfg.Run.Timeout = cli.Timeout
	}
	if cli.Install {
		cfg.Browser.InstallBrowsers = true
	}
	if len(cli.Scenarios) > 0 {
		cfg.Run.Scenarios = cli.Scenarios
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cli *CLIConfig) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	selected, err := scenario.Select(cfg.Run.Scenarios)
	if err != nil {
		return err
	}
	engines, err := browser.ParseEngines(cfg.Browser.Engines)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Logging.Verbosity)
	if err != nil {
		return err
	}
	logging.SetLevel(level)
	if cfg.Logging.Directory != "" {
		logging.SetLogDirectory(cfg.Logging.Directory)
	}

	logger, err := logging.NewLogger("sitecheck")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	console := report.NewConsole(os.Stdout, level >= logging.LevelVerbose)
	console.Header(fmt.Sprintf("sitecheck v%s: %s", version, cfg.RootURL()))
	logger.Infof("run %s: %d scenario(s), engines %v, headless=%t", logger.RunID(), len(selected), engines, cfg.Browser.Headless)

	manager := browser.NewSessionManager()
	initOpts := browser.InitOptions{
		Install: cfg.Browser.InstallBrowsers,
		Engines: installEngines(engines),
	}
	if level >= logging.LevelVerbose {
		initOpts.Output = os.Stderr
	}
	if err := manager.Initialize(initOpts); err != nil {
		return fmt.Errorf("failed to start browser driver: %w", err)
	}
	manager.SetMaxSessions(cfg.Browser.MaxSessions)
	defer func() {
		if err := manager.Shutdown(); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if cfg.Run.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cfg.Run.Timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	env := scenario.NewEnv(cfg, manager, logger, os.Stdout)
	summary := scenario.NewRunner(env, cfg.Run.Parallelism).Run(runCtx, selected)
	leakErr := closeLeaked(manager, logger)

	console.Summary(summary)

	dir, err := report.NewWriter(cfg.Artifacts).WriteAll(summary)
	if err != nil {
		logger.Errorf("artifacts: %v", err)
		fmt.Fprintf(os.Stderr, "failed to write artifacts: %v\n", err)
	} else if dir != "" {
		fmt.Printf("Artifacts: %s\n", dir)
	}
	if path := logger.LogPath(); path != "" {
		fmt.Printf("Log: %s\n", path)
	}

	if !summary.Passed() {
		return errScenariosFailed
	}
	if leakErr != nil {
		return leakErr
	}
	if err := runCtx.Err(); err != nil {
		return fmt.Errorf("run did not complete: %w", err)
	}
	return nil
}

type sessionRegistry interface {
	ListSessions() []browser.SessionInfo
	CloseSession(name string) error
}

// closeLeaked closes sessions still registered after every scenario has
// returned. Each one is a scenario that skipped its release, so the run fails.
func closeLeaked(sessions sessionRegistry, logger *logging.Logger) error {
	leaked := sessions.ListSessions()
	if len(leaked) == 0 {
		return nil
	}

	names := make([]string, 0, len(leaked))
	for _, info := range leaked {
		logger.Errorf("session %s (%s) left open at %s, last used %s",
			info.Name, info.Engine, info.CurrentURL, info.LastUsedAt.Format(time.RFC3339))
		if err := sessions.CloseSession(info.Name); err != nil {
			logger.Warnf("closing %s: %v", info.Name, err)
		}
		names = append(names, info.Name)
	}
	return fmt.Errorf("%w: %s", errSessionsLeaked, strings.Join(names, ", "))
}

// installEngines returns engines plus the engine single-browser scenarios
// run on, without duplicates.
func installEngines(engines []browser.Engine) []browser.Engine {
	out := append([]browser.Engine(nil), engines...)
	for _, e := range out {
		if e == browser.Chromium {
			return out
		}
	}
	return append(out, browser.Chromium)
}
