package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"jobscout/internal/adapter/agents"
	"jobscout/internal/adapter/audit"
	"jobscout/internal/domain"
	"jobscout/internal/infra/config"
	"jobscout/internal/infra/logger"
	"jobscout/internal/infra/tracer"
	"jobscout/internal/usecase"
	"jobscout/internal/usecase/routing"
)

func main() {
	if len(os.Args) < 2 {
		showUsage()
		return
	}
	switch os.Args[1] {
	case "--help", "-h", "help":
		showUsage()
	case "search":
		if err := runSearch(); err != nil {
			fmt.Fprintf(os.Stderr, "search: %v\n", err)
			os.Exit(1)
		}
	case "agents":
		if err := runAgents(); err != nil {
			fmt.Fprintf(os.Stderr, "agents: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'jobscout --help' for usage information.\n", os.Args[1])
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`jobscout - route job-search queries to the best data sources

USAGE:
    jobscout COMMAND [FLAGS]

COMMANDS:
    search "QUERY"   Route the query, run the selected agents, print results
    agents           List registered agents and their capabilities

SEARCH FLAGS:
    --location TEXT      Extra location context for routing
    --results N          Results wanted per agent
    --workers N          Override the dispatch concurrency for this call
    --budget-hours H     Overall time budget (fractional hours)
    --json               Print the full aggregation result as JSON

GLOBAL FLAGS:
    -h, --help           Show this help message
    --config PATH        Config file path (default: ./config.yaml)

CONFIGURATION:
    Config file: ./config.yaml (optional; built-in defaults work out of the box)
    Environment: JOBSCOUT_* variables override config

EXAMPLES:
    jobscout search "construction jobs within 20 km of Sydney"
    jobscout search "software engineer jobs" --location "Bengaluru" --json
    jobscout agents`)
}

// searchFlags holds the parsed search subcommand arguments.
type searchFlags struct {
	Query       string
	Location    string
	Results     int
	Workers     int
	BudgetHours float64
	JSON        bool
}

func parseSearchFlags(args []string) (searchFlags, error) {
	var flags searchFlags
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--json":
			flags.JSON = true
		case args[i] == "--location" && i+1 < len(args):
			flags.Location = args[i+1]
			i++
		case args[i] == "--results" && i+1 < len(args):
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				return flags, fmt.Errorf("invalid --results value %q", args[i+1])
			}
			flags.Results = n
			i++
		case args[i] == "--workers" && i+1 < len(args):
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				return flags, fmt.Errorf("invalid --workers value %q", args[i+1])
			}
			flags.Workers = n
			i++
		case args[i] == "--budget-hours" && i+1 < len(args):
			h, err := strconv.ParseFloat(args[i+1], 64)
			if err != nil {
				return flags, fmt.Errorf("invalid --budget-hours value %q", args[i+1])
			}
			flags.BudgetHours = h
			i++
		case args[i] == "--config" && i+1 < len(args):
			i++ // consumed by configPath
		case strings.HasPrefix(args[i], "--config="):
		case strings.HasPrefix(args[i], "-"):
			return flags, fmt.Errorf("unknown flag %q", args[i])
		default:
			if flags.Query != "" {
				return flags, fmt.Errorf("multiple queries given (%q and %q); quote the whole query", flags.Query, args[i])
			}
			flags.Query = args[i]
		}
	}
	if flags.Query == "" {
		return flags, fmt.Errorf("usage: jobscout search \"QUERY\" [flags]")
	}
	return flags, nil
}

func configPath() string {
	for i, arg := range os.Args {
		if arg == "--config" && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	if p := os.Getenv("JOBSCOUT_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

func runSearch() error {
	flags, err := parseSearchFlags(os.Args[2:])
	if err != nil {
		return err
	}

	// 1. Config
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// 2. Logger & tracer
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx := context.Background()
	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(ctx)

	// 3. Registry & routing engine
	registry, err := agents.NewRegistry(cfg, log)
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	gazetteer := routing.NewGazetteer(cfg.Gazetteer)
	engine := routing.NewEngine(registry, gazetteer, cfg.Routing, log)

	// 4. Optional audit trail
	var sink usecase.AuditSink
	if cfg.Audit.Enabled {
		store, err := audit.NewSQLiteStore(cfg.Audit.Path, log)
		if err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		defer store.Close()
		pruner, err := audit.NewPruner(store, cfg.Audit, log)
		if err != nil {
			return fmt.Errorf("audit pruner: %w", err)
		}
		pruner.Start()
		defer pruner.Stop()
		sink = store
	}

	// 5. Run one search
	searcher := usecase.NewSearcher(engine, registry, cfg, sink, log)
	result := searcher.RouteAndExecute(ctx, usecase.SearchRequest{
		RawQuery:        flags.Query,
		LocationHint:    flags.Location,
		ResultsWanted:   flags.Results,
		MaxWorkers:      flags.Workers,
		TimeBudgetHours: flags.BudgetHours,
	})

	if flags.JSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}
	printSummary(result)
	return nil
}

func printSummary(result domain.AggregationResult) {
	d := result.RoutingDecision
	fmt.Printf("search %s\n", result.SearchID)
	fmt.Printf("  routed to: %s (confidence %.2f", joinAgents(d.SelectedAgents), d.Confidence)
	if d.UsedFallback {
		fmt.Print(", fallback")
	}
	fmt.Println(")")

	for _, r := range result.ExecutionResults {
		if r.Success {
			fmt.Printf("  %-10s ok     %3d jobs  %v\n", r.Agent, r.JobCount, r.ExecutionTime.Round(time.Millisecond))
		} else {
			fmt.Printf("  %-10s failed %s: %s\n", r.Agent, r.ErrorKind, r.ErrorMessage)
		}
	}

	fmt.Printf("\n%d jobs (%d agents ok, %d failed) in %v\n\n",
		result.TotalJobs, len(result.SuccessfulAgents), len(result.FailedAgents),
		result.TotalExecutionTime.Round(time.Millisecond))

	for _, rec := range result.CombinedRecords {
		fmt.Printf("  %s | %s | %s", rec.Title, rec.Company, rec.Location)
		if rec.Salary != "" {
			fmt.Printf(" | %s", rec.Salary)
		}
		fmt.Printf("  [%s]\n", rec.Source)
	}
	if result.AllFailed() {
		fmt.Println("  every agent failed; try again or check connectivity")
	}
}

func joinAgents(ids []domain.AgentID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

func runAgents() error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logger.Discard()
	if _, err := agents.NewRegistry(cfg, log); err != nil {
		return fmt.Errorf("registry: %w", err)
	}

	fmt.Printf("%-10s %-10s %-12s %-7s %s\n", "ID", "KIND", "RELIABILITY", "LOCAL", "REGIONS")
	for _, a := range cfg.Agents {
		regions := "global"
		if len(a.Regions) > 0 {
			regions = strings.Join(a.Regions, ", ")
		}
		local := "no"
		if a.LocalCoverage {
			local = "yes"
		}
		fmt.Printf("%-10s %-10s %-12.2f %-7s %s\n", a.ID, a.Kind, a.Reliability, local, regions)
	}
	return nil
}
