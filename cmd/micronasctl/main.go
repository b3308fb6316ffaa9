package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"micronas/internal/storage"
	nasapi "micronas/pkg/micronas"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "best":
		return runBest(ctx, args[1:])
	case "spaces":
		return runSpaces(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type storeFlags struct {
	kind          *string
	dbPath        *string
	checkpointDir *string
	verbose       *bool
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:          fs.String("store", "memory", "store backend: memory|sqlite"),
		dbPath:        fs.String("db-path", "micronas.db", "sqlite database path"),
		checkpointDir: fs.String("checkpoint-dir", "checkpoints", "directory for checkpoint files"),
		verbose:       fs.Bool("verbose", false, "enable debug logging"),
	}
}

func (f storeFlags) client() (*nasapi.Client, error) {
	level := slog.LevelInfo
	if *f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return nasapi.New(nasapi.Options{
		StoreKind:     *f.kind,
		DBPath:        *f.dbPath,
		CheckpointDir: *f.checkpointDir,
		Logger:        logger,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "micronas.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	if err := store.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	configPath := fs.String("config", "", "run config file (json or yaml)")
	spaceName := fs.String("space", "", "search space: cnn1d|cnn2d|mlp")
	population := fs.Int("population", 0, "population size")
	tournament := fs.Int("tournament", 0, "tournament sample size")
	maxAge := fs.Int("max-age", 0, "rounds an individual survives before preferential removal")
	rounds := fs.Int("rounds", 0, "search rounds")
	seed := fs.Uint64("seed", 0, "run seed")
	workers := fs.Int("workers", 0, "parallel evaluations while seeding")
	saveEvery := fs.Int("save-every", 0, "checkpoint interval in rounds")
	resume := fs.String("resume", "", "checkpoint file to resume from")
	errorBound := fs.Float64("error-bound", -1, "error upper bound, fraction in [0,1]")
	peakMemBound := fs.Uint64("peak-mem-bound", 0, "peak memory upper bound in bytes")
	modelSizeBound := fs.Uint64("model-size-bound", 0, "model size upper bound in bytes")
	macBound := fs.Uint64("mac-bound", 0, "multiply-accumulate upper bound")
	jsonOut := fs.Bool("json", false, "emit run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var req nasapi.RunRequest
	if *configPath != "" {
		var err error
		req, err = loadRunRequestFromConfig(*configPath)
		if err != nil {
			return err
		}
	}

	// Explicit flags override the config file.
	if *spaceName != "" {
		req.Space = *spaceName
	}
	if *population > 0 {
		req.Population = *population
	}
	if *tournament > 0 {
		req.Tournament = *tournament
	}
	if *maxAge > 0 {
		req.MaxAge = *maxAge
	}
	if *rounds > 0 {
		req.Rounds = *rounds
	}
	if *workers > 0 {
		req.Workers = *workers
	}
	if *saveEvery > 0 {
		req.SaveEvery = *saveEvery
	}
	if *resume != "" {
		req.LoadFrom = *resume
	}
	if *errorBound >= 0 {
		req.Bounds.ErrorBound = *errorBound
	}
	if *peakMemBound > 0 {
		req.Bounds.PeakMemBound = *peakMemBound
	}
	if *modelSizeBound > 0 {
		req.Bounds.ModelSizeBound = *modelSizeBound
	}
	if *macBound > 0 {
		req.Bounds.MACBound = *macBound
	}
	seedSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			seedSet = true
		}
	})
	if seedSet {
		req.Seed = *seed
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Printf("run_id=%s space=%s rounds=%d best_fitness=%.6f feasible=%t checkpoint=%s\n",
		summary.RunID,
		summary.Space,
		summary.Rounds,
		summary.BestFitness,
		summary.BestFeasible,
		summary.CheckpointPath,
	)
	if summary.BestMetrics != nil {
		fmt.Printf("best_error=%.6f peak_mem=%d model_size=%d macs=%d\n",
			summary.BestMetrics.Error,
			summary.BestMetrics.PeakMem,
			summary.BestMetrics.ModelSize,
			summary.BestMetrics.MACs,
		)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, nasapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	for _, r := range runs {
		fmt.Printf("run_id=%s created_at=%s space=%s seed=%d rounds=%d best_fitness=%.6f feasible=%t\n",
			r.ID,
			r.CreatedAtUTC,
			r.Space,
			r.Seed,
			r.Rounds,
			r.BestFitness,
			r.BestFeasible,
		)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	runID := fs.String("run", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	limit := fs.Int("limit", 0, "show only the last N rounds")
	jsonOut := fs.Bool("json", false, "emit history as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.History(ctx, nasapi.HistoryRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}

	for _, rec := range history {
		fmt.Printf("round=%d candidate=%s op=%s fitness=%.6f feasible=%t best_fitness=%.6f\n",
			rec.Round,
			rec.CandidateID,
			rec.Operation,
			rec.Fitness,
			rec.Feasible,
			rec.BestFitness,
		)
	}
	return nil
}

func runBest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("best", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	runID := fs.String("run", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	best, err := client.Best(ctx, nasapi.BestRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(best)
}

func runSpaces(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("spaces", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := sf.client()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	for _, name := range client.Spaces() {
		fmt.Println(name)
	}
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: micronasctl <init|run|runs|history|best|spaces> [flags]", msg)
}
