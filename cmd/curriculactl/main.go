package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"curricula/internal/collator"
	"curricula/internal/model"
	"curricula/internal/pacing"
	"curricula/internal/storage"
	curapi "curricula/pkg/curricula"
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
	case "reset":
		return runReset(ctx, args[1:])
	case "schedule":
		return runSchedule(ctx, args[1:])
	case "collator":
		return runCollator(ctx, args[1:])
	case "scorers":
		return runScorers(ctx, args[1:])
	case "pacers":
		return runPacers(ctx, args[1:])
	case "score":
		return runScore(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "scores":
		return runScores(ctx, args[1:])
	case "order":
		return runOrder(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: curriculactl <init|reset|schedule|collator|scorers|pacers|score|runs|scores|order> [flags]", msg)
}

func newClient(storeKind, dbPath string) (*curapi.Client, error) {
	return curapi.New(curapi.Options{StoreKind: storeKind, DBPath: dbPath})
}

func runInit(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "curricula.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "curricula.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Reset(ctx); err != nil {
		return err
	}
	fmt.Printf("reset store=%s\n", *storeKind)
	return nil
}

// runSchedule prints the objective active at one step, or the whole
// transition table when no step is given.
func runSchedule(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	curriculumPath := fs.String("curriculum", "", "curriculum JSON path")
	step := fs.Int("step", -1, "training step to resolve (-1 prints the transition table)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *curriculumPath == "" {
		return errors.New("schedule requires --curriculum")
	}

	cur, err := curapi.LoadCurriculumFile(*curriculumPath)
	if err != nil {
		return err
	}

	if *step >= 0 {
		fmt.Printf("step=%d objective=%s\n", *step, curapi.ActiveObjective(cur, *step))
		return nil
	}
	for _, transition := range cur.Transitions() {
		fmt.Printf("step=%s objective=%s\n",
			humanize.Comma(int64(transition)), curapi.ActiveObjective(cur, transition))
	}
	return nil
}

func runCollator(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("collator", flag.ContinueOnError)
	curriculumPath := fs.String("curriculum", "", "curriculum JSON path")
	datasetPath := fs.String("dataset", "", "dataset JSON path")
	step := fs.Int("step", 0, "training step")
	maskID := fs.Int("mask-id", 4, "mask token id")
	padID := fs.Int("pad-id", 0, "pad token id")
	vocabSize := fs.Int("vocab-size", 32000, "vocabulary size")
	seed := fs.Int64("seed", 1, "rng seed")
	limit := fs.Int("limit", 4, "max collated rows to print (<=0 for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *curriculumPath == "" {
		return errors.New("collator requires --curriculum")
	}
	if *datasetPath == "" {
		return errors.New("collator requires --dataset")
	}

	cur, err := curapi.LoadCurriculumFile(*curriculumPath)
	if err != nil {
		return err
	}
	examples, err := loadExamples(*datasetPath)
	if err != nil {
		return err
	}
	tok := flatTokenizer{maskID: *maskID, padID: *padID, vocab: *vocabSize}

	col, err := collator.LoadSeeded(cur, tok, *step, *seed)
	if err != nil {
		return err
	}
	batch, err := col.Collate(examples)
	if err != nil {
		return err
	}

	rows := batch.InputIDs.Dim(0)
	fmt.Printf("objective=%s examples=%s rows=%d cols=%d\n",
		curapi.ActiveObjective(cur, *step), humanize.Comma(int64(len(examples))), rows, batch.InputIDs.Dim(1))
	printed := 0
	for i := 0; i < rows; i++ {
		if *limit > 0 && printed >= *limit {
			break
		}
		fmt.Printf("input_ids=%v labels=%v\n", batch.InputIDs.Row(i), batch.Labels.Row(i))
		printed++
	}
	return nil
}

func runScorers(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("scorers", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, name := range curapi.Scorers() {
		fmt.Println(name)
	}
	return nil
}

func runPacers(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("pacers", flag.ContinueOnError)
	startFraction := fs.Float64("start-fraction", 0.2, "visible dataset fraction at step 0")
	totalSteps := fs.Int("total-steps", 1000, "step at which the full dataset is visible")
	datasetSize := fs.Int("dataset-size", 0, "dataset size for visible-count preview (0 skips the preview)")
	step := fs.Int("step", 0, "step for the visible-count preview")
	if err := fs.Parse(args); err != nil {
		return err
	}

	for _, name := range curapi.Pacers() {
		if *datasetSize <= 0 {
			fmt.Println(name)
			continue
		}
		p, err := pacing.New(name, *startFraction, *totalSteps)
		if err != nil {
			return err
		}
		fmt.Printf("pacer=%s step=%d visible=%s of %s\n",
			name, *step,
			humanize.Comma(int64(p.VisibleCount(*step, *datasetSize))),
			humanize.Comma(int64(*datasetSize)))
	}
	return nil
}

func runScore(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	scorerName := fs.String("scorer", "sequence_length", "difficulty scorer name")
	datasetPath := fs.String("dataset", "", "dataset JSON path")
	kwargsJSON := fs.String("kwargs", "", "scorer kwargs as JSON object")
	step := fs.Int("step", 0, "training step recorded with the run")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "curricula.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *datasetPath == "" {
		return errors.New("score requires --dataset")
	}

	examples, err := loadExamples(*datasetPath)
	if err != nil {
		return err
	}
	var kwargs map[string]any
	if *kwargsJSON != "" {
		if err := json.Unmarshal([]byte(*kwargsJSON), &kwargs); err != nil {
			return fmt.Errorf("parse kwargs: %w", err)
		}
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	// Model-backed scorers need a live trainer and are driven from the
	// training loop, not from the CLI.
	summary, err := client.Score(ctx, curapi.ScoreRequest{
		Scorer: *scorerName,
		Kwargs: kwargs,
		Step:   *step,
	}, examples, nil)
	if err != nil {
		return err
	}
	fmt.Printf("scored run_id=%s scorer=%s examples=%s\n",
		summary.RunID, summary.ScorerName, humanize.Comma(int64(summary.Examples)))
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "curricula.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no scoring runs")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	for _, r := range runs {
		fmt.Printf("run_id=%s scorer=%s examples=%s step=%d created_at=%s\n",
			r.ID, r.ScorerName, humanize.Comma(int64(r.Examples)), r.Step, r.CreatedAt)
	}
	return nil
}

func runScores(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scores", flag.ContinueOnError)
	runID := fs.String("run-id", "", "scoring run id")
	limit := fs.Int("limit", 20, "max score rows to print (<=0 for all)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "curricula.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit scores as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("scores requires --run-id")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	scores, err := client.Scores(ctx, *runID)
	if err != nil {
		return err
	}
	if *limit > 0 && len(scores) > *limit {
		scores = scores[:*limit]
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(scores)
	}
	for _, s := range scores {
		fmt.Printf("example=%d score=%.6f\n", s.ExampleIndex, s.Score)
	}
	return nil
}

func runOrder(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	runID := fs.String("run-id", "", "scoring run id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "curricula.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("order requires --run-id")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	order, err := client.Order(ctx, *runID)
	if err != nil {
		return err
	}
	fmt.Printf("run_id=%s examples=%s order=%v\n", *runID, humanize.Comma(int64(len(order))), order)
	return nil
}

func loadExamples(path string) ([]model.Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var examples []model.Example
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	if len(examples) == 0 {
		return nil, errors.New("dataset is empty")
	}
	return examples, nil
}
