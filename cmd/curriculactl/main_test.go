package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const testCurriculum = `{
	"steps": {"0": "mlm", "100": "pos"},
	"units": {
		"mlm": {"name": "mlm", "mask_probability": 0.15},
		"pos": {"name": "pos", "mask_probability": 0.15, "num_mask_patterns": 2}
	}
}`

const testDataset = `[
	{"input_ids": [5, 10, 11, 12, 6], "word_ids": [-1, 0, 1, 2, -1]},
	{"input_ids": [5, 10, 6], "word_ids": [-1, 0, -1]}
]`

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunRequiresCommand(t *testing.T) {
	if err := run(context.Background(), nil); err == nil {
		t.Fatal("expected usage error for missing command")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"bogus"}); err == nil {
		t.Fatal("expected usage error for unknown command")
	}
}

func TestScheduleCommand(t *testing.T) {
	curriculumPath := writeTestFile(t, "curriculum.json", testCurriculum)

	if err := run(context.Background(), []string{"schedule", "--curriculum", curriculumPath, "--step", "50"}); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	if err := run(context.Background(), []string{"schedule", "--curriculum", curriculumPath}); err != nil {
		t.Fatalf("schedule transition table failed: %v", err)
	}
	if err := run(context.Background(), []string{"schedule"}); err == nil {
		t.Fatal("expected error for missing --curriculum")
	}
}

func TestCollatorCommand(t *testing.T) {
	curriculumPath := writeTestFile(t, "curriculum.json", testCurriculum)
	datasetPath := writeTestFile(t, "dataset.json", testDataset)

	err := run(context.Background(), []string{
		"collator",
		"--curriculum", curriculumPath,
		"--dataset", datasetPath,
		"--step", "0",
		"--mask-id", "4",
		"--pad-id", "0",
		"--seed", "7",
	})
	if err != nil {
		t.Fatalf("collator failed: %v", err)
	}
}

func TestScorersAndPacersCommands(t *testing.T) {
	if err := run(context.Background(), []string{"scorers"}); err != nil {
		t.Fatalf("scorers failed: %v", err)
	}
	if err := run(context.Background(), []string{"pacers"}); err != nil {
		t.Fatalf("pacers failed: %v", err)
	}
	if err := run(context.Background(), []string{"pacers", "--dataset-size", "1000", "--step", "100"}); err != nil {
		t.Fatalf("pacers preview failed: %v", err)
	}
}

func TestScoreCommand(t *testing.T) {
	datasetPath := writeTestFile(t, "dataset.json", testDataset)

	err := run(context.Background(), []string{
		"score",
		"--scorer", "sequence_length",
		"--dataset", datasetPath,
	})
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if err := run(context.Background(), []string{"score"}); err == nil {
		t.Fatal("expected error for missing --dataset")
	}
}

func TestScoreCommandRejectsTrainerScorers(t *testing.T) {
	datasetPath := writeTestFile(t, "dataset.json", testDataset)

	err := run(context.Background(), []string{
		"score",
		"--scorer", "model_perplexity",
		"--dataset", datasetPath,
	})
	if err == nil {
		t.Fatal("expected error for trainer-backed scorer without a trainer")
	}
}

func TestScoreCommandRejectsBadKwargs(t *testing.T) {
	datasetPath := writeTestFile(t, "dataset.json", testDataset)

	err := run(context.Background(), []string{
		"score",
		"--scorer", "sequence_length",
		"--dataset", datasetPath,
		"--kwargs", "{not json",
	})
	if err == nil {
		t.Fatal("expected kwargs parse error")
	}
}

func TestInitAndResetCommands(t *testing.T) {
	if err := run(context.Background(), []string{"init"}); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := run(context.Background(), []string{"reset"}); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
}

func TestScoresRequiresRunID(t *testing.T) {
	if err := run(context.Background(), []string{"scores"}); err == nil {
		t.Fatal("expected error for missing --run-id")
	}
	if err := run(context.Background(), []string{"order"}); err == nil {
		t.Fatal("expected error for missing --run-id")
	}
}

func TestLoadExamples(t *testing.T) {
	datasetPath := writeTestFile(t, "dataset.json", testDataset)

	examples, err := loadExamples(datasetPath)
	if err != nil {
		t.Fatalf("loadExamples failed: %v", err)
	}
	if len(examples) != 2 {
		t.Fatalf("example count: got=%d want=2", len(examples))
	}
	if len(examples[0].IDs) != 5 {
		t.Fatalf("first example length: got=%d want=5", len(examples[0].IDs))
	}

	emptyPath := writeTestFile(t, "empty.json", "[]")
	if _, err := loadExamples(emptyPath); err == nil {
		t.Fatal("expected error for empty dataset")
	}
}
