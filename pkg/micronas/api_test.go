package micronas

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{
		StoreKind:     "memory",
		CheckpointDir: t.TempDir(),
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func smallRun(seed uint64) RunRequest {
	return RunRequest{
		Space:      "mlp",
		Population: 4,
		Tournament: 2,
		Rounds:     10,
		Seed:       seed,
		Workers:    2,
		SaveEvery:  5,
	}
}

func TestRunPersistsArtifacts(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	summary, err := client.Run(ctx, smallRun(11))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" || summary.Rounds != 10 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.BestMetrics == nil || !summary.BestFeasible {
		t.Fatalf("expected a feasible best with no bounds: %+v", summary)
	}

	if _, err := os.Stat(summary.CheckpointPath); err != nil {
		t.Fatalf("expected checkpoint file: %v", err)
	}

	runs, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != summary.RunID {
		t.Fatalf("unexpected run listing: %+v", runs)
	}

	history, err := client.History(ctx, HistoryRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 10 {
		t.Fatalf("expected 10 round records, got %d", len(history))
	}

	best, err := client.Best(ctx, BestRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("best: %v", err)
	}
	if best.Fitness != summary.BestFitness {
		t.Fatalf("best mismatch: %g vs %g", best.Fitness, summary.BestFitness)
	}
	if len(best.Arch.Nodes) == 0 {
		t.Fatal("best architecture is empty")
	}
}

func TestResumeContinuesSameRun(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	first, err := client.Run(ctx, smallRun(23))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	req := smallRun(23)
	req.Rounds = 20
	req.LoadFrom = first.CheckpointPath
	second, err := client.Run(ctx, req)
	if err != nil {
		t.Fatalf("resumed run: %v", err)
	}

	if second.RunID != first.RunID {
		t.Fatalf("resume changed run identity: %s vs %s", second.RunID, first.RunID)
	}
	if second.Rounds != 20 {
		t.Fatalf("expected 20 rounds after resume, got %d", second.Rounds)
	}

	history, err := client.History(ctx, HistoryRequest{RunID: second.RunID})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 20 {
		t.Fatalf("expected merged history of 20 records, got %d", len(history))
	}
	for i, rec := range history {
		if rec.Round != i+1 {
			t.Fatalf("history gap at %d: %+v", i, rec)
		}
	}

	runs, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("resume must not create a second run: %+v", runs)
	}
}

func TestRunRejectsUnknownSpace(t *testing.T) {
	client := newTestClient(t)
	req := smallRun(1)
	req.Space = "transformer"
	if _, err := client.Run(context.Background(), req); err == nil {
		t.Fatal("expected unknown space error")
	}
}

func TestResumeRejectsMissingCheckpoint(t *testing.T) {
	client := newTestClient(t)
	req := smallRun(1)
	req.LoadFrom = filepath.Join(t.TempDir(), "absent.json")
	if _, err := client.Run(context.Background(), req); err == nil {
		t.Fatal("expected checkpoint load error")
	}
}

func TestBestRequiresRunSelector(t *testing.T) {
	client := newTestClient(t)
	if _, err := client.Best(context.Background(), BestRequest{}); err == nil {
		t.Fatal("expected selector error")
	}
}

func TestLatestResolvesMostRecentRun(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	if _, err := client.Run(ctx, smallRun(31)); err != nil {
		t.Fatalf("run: %v", err)
	}

	best, err := client.Best(ctx, BestRequest{Latest: true})
	if err != nil {
		t.Fatalf("best latest: %v", err)
	}
	if best.ID == "" {
		t.Fatalf("unexpected best: %+v", best)
	}

	history, err := client.History(ctx, HistoryRequest{Latest: true, Limit: 3})
	if err != nil {
		t.Fatalf("history latest: %v", err)
	}
	if len(history) != 3 || history[len(history)-1].Round != 10 {
		t.Fatalf("unexpected limited history: %+v", history)
	}
}

func TestSpacesListsBuiltIns(t *testing.T) {
	client := newTestClient(t)
	spaces := client.Spaces()
	if len(spaces) != 3 {
		t.Fatalf("unexpected spaces: %v", spaces)
	}
}
