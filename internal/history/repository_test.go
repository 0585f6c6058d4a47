package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nerrad567/gray-logic-motion/internal/coordinator"
	"github.com/nerrad567/gray-logic-motion/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-motion/internal/infrastructure/database"
	_ "github.com/nerrad567/gray-logic-motion/migrations"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// setupRepo opens a migrated database in a temp dir.
func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "motion.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func record(t *testing.T, repo *SQLiteRepository, e Execution) Execution {
	t.Helper()
	if err := repo.Record(context.Background(), &e); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	return e
}

// ─── Record / Get ───────────────────────────────────────────────────

func TestRecordAndGet(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	in := record(t, repo, Execution{
		CommandID:    "cmd-1",
		Action:       "highlight",
		Target:       "#save",
		Attempts:     3,
		FallbackUsed: true,
		Success:      true,
		Error:        "retry exhausted after 3 attempts",
		DurationMS:   1520,
		RecordedAt:   epoch,
	})
	if in.ID == "" {
		t.Fatal("Record() did not assign an id")
	}

	got, err := repo.Get(ctx, in.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if diff := cmp.Diff(in, *got); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecord_Defaults(t *testing.T) {
	repo := setupRepo(t)

	e := record(t, repo, Execution{Action: "focus", Target: "#name"})
	if e.RecordedAt.IsZero() {
		t.Error("RecordedAt not stamped")
	}

	got, err := repo.Get(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Error != "" {
		t.Errorf("Error = %q, want empty for NULL column", got.Error)
	}
}

func TestRecord_Invalid(t *testing.T) {
	repo := setupRepo(t)

	tests := []struct {
		name string
		exec Execution
	}{
		{"missing action", Execution{Target: "#a", Success: true}},
		{"missing target", Execution{Action: "navigate", Success: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Record(context.Background(), &tt.exec)
			if !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("Record() error = %v, want ErrInvalidRecord", err)
			}
		})
	}
}

func TestRecord_FailedWithoutTarget(t *testing.T) {
	repo := setupRepo(t)

	e := record(t, repo, Execution{
		CommandID: "cmd-1",
		Action:    "focus",
		Error:     "coordinator: validation failed: target is required",
	})

	got, err := repo.Get(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Target != "" || got.Success || got.Error == "" {
		t.Errorf("Get() = %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

// ─── Listing ────────────────────────────────────────────────────────

func TestListRecent(t *testing.T) {
	repo := setupRepo(t)
	for i, action := range []string{"navigate", "modal", "highlight", "navigate"} {
		record(t, repo, Execution{
			CommandID:  action,
			Action:     action,
			Target:     "#t",
			RecordedAt: epoch.Add(time.Duration(i) * 500 * time.Millisecond),
		})
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"default limit", 0, []string{"navigate", "highlight", "modal", "navigate"}},
		{"limited", 2, []string{"navigate", "highlight"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListRecent(context.Background(), tt.limit)
			if err != nil {
				t.Fatalf("ListRecent() error = %v", err)
			}
			var actions []string
			for _, e := range got {
				actions = append(actions, e.Action)
			}
			if diff := cmp.Diff(tt.want, actions); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListByAction(t *testing.T) {
	repo := setupRepo(t)
	record(t, repo, Execution{Action: "navigate", Target: "#a", RecordedAt: epoch})
	record(t, repo, Execution{Action: "modal", Target: "#dialog", RecordedAt: epoch})
	last := record(t, repo, Execution{Action: "navigate", Target: "#b", RecordedAt: epoch.Add(time.Second)})

	got, err := repo.ListByAction(context.Background(), "navigate", 10)
	if err != nil {
		t.Fatalf("ListByAction() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != last.ID {
		t.Errorf("ListByAction() = %+v, want 2 rows newest first", got)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-1, defaultListLimit},
		{0, defaultListLimit},
		{7, 7},
		{10_000, maxListLimit},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// ─── Summary / Prune ────────────────────────────────────────────────

func TestSummarise(t *testing.T) {
	repo := setupRepo(t)
	record(t, repo, Execution{Action: "navigate", Target: "#a", Success: true})
	record(t, repo, Execution{Action: "navigate", Target: "#a", Success: true, FallbackUsed: true})
	record(t, repo, Execution{Action: "modal", Target: "#dialog"})

	got, err := repo.Summarise(context.Background())
	if err != nil {
		t.Fatalf("Summarise() error = %v", err)
	}
	want := Summary{
		Total:     3,
		Succeeded: 2,
		Fallbacks: 1,
		ByAction:  map[string]int{"navigate": 2, "modal": 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarise() mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarise_Empty(t *testing.T) {
	repo := setupRepo(t)

	got, err := repo.Summarise(context.Background())
	if err != nil {
		t.Fatalf("Summarise() error = %v", err)
	}
	if got.Total != 0 || len(got.ByAction) != 0 {
		t.Errorf("Summarise() = %+v, want empty", got)
	}
}

func TestPrune(t *testing.T) {
	repo := setupRepo(t)
	record(t, repo, Execution{Action: "focus", Target: "#a", RecordedAt: epoch.Add(-48 * time.Hour)})
	keep := record(t, repo, Execution{Action: "focus", Target: "#a", RecordedAt: epoch})

	n, err := repo.Prune(context.Background(), epoch.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() removed %d, want 1", n)
	}
	if _, err := repo.Get(context.Background(), keep.ID); err != nil {
		t.Errorf("recent execution pruned: %v", err)
	}
}

// ─── Conversion ─────────────────────────────────────────────────────

func TestFromResult(t *testing.T) {
	r := coordinator.Result{
		ID:           "cmd-9",
		Action:       coordinator.ActionScroll,
		Target:       "#settings",
		Attempts:     2,
		FallbackUsed: true,
		Success:      true,
		Error:        "boom",
		Duration:     1500 * time.Millisecond,
	}

	a := FromResult(r, epoch)
	b := FromResult(r, epoch)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("FromResult ids %q/%q, want unique", a.ID, b.ID)
	}
	want := Execution{
		ID:           a.ID,
		CommandID:    "cmd-9",
		Action:       "scroll",
		Target:       "#settings",
		Success:      true,
		Attempts:     2,
		FallbackUsed: true,
		Error:        "boom",
		DurationMS:   1500,
		RecordedAt:   epoch,
	}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Errorf("FromResult mismatch (-want +got):\n%s", diff)
	}
}
