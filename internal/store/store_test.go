package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/kpmoled/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "traces.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestInsertAndGetTrace(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	trace := model.Trace{
		Name:      "warmup",
		Source:    model.SourceGenerated,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Events: []model.Event{
			{OffsetMs: 0, Row: 0, Col: 1},
			{OffsetMs: 180, Row: 4, Col: 2},
			{OffsetMs: 420, Row: 3, Col: 5},
		},
	}
	id, err := st.InsertTrace(ctx, trace)
	if err != nil {
		t.Fatalf("insert trace: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated id")
	}

	got, err := st.GetTrace(ctx, id)
	if err != nil {
		t.Fatalf("get trace: %v", err)
	}
	if got.Name != "warmup" || got.Source != model.SourceGenerated {
		t.Fatalf("unexpected trace header: %+v", got)
	}
	if !got.CreatedAt.Equal(trace.CreatedAt) {
		t.Fatalf("unexpected created at %v", got.CreatedAt)
	}
	if len(got.Events) != 3 || got.Events[1] != trace.Events[1] {
		t.Fatalf("unexpected events: %+v", got.Events)
	}
	if got.Duration() != 420*time.Millisecond {
		t.Fatalf("unexpected duration %v", got.Duration())
	}
}

func TestListTracesFiltersAndLimits(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	sources := []string{model.SourceRecorded, model.SourceGenerated, model.SourceRecorded}
	for i, src := range sources {
		_, err := st.InsertTrace(ctx, model.Trace{
			Name:      "t",
			Source:    src,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			Events:    []model.Event{{OffsetMs: 0}, {OffsetMs: int64(100 * (i + 1))}},
		})
		if err != nil {
			t.Fatalf("insert trace: %v", err)
		}
	}

	all, err := st.ListTraces(ctx, model.ListConfig{})
	if err != nil {
		t.Fatalf("list traces: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 traces, got %d", len(all))
	}
	if all[2].DurationMs != 300 || all[2].Keys != 2 {
		t.Fatalf("unexpected summary: %+v", all[2])
	}

	recorded, err := st.ListTraces(ctx, model.ListConfig{Source: model.SourceRecorded})
	if err != nil {
		t.Fatalf("list recorded: %v", err)
	}
	if len(recorded) != 2 {
		t.Fatalf("expected 2 recorded traces, got %d", len(recorded))
	}

	since := base.Add(90 * time.Minute)
	last, err := st.ListTraces(ctx, model.ListConfig{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(last) != 1 || last[0].DurationMs != 300 {
		t.Fatalf("unexpected since result: %+v", last)
	}

	tail, err := st.ListTraces(ctx, model.ListConfig{Last: 2})
	if err != nil {
		t.Fatalf("list last: %v", err)
	}
	if len(tail) != 2 || tail[0].DurationMs != 200 {
		t.Fatalf("unexpected last result: %+v", tail)
	}
}

func TestResolveAndDelete(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	id, err := st.InsertTrace(ctx, model.Trace{ID: "abc123", Name: "x", Events: []model.Event{{}}})
	if err != nil {
		t.Fatalf("insert trace: %v", err)
	}
	if _, err := st.InsertTrace(ctx, model.Trace{ID: "abd456", Name: "y"}); err != nil {
		t.Fatalf("insert trace: %v", err)
	}

	resolved, err := st.ResolveID(ctx, "abc")
	if err != nil || resolved != id {
		t.Fatalf("expected %q, got %q (%v)", id, resolved, err)
	}
	if _, err := st.ResolveID(ctx, "ab"); err == nil {
		t.Fatalf("expected ambiguous prefix error")
	}
	if _, err := st.ResolveID(ctx, "zz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := st.DeleteTrace(ctx, id); err != nil {
		t.Fatalf("delete trace: %v", err)
	}
	if _, err := st.GetTrace(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted trace to be gone, got %v", err)
	}
	if err := st.DeleteTrace(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestResolveIDMatchesPrefixLiterally(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	id, err := st.InsertTrace(ctx, model.Trace{Name: "only"})
	if err != nil {
		t.Fatalf("insert trace: %v", err)
	}
	for _, prefix := range []string{"%", "_", "%%", "_" + id[1:4], `\`, id[:2] + "%"} {
		if got, err := st.ResolveID(ctx, prefix); !errors.Is(err, ErrNotFound) {
			t.Fatalf("prefix %q: expected not found, got %q (%v)", prefix, got, err)
		}
	}
	if got, err := st.ResolveID(ctx, id[:4]); err != nil || got != id {
		t.Fatalf("expected %q, got %q (%v)", id, got, err)
	}
}
