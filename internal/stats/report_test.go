package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/kpmoled/internal/model"
	"github.com/verte-zerg/kpmoled/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "traces.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		trace := model.Trace{
			Name:      "session",
			Source:    model.SourceRecorded,
			CreatedAt: time.Unix(0, 0).Add(time.Duration(i) * time.Minute),
			Events: []model.Event{
				{OffsetMs: 0, Row: 0, Col: 1},
				{OffsetMs: 30000, Row: 4, Col: 1},
			},
		}
		if _, err := st.InsertTrace(ctx, trace); err != nil {
			t.Fatalf("insert trace: %v", err)
		}
	}

	report, err := BuildReport(ctx, st, model.ListConfig{Last: 2})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Traces) != 2 {
		t.Fatalf("expected 2 traces, got %d", len(report.Traces))
	}
	if report.Keys != 4 || report.Duration != time.Minute {
		t.Fatalf("unexpected totals: %d keys over %v", report.Keys, report.Duration)
	}
	if report.AvgKPM() != 4 {
		t.Fatalf("expected 4 kpm, got %.2f", report.AvgKPM())
	}
}
