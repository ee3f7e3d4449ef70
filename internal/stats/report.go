package stats

import (
	"context"
	"time"

	"github.com/verte-zerg/kpmoled/internal/model"
	"github.com/verte-zerg/kpmoled/internal/store"
)

// Report contains precomputed data for trace listings.
type Report struct {
	Traces   []model.TraceSummary
	Keys     int
	Duration time.Duration
}

// BuildReport loads and prepares data for trace listings.
func BuildReport(ctx context.Context, st *store.Store, cfg model.ListConfig) (Report, error) {
	traces, err := st.ListTraces(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	report := Report{Traces: traces}
	for _, t := range traces {
		report.Keys += t.Keys
		report.Duration += t.Duration()
	}
	return report, nil
}

// AvgKPM returns the rate across all listed traces.
func (r Report) AvgKPM() float64 {
	return Rate(r.Keys, r.Duration)
}
