package stats

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/verte-zerg/kpmoled/internal/matrix"
	"github.com/verte-zerg/kpmoled/internal/model"
)

// KeyCount is the press count of one switch.
type KeyCount struct {
	Key   matrix.Position
	Count int
	// MeanGap is the average time since the previous press.
	MeanGap time.Duration
}

// TopKeys returns the n most pressed switches.
func TopKeys(trace model.Trace, n int) []KeyCount {
	items := keyCounts(trace)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return less(items[i].Key, items[j].Key)
		}
		return items[i].Count > items[j].Count
	})
	return head(items, n)
}

// SlowestKeys returns the n switches with the longest mean gap before a
// press. The first press of the trace has no gap and is ignored.
func SlowestKeys(trace model.Trace, n int) []KeyCount {
	items := keyCounts(trace)
	sort.Slice(items, func(i, j int) bool {
		if items[i].MeanGap == items[j].MeanGap {
			return less(items[i].Key, items[j].Key)
		}
		return items[i].MeanGap > items[j].MeanGap
	})
	return head(items, n)
}

func keyCounts(trace model.Trace) []KeyCount {
	type acc struct {
		count int
		gaps  int
		sum   time.Duration
	}
	byKey := map[matrix.Position]*acc{}
	for i, ev := range trace.Events {
		pos := matrix.Position{Row: ev.Row, Col: ev.Col}
		a, ok := byKey[pos]
		if !ok {
			a = &acc{}
			byKey[pos] = a
		}
		a.count++
		if i > 0 {
			a.gaps++
			a.sum += ev.Offset() - trace.Events[i-1].Offset()
		}
	}
	items := make([]KeyCount, 0, len(byKey))
	for pos, a := range byKey {
		kc := KeyCount{Key: pos, Count: a.count}
		if a.gaps > 0 {
			kc.MeanGap = a.sum / time.Duration(a.gaps)
		}
		items = append(items, kc)
	}
	return items
}

func less(a, b matrix.Position) bool {
	if a.Row == b.Row {
		return a.Col < b.Col
	}
	return a.Row < b.Row
}

func head(items []KeyCount, n int) []KeyCount {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

// RenderKeyTable prints switch counts under title.
func RenderKeyTable(w io.Writer, title string, keys []KeyCount) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	cols := []column{
		{title: "Half"},
		{title: "Row", right: true},
		{title: "Col", right: true},
		{title: "Presses", right: true},
		{title: "Mean Gap (ms)", right: true},
	}
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{
			k.Key.Half().String(),
			fmt.Sprintf("%d", k.Key.Row),
			fmt.Sprintf("%d", k.Key.Col),
			fmt.Sprintf("%d", k.Count),
			fmt.Sprintf("%d", k.MeanGap.Milliseconds()),
		})
	}
	if err := writeTable(w, cols, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
