package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/kpmoled/internal/model"
)

func TestDecodeTrace(t *testing.T) {
	doc := `name: demo
events:
  - {offset_ms: 0, row: 0, col: 1}
  - {offset_ms: 120, row: 4, col: 2}
`
	trace, err := decodeTrace(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("decodeTrace: %v", err)
	}
	if trace.Name != "demo" || len(trace.Events) != 2 {
		t.Fatalf("unexpected trace: %+v", trace)
	}
	if got := trace.Events[1]; got.OffsetMs != 120 || got.Row != 4 || got.Col != 2 {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestDecodeTraceRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"backwards": "events:\n  - {offset_ms: 50, row: 0, col: 0}\n  - {offset_ms: 10, row: 0, col: 0}\n",
		"row":       "events:\n  - {offset_ms: 0, row: 8, col: 0}\n",
		"col":       "events:\n  - {offset_ms: 0, row: 0, col: 6}\n",
		"unknown":   "name: x\nspeed: 3\n",
	}
	for name, doc := range cases {
		if _, err := decodeTrace(strings.NewReader(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestEncodeTraceRoundTrip(t *testing.T) {
	in := model.Trace{
		ID:        "abc",
		Name:      "round trip",
		Source:    model.SourceGenerated,
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Events: []model.Event{
			{OffsetMs: 0, Row: 1, Col: 1},
			{OffsetMs: 200, Row: 5, Col: 3},
		},
	}
	var buf bytes.Buffer
	if err := encodeTrace(&buf, in); err != nil {
		t.Fatalf("encodeTrace: %v", err)
	}
	if !strings.Contains(buf.String(), "offset_ms: 200") {
		t.Fatalf("missing event field in output:\n%s", buf.String())
	}
	out, err := decodeTrace(&buf)
	if err != nil {
		t.Fatalf("decodeTrace: %v", err)
	}
	if out.ID != in.ID || out.Source != in.Source || !out.CreatedAt.Equal(in.CreatedAt) {
		t.Fatalf("header mismatch: %+v", out)
	}
	if len(out.Events) != 2 || out.Events[1] != in.Events[1] {
		t.Fatalf("events mismatch: %+v", out.Events)
	}
}

func TestValidateGenerateConfig(t *testing.T) {
	base := model.GenerateConfig{KPM: 300, Words: 10, Jitter: 0.2, PausePct: 0.1}
	if err := validateGenerateConfig(base); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := []func(*model.GenerateConfig){
		func(c *model.GenerateConfig) { c.KPM = 0 },
		func(c *model.GenerateConfig) { c.Words = 0 },
		func(c *model.GenerateConfig) { c.Jitter = 1 },
		func(c *model.GenerateConfig) { c.PausePct = 1.5 },
		func(c *model.GenerateConfig) { c.Pause = -time.Second },
		func(c *model.GenerateConfig) { c.CapsPct = -0.1 },
		func(c *model.GenerateConfig) { c.PunctPct = 2 },
	}
	for i, mutate := range bad {
		cfg := base
		mutate(&cfg)
		if err := validateGenerateConfig(cfg); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestFramePath(t *testing.T) {
	if got := framePath("out", "left", 42); got != "out/left-00042.png" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestWaitUntil(t *testing.T) {
	if err := waitUntil(context.Background(), time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("past deadline: %v", err)
	}
	start := time.Now()
	if err := waitUntil(context.Background(), start.Add(20*time.Millisecond)); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatalf("returned before the deadline")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := waitUntil(ctx, time.Now().Add(time.Hour)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}
