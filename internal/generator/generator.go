// Package generator builds synthetic typing text and keystroke traces.
package generator

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/verte-zerg/kpmoled/internal/matrix"
	"github.com/verte-zerg/kpmoled/internal/model"
)

// Generator produces randomized typing text and traces.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate selects words uniformly and applies caps/punctuation rules.
func (g *Generator) Generate(words []string, count int, capsPct, punctPct float64, punctSet []rune) []string {
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := words[g.rnd.Intn(len(words))]
		word = applyCaps(g.rnd, word, capsPct)
		word = applyPunct(g.rnd, word, punctPct, punctSet)
		result = append(result, word)
	}
	return result
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	punct := punctSet[rnd.Intn(len(punctSet))]
	return word + string(punct)
}

// Trace turns text into key presses typed at cfg.KPM keys per minute.
// Each gap is jittered by up to cfg.Jitter of the mean and, with probability
// cfg.PausePct, a word boundary adds cfg.Pause. Runes the matrix cannot type
// are skipped.
func (g *Generator) Trace(text string, cfg model.GenerateConfig) (model.Trace, error) {
	if cfg.KPM <= 0 {
		return model.Trace{}, fmt.Errorf("keys per minute must be > 0")
	}
	if cfg.Jitter < 0 || cfg.Jitter >= 1 {
		return model.Trace{}, fmt.Errorf("jitter must be in [0, 1)")
	}
	mean := float64(time.Minute) / cfg.KPM
	var offset time.Duration
	var events []model.Event
	first := true
	for _, r := range text {
		keys, ok := matrix.Lookup(r)
		if !ok {
			continue
		}
		for _, pos := range keys {
			if !first {
				gap := mean * (1 + cfg.Jitter*(2*g.rnd.Float64()-1))
				offset += time.Duration(gap)
			}
			first = false
			events = append(events, model.Event{
				OffsetMs: offset.Milliseconds(),
				Row:      pos.Row,
				Col:      pos.Col,
			})
		}
		if r == ' ' && cfg.PausePct > 0 && g.rnd.Float64() < cfg.PausePct {
			offset += cfg.Pause
		}
	}
	return model.Trace{
		Name:      cfg.Name,
		Source:    model.SourceGenerated,
		CreatedAt: time.Now(),
		Events:    events,
	}, nil
}

// Text joins count words from the list into a single line.
func (g *Generator) Text(words []string, cfg model.GenerateConfig) string {
	if len(words) == 0 || cfg.Words <= 0 {
		return ""
	}
	return strings.Join(g.Generate(words, cfg.Words, cfg.CapsPct, cfg.PunctPct, []rune(cfg.PunctSet)), " ")
}
