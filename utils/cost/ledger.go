// Package cost keeps the per-article token and spend ledger.
package cost

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/kris-hansen/scribe/utils/config"
	"github.com/kris-hansen/scribe/utils/fileutil"
	"github.com/kris-hansen/scribe/utils/models"
)

// TotalLabel is the derived aggregate entry. It is rewritten after every
// Track call and never updated on its own.
const TotalLabel = "TOTAL"

// Rates are USD per single token.
type Rates struct {
	Input  float64
	Output float64
}

// DefaultRates is $3 per million input tokens and $15 per million output tokens.
var DefaultRates = PerMillion(3.00, 15.00)

// PerMillion converts per-million pricing into per-token rates.
func PerMillion(input, output float64) Rates {
	return Rates{Input: input / 1_000_000, Output: output / 1_000_000}
}

// Entry is the accounting for one generation unit.
type Entry struct {
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	Cost         float64 `json:"cost"`
}

// TotalTokens is input plus output.
func (e Entry) TotalTokens() int {
	return e.InputTokens + e.OutputTokens
}

// Ledger is the cost record of a single article inside a report file that
// may also hold other titles. Other titles are preserved on every write.
type Ledger struct {
	mu    sync.Mutex
	path  string
	title string
	rates Rates
	data  map[string]map[string]Entry

	// Warnf receives non-fatal load problems. Defaults to stdout.
	Warnf func(format string, args ...interface{})
}

// Open loads the report at path for title. A missing file starts empty; an
// unreadable or corrupt one is reported through Warnf and also starts empty.
func Open(path, title string, rates Rates) *Ledger {
	l := &Ledger{
		path:  path,
		title: title,
		rates: rates,
		data:  make(map[string]map[string]Entry),
		Warnf: func(format string, args ...interface{}) {
			fmt.Printf("[WARN] "+format+"\n", args...)
		},
	}
	l.load()
	return l
}

func (l *Ledger) load() {
	raw, err := os.ReadFile(l.path)
	switch {
	case os.IsNotExist(err):
		config.DebugLog("[Cost] No cost report at %s, starting fresh", l.path)
	case err != nil:
		l.Warnf("Failed to read cost report %s, starting fresh: %v", l.path, err)
	default:
		var data map[string]map[string]Entry
		if err := json.Unmarshal(raw, &data); err != nil {
			l.Warnf("Failed to load existing cost report %s, starting fresh: %v", l.path, err)
		} else if data != nil {
			l.data = data
		}
	}

	if l.data[l.title] == nil {
		l.data[l.title] = make(map[string]Entry)
	}
}

// Track records usage under label, refreshes TOTAL and rewrites the report.
// A nil usage is ignored.
func (l *Ledger) Track(label string, usage *models.Usage) error {
	if usage == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.data[l.title][label] = Entry{
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
		Cost: round6(float64(usage.PromptTokens)*l.rates.Input +
			float64(usage.CompletionTokens)*l.rates.Output),
	}
	l.recalculate()

	if err := l.save(); err != nil {
		return err
	}
	config.DebugLog("[Cost] Tracked %s: in=%d out=%d", label, usage.PromptTokens, usage.CompletionTokens)
	return nil
}

func (l *Ledger) recalculate() {
	var total Entry
	var sum float64
	for label, e := range l.data[l.title] {
		if label == TotalLabel {
			continue
		}
		total.InputTokens += e.InputTokens
		total.OutputTokens += e.OutputTokens
		sum += e.Cost
	}
	total.Cost = round6(sum)
	l.data[l.title][TotalLabel] = total
}

func (l *Ledger) save() error {
	data, err := json.MarshalIndent(l.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cost report: %w", err)
	}
	if err := fileutil.WriteFileAtomic(l.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save cost report: %w", err)
	}
	return nil
}

// Totals returns the TOTAL entry, computing it when the loaded report has none.
func (l *Ledger) Totals() Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.data[l.title][TotalLabel]; !ok {
		l.recalculate()
	}
	return l.data[l.title][TotalLabel]
}

// Entry returns the entry stored under label.
func (l *Ledger) Entry(label string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.data[l.title][label]
	return e, ok
}

// Labels lists every non-TOTAL label, sorted.
func (l *Ledger) Labels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var labels []string
	for label := range l.data[l.title] {
		if label != TotalLabel {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	return labels
}

// Path is the report location.
func (l *Ledger) Path() string {
	return l.path
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
