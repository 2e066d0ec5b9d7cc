// Package testutil provides deterministic quote-fixture generators for tests
// and benchmarks. All generators produce reproducible output for a fixed seed.
package testutil

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/colorgrid/pkg/model"
)

// GeneratorConfig controls quote generation.
type GeneratorConfig struct {
	Seed         int64   // random seed for determinism (0 = current time)
	IDPrefix     string  // prefix for message ids (default "MSG")
	ChildRatio   float64 // fraction of rows generated as children (default 0.4)
	BaseDate     time.Time
	MissingBids  bool // leave some bid fields empty, as real feeds do
	IncludeCusip bool
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:         42,
		IDPrefix:     "MSG",
		ChildRatio:   0.4,
		BaseDate:     time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		IncludeCusip: true,
	}
}

var (
	tickers = []string{"ACME", "GLOBEX", "INITECH", "HOOLI", "STARK", "WAYNE", "UMBRL", "TYREL"}
	sectors = []string{"Consumer", "Energy", "Financials", "Healthcare", "Industrials", "Tech"}
	biases  = []string{"bid", "offer", "trade", ""}
	sources = []string{"BWIC", "DEALER", "TRACE"}
)

// Generator creates quote fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "MSG"
	}
	if cfg.ChildRatio <= 0 {
		cfg.ChildRatio = 0.4
	}
	if cfg.BaseDate.IsZero() {
		cfg.BaseDate = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Quotes generates n quote rows: a mix of parents and children, with each
// child referencing a previously generated parent so the hierarchy always
// resolves.
func (g *Generator) Quotes(n int) []model.Row {
	rows := make([]model.Row, 0, n)
	var parentIDs []string

	for i := 0; i < n; i++ {
		msgID := fmt.Sprintf("%s-%05d", g.cfg.IDPrefix, i+1)
		mid := 80 + g.rng.Float64()*40

		row := model.Row{Fields: map[string]model.Value{
			"messageId": model.String(msgID),
			"ticker":    model.String(g.pick(tickers)),
			"sector":    model.String(g.pick(sectors)),
			"bias":      model.String(g.pick(biases)),
			"source":    model.String(g.pick(sources)),
			"mid":       model.Number(round2(mid)),
			"ask":       model.Number(round2(mid + 0.25 + g.rng.Float64()/2)),
			"rank":      model.Number(float64(1 + g.rng.Intn(9))),
			"date":      model.String(g.cfg.BaseDate.AddDate(0, 0, -g.rng.Intn(30)).Format("2006-01-02")),
		}}
		if !g.cfg.MissingBids || g.rng.Float64() > 0.15 {
			row.Fields["bid"] = model.Number(round2(mid - 0.25 - g.rng.Float64()/2))
		}
		if g.cfg.IncludeCusip {
			row.Fields["cusip"] = model.String(g.cusip())
		}

		if len(parentIDs) > 0 && g.rng.Float64() < g.cfg.ChildRatio {
			row.ParentRef = parentIDs[g.rng.Intn(len(parentIDs))]
		} else {
			row.IsParent = true
			parentIDs = append(parentIDs, msgID)
		}
		rows = append(rows, row)
	}
	return rows
}

func (g *Generator) pick(options []string) string {
	return options[g.rng.Intn(len(options))]
}

const cusipAlphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"

func (g *Generator) cusip() string {
	var b strings.Builder
	for i := 0; i < 9; i++ {
		b.WriteByte(cusipAlphabet[g.rng.Intn(len(cusipAlphabet))])
	}
	return b.String()
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// WriteJSONL writes rows to path in the loader's JSONL source format, with
// hierarchy bookkeeping under the backend key spellings.
func WriteJSONL(path string, rows []model.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for i := range rows {
		if err := enc.Encode(Record(&rows[i])); err != nil {
			return fmt.Errorf("encoding row %d: %w", i, err)
		}
	}
	return nil
}

// Record flattens a row into the loose JSONL record shape.
func Record(row *model.Row) map[string]any {
	rec := make(map[string]any, len(row.Fields)+3)
	for k, v := range row.Fields {
		rec[k] = v.Any()
	}
	if row.IsParent {
		rec["is_parent"] = true
	}
	if row.ParentRef != "" {
		rec["parent_message_id"] = row.ParentRef
	}
	if row.ID != "" {
		rec["row_id"] = row.ID
	}
	return rec
}
