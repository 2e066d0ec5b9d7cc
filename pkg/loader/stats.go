package loader

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/colorgrid/pkg/model"
)

// Stats summarizes a loaded color set for the status footer.
type Stats struct {
	TotalRows    int
	ParentRows   int
	ChildRows    int
	UniqueCusips int

	// Price summaries over rows that carry a numeric value for the field.
	// NaN when no row does.
	MeanBid    float64
	MeanMid    float64
	MeanAsk    float64
	StdDevMid  float64
	MedianRank float64
}

// Summarize computes load statistics over the given rows.
func Summarize(rows []model.Row) Stats {
	s := Stats{TotalRows: len(rows)}

	cusips := make(map[string]struct{})
	var bids, mids, asks, ranks []float64

	for i := range rows {
		row := &rows[i]
		if row.IsParent || row.ParentRef == "" {
			s.ParentRows++
		} else {
			s.ChildRows++
		}

		if v, ok := row.Field("cusip"); ok {
			if c := strings.TrimSpace(v.Text()); c != "" {
				cusips[c] = struct{}{}
			}
		}

		bids = appendNumeric(bids, row, "bid")
		mids = appendNumeric(mids, row, "mid")
		asks = appendNumeric(asks, row, "ask")
		ranks = appendNumeric(ranks, row, "rank")
	}

	s.UniqueCusips = len(cusips)
	s.MeanBid = stat.Mean(bids, nil)
	s.MeanMid = stat.Mean(mids, nil)
	s.MeanAsk = stat.Mean(asks, nil)
	s.StdDevMid = stat.StdDev(mids, nil)
	s.MedianRank = median(ranks)
	return s
}

func appendNumeric(dst []float64, row *model.Row, field string) []float64 {
	if v, ok := row.Field(field); ok {
		if f, ok := v.Float(); ok {
			dst = append(dst, f)
		}
	}
	return dst
}

// median sorts a copy; stat.Quantile requires sorted input.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return stat.Mean(nil, nil)
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
