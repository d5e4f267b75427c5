package ark

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RecordSummary describes one record of an archive.
type RecordSummary struct {
	ID   string  `json:"id"`
	Rows int     `json:"rows"`
	Cols int     `json:"cols"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Summary aggregates shape and value statistics for an archive.
type Summary struct {
	Records   int             `json:"records"`
	TotalRows int             `json:"total_rows"`
	Dims      []int           `json:"dims"`
	Entries   []RecordSummary `json:"entries"`
}

// Summarize computes per-record statistics in archive order. Empty records
// report zero for every statistic.
func Summarize(a *Archive) Summary {
	summary := Summary{Records: a.Len(), Entries: make([]RecordSummary, 0, a.Len())}
	seenDims := map[int]struct{}{}
	for id, m := range a.All() {
		entry := RecordSummary{ID: id, Rows: m.Rows(), Cols: m.Cols()}
		if data := m.Data(); len(data) > 0 {
			entry.Min = floats.Min(data)
			entry.Max = floats.Max(data)
			entry.Mean = stat.Mean(data, nil)
		}
		summary.TotalRows += m.Rows()
		if m.Rows() > 0 {
			if _, ok := seenDims[m.Cols()]; !ok {
				seenDims[m.Cols()] = struct{}{}
				summary.Dims = append(summary.Dims, m.Cols())
			}
		}
		summary.Entries = append(summary.Entries, entry)
	}
	return summary
}
