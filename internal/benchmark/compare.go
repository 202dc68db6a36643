package benchmark

import "fmt"

// RowStatus marks how a baseline key aligned with the candidate table.
type RowStatus int

const (
	// StatusOK means both tables hold the key and the baseline mean is non-zero.
	StatusOK RowStatus = iota
	// StatusMissing means the key is absent from the candidate table.
	StatusMissing
	// StatusZeroBaseline means the baseline mean is 0, so no ratio exists.
	StatusZeroBaseline
)

func (s RowStatus) String() string {
	switch s {
	case StatusMissing:
		return "missing in candidate"
	case StatusZeroBaseline:
		return "zero baseline"
	default:
		return "ok"
	}
}

// ComparisonRow pairs a baseline summary with the candidate summary for the
// same key.
type ComparisonRow struct {
	Key           Key
	Baseline      Summary
	Candidate     Summary
	PercentChange float64
	Status        RowStatus
}

// Comparison is the key-aligned join of two tables.
type Comparison struct {
	Rows []ComparisonRow
	// Added lists keys present only in the candidate table.
	Added         []Key
	BaselineMode  Mode
	CandidateMode Mode
}

// Group is the set of rows sharing one operation family.
type Group struct {
	Family string
	Rows   []ComparisonRow
}

// PercentChange returns (candidate-baseline)/baseline*100, or 0 when the
// baseline is 0.
func PercentChange(baseline, candidate float64) float64 {
	if baseline == 0 {
		return 0
	}
	return (candidate - baseline) / baseline * 100
}

// Compare joins baseline and candidate on Key. It emits one row per
// baseline key, in key order. A key missing from candidate is reported with
// a zero candidate summary and a 0 percent change.
func Compare(baseline, candidate *Table) *Comparison {
	c := &Comparison{}
	if baseline != nil {
		c.BaselineMode = baseline.Mode
	}
	if candidate != nil {
		c.CandidateMode = candidate.Mode
	}

	for _, k := range baseline.Keys() {
		base, _ := baseline.Get(k)
		row := ComparisonRow{Key: k, Baseline: base}

		cand, ok := candidate.Get(k)
		switch {
		case !ok:
			row.Status = StatusMissing
		case base.Mean == 0:
			row.Candidate = cand
			row.Status = StatusZeroBaseline
		default:
			row.Candidate = cand
			row.PercentChange = PercentChange(base.Mean, cand.Mean)
		}
		c.Rows = append(c.Rows, row)
	}

	for _, k := range candidate.Keys() {
		if _, ok := baseline.Get(k); !ok {
			c.Added = append(c.Added, k)
		}
	}
	return c
}

// Groups splits the rows by family, preserving key order.
func (c *Comparison) Groups() []Group {
	var groups []Group
	for _, r := range c.Rows {
		if n := len(groups); n == 0 || groups[n-1].Family != r.Key.Family {
			groups = append(groups, Group{Family: r.Key.Family})
		}
		g := &groups[len(groups)-1]
		g.Rows = append(g.Rows, r)
	}
	return groups
}

// Regressions returns the rows whose change exceeds threshold percent.
func (c *Comparison) Regressions(threshold float64) []ComparisonRow {
	var out []ComparisonRow
	for _, r := range c.Rows {
		if r.Status == StatusOK && r.PercentChange > threshold {
			out = append(out, r)
		}
	}
	return out
}

// Missing returns the rows whose key is absent from the candidate.
func (c *Comparison) Missing() []ComparisonRow {
	var out []ComparisonRow
	for _, r := range c.Rows {
		if r.Status == StatusMissing {
			out = append(out, r)
		}
	}
	return out
}

func (r ComparisonRow) String() string {
	if r.Status != StatusOK {
		return fmt.Sprintf("%s: %+.1f%% (%s)", r.Key, r.PercentChange, r.Status)
	}
	return fmt.Sprintf("%s: %+.1f%%", r.Key, r.PercentChange)
}
