package benchmark

import (
	"fmt"
	"io"
	"strings"
)

// ReportOptions controls report rendering. Every field is optional.
type ReportOptions struct {
	// Threshold in percent above which a row is flagged SLOWER (or below
	// -Threshold, FASTER). Zero disables flags.
	Threshold float64
	// Dim maps a key to the displayed dimension. Defaults to the size.
	Dim func(Key) int
	// Unit names the timing unit of a family, e.g. "s" or "µs".
	Unit func(family string) string
	// Heading decorates group titles.
	Heading        func(title string) string
	BaselineLabel  string
	CandidateLabel string
}

func (o ReportOptions) dim(k Key) int {
	if o.Dim != nil {
		return o.Dim(k)
	}
	return k.Size
}

func (o ReportOptions) title(family string) string {
	t := strings.ToUpper(family)
	if o.Unit != nil {
		if u := o.Unit(family); u != "" {
			t += " [" + u + "]"
		}
	}
	return t
}

func (o ReportOptions) heading(s string) string {
	if o.Heading != nil {
		return o.Heading(s)
	}
	return s
}

func (o ReportOptions) labels() (string, string) {
	b, c := o.BaselineLabel, o.CandidateLabel
	if b == "" {
		b = "Baseline"
	}
	if c == "" {
		c = "Candidate"
	}
	return b, c
}

const cellWidth = 20

// cell renders a summary as "mean±rel%" or "min-max".
func cell(s Summary, mode Mode) string {
	if mode == ModeMinMax {
		return fmt.Sprintf("%.4f-%.4f", s.Min, s.Max)
	}
	return fmt.Sprintf("%.4f±%3.0f%%", s.Mean, s.RelativeSpread())
}

func (o ReportOptions) flag(r ComparisonRow) string {
	switch r.Status {
	case StatusMissing, StatusZeroBaseline:
		return r.Status.String()
	}
	if o.Threshold <= 0 {
		return ""
	}
	switch {
	case r.PercentChange > o.Threshold:
		return "SLOWER"
	case r.PercentChange < -o.Threshold:
		return "FASTER"
	}
	return ""
}

// WriteText renders c as one fixed-width table per family.
func WriteText(w io.Writer, c *Comparison, opts ReportOptions) error {
	bl, cl := opts.labels()
	var b strings.Builder
	for gi, g := range c.Groups() {
		if gi > 0 {
			b.WriteString("\n")
		}
		b.WriteString(opts.heading("=== "+opts.title(g.Family)+" ===") + "\n\n")
		header := fmt.Sprintf("%6s %6s %-4s %*s %*s %8s", "Size", "Dim", "Type", cellWidth, bl, cellWidth, cl, "Change")
		b.WriteString(header + "\n")
		b.WriteString(strings.Repeat("-", len(header)) + "\n")
		for _, r := range g.Rows {
			cand := "missing"
			if r.Status != StatusMissing {
				cand = cell(r.Candidate, c.CandidateMode)
			}
			line := fmt.Sprintf("%6d %6d %-4s %*s %*s %+7.1f%%",
				r.Key.Size, opts.dim(r.Key), r.Key.Variant,
				cellWidth, cell(r.Baseline, c.BaselineMode),
				cellWidth, cand,
				r.PercentChange)
			if f := opts.flag(r); f != "" {
				line += "  " + f
			}
			b.WriteString(line + "\n")
		}
	}
	if len(c.Added) > 0 {
		b.WriteString("\nNew in candidate (no baseline):\n")
		for _, k := range c.Added {
			b.WriteString("  " + k.String() + "\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteMarkdown renders c as GitHub flavoured markdown tables.
func WriteMarkdown(w io.Writer, c *Comparison, opts ReportOptions) error {
	bl, cl := opts.labels()
	var b strings.Builder
	for gi, g := range c.Groups() {
		if gi > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "### %s\n\n", opts.title(g.Family))
		fmt.Fprintf(&b, "| Size | Dim | Type | %s | %s | Change | |\n", bl, cl)
		b.WriteString("|-----:|----:|:-----|-----:|-----:|-------:|:--|\n")
		for _, r := range g.Rows {
			cand := "missing"
			if r.Status != StatusMissing {
				cand = cell(r.Candidate, c.CandidateMode)
			}
			fmt.Fprintf(&b, "| %d | %d | %s | %s | %s | %+.1f%% | %s |\n",
				r.Key.Size, opts.dim(r.Key), r.Key.Variant,
				cell(r.Baseline, c.BaselineMode), cand, r.PercentChange, opts.flag(r))
		}
	}
	if len(c.Added) > 0 {
		b.WriteString("\n**New in candidate (no baseline):**\n\n")
		for _, k := range c.Added {
			fmt.Fprintf(&b, "- `%s`\n", k)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSummary renders a single run table with one column per variant, the
// layout used while a benchmark run is in progress.
func WriteSummary(w io.Writer, t *Table, opts ReportOptions) error {
	var b strings.Builder
	for fi, family := range t.Families() {
		if fi > 0 {
			b.WriteString("\n")
		}
		var sizes []int
		seen := make(map[int]bool)
		present := make(map[Variant]bool)
		for _, k := range t.Keys() {
			if k.Family != family {
				continue
			}
			present[k.Variant] = true
			if !seen[k.Size] {
				seen[k.Size] = true
				sizes = append(sizes, k.Size)
			}
		}
		var variants []Variant
		for _, v := range Variants {
			if present[v] {
				variants = append(variants, v)
			}
		}

		b.WriteString(opts.heading("=== "+opts.title(family)+" ===") + "\n")
		header := fmt.Sprintf("%6s %6s", "Size", "Dim")
		for _, v := range variants {
			header += fmt.Sprintf(" %*s", cellWidth, strings.ToUpper(string(v)))
		}
		b.WriteString(header + "\n")
		b.WriteString(strings.Repeat("-", len(header)) + "\n")
		for _, size := range sizes {
			fmt.Fprintf(&b, "%6d %6d", size, opts.dim(Key{Family: family, Size: size}))
			for _, v := range variants {
				s, ok := t.Get(Key{Family: family, Size: size, Variant: v})
				text := "-"
				if ok {
					text = cell(s, t.Mode)
				}
				fmt.Fprintf(&b, " %*s", cellWidth, text)
			}
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSkipped lists configurations that produced no samples.
func WriteSkipped(w io.Writer, skipped []Skip) error {
	if len(skipped) == 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Skipped %d configuration(s):\n", len(skipped))
	for _, s := range skipped {
		fmt.Fprintf(&b, "  %s (%d attempt(s)): %s\n", s.Key, s.Attempts, s.Reason)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
