package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"kernbench/internal/benchmark"
	"kernbench/internal/config"
	"kernbench/internal/ui"
)

// reportFlags control how a comparison is rendered and judged.
type reportFlags struct {
	format     string
	pretty     bool
	threshold  float64
	failOnSlow bool
	width      int
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "text", "Output format: text or markdown")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "Render markdown for the terminal")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 10.0, "Percent change flagged as SLOWER or FASTER")
	cmd.Flags().BoolVar(&f.failOnSlow, "fail-on-regression", false, "Exit non-zero when a configuration is SLOWER or missing")
	cmd.Flags().IntVar(&f.width, "width", 100, "Wrap width for --pretty")
}

// options applies --threshold over the configured threshold.
func (f *reportFlags) options(cmd *cobra.Command, s *config.Settings) (benchmark.ReportOptions, error) {
	if cmd.Flags().Changed("threshold") {
		if f.threshold < 0 {
			return benchmark.ReportOptions{}, fmt.Errorf("--threshold must not be negative, got %v", f.threshold)
		}
		s.Threshold = f.threshold
	}
	return reportOptions(s), nil
}

// write renders c and, with --fail-on-regression, turns regressions into an
// error.
func (f *reportFlags) write(w io.Writer, c *benchmark.Comparison, opts benchmark.ReportOptions) error {
	switch strings.ToLower(f.format) {
	case "markdown", "md":
		opts.Heading = nil
		var b strings.Builder
		if err := benchmark.WriteMarkdown(&b, c, opts); err != nil {
			return err
		}
		text := b.String()
		if f.pretty {
			rendered, err := ui.RenderMarkdown(text, f.width)
			if err != nil {
				return err
			}
			text = rendered
		}
		if _, err := io.WriteString(w, text); err != nil {
			return err
		}
	case "text":
		var b strings.Builder
		if err := benchmark.WriteText(&b, c, opts); err != nil {
			return err
		}
		if _, err := io.WriteString(w, ui.HighlightFlags(b.String())); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (want text or markdown)", f.format)
	}

	if !f.failOnSlow {
		return nil
	}
	slow := c.Regressions(opts.Threshold)
	missing := c.Missing()
	if len(slow)+len(missing) == 0 {
		return nil
	}
	var lines []string
	for _, r := range slow {
		lines = append(lines, r.String())
	}
	for _, r := range missing {
		lines = append(lines, r.String())
	}
	return fmt.Errorf("%d regression(s) above %.1f%%:\n  %s", len(lines), opts.Threshold, strings.Join(lines, "\n  "))
}

var compareReport reportFlags

var compareCmd = &cobra.Command{
	Use:   "compare <baseline.csv> <candidate.csv>",
	Short: "Compare two saved result tables",
	Long: `Joins two result tables on family, size and format and prints the percent
change of each baseline configuration, grouped by family. Configurations
missing from the candidate are marked; configurations only in the candidate
are listed separately. A table that cannot be parsed is an error.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareReport.register(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	baseline, err := benchmark.Load(args[0])
	if err != nil {
		return err
	}
	candidate, err := benchmark.Load(args[1])
	if err != nil {
		return err
	}

	s, err := config.Current()
	if err != nil {
		return err
	}
	opts, err := compareReport.options(cmd, s)
	if err != nil {
		return err
	}
	opts.BaselineLabel = "Baseline"
	opts.CandidateLabel = "Candidate"

	return compareReport.write(cmd.OutOrStdout(), benchmark.Compare(baseline, candidate), opts)
}
