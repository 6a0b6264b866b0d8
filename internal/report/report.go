package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/signalnine/gapbench/internal/analysis"
)

// Formats accepted by Generate and WriteSpread.
var Formats = []string{"table", "markdown", "json", "csv"}

// Generate writes the result of an analysis pass in the given format. The
// csv format carries the distributions only: one row per threshold, one
// column per group.
func Generate(res *analysis.Result, format string, w io.Writer) error {
	switch format {
	case "markdown":
		return writeMarkdown(res, w)
	case "json":
		return writeJSON(res, w)
	case "csv":
		return writeCSV(res, w)
	case "table", "":
		return writeTable(res, w)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeTable(res *analysis.Result, w io.Writer) error {
	fmt.Fprintf(w, "Instances: %d (unresolved: %d)\n\n", res.Instances, res.Unresolved)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tRUNS\tSOLVED\tINFEASIBLE\tUNSOLVED\tSKIPPED\tMEAN GAP")
	fmt.Fprintln(tw, strings.Repeat("-", 80))
	for _, g := range res.Groups {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%.4f\n",
			g.Name, g.Runs, g.Solved, g.Infeasible, g.Unsolved, g.Skipped, g.MeanGap)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "GAP <=\t%s\n", strings.Join(groupNames(res), "\t"))
	for i, t := range res.Thresholds {
		fmt.Fprintf(tw, "%s\t%s\n", formatThreshold(t), strings.Join(fractionsAt(res, i, "%.3f"), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	writeDiagnostics(res.Diagnostics, w, "")
	return nil
}

func writeMarkdown(res *analysis.Result, w io.Writer) error {
	fmt.Fprintf(w, "**Instances:** %d (unresolved: %d)\n\n", res.Instances, res.Unresolved)

	fmt.Fprintln(w, "| Group | Runs | Solved | Infeasible | Unsolved | Skipped | Mean Gap |")
	fmt.Fprintln(w, "|---|---|---|---|---|---|---|")
	for _, g := range res.Groups {
		fmt.Fprintf(w, "| %s | %d | %d | %d | %d | %d | %.4f |\n",
			g.Name, g.Runs, g.Solved, g.Infeasible, g.Unsolved, g.Skipped, g.MeanGap)
	}

	names := groupNames(res)
	fmt.Fprintf(w, "\n| Gap <= | %s |\n", strings.Join(names, " | "))
	fmt.Fprintf(w, "|---|%s\n", strings.Repeat("---|", len(names)))
	for i, t := range res.Thresholds {
		fmt.Fprintf(w, "| %s | %s |\n", formatThreshold(t), strings.Join(fractionsAt(res, i, "%.3f"), " | "))
	}

	writeDiagnostics(res.Diagnostics, w, "- ")
	return nil
}

func writeJSON(res *analysis.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func writeCSV(res *analysis.Result, w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Write(append([]string{"threshold"}, groupNames(res)...))
	for i, t := range res.Thresholds {
		cw.Write(append([]string{formatThreshold(t)}, fractionsAt(res, i, "%g")...))
	}
	cw.Flush()
	return cw.Error()
}

func writeDiagnostics(diags []analysis.Diagnostic, w io.Writer, bullet string) {
	if len(diags) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d logs need attention:\n", len(diags))
	for _, d := range diags {
		fmt.Fprintf(w, "%s[%s] %s: %s\n", bullet, d.Kind, d.Path, d.Err)
	}
}

func groupNames(res *analysis.Result) []string {
	names := make([]string, len(res.Groups))
	for i, g := range res.Groups {
		names[i] = g.Name
	}
	return names
}

func fractionsAt(res *analysis.Result, i int, verb string) []string {
	out := make([]string, len(res.Groups))
	for j, g := range res.Groups {
		if i < len(g.CDF) {
			out[j] = fmt.Sprintf(verb, g.CDF[i].Fraction)
		}
	}
	return out
}

func formatThreshold(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}

// WriteSpread writes per-instance best and mean costs of one group.
func WriteSpread(points []analysis.SpreadPoint, format string, w io.Writer) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(points)
	case "csv":
		cw := csv.NewWriter(w)
		cw.Write([]string{"instance", "runs", "min", "mean"})
		for _, p := range points {
			cw.Write([]string{p.Instance, strconv.Itoa(p.Runs), strconv.FormatInt(p.Min, 10), strconv.FormatFloat(p.Mean, 'f', -1, 64)})
		}
		cw.Flush()
		return cw.Error()
	case "markdown":
		fmt.Fprintln(w, "| Instance | Runs | Min | Mean | Mean/Min |")
		fmt.Fprintln(w, "|---|---|---|---|---|")
		for _, p := range points {
			fmt.Fprintf(w, "| %s | %d | %d | %.2f | %s |\n", p.Instance, p.Runs, p.Min, p.Mean, ratio(p))
		}
		return nil
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INSTANCE\tRUNS\tMIN\tMEAN\tMEAN/MIN")
		for _, p := range points {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%s\n", p.Instance, p.Runs, p.Min, p.Mean, ratio(p))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func ratio(p analysis.SpreadPoint) string {
	if p.Min <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.3f", p.Mean/float64(p.Min))
}
