package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/dengue-atlas/internal/dashboard"
	"github.com/sells-group/dengue-atlas/internal/rekap"
	"github.com/sells-group/dengue-atlas/internal/region"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// writeStructured writes v as JSON or YAML. It reports false for the table
// format so the caller can render its own layout.
func writeStructured(out io.Writer, format string, v any) (bool, error) {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return true, eris.Wrap(err, "encode json")
		}
		return true, nil
	case formatYAML:
		// Round-trip through JSON so YAML keys follow the json tags.
		b, err := json.Marshal(v)
		if err != nil {
			return true, eris.Wrap(err, "encode yaml")
		}
		var generic any
		if err := yaml.Unmarshal(b, &generic); err != nil {
			return true, eris.Wrap(err, "encode yaml")
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return true, eris.Wrap(err, "encode yaml")
		}
		return true, enc.Close()
	case formatTable, "":
		return false, nil
	}
	return true, eris.Errorf("unknown format %q (want table, json or yaml)", format)
}

// formatSummary writes the headline figures and tier distribution of a view.
func formatSummary(out io.Writer, v *dashboard.View) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if v.NoData {
		_, _ = fmt.Fprintf(w, "Year:\t%d\n", v.Year)
		_, _ = fmt.Fprintln(w, "No data for this year.")
		_ = w.Flush()
		return
	}
	s := v.Summary
	_, _ = fmt.Fprintf(w, "Year:\t%d\n", v.Year)
	_, _ = fmt.Fprintf(w, "Total cases:\t%d\n", s.TotalCases)
	_, _ = fmt.Fprintf(w, "Deaths:\t%d\n", s.TotalDeaths)
	_, _ = fmt.Fprintf(w, "Active:\t%d\n", s.Active)
	_, _ = fmt.Fprintf(w, "IR per 100k:\t%.2f\n", s.IncidenceRate)
	_, _ = fmt.Fprintf(w, "CFR (%%):\t%.2f\n", s.AverageCFR)
	_, _ = fmt.Fprintf(w, "Kelurahan:\t%d\n", s.Kelurahan)
	_, _ = fmt.Fprintf(w, "Clusters:\t%d\n", v.TotalClusters)
	for _, tc := range v.Distribution {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", tc.Tier.Name, tc.Count)
	}
	if v.BoundaryError != "" {
		_, _ = fmt.Fprintf(w, "Boundary:\tunavailable (%s)\n", v.BoundaryError)
	}
	_ = w.Flush()
}

// formatRows writes data-table rows.
func formatRows(out io.Writer, rows []dashboard.Row) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WILAYAH\tKASUS\tMENINGGAL\tAKTIF\tIR\tCFR\tCLUSTER\tRISIKO")
	_, _ = fmt.Fprintln(w, "-------\t-----\t---------\t-----\t--\t---\t-------\t------")
	for _, r := range rows {
		ir := "-"
		if r.Rate != nil {
			ir = fmt.Sprintf("%.2f", *r.Rate)
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%.2f\t%s\t%s\n",
			r.Region, r.Cases, r.Deaths, r.Active, ir, r.CFR, r.Cluster.String(), r.Tier.Name)
	}
	_ = w.Flush()
}

// formatResolution writes key-resolution diagnostics.
func formatResolution(out io.Writer, res region.Resolution, shadowed []region.Shadow, unmatched int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	switch {
	case res.Found:
		_, _ = fmt.Fprintf(w, "Key:\t%s (%d/%d sampled names)\n", res.Key, res.Matches, res.Sampled)
	case !res.Attempted:
		_, _ = fmt.Fprintln(w, "Key:\tnot attempted (no features or no names)")
	default:
		_, _ = fmt.Fprintln(w, "Key:\tnone of the boundary attributes match region names")
	}
	_, _ = fmt.Fprintf(w, "Unmatched features:\t%d\n", unmatched)
	_ = w.Flush()

	if len(res.Candidates) > 0 {
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "\nCANDIDATE\tSCORE")
		for _, k := range res.Candidates {
			_, _ = fmt.Fprintf(w, "%s\t%d\n", k, res.Scores[k])
		}
		_ = w.Flush()
	}
	if len(res.SampleNames) > 0 {
		_, _ = fmt.Fprintf(out, "\nSample names: %v\n", res.SampleNames)
	}
	for _, s := range shadowed {
		_, _ = fmt.Fprintf(out, "Shadowed: %q record %d hides %d\n", s.Key, s.Kept, s.Shadowed)
	}
}

// formatForecast writes the forecast table and accuracy.
func formatForecast(out io.Writer, v *dashboard.ForecastView) {
	if v.NoData {
		_, _ = fmt.Fprintln(out, "No forecast available.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Model:\t%s\n", v.Model)
	_, _ = fmt.Fprintf(w, "Period:\t%s\n", v.Period)
	_, _ = fmt.Fprintf(w, "Last date:\t%s\n", v.LastDate)
	if v.Evaluation != nil {
		_, _ = fmt.Fprintf(w, "MAPE:\t%.2f%% (%s)\n", v.Evaluation.MAPE, v.Accuracy)
		_, _ = fmt.Fprintf(w, "RMSE:\t%.2f\n", v.Evaluation.RMSE)
	}
	_ = w.Flush()

	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "\nDATE\tPREDICTED\tLOWER\tUPPER")
	for _, r := range v.Future {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Date, optFloat(r.Predicted), optFloat(r.Lower), optFloat(r.Upper))
	}
	_ = w.Flush()
}

// formatRekap writes per-region rows and the monthly trend of a workbook.
func formatRekap(out io.Writer, wb *rekap.Workbook) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WILAYAH\tPENDUDUK\tKASUS\tMENINGGAL\tIR\tCFR")
	for _, r := range wb.Rows {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f\t%.2f\n", r.Region, r.Population, r.Cases, r.Deaths, r.IR, r.CFR)
	}
	cases, deaths, pop := wb.Totals()
	_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t\t\n", rekap.TotalRow, pop, cases, deaths)
	_ = w.Flush()

	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "\nBULAN\tPOSITIF\tMENINGGAL")
	for _, p := range wb.Trend {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\n", p.Month, p.Positive, p.Deaths)
	}
	_ = w.Flush()
}

func optFloat(f *float64) string {
	if f == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *f)
}

// formatSeries writes a monthly series.
func formatSeries(out io.Writer, series []rekap.SeriesPoint) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATE\tPOSITIF")
	for _, p := range series {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", p.Date, p.Value)
	}
	_ = w.Flush()
}
