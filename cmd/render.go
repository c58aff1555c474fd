package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"propgen/internal/generator"
	"propgen/internal/types"
)

const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorReset = "\033[0m"
)

const rule = "--------------------------------------------------------------------------------"

// renderRun prints the outcome of one generation run.
func renderRun(w io.Writer, res generator.Result, s generator.Summary) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Run               : %s\n", res.RunID)
	fmt.Fprintf(w, "Input             : %s (%d grid squares)\n", res.Input, res.GridEntries)
	if res.Output != "" {
		fmt.Fprintf(w, "Output            : %s\n", res.Output)
	}
	fmt.Fprintf(w, "Records           : %s%d%s in %v\n", colorGreen, s.Count, colorReset, res.Duration.Truncate(time.Millisecond))
	fmt.Fprintf(w, "Grid squares used : %d\n", s.Grids)
	fmt.Fprintln(w)
	renderSummary(w, s)
	fmt.Fprintln(w, rule)
}

func renderSummary(w io.Writer, s generator.Summary) {
	for _, tc := range s.ByType {
		share := 0.0
		if s.Count > 0 {
			share = float64(tc.Count) / float64(s.Count)
		}
		fmt.Fprintf(w, "  %-16s: %5d  %s\n", tc.Type, tc.Count, strings.Repeat("#", int(share*40+0.5)))
	}
	if s.Count == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Value min / max   : %s / %s\n", money(s.MinValue), money(s.MaxValue))
	fmt.Fprintf(w, "Value mean        : %s (σ %s)\n", money(s.MeanValue), money(s.StdDev))
}

// recordLine is the one-line form used in browse lists.
func recordLine(r types.PropertyRecord) string {
	return fmt.Sprintf("%6d | %-12s | %14s | M%d N%d S%d | %s",
		r.ID, r.Type, money(r.Value), r.MunicipalityID, r.NeighborhoodID, r.SectorID, r.GridKey())
}

// renderRecord prints the detail view of one record. under is set when the
// record is undervalued against its neighborhood.
func renderRecord(w io.Writer, r types.PropertyRecord, under *generator.UndervaluedResult) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Property ID       : %d\n", r.ID)
	fmt.Fprintf(w, "Type              : %s\n", r.Type)

	tag := ""
	if under != nil {
		tag = fmt.Sprintf(" %s[Undervalued: mean %s, σ %s over %d comps]%s",
			colorRed, money(under.Mean), money(under.StdDev), under.NeighborCount, colorReset)
	}
	fmt.Fprintf(w, "Value             : %s%s\n", money(r.Value), tag)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Municipality      : %d\n", r.MunicipalityID)
	fmt.Fprintf(w, "Neighborhood      : %d\n", r.NeighborhoodID)
	fmt.Fprintf(w, "Sector            : %d\n", r.SectorID)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Grid (USNG)       : %s\n", r.GridKey())
	keys := make([]string, 0, len(r.Grid))
	for k := range r.Grid {
		if k != "usng" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-16s: %v\n", k, r.Grid[k])
	}
	fmt.Fprintln(w, rule)
}

// money formats v as dollars with thousands separators.
func money(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
