package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"propgen/internal/config"
	"propgen/internal/generator"
	"propgen/internal/recordstore"
	"propgen/internal/types"
)

func runBrowse(args []string) int {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	var o options
	fs.StringVar(&o.envFile, "env", "", "env file to load (default .env when present)")
	fs.StringVar(&o.input, "in", "", "generated JSON file (default PROPGEN_OUTPUT)")
	fs.BoolVar(&o.undervalued, "undervalued", false, "only list records valued below their neighborhood")
	fs.BoolVar(&o.picks, "picks", false, "only list saved picks")
	if code, ok := parse(fs, args); !ok {
		return code
	}

	cfg, err := config.Load(o.envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitFailure
	}
	path := cfg.Generate.Output
	if flagSet(fs, "in") {
		path = o.input
	}

	records, err := recordstore.ReadJSONFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load records: %v\n", err)
		return exitInput
	}
	var picks []int
	if o.picks {
		if picks, err = loadPicks(cfg.Generate.PicksFile); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load picks: %v\n", err)
			return exitFailure
		}
	}

	under := undervaluedByID(records)
	view := browseView(records, under, picks, o)
	if len(view) == 0 {
		switch {
		case o.picks:
			fmt.Println("No picks saved yet. Browse without -picks and press Enter on a record to save it.")
		case o.undervalued:
			fmt.Println("No undervalued records in this batch.")
		default:
			fmt.Println("No records.")
		}
		return exitOK
	}

	lines := make([]string, len(view))
	for i, r := range view {
		lines[i] = recordLine(r)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		for _, l := range lines {
			fmt.Println(l)
		}
		return exitOK
	}

	interactiveSelect(lines, func(i int) {
		rec := view[i]
		var u *generator.UndervaluedResult
		if res, ok := under[rec.ID]; ok {
			u = &res
		}
		renderRecord(os.Stdout, rec, u)
		if o.picks || !confirm("Save to picks?") {
			return
		}
		added, err := savePick(cfg.Generate.PicksFile, rec.ID)
		switch {
		case err != nil:
			fmt.Printf("Failed to save pick: %v\n", err)
		case added:
			fmt.Println("Pick saved.")
		default:
			fmt.Println("Already picked.")
		}
	})
	return exitOK
}

func undervaluedByID(records []types.PropertyRecord) map[int]generator.UndervaluedResult {
	out := make(map[int]generator.UndervaluedResult)
	for _, u := range generator.Undervalued(records) {
		out[u.ID] = u
	}
	return out
}

// browseView picks the records to list. With -picks the saved order is kept
// and ids missing from the batch are skipped.
func browseView(records []types.PropertyRecord, under map[int]generator.UndervaluedResult, picks []int, o options) []types.PropertyRecord {
	if o.picks {
		byID := make(map[int]types.PropertyRecord, len(records))
		for _, r := range records {
			byID[r.ID] = r
		}
		var out []types.PropertyRecord
		for _, id := range picks {
			r, ok := byID[id]
			if !ok {
				continue
			}
			if _, low := under[id]; o.undervalued && !low {
				continue
			}
			out = append(out, r)
		}
		return out
	}

	if !o.undervalued {
		return records
	}
	var out []types.PropertyRecord
	for _, r := range records {
		if _, ok := under[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}
