package reporter

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"golang-synthetic-ledger/internal/models"
	"golang-synthetic-ledger/internal/patterns"
	"golang-synthetic-ledger/internal/validator"
	"golang-synthetic-ledger/pkg/logger"
)

// maxPreparers limits the preparer table in the console summary
const maxPreparers = 10

type palette struct {
	title  *color.Color
	header *color.Color
	value  *color.Color
	alert  *color.Color
	ok     *color.Color
}

func newPalette(useColors bool) *palette {
	p := &palette{
		title:  color.New(color.FgCyan, color.Bold),
		header: color.New(color.Bold),
		value:  color.New(color.FgWhite),
		alert:  color.New(color.FgYellow, color.Bold),
		ok:     color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.title, p.header, p.value, p.alert, p.ok} {
		if useColors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// WriteSummary prints dataset counts, manual entry lines by preparer and the
// lines found for each embedded pattern
func WriteSummary(w io.Writer, ds *models.Dataset, useColors bool) error {
	logger.WithComponent("reporter").WithField("output", getWriterDescription(w)).Debug("Writing summary")

	p := newPalette(useColors)
	ew := &errWriter{w: w}

	p.title.Fprintf(ew, "SYNTHETIC LEDGER SUMMARY\n")
	fmt.Fprintf(ew, "Seed: %d  Profile: %s  Fiscal year: %d\n\n", ds.Seed, ds.Profile, ds.FiscalYear)

	p.header.Fprintf(ew, "=== COUNTS ===\n")
	rows := []struct {
		label string
		value int
	}{
		{"Documents", ds.DocumentCount()},
		{"Posting lines", len(ds.Postings)},
		{"Accounts", len(ds.Accounts)},
		{"Inactive accounts", ds.InactiveAccounts()},
		{"Trial balance rows", len(ds.TrialBalance)},
	}
	for _, r := range rows {
		fmt.Fprintf(ew, "%-22s", r.label+":")
		p.value.Fprintf(ew, "%12d\n", r.value)
	}
	fmt.Fprintln(ew)

	p.header.Fprintf(ew, "=== MJE LINES BY PREPARER ===\n")
	counts := validator.ManualEntryCounts(ds.Postings)
	for i, c := range counts {
		if i == maxPreparers {
			fmt.Fprintf(ew, "  ... and %d more\n", len(counts)-maxPreparers)
			break
		}
		line := fmt.Sprintf("  %-10s %8d", c.User, c.Lines)
		if c.User == patterns.KeyPersonUser && i == 0 {
			p.alert.Fprintf(ew, "%s  key person\n", line)
			continue
		}
		fmt.Fprintln(ew, line)
	}
	fmt.Fprintln(ew)

	p.header.Fprintf(ew, "=== EMBEDDED PATTERNS ===\n")
	for _, pat := range patterns.All() {
		for _, d := range pat.Detections {
			found := patterns.Count(ds.Postings, d.Filter)
			fmt.Fprintf(ew, "  %-26s %-22s expected %6d  found ", pat.ID, d.Label, d.Expected)
			if found >= d.Expected {
				p.ok.Fprintf(ew, "%6d\n", found)
			} else {
				p.alert.Fprintf(ew, "%6d\n", found)
			}
		}
	}

	return ew.err
}

// errWriter keeps the first write error so the summary can be printed without
// checking every call
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(b []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(b)
	e.err = err
	return n, err
}
