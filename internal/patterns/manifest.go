package patterns

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteManifest renders the human-readable pattern manifest as markdown
func WriteManifest(w io.Writer, seed int64, fiscalYear int) error {
	bw := bufio.NewWriter(w)
	p := func(format string, args ...interface{}) {
		fmt.Fprintf(bw, format+"\n", args...)
	}

	p("# Embedded MJE Patterns in Synthetic Data")
	p("")
	p("Generated with seed: %d", seed)
	p("Fiscal year: %d", fiscalYear)
	p("")
	p("These patterns are deliberately embedded for detection verification.")
	p("Counts are posting lines matched by the detection filter.")
	p("")
	p("| # | Pattern | User | Doc Type | Frequency | Accounts | Expected Count |")
	p("|---|---------|------|----------|-----------|----------|----------------|")
	for i, pat := range table {
		p("| %d | **%s**: %s | %s | %s | %s | %s | %d |",
			i+1, pat.ID, pat.Description, pat.User, pat.DocType, pat.Frequency,
			strings.Join(pat.Accounts(), ", "), pat.ExpectedCount)
	}

	p("")
	p("## Detection Filters")
	p("")
	for _, pat := range table {
		p("### %s", pat.ID)
		p("")
		for _, d := range pat.Detections {
			p("- %s: %s, expect at least %d", d.Label, describe(d.Filter), d.Expected)
		}
		if len(pat.Months) > 0 {
			p("- periods: %s", joinInts(pat.Months))
		}
		p("")
	}

	p("## Key Person Risk Signal")
	p("")
	p("- **%s** is the highest-volume MJE preparer", KeyPersonUser)
	p("- Books recurring identical, reclass and accrual/reversal entries plus 3-5 misc MJEs per month")
	p("- Manual entry lines exceed the next preparer by at least %.1fx", KeyPersonRatio)
	pairs := make([]string, len(KeyPersonPairs))
	for i, pair := range KeyPersonPairs {
		pairs[i] = pair[0] + "/" + pair[1]
	}
	p("- Rotating account pairs: %s", strings.Join(pairs, ", "))
	p("")
	p("## Account Activity Patterns")
	p("")
	p("- Acquired block (MM-Acquired) about 60%% inactive")
	p("- Discontinued line, legacy four-digit and migration accounts entirely inactive")
	p("- 5 explicitly dormant accounts (190000, 190100, 290000, 490000, 590000)")
	p("- State-level premium and loss detail accounts by LOB")
	p("- 4 LOBs: AUTO, HOME, COMML, WC with different volume profiles")

	return bw.Flush()
}

func describe(f Filter) string {
	var parts []string
	if f.User != "" {
		parts = append(parts, "user="+f.User)
	}
	if len(f.Accounts) > 0 {
		parts = append(parts, "account in ("+strings.Join(f.Accounts, ", ")+")")
	}
	if len(f.Categories) > 0 {
		cats := make([]string, len(f.Categories))
		for i, c := range f.Categories {
			cats[i] = string(c)
		}
		parts = append(parts, "category="+strings.Join(cats, "|"))
	}
	if f.TextContains != "" {
		parts = append(parts, fmt.Sprintf("text contains %q", f.TextContains))
	}
	if !f.Amount.IsZero() {
		parts = append(parts, "amount="+f.Amount.StringFixed(2))
	}
	return strings.Join(parts, ", ")
}

func joinInts(values []int) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(s, ", ")
}
