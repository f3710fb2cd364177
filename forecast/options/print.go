package options

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/aouyang1/go-inflation-forecaster/forecast/util"
)

// printSection writes a titled right aligned table one level below the title. Cells are tab
// separated. A section without rows is printed as "title: None".
func printSection(p *util.Printer, level int, title string, header []string, rows [][]string) {
	if len(rows) == 0 {
		p.Linef(level, "%s: None", title)
		return
	}
	p.Linef(level, "%s:", title)
	if p.Err() != nil {
		return
	}

	tbl := tabwriter.NewWriter(p.Writer(), 0, 0, 1, ' ', tabwriter.AlignRight)
	lead := p.Lead(level + 1)
	for _, cells := range append([][]string{header}, rows...) {
		fmt.Fprintf(tbl, "%s%s\t\n", lead, strings.Join(cells, "\t"))
	}
	p.Fail(tbl.Flush())
}
