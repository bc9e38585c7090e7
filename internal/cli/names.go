package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

func RunNames(cmd *cobra.Command, args []string) error {
	res, err := compileArgs(cmd, args)
	if err != nil {
		return err
	}

	rows := [][]string{{"KEY", "NAME", "LOCATION"}}
	for _, k := range res.Reachable() {
		loc := "-"
		if it := res.Arena.Get(k); it.Location != nil {
			loc = it.Location.String()
		}
		rows = append(rows, []string{k.String(), res.Name(k), loc})
	}
	writeTable(cmd.OutOrStdout(), rows)
	return nil
}

// writeTable aligns columns by display width; the last column is not padded.
func writeTable(w io.Writer, rows [][]string) {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, row := range rows {
		var b strings.Builder
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		fmt.Fprintln(w, b.String())
	}
}
