// Package report turns estimate rows into the CSV, Markdown and PDF outputs.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"komisearch/internal/domain"
)

type Table struct {
	Title  string
	Header []string
	Rows   [][]string
}

func signed(v float64) string {
	return fmt.Sprintf("%+.1f", v)
}

// BuildTables groups rows into the report tables:
//   - board size komi: the first empty-board row per size
//   - handicap komi: handicap rows with stones, with their value over the empty board
//   - single stone values: one table per size, relative to the empty board
func BuildTables(rows []domain.Row) []Table {
	empty := map[int]domain.Row{}
	var sizes []int
	for _, r := range rows {
		if r.NumStones != 0 {
			continue
		}
		if _, ok := empty[r.Size]; !ok {
			empty[r.Size] = r
			sizes = append(sizes, r.Size)
		}
	}

	relative := func(r domain.Row) (string, string) {
		base, ok := empty[r.Size]
		if !ok {
			return "", ""
		}
		return signed(r.Komi - base.Komi), signed(r.Neural - base.Neural)
	}

	sizeTable := Table{
		Title:  "Board size komi",
		Header: []string{"Size", "Komi", "Neural", "Winrate"},
	}
	for _, size := range sizes {
		r := empty[size]
		sizeTable.Rows = append(sizeTable.Rows, []string{
			fmt.Sprintf("%dx%d", size, size), formatFloat(r.Komi), formatFloat(r.Neural), fmt.Sprintf("%.3f", r.Winrate),
		})
	}

	handicapTable := Table{
		Title:  "Handicap komi",
		Header: []string{"Size", "Stones", "Handicap", "Komi", "Komi - empty", "Neural", "Winrate"},
	}
	singles := map[int]*Table{}
	var singleSizes []int
	for _, r := range rows {
		switch {
		case r.Handicap && r.NumStones > 0:
			delta, _ := relative(r)
			handicapTable.Rows = append(handicapTable.Rows, []string{
				strconv.Itoa(r.Size), r.Stones, strconv.Itoa(r.NumStones), formatFloat(r.Komi), delta,
				formatFloat(r.Neural), fmt.Sprintf("%.3f", r.Winrate),
			})
		case !r.Handicap && r.NumStones == 1:
			t, ok := singles[r.Size]
			if !ok {
				t = &Table{
					Title:  fmt.Sprintf("Single stone values %dx%d", r.Size, r.Size),
					Header: []string{"Stone", "Komi", "Komi - empty", "Neural", "Neural - empty"},
				}
				singles[r.Size] = t
				singleSizes = append(singleSizes, r.Size)
			}
			dk, dn := relative(r)
			t.Rows = append(t.Rows, []string{r.Stones, formatFloat(r.Komi), dk, formatFloat(r.Neural), dn})
		}
	}

	tables := []Table{sizeTable, handicapTable}
	for _, size := range singleSizes {
		tables = append(tables, *singles[size])
	}
	return tables
}

func WriteMarkdown(w io.Writer, title string, tables []Table) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", title)
	for _, t := range tables {
		fmt.Fprintf(&sb, "\n## %s\n\n", t.Title)
		if len(t.Rows) == 0 {
			sb.WriteString("No data.\n")
			continue
		}
		sb.WriteString("| " + strings.Join(t.Header, " | ") + " |\n")
		sep := make([]string, len(t.Header))
		for i := range sep {
			sep[i] = "---"
		}
		sb.WriteString("|" + strings.Join(sep, "|") + "|\n")
		for _, row := range t.Rows {
			sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
