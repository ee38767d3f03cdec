package tables

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTML -> pipe-table conversion using a virtual grid, so that exhibits still
// in HTML form can feed ExtractRawTables. Colspan/rowspan cells are exploded
// into placeholder cells to keep column geometry stable; cell text is carried
// verbatim (no number normalization here, the grid stays raw).

// ConvertDocumentTables extracts every <table> in an HTML fragment and
// renders each as a pipe-delimited text block, in document order.
func ConvertDocumentTables(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var rendered []string
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if block := renderTable(table); block != "" {
			rendered = append(rendered, block)
		}
	})
	return rendered
}

// ConvertTableToPipes renders a single HTML table as pipe-delimited text.
// Returns "" for fragments with no rows.
func ConvertTableToPipes(tableHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(tableHTML))
	if err != nil {
		return ""
	}
	return renderTable(doc.Selection)
}

func renderTable(table *goquery.Selection) string {
	rows := table.Find("tr")
	rowCount := rows.Length()
	if rowCount == 0 {
		return ""
	}

	// Pre-scan for the widest row, counting colspans.
	maxCols := 0
	rows.Each(func(_ int, tr *goquery.Selection) {
		cols := 0
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cols += spanAttr(cell, "colspan")
		})
		if cols > maxCols {
			maxCols = cols
		}
	})
	if maxCols == 0 {
		return ""
	}

	// Populate the virtual grid, spilling spans into placeholder cells.
	grid := make([][]string, rowCount)
	filled := make([][]bool, rowCount)
	for i := range grid {
		grid[i] = make([]string, maxCols)
		filled[i] = make([]bool, maxCols)
	}

	rowIdx := 0
	rows.Each(func(_ int, tr *goquery.Selection) {
		colIdx := 0
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			for colIdx < maxCols && filled[rowIdx][colIdx] {
				colIdx++
			}
			colspan := spanAttr(cell, "colspan")
			rowspan := spanAttr(cell, "rowspan")
			text := cellText(cell)

			for r := 0; r < rowspan && rowIdx+r < rowCount; r++ {
				for c := 0; c < colspan && colIdx+c < maxCols; c++ {
					if r == 0 && c == 0 {
						grid[rowIdx][colIdx] = text
					}
					filled[rowIdx+r][colIdx+c] = true
				}
			}
			colIdx += colspan
		})
		rowIdx++
	})

	var sb strings.Builder
	sb.WriteString("\n")
	for _, row := range grid {
		sb.WriteString("|")
		for _, cell := range row {
			sb.WriteString(" " + cell + " |")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func spanAttr(cell *goquery.Selection, name string) int {
	n, err := strconv.Atoi(cell.AttrOr(name, "1"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func cellText(cell *goquery.Selection) string {
	text := strings.TrimSpace(cell.Text())
	text = strings.ReplaceAll(text, "\n", " ")
	// Pipes inside cells would corrupt the grid geometry downstream.
	return strings.ReplaceAll(text, "|", "&#124;")
}
