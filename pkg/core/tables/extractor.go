// Package tables reconstructs tabular data embedded as pipe-delimited text
// blocks. It deliberately emits raw grids: header detection, wrapped-cell
// merging, and column typing belong to the schema-aware downstream consumer.
package tables

import (
	"log"
	"strings"

	"filing_snapshot/pkg/models"
)

// Character budgets for the prose captured around each block. Enough for the
// downstream consumer to disambiguate what the table represents without
// dragging in neighboring tables.
const (
	preContextChars  = 200
	postContextChars = 100

	preContextLookbackLines   = 20
	postContextLookaheadLines = 10
)

// ExtractRawTables scans a text span for contiguous blocks of pipe-delimited
// lines and returns each as a raw grid plus surrounding context, in document
// order. A line belongs to a block when, after trimming, it both starts and
// ends with '|'. Single-row blocks (usually |---| separator noise) are
// dropped. Grids keep the raw cell count per row, empty cells included.
func ExtractRawTables(text string) []models.TableBlock {
	var blocks []models.TableBlock
	if text == "" {
		return blocks
	}

	lines := strings.Split(text, "\n")
	total := len(lines)
	i := 0

	for i < total {
		if !isPipeRow(lines[i]) {
			i++
			continue
		}

		// Pre-context: the tail of the prose immediately before the block.
		ctxStart := i - preContextLookbackLines
		if ctxStart < 0 {
			ctxStart = 0
		}
		preText := strings.Join(lines[ctxStart:i], "\n")
		if len(preText) > preContextChars {
			preText = preText[len(preText)-preContextChars:]
		}

		// The block itself: raw split, outer pipes stripped, cells trimmed.
		var grid [][]string
		j := i
		for j < total && isPipeRow(lines[j]) {
			row := strings.TrimSpace(lines[j])
			cells := strings.Split(strings.Trim(row, "|"), "|")
			for k := range cells {
				cells[k] = strings.TrimSpace(cells[k])
			}
			grid = append(grid, cells)
			j++
		}
		i = j

		// Post-context: the head of the prose immediately after the block.
		ctxEnd := j + postContextLookaheadLines
		if ctxEnd > total {
			ctxEnd = total
		}
		postText := strings.Join(lines[j:ctxEnd], "\n")
		if len(postText) > postContextChars {
			postText = postText[:postContextChars]
		}

		if len(grid) > 1 {
			blocks = append(blocks, models.TableBlock{
				Grid:        grid,
				PreContext:  preText,
				PostContext: postText,
			})
		}
	}

	if len(blocks) > 0 {
		log.Printf("[Tables] Extracted %d raw table blocks", len(blocks))
	}
	return blocks
}

func isPipeRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	return len(trimmed) >= 2 && strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|")
}
