package util

import (
	"fmt"
	"strings"
)

// StatsVisualization provides visual representation of block statistics
type StatsVisualization struct {
	Width int // Width of the visualization bar
}

// NewStatsVisualization creates a new stats visualization
func NewStatsVisualization(width int) *StatsVisualization {
	if width <= 0 {
		width = 50 // Default width
	}
	return &StatsVisualization{Width: width}
}

// RenderDuplicateBar renders the duplicate share of a stream's blocks
func (sv *StatsVisualization) RenderDuplicateBar(ratio float64) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	duplicateBlocks := int(ratio * float64(sv.Width))
	uniqueBlocks := sv.Width - duplicateBlocks

	bar := "["
	bar += strings.Repeat("█", duplicateBlocks) // Full blocks for duplicates
	bar += strings.Repeat("░", uniqueBlocks)    // Light blocks for unique
	bar += "]"

	return bar
}

// RenderStatsSummary renders a complete stats summary with visuals
func (sv *StatsVisualization) RenderStatsSummary(stats DedupStats) string {
	var output strings.Builder

	output.WriteString("Block Statistics:\n")
	output.WriteString(fmt.Sprintf("Blocks:     %d\n", stats.Blocks))
	output.WriteString(fmt.Sprintf("Duplicates: %d (estimated)\n", stats.Duplicates))

	output.WriteString(fmt.Sprintf("Ratio:      %s %.1f%%\n",
		sv.RenderDuplicateBar(stats.DuplicateRatio),
		stats.DuplicateRatio*100))

	// Legend
	output.WriteString("            █ Duplicate  ░ Unique\n")

	return output.String()
}
