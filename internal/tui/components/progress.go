package components

import (
	"fmt"
	"math"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 30

// Progress renders how many queues have been reconciled.
type Progress struct {
	bar   progress.Model
	total int
}

var labelStyle = lipgloss.NewStyle().Bold(true)

// NewProgress creates a progress component for the given total.
func NewProgress(total int) Progress {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = barWidth
	return Progress{bar: bar, total: total}
}

// View renders the progress bar for the provided completion count.
func (p Progress) View(completed int) string {
	ratio := 0.0
	if p.total > 0 {
		ratio = math.Min(1.0, float64(completed)/float64(p.total))
	}
	label := labelStyle.Render(fmt.Sprintf("%d/%d", completed, p.total))
	return lipgloss.JoinHorizontal(lipgloss.Left, label, " ", p.bar.ViewAs(ratio))
}
