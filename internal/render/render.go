// Package render produces the read-only terminal views over pipeline and
// artifact state.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/decklens/decklens-cli/internal/model"
	"github.com/decklens/decklens-cli/pkg/deckapi"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Faint(true)
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	runningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	headerStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
)

// numPrinter formats scores and currency with locale-aware separators.
var numPrinter = message.NewPrinter(language.English)

func statusGlyph(status model.StageStatus) string {
	switch status {
	case model.StageCompleted:
		return completedStyle.Render("✓")
	case model.StageRunning:
		return runningStyle.Render("●")
	case model.StageFailed:
		return failedStyle.Render("✗")
	default:
		return dimStyle.Render("○")
	}
}

// StageBoard renders the six-stage progress board for one snapshot.
func StageBoard(snap model.PipelineSnapshot) string {
	var b strings.Builder

	for _, id := range model.StageOrder {
		st := snap.Stages[id]
		line := fmt.Sprintf("%s %-26s %3d%%", statusGlyph(st.Status), st.Name, st.Progress)
		if id == snap.CurrentStage {
			line = runningStyle.Render(line)
		}
		if st.ErrorMessage != "" {
			line += failedStyle.Render("  " + st.ErrorMessage)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(OverallLine(snap))
	return b.String()
}

// OverallLine renders the aggregate pipeline status.
func OverallLine(snap model.PipelineSnapshot) string {
	status := string(snap.OverallStatus)
	if status == "" {
		status = "waiting"
	}
	line := fmt.Sprintf("%s %s (%d%%)", titleStyle.Render("Pipeline:"), status, snap.OverallProgress)
	if snap.PollCount > 0 {
		line += dimStyle.Render(fmt.Sprintf("  polls: %d", snap.PollCount))
	}
	if snap.Error != "" {
		line += "\n" + failedStyle.Render("error: "+snap.Error)
	}
	return line
}

// Summary renders the executive summary artifact.
func Summary(s *deckapi.Summary) string {
	if s == nil {
		return dimStyle.Render("summary not available")
	}
	return headerStyle.Render("Executive Summary") + "\n\n" + s.Content + "\n"
}

// Analytics renders the VC-scoring artifact.
func Analytics(a *deckapi.Analytics) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("VC Analytics"))
	b.WriteString("\n\n")
	b.WriteString(numPrinter.Sprintf("Overall score: %.1f / 100\n", a.OverallScore))
	if a.FundingAsk > 0 {
		b.WriteString(numPrinter.Sprintf("Funding ask:   $%.0f\n", a.FundingAsk))
	}
	b.WriteString("\n")
	for _, cat := range a.Categories {
		b.WriteString(numPrinter.Sprintf("  %-22s %5.1f  (weight %.2f)\n", cat.Name, cat.Score, cat.Weight))
		if cat.Rationale != "" {
			b.WriteString(dimStyle.Render("    "+cat.Rationale) + "\n")
		}
	}
	return b.String()
}

// SWOT renders the SWOT artifact.
func SWOT(s *deckapi.SWOT) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("SWOT Analysis"))
	b.WriteString("\n\n")
	writeList(&b, "Strengths", s.Strengths)
	writeList(&b, "Weaknesses", s.Weaknesses)
	writeList(&b, "Opportunities", s.Opportunities)
	writeList(&b, "Threats", s.Threats)
	return b.String()
}

// PESTLE renders the PESTLE artifact.
func PESTLE(p *deckapi.PESTLE) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("PESTLE Analysis"))
	b.WriteString("\n\n")
	writeList(&b, "Political", p.Political)
	writeList(&b, "Economic", p.Economic)
	writeList(&b, "Social", p.Social)
	writeList(&b, "Technological", p.Technological)
	writeList(&b, "Legal", p.Legal)
	writeList(&b, "Environmental", p.Environmental)
	return b.String()
}

// Recommendation renders the investment recommendation artifact.
func Recommendation(r *deckapi.Recommendation) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Investment Recommendation"))
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render("Verdict: ") + r.Verdict)
	b.WriteString(numPrinter.Sprintf("  (confidence %.0f%%)\n\n", r.Confidence*100))
	b.WriteString(r.Reasoning)
	b.WriteString("\n")
	writeList(&b, "Next steps", r.NextSteps)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(titleStyle.Render(title) + "\n")
	for _, item := range items {
		b.WriteString("  • " + item + "\n")
	}
	b.WriteString("\n")
}
