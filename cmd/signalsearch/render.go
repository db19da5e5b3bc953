package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/poiesic/signalsearch/core"
	"github.com/poiesic/signalsearch/ingestion"
)

// styles holds the lipgloss styles used for command output.
type styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Score   lipgloss.Style
	Author  lipgloss.Style
	Link    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

func newStyles() *styles {
	return &styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		Score:   lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
		Author:  lipgloss.NewStyle().Bold(true),
		Link:    lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("#06B6D4")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
	}
}

// verdictStyle colours a verdict by how likely the work is machine generated.
func (s *styles) verdictStyle(v core.Verdict) lipgloss.Style {
	switch v {
	case core.VerdictLikelyAI:
		return s.Error
	case core.VerdictHighLogic:
		return s.Success
	default:
		return s.Warning
	}
}

func (s *styles) renderResults(w io.Writer, query string, results []*core.SearchResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Title.Render(fmt.Sprintf("Searching for: '%s'", query)))
	if len(results) == 0 {
		fmt.Fprintln(w, "   "+s.Muted.Render("No results found."))
		return
	}
	for _, hit := range results {
		fmt.Fprintf(w, "   %s %s %s\n",
			s.Score.Render(fmt.Sprintf("[%.4f]", hit.Score)),
			hit.Document.SkillSignal,
			s.Muted.Render("(by "+hit.Document.Author+")"))
	}
}

func (s *styles) renderAttributions(w io.Writer, attributions []core.Attribution) {
	fmt.Fprintln(w, s.Title.Render(fmt.Sprintf("Running AI forensics on %d items...", len(attributions))))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-15s | %-10s | %-8s | %-8s | %s\n", "USER", "AI SCORE", "ENTROPY", "COMMENTS", "SIGNAL")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, a := range attributions {
		author := a.Document.Author
		if r := []rune(author); len(r) > 15 {
			author = string(r[:15])
		}
		fmt.Fprintf(w, "%-15s | %-10.2f | %-8.2f | %-8.2f | %s\n",
			author, a.Score, a.Entropy, a.CommentRatio,
			s.verdictStyle(a.Verdict).Render(a.Verdict.String()))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Success.Render("Analysis complete."))
}

func (s *styles) renderFetchReport(w io.Writer, report *ingestion.Report, corpusPath string, stored bool) {
	if len(report.Documents) == 0 {
		fmt.Fprintln(w, s.Warning.Render("No merged pull requests found."))
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, s.Title.Render(fmt.Sprintf("Found %d merged PRs (proof of work):", len(report.Documents))))
	fmt.Fprintln(w)
	for _, doc := range report.Documents {
		fmt.Fprintf(w, "User:  %s\n", s.Author.Render(doc.Author))
		fmt.Fprintf(w, "Work:  %s\n", doc.SkillSignal)
		fmt.Fprintf(w, "Proof: %s\n", s.Link.Render(doc.ProofURL))
		fmt.Fprintln(w, s.Muted.Render(strings.Repeat("-", 40)))
	}

	if report.Rejected > 0 {
		fmt.Fprintln(w, s.Warning.Render(fmt.Sprintf("Skipped %d invalid pull requests.", report.Rejected)))
	}
	if report.Saved {
		fmt.Fprintln(w, s.Success.Render("Data saved to "+corpusPath))
	}
	if stored {
		fmt.Fprintln(w, s.Success.Render(fmt.Sprintf("Stored %d new documents.", len(report.Added))))
	}
}
